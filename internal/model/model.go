package model

import (
	"path/filepath"
	"strings"
	"time"
)

// AssetType is the closed set of media kinds a game can carry.
type AssetType string

const (
	AssetBoxFront           AssetType = "box_front"
	AssetBoxBack            AssetType = "box_back"
	AssetBoxSpine           AssetType = "box_spine"
	AssetDisc               AssetType = "disc"
	AssetScreenshotGameplay AssetType = "screenshot_gameplay"
	AssetScreenshotTitle    AssetType = "screenshot_title"
	AssetScreenshotMenu     AssetType = "screenshot_menu"
	AssetMarquee            AssetType = "marquee"
	AssetWheel              AssetType = "wheel"
	AssetLogo               AssetType = "logo"
	AssetFanart             AssetType = "fanart"
	AssetBackground         AssetType = "background"
	AssetMiximage           AssetType = "miximage"
	AssetVideo              AssetType = "video"
	AssetManual             AssetType = "manual"
	AssetBezel              AssetType = "bezel"
	AssetOverlayCfg         AssetType = "overlay_cfg"
)

// MetadataSource identifies where a system's metadata came from.
type MetadataSource string

const (
	SourceNone            MetadataSource = "none"
	SourceGamelistXML     MetadataSource = "gamelist_xml"
	SourceLaunchBoxXML    MetadataSource = "launchbox_xml"
	SourceLaunchBoxDB     MetadataSource = "launchbox_sqlite"
	SourceRomlist         MetadataSource = "romlist_txt"
	SourcePegasus         MetadataSource = "metadata_pegasus"
	SourceRetroArchLPL    MetadataSource = "retroarch_lpl"
	SourceMiyooGamelist   MetadataSource = "miyoogamelist"
	SourceChecksumCatalog MetadataSource = "dat_xml"
)

// VerificationState tracks whether an asset path has been checked on disk.
// Transitions only move away from unchecked; verifiers never downgrade a
// verified state back.
type VerificationState string

const (
	VerifyUnchecked VerificationState = "unchecked"
	VerifyExists    VerificationState = "verified_exists"
	VerifyMissing   VerificationState = "verified_missing"
)

// Asset is a single media file attached to a game.
type Asset struct {
	Type         AssetType
	FilePath     string
	Format       string
	MatchKey     string
	Verification VerificationState
}

// Game is the normalized per-title record shared by every loader and writer.
type Game struct {
	RomPath     string
	SystemID    string
	Title       string
	SortTitle   string
	Regions     []string
	Languages   []string
	ReleaseDate time.Time
	Genres      []string
	Developer   string
	Publisher   string
	Rating      float64
	Favorite    bool
	Hidden      bool
	Players     string
	PlayCount   int
	LastPlayed  time.Time
	Description string
	Assets      []Asset
	CRC         string
	SHA1        string
}

// RomFilename returns the ROM file name with extension.
func (g *Game) RomFilename() string {
	return filepath.Base(g.RomPath)
}

// RomBasename returns the ROM file name without extension.
func (g *Game) RomBasename() string {
	name := filepath.Base(g.RomPath)
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext)
}

// System describes one platform folder inside a source library.
type System struct {
	SystemID          string
	DisplayName       string
	RomRoot           string
	AssetRoots        map[AssetType]string
	MetadataSource    MetadataSource
	MetadataPaths     []string
	DetectedEcosystem string
}

// Library is a fully loaded source tree.
type Library struct {
	SourceRoot        string
	Systems           map[string]*System
	GamesBySystem     map[string][]*Game
	DetectedEcosystem string
	Confidence        float64
}

// NewLibrary builds an empty library rooted at sourceRoot.
func NewLibrary(sourceRoot string) *Library {
	return &Library{
		SourceRoot:    sourceRoot,
		Systems:       make(map[string]*System),
		GamesBySystem: make(map[string][]*Game),
	}
}
