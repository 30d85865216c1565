package metadata

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xxxsen/retrosync/internal/model"
)

// pegasusAssetKeyToType maps assets.* keys onto asset types. Keys are
// compared lower case.
var pegasusAssetKeyToType = map[string]model.AssetType{
	"boxfront":   model.AssetBoxFront,
	"box_front":  model.AssetBoxFront,
	"boxback":    model.AssetBoxBack,
	"logo":       model.AssetLogo,
	"wheel":      model.AssetWheel,
	"marquee":    model.AssetMarquee,
	"video":      model.AssetVideo,
	"manual":     model.AssetManual,
	"screenshot": model.AssetScreenshotGameplay,
	"titlescreen": model.AssetScreenshotTitle,
	"background": model.AssetFanart,
	"music":      "",
}

// PegasusLoader loads games from a metadata.pegasus.txt file.
type PegasusLoader struct{}

// NewPegasusLoader builds the loader.
func NewPegasusLoader() *PegasusLoader {
	return &PegasusLoader{}
}

func (l *PegasusLoader) Name() string {
	return "pegasus"
}

func (l *PegasusLoader) Load(ctx context.Context, input *LoaderInput) (*LoaderResult, error) {
	system := input.System
	result := &LoaderResult{}
	metadataPath := resolvePegasusPath(system)
	if metadataPath == "" || !fileExists(metadataPath) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("No metadata.pegasus.txt found for system '%s'.", system.SystemID))
		return result, nil
	}
	doc, err := ParsePegasusFile(metadataPath)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Failed to parse pegasus metadata for system '%s': %v", system.SystemID, err))
		return result, nil
	}

	metadataDir := filepath.Dir(metadataPath)
	deepVerify := strings.EqualFold(strings.TrimSpace(input.ScanMode), ScanDeep) || input.ScanMode == ""
	var games []*model.Game
	for i := range doc.Games {
		if input.Cancel.Cancelled() {
			return nil, model.ErrCancelled
		}
		entry := &doc.Games[i]
		for _, file := range entry.Files {
			games = append(games, gameFromPegasusEntry(system, entry, file, metadataDir, deepVerify))
		}
	}
	sortGamesByRomName(games)
	result.Games = games
	return result, nil
}

func gameFromPegasusEntry(system *model.System, entry *PegasusGame, file, metadataDir string, deepVerify bool) *model.Game {
	romPath := resolveMetadataPath(file, system.RomRoot, metadataDir)
	description := entry.Description
	if description == "" {
		description = entry.Summary
	}
	game := &model.Game{
		RomPath:     romPath,
		SystemID:    system.SystemID,
		Title:       entry.Title,
		SortTitle:   entry.SortBy,
		ReleaseDate: parseESDate(strings.ReplaceAll(entry.Release, "/", "-")),
		Genres:      append([]string{}, entry.Genres...),
		Developer:   strings.Join(entry.Developers, ", "),
		Publisher:   strings.Join(entry.Publishers, ", "),
		Rating:      parsePegasusRating(entry.Rating),
		Players:     entry.Players,
		Description: description,
	}
	assetKeys := make([]string, 0, len(entry.Assets))
	for key := range entry.Assets {
		assetKeys = append(assetKeys, key)
	}
	sort.Strings(assetKeys)
	for _, key := range assetKeys {
		value := entry.Assets[key]
		assetType, ok := pegasusAssetKeyToType[strings.ToLower(key)]
		if !ok || assetType == "" || strings.TrimSpace(value) == "" {
			continue
		}
		assetPath := resolveMetadataPath(value, system.RomRoot, metadataDir)
		verification := model.VerifyUnchecked
		if deepVerify {
			verification = verifyAssetPath(assetPath)
		}
		game.Assets = append(game.Assets, model.Asset{
			Type:         assetType,
			FilePath:     assetPath,
			Format:       assetFormat(assetPath),
			MatchKey:     "explicit_path",
			Verification: verification,
		})
	}
	return game
}

// parsePegasusRating accepts both "85%" and bare 0..1 floats.
func parsePegasusRating(value string) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if strings.HasSuffix(trimmed, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(trimmed, "%")), 64)
		if err != nil {
			return 0
		}
		return pct / 100
	}
	return parseFloatValue(trimmed)
}

func resolvePegasusPath(system *model.System) string {
	for _, p := range system.MetadataPaths {
		if strings.EqualFold(filepath.Base(p), "metadata.pegasus.txt") {
			return p
		}
	}
	if len(system.MetadataPaths) > 0 {
		return system.MetadataPaths[0]
	}
	if system.RomRoot == "" {
		return ""
	}
	return filepath.Join(system.RomRoot, "metadata.pegasus.txt")
}
