package metadata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xxxsen/retrosync/internal/model"

	"github.com/stretchr/testify/assert"
)

func writeTestFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestESGamelistLoaderMetaMode(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romRoot := filepath.Join(root, "roms", "snes")
	writeTestFile(t, filepath.Join(romRoot, "gamelist.xml"), `<?xml version="1.0"?>
<gameList>
  <game>
    <path>./Contra III (USA).sfc</path>
    <name>Contra III: The Alien Wars</name>
    <image>./images/Contra III (USA)-image.png</image>
    <genre>Action; Shooter</genre>
    <lang>en,ja</lang>
    <favorite>yes</favorite>
    <playcount>3</playcount>
    <releasedate>19920228T000000</releasedate>
  </game>
  <game>
    <name>No Path Entry</name>
  </game>
</gameList>
`)
	system := &model.System{
		SystemID:          "snes",
		DisplayName:       "snes",
		RomRoot:           romRoot,
		MetadataSource:    model.SourceGamelistXML,
		MetadataPaths:     []string{filepath.Join(romRoot, "gamelist.xml")},
		DetectedEcosystem: "es_classic",
	}
	result, err := NewESGamelistLoader().Load(context.Background(), &LoaderInput{
		SourceRoot: root,
		System:     system,
		ScanMode:   ScanMeta,
	})
	assert.NoError(t, err)
	assert.Len(t, result.Games, 1)
	game := result.Games[0]
	assert.Equal(t, "Contra III: The Alien Wars", game.Title)
	assert.Equal(t, filepath.Join(romRoot, "Contra III (USA).sfc"), game.RomPath)
	assert.Equal(t, []string{"Action", "Shooter"}, game.Genres)
	assert.Equal(t, []string{"en", "ja"}, game.Languages)
	assert.True(t, game.Favorite)
	assert.Equal(t, 3, game.PlayCount)
	assert.Equal(t, 1992, game.ReleaseDate.Year())
	assert.Len(t, game.Assets, 1)
	assert.Equal(t, model.AssetBoxFront, game.Assets[0].Type)
	assert.Equal(t, model.VerifyUnchecked, game.Assets[0].Verification)
	assert.Equal(t, "explicit_path", game.Assets[0].MatchKey)
}

func TestESGamelistLoaderDeepReconciliation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romRoot := filepath.Join(root, "roms", "snes")
	writeTestFile(t, filepath.Join(romRoot, "gamelist.xml"), `<?xml version="1.0"?>
<gameList>
  <game>
    <path>./Contra III (USA).sfc</path>
    <name>Contra III: The Alien Wars</name>
  </game>
</gameList>
`)
	writeTestFile(t, filepath.Join(romRoot, "Contra III (USA).sfc"), "rom")
	writeTestFile(t, filepath.Join(romRoot, "Gradius III (USA).sfc"), "rom")
	writeTestFile(t, filepath.Join(romRoot, "images", "Gradius III (USA)-image.png"), "img")

	system := &model.System{
		SystemID:          "snes",
		DisplayName:       "snes",
		RomRoot:           romRoot,
		MetadataSource:    model.SourceGamelistXML,
		MetadataPaths:     []string{filepath.Join(romRoot, "gamelist.xml")},
		DetectedEcosystem: "es_classic",
	}
	result, err := NewESGamelistLoader().Load(context.Background(), &LoaderInput{
		SourceRoot: root,
		System:     system,
		ScanMode:   ScanDeep,
	})
	assert.NoError(t, err)
	assert.Len(t, result.Games, 2)

	byTitle := make(map[string]*model.Game)
	for _, game := range result.Games {
		byTitle[game.Title] = game
	}
	// metadata entry kept, scanned-only ROM added with stem title
	assert.Contains(t, byTitle, "Contra III: The Alien Wars")
	assert.Contains(t, byTitle, "Gradius III (USA)")

	gradius := byTitle["Gradius III (USA)"]
	assert.Len(t, gradius.Assets, 1)
	assert.Equal(t, model.AssetBoxFront, gradius.Assets[0].Type)
	assert.Equal(t, model.VerifyExists, gradius.Assets[0].Verification)
	assert.Equal(t, "filename_stem", gradius.Assets[0].MatchKey)
}

func TestESGamelistLoaderMissingGamelistWarns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romRoot := filepath.Join(root, "roms", "psx")
	writeTestFile(t, filepath.Join(romRoot, "game.chd"), "rom")

	system := &model.System{
		SystemID:          "psx",
		DisplayName:       "psx",
		RomRoot:           romRoot,
		DetectedEcosystem: "es_classic",
	}
	result, err := NewESGamelistLoader().Load(context.Background(), &LoaderInput{
		SourceRoot: root,
		System:     system,
		ScanMode:   ScanDeep,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Warnings)
	assert.Len(t, result.Games, 1)
	assert.Equal(t, "game", result.Games[0].Title)
}

func TestLaunchBoxXMLLoader(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	platformPath := filepath.Join(root, "Data", "Platforms", "Super Nintendo.xml")
	writeTestFile(t, platformPath, `<?xml version="1.0" standalone="yes"?>
<LaunchBox>
  <Game>
    <Title>Contra III: The Alien Wars</Title>
    <ApplicationPath>Games\Super Nintendo\Contra III.sfc</ApplicationPath>
    <FrontImagePath>Images\Super Nintendo\Box - Front\Contra III.png</FrontImagePath>
    <CommunityStarRating>4.5</CommunityStarRating>
    <PlayCounter>9</PlayCounter>
    <Favorite>true</Favorite>
    <ReleaseDate>1992-02-28</ReleaseDate>
    <Genre>Run and Gun; Shooter</Genre>
  </Game>
  <Game>
    <Title>Broken entry without path</Title>
  </Game>
</LaunchBox>
`)
	system := &model.System{
		SystemID:          "snes",
		DisplayName:       "Super Nintendo",
		RomRoot:           root,
		MetadataSource:    model.SourceLaunchBoxXML,
		MetadataPaths:     []string{platformPath},
		DetectedEcosystem: "launchbox",
	}
	result, err := NewLaunchBoxXMLLoader().Load(context.Background(), &LoaderInput{
		SourceRoot: root,
		System:     system,
		ScanMode:   ScanDeep,
	})
	assert.NoError(t, err)
	assert.Len(t, result.Games, 1)
	game := result.Games[0]
	assert.Equal(t, filepath.Join(root, "Games", "Super Nintendo", "Contra III.sfc"), game.RomPath)
	assert.Equal(t, 4.5, game.Rating)
	assert.Equal(t, 9, game.PlayCount)
	assert.True(t, game.Favorite)
	assert.Equal(t, time.Date(1992, 2, 28, 0, 0, 0, 0, time.UTC), game.ReleaseDate)
	assert.Equal(t, []string{"Run and Gun", "Shooter"}, game.Genres)
	assert.Len(t, game.Assets, 1)
	assert.Equal(t, model.AssetBoxFront, game.Assets[0].Type)
}

func TestLaunchBoxDatabaseLoaderStub(t *testing.T) {
	t.Parallel()

	result, err := NewLaunchBoxDatabaseLoader().Load(context.Background(), &LoaderInput{
		System: &model.System{SystemID: "snes"},
	})
	assert.NoError(t, err)
	assert.Empty(t, result.Games)
	assert.Equal(t, []string{"LaunchBox SQLite loading is not implemented yet."}, result.Warnings)
}

func TestPegasusLoader(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romRoot := filepath.Join(root, "snes")
	writeTestFile(t, filepath.Join(romRoot, "metadata.pegasus.txt"), `collection: Super Nintendo
extensions: sfc, smc

game: Contra III: The Alien Wars
file: Contra III (USA).sfc
developer: Konami
genre: Action, Shooter
players: 2
release: 1992-02-28
rating: 85%
description: Run and gun
  across two planes.
assets.boxFront: media/Contra III.png
`)
	system := &model.System{
		SystemID:          "snes",
		DisplayName:       "snes",
		RomRoot:           romRoot,
		MetadataSource:    model.SourcePegasus,
		MetadataPaths:     []string{filepath.Join(romRoot, "metadata.pegasus.txt")},
		DetectedEcosystem: "pegasus",
	}
	result, err := NewPegasusLoader().Load(context.Background(), &LoaderInput{
		SourceRoot: root,
		System:     system,
		ScanMode:   ScanMeta,
	})
	assert.NoError(t, err)
	assert.Len(t, result.Games, 1)
	game := result.Games[0]
	assert.Equal(t, "Contra III: The Alien Wars", game.Title)
	assert.Equal(t, filepath.Join(romRoot, "Contra III (USA).sfc"), game.RomPath)
	assert.Equal(t, "Konami", game.Developer)
	assert.Equal(t, []string{"Action", "Shooter"}, game.Genres)
	assert.Equal(t, 0.85, game.Rating)
	assert.Equal(t, 1992, game.ReleaseDate.Year())
	assert.Equal(t, "Run and gun\nacross two planes.", game.Description)
	assert.Len(t, game.Assets, 1)
	assert.Equal(t, model.AssetBoxFront, game.Assets[0].Type)
}

func TestParsePegasusFileSkipsByteOrderMark(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.pegasus.txt")
	writeTestFile(t, path, "\uFEFFcollection: Super Nintendo\n\ngame: Contra III\nfile: Contra III (USA).sfc\n")
	doc, err := ParsePegasusFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "Super Nintendo", doc.Collection)
	assert.Len(t, doc.Games, 1)
	assert.Equal(t, "Contra III", doc.Games[0].Title)
}

func TestParsePegasusFileRejectsGarbage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.pegasus.txt")
	writeTestFile(t, path, "this is not pegasus metadata\n")
	_, err := ParsePegasusFile(path)
	assert.Error(t, err)
}

func TestInferAssetType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want model.AssetType
	}{
		{"/lib/images/Contra-image.png", model.AssetBoxFront},
		{"/lib/images/Contra-thumb.png", model.AssetScreenshotGameplay},
		{"/lib/images/Contra-marquee.png", model.AssetMarquee},
		{"/lib/videos/Contra-video.mp4", model.AssetVideo},
		{"/lib/covers/Contra.png", model.AssetBoxFront},
		{"/lib/titlescreens/Contra.png", model.AssetScreenshotTitle},
		{"/lib/Named_Snaps/Contra.png", model.AssetScreenshotGameplay},
		{"/lib/media/Contra.mp4", model.AssetVideo},
		{"/lib/manuals/Contra.pdf", model.AssetManual},
		{"/lib/fanart/Contra.jpg", model.AssetFanart},
		{"/lib/misc/Contra.png", model.AssetBoxFront},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, inferAssetType(filepath.FromSlash(tc.path)), "path %s", tc.path)
	}
}

func TestParseHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, parseBoolish("Yes"))
	assert.True(t, parseBoolish("1"))
	assert.False(t, parseBoolish("no"))
	assert.Equal(t, []string{"en", "ja"}, splitListValue("en | ja"))
	assert.Equal(t, time.Date(1992, 2, 28, 0, 0, 0, 0, time.UTC), parseESDate("19920228T000000"))
	assert.Equal(t, 1992, parseESDate("1992").Year())
	assert.True(t, parseESDate("not a date").IsZero())
}
