package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xxxsen/retrosync/internal/metadata"
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

func TestResolveCollision(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	taken := map[string]struct{}{}

	first, renamed := resolveCollision(filepath.Join(dir, "game.zip"), taken, true)
	assert.False(t, renamed)
	assert.Equal(t, filepath.Join(dir, "game.zip"), first)

	second, renamed := resolveCollision(filepath.Join(dir, "game.zip"), taken, true)
	assert.True(t, renamed)
	assert.Equal(t, filepath.Join(dir, "game_2.zip"), second)

	third, renamed := resolveCollision(filepath.Join(dir, "game.zip"), taken, true)
	assert.True(t, renamed)
	assert.Equal(t, filepath.Join(dir, "game_3.zip"), third)

	// Files already on disk count only when checkDisk is set.
	writeTestFile(t, filepath.Join(dir, "ondisk.zip"), "x")
	got, renamed := resolveCollision(filepath.Join(dir, "ondisk.zip"), map[string]struct{}{}, true)
	assert.True(t, renamed)
	assert.Equal(t, filepath.Join(dir, "ondisk_2.zip"), got)
	got, renamed = resolveCollision(filepath.Join(dir, "ondisk.zip"), map[string]struct{}{}, false)
	assert.False(t, renamed)
	assert.Equal(t, filepath.Join(dir, "ondisk.zip"), got)
}

func TestPlannerLayouts(t *testing.T) {
	t.Parallel()

	out := string(filepath.Separator) + "out"

	batocera, ok := PlannerFor("batocera")
	assert.True(t, ok)
	plan := batocera.Plan(out, "snes", "Contra", "Contra.sfc")
	assert.Equal(t, filepath.Join(out, "roms", "snes", "Contra.sfc"), plan.Rom)
	assert.Equal(t, filepath.Join(out, "roms", "snes", "gamelist.xml"), plan.MetadataFile)
	assert.Equal(t, filepath.Join(out, "roms", "snes", "images", "Contra-image"), plan.Assets[SlotImage])
	assert.Equal(t, filepath.Join(out, "roms", "snes", "videos", "Contra-video"), plan.Assets[SlotVideo])

	esde, ok := PlannerFor("es_de")
	assert.True(t, ok)
	plan = esde.Plan(out, "snes", "Contra", "Contra.sfc")
	assert.Equal(t, filepath.Join(out, "gamelists", "snes", "gamelist.xml"), plan.MetadataFile)
	assert.Equal(t, filepath.Join(out, "downloaded_media", "snes", "covers", "Contra"), plan.Assets[SlotImage])
	assert.Equal(t, filepath.Join(out, "downloaded_media", "snes", "fanart", "Contra-bezel"), plan.Assets[SlotBezel])

	launchbox, ok := PlannerFor("launchbox")
	assert.True(t, ok)
	assert.Equal(t, "Super Nintendo Entertainment System", launchbox.DestSystemName("snes", nil))
	assert.Equal(t, "Custom", launchbox.DestSystemName("snes", map[string]string{"snes": "Custom"}))
	plan = launchbox.Plan(out, "Arcade", "mslug", "mslug.zip")
	assert.Equal(t, filepath.Join(out, "Games", "Arcade", "mslug.zip"), plan.Rom)
	assert.Equal(t, filepath.Join(out, "Data", "Platforms", "Arcade.xml"), plan.MetadataFile)
	assert.Equal(t, filepath.Join(out, "Images", "Arcade", "Box - Front", "mslug"), plan.Assets[SlotImage])

	_, ok = PlannerFor("steamdeck")
	assert.False(t, ok)
}

func TestGamelistEntryFormatting(t *testing.T) {
	t.Parallel()

	game := &model.Game{
		RomPath:     "/src/roms/snes/Contra III (USA).sfc",
		SystemID:    "snes",
		Title:       "Contra III: The Alien Wars",
		Genres:      []string{"Run and gun", "Action"},
		Languages:   []string{"en", "ja"},
		Regions:     []string{"USA"},
		Rating:      0.8,
		PlayCount:   4,
		LastPlayed:  time.Date(2024, 5, 2, 21, 30, 15, 0, time.UTC),
		ReleaseDate: time.Date(1992, 4, 6, 0, 0, 0, 0, time.UTC),
	}
	metadataDir := filepath.Join("/out", "roms", "snes")
	entry := gamelistEntryFor(game, filepath.Join(metadataDir, "Contra III (USA).sfc"), map[string]string{
		SlotImage: filepath.Join(metadataDir, "images", "Contra III (USA)-image.png"),
	}, metadataDir)

	assert.Equal(t, "./Contra III (USA).sfc", entry.Path)
	assert.Equal(t, "./images/Contra III (USA)-image.png", entry.Image)
	assert.Equal(t, []string{"Run and gun, Action"}, entry.Genres)
	assert.Equal(t, "en, ja", entry.Lang)
	assert.Equal(t, "USA", entry.Region)
	assert.Equal(t, "false", entry.Favorite)
	assert.Equal(t, "false", entry.Hidden)
	assert.Equal(t, "4", entry.PlayCount)
	assert.Equal(t, "20240502T213015", entry.LastPlayed)
	assert.Equal(t, "0.80", entry.Rating)
	assert.Equal(t, "19920406T000000", entry.ReleaseDate)
}

func TestLaunchBoxEntryFormatting(t *testing.T) {
	t.Parallel()

	out := filepath.Join(string(filepath.Separator), "library")
	game := &model.Game{
		RomPath:     "/src/arcade/mslug.zip",
		Title:       "Metal Slug",
		Rating:      4.5,
		Favorite:    true,
		ReleaseDate: time.Date(1996, 4, 19, 0, 0, 0, 0, time.UTC),
		LastPlayed:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	entry := launchboxEntryFor(game, filepath.Join(out, "Games", "Arcade", "mslug.zip"), nil, out, "Arcade")

	assert.Equal(t, filepath.Join("Games", "Arcade", "mslug.zip"), entry.ApplicationPath)
	assert.Equal(t, "Arcade", entry.Platform)
	assert.Equal(t, "true", entry.Favorite)
	assert.Equal(t, "4.50", entry.CommunityStarRating)
	assert.Equal(t, "4.50", entry.StarRating)
	assert.Equal(t, "1996-04-19", entry.ReleaseDate)
	assert.Equal(t, "2024-01-02T03:04:05", entry.LastPlayedDate)

	abs := filepath.Join(string(filepath.Separator), "elsewhere", "mslug.zip")
	entry = launchboxEntryFor(game, abs, nil, out, "Arcade")
	assert.Equal(t, abs, entry.ApplicationPath)
}

// sourceLibrary builds a minimal one-game library with no media folders so
// counter assertions stay exact.
func sourceLibrary(t *testing.T, ecosystem string) (*model.Library, string) {
	t.Helper()
	src := t.TempDir()
	romDir := filepath.Join(src, "roms", "snes")
	writeTestFile(t, filepath.Join(romDir, "Contra III (USA).sfc"), "rom data")

	library := model.NewLibrary(src)
	library.DetectedEcosystem = ecosystem
	library.Systems["snes"] = &model.System{
		SystemID:          "snes",
		DisplayName:       "snes",
		RomRoot:           romDir,
		DetectedEcosystem: ecosystem,
	}
	library.GamesBySystem["snes"] = []*model.Game{
		{
			RomPath:  filepath.Join(romDir, "Contra III (USA).sfc"),
			SystemID: "snes",
			Title:    "Contra III: The Alien Wars",
		},
	}
	return library, src
}

func TestEngineConvertToBatocera(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	out := t.TempDir()
	req := NewRequest(library, "batocera", out)

	result, err := NewEngine().Run(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.SystemsProcessed)
	assert.Equal(t, 1, result.GamesProcessed)
	assert.Equal(t, 1, result.RomsCopied)
	assert.Zero(t, result.AssetsCopied)
	assert.NotEmpty(t, result.PreflightChecks)

	assert.FileExists(t, filepath.Join(out, "roms", "snes", "Contra III (USA).sfc"))
	raw, err := os.ReadFile(filepath.Join(out, "roms", "snes", "gamelist.xml"))
	assert.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "<path>./Contra III (USA).sfc</path>")
	assert.Contains(t, content, "<name>Contra III: The Alien Wars</name>")
	assert.Contains(t, content, "<favorite>false</favorite>")
	assert.Contains(t, content, "<hidden>false</hidden>")
}

func TestEngineCopiesDeclaredAndFallbackAssets(t *testing.T) {
	t.Parallel()

	library, src := sourceLibrary(t, "es_classic")
	imagePath := filepath.Join(src, "roms", "snes", "images", "Contra III (USA)-image.png")
	writeTestFile(t, imagePath, "png data")
	library.GamesBySystem["snes"][0].Assets = []model.Asset{
		{
			Type:         model.AssetBoxFront,
			FilePath:     imagePath,
			Format:       "png",
			Verification: model.VerifyUnchecked,
		},
	}

	out := t.TempDir()
	result, err := NewEngine().Run(context.Background(), NewRequest(library, "batocera", out))
	assert.NoError(t, err)

	// The declared box front serves the image slot; the fallback folder
	// search reuses the same file for thumbnail and marquee.
	assert.Equal(t, 3, result.AssetsCopied)
	imagesDir := filepath.Join(out, "roms", "snes", "images")
	assert.FileExists(t, filepath.Join(imagesDir, "Contra III (USA)-image.png"))
	assert.FileExists(t, filepath.Join(imagesDir, "Contra III (USA)-thumb.png"))
	assert.FileExists(t, filepath.Join(imagesDir, "Contra III (USA)-marquee.png"))

	raw, err := os.ReadFile(filepath.Join(out, "roms", "snes", "gamelist.xml"))
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "<image>./images/Contra III (USA)-image.png</image>")
	assert.Contains(t, string(raw), "<thumbnail>./images/Contra III (USA)-thumb.png</thumbnail>")
}

func TestEngineWarnsOnMissingDeclaredAsset(t *testing.T) {
	t.Parallel()

	library, src := sourceLibrary(t, "es_classic")
	library.GamesBySystem["snes"][0].Assets = []model.Asset{
		{
			Type:         model.AssetVideo,
			FilePath:     filepath.Join(src, "roms", "snes", "videos", "gone.mp4"),
			Verification: model.VerifyUnchecked,
		},
	}

	result, err := NewEngine().Run(context.Background(), NewRequest(library, "batocera", t.TempDir()))
	assert.NoError(t, err)
	assert.Equal(t, 1, result.AssetsMissingSkipped)
	assert.Equal(t, model.VerifyMissing, library.GamesBySystem["snes"][0].Assets[0].Verification)
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Missing video asset") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngineDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	out := t.TempDir()
	req := NewRequest(library, "batocera", out)
	req.DryRun = true

	result, err := NewEngine().Run(context.Background(), req)
	assert.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.RomsCopied)

	entries, err := os.ReadDir(out)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEngineAutoRenamesCollisions(t *testing.T) {
	t.Parallel()

	library, src := sourceLibrary(t, "es_classic")
	otherDir := filepath.Join(src, "roms", "snes", "alt")
	writeTestFile(t, filepath.Join(otherDir, "Contra III (USA).sfc"), "other rom")
	library.GamesBySystem["snes"] = append(library.GamesBySystem["snes"], &model.Game{
		RomPath:  filepath.Join(otherDir, "Contra III (USA).sfc"),
		SystemID: "snes",
		Title:    "Contra III (alt dump)",
	})

	out := t.TempDir()
	result, err := NewEngine().Run(context.Background(), NewRequest(library, "batocera", out))
	assert.NoError(t, err)
	assert.Equal(t, 2, result.RomsCopied)
	assert.Equal(t, 1, result.FilesRenamed)
	assert.FileExists(t, filepath.Join(out, "roms", "snes", "Contra III (USA).sfc"))
	assert.FileExists(t, filepath.Join(out, "roms", "snes", "Contra III (USA)_2.sfc"))
}

func TestEngineDuplicatesWithoutAutoRenameSkipOnlyDuplicates(t *testing.T) {
	t.Parallel()

	library, src := sourceLibrary(t, "es_classic")
	otherDir := filepath.Join(src, "roms", "snes", "alt")
	writeTestFile(t, filepath.Join(otherDir, "Contra III (USA).sfc"), "other rom")
	library.GamesBySystem["snes"] = append(library.GamesBySystem["snes"], &model.Game{
		RomPath:  filepath.Join(otherDir, "Contra III (USA).sfc"),
		SystemID: "snes",
		Title:    "Contra III (alt dump)",
	})
	nesDir := filepath.Join(src, "roms", "nes")
	writeTestFile(t, filepath.Join(nesDir, "Mario.nes"), "nes rom")
	library.Systems["nes"] = &model.System{
		SystemID:          "nes",
		DisplayName:       "nes",
		RomRoot:           nesDir,
		DetectedEcosystem: "es_classic",
	}
	library.GamesBySystem["nes"] = []*model.Game{
		{
			RomPath:  filepath.Join(nesDir, "Mario.nes"),
			SystemID: "nes",
			Title:    "Mario",
		},
	}

	out := t.TempDir()
	req := NewRequest(library, "batocera", out)
	req.AllowAutoRename = false
	result, err := NewEngine().Run(context.Background(), req)
	assert.NoError(t, err)

	// The colliding second dump is skipped with a warning; everything else
	// still converts.
	assert.Equal(t, 3, result.GamesProcessed)
	assert.Equal(t, 2, result.RomsCopied)
	assert.Equal(t, 1, result.FilesSkipped)
	assert.Zero(t, result.FilesRenamed)
	assert.FileExists(t, filepath.Join(out, "roms", "nes", "Mario.nes"))
	assert.FileExists(t, filepath.Join(out, "roms", "snes", "Contra III (USA).sfc"))
	assert.NoFileExists(t, filepath.Join(out, "roms", "snes", "Contra III (USA)_2.sfc"))

	foundCheck := false
	for _, line := range result.PreflightChecks {
		if strings.Contains(line, "duplicate destination paths detected") {
			foundCheck = true
		}
	}
	assert.True(t, foundCheck)
	foundWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Destination already exists") {
			foundWarning = true
		}
	}
	assert.True(t, foundWarning)
}

func TestConvertGamePanicBecomesError(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	req := NewRequest(library, "batocera", t.TempDir())
	game := library.GamesBySystem["snes"][0]
	search := &metadata.AssetSearch{
		SourceRoot: library.SourceRoot,
		Ecosystem:  "es_classic",
		System:     library.Systems["snes"],
	}

	// A nil plan blows up on the first dereference; the engine must hand
	// back an error instead of unwinding the whole batch.
	entry, lbEntry, err := NewEngine().convertGame(context.Background(), req, game, nil, "snes", "", search, false, map[string]struct{}{}, &Result{})
	assert.Nil(t, entry)
	assert.Nil(t, lbEntry)
	assert.ErrorContains(t, err, "panic")
}

func TestEngineUnknownTarget(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	_, err := NewEngine().Run(context.Background(), NewRequest(library, "steamdeck", t.TempDir()))
	assert.ErrorContains(t, err, "unknown conversion target")
}

func TestEngineEmptySelection(t *testing.T) {
	t.Parallel()

	library := model.NewLibrary(t.TempDir())
	result, err := NewEngine().Run(context.Background(), NewRequest(library, "batocera", t.TempDir()))
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Warnings)
	assert.Zero(t, result.GamesProcessed)
}

func TestEngineMergesExistingGamelist(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	out := t.TempDir()
	writeTestFile(t, filepath.Join(out, "roms", "snes", "gamelist.xml"), `<?xml version="1.0"?>
<gameList>
  <game>
    <path>./Zelda.sfc</path>
    <name>The Legend of Zelda</name>
  </game>
</gameList>
`)

	_, err := NewEngine().Run(context.Background(), NewRequest(library, "batocera", out))
	assert.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(out, "roms", "snes", "gamelist.xml"))
	assert.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "The Legend of Zelda")
	assert.Contains(t, content, "Contra III: The Alien Wars")
	// entries come out sorted by identity key
	assert.Less(t, strings.Index(content, "Contra III"), strings.Index(content, "Zelda"))
}

func TestPreviewConflictsAndKeepExisting(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	out := t.TempDir()
	writeTestFile(t, filepath.Join(out, "roms", "snes", "gamelist.xml"), `<?xml version="1.0"?>
<gameList>
  <game>
    <path>./Contra III (USA).sfc</path>
    <name>Old Contra Entry</name>
  </game>
</gameList>
`)

	req := NewRequest(library, "batocera", out)
	conflicts, err := NewEngine().PreviewConflicts(req)
	assert.NoError(t, err)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, "snes", conflicts[0].SystemID)
	assert.Equal(t, "Old Contra Entry", conflicts[0].ExistingTitle)

	req.ConflictDecisions = map[string]string{conflicts[0].IdentityKey: DecisionKeepExisting}
	result, err := NewEngine().Run(context.Background(), req)
	assert.NoError(t, err)
	assert.Zero(t, result.RomsCopied)
	assert.Equal(t, 1, result.FilesSkipped)
	// a skipped game still counts as attempted
	assert.Equal(t, 1, result.GamesProcessed)

	raw, err := os.ReadFile(filepath.Join(out, "roms", "snes", "gamelist.xml"))
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "Old Contra Entry")
	assert.NotContains(t, string(raw), "Alien Wars")
}

func TestEngineConvertToLaunchBox(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	out := t.TempDir()
	result, err := NewEngine().Run(context.Background(), NewRequest(library, "launchbox", out))
	assert.NoError(t, err)
	assert.Equal(t, 1, result.GamesProcessed)

	platform := "Super Nintendo Entertainment System"
	assert.FileExists(t, filepath.Join(out, "Games", platform, "Contra III (USA).sfc"))
	raw, err := os.ReadFile(filepath.Join(out, "Data", "Platforms", platform+".xml"))
	assert.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "<Title>Contra III: The Alien Wars</Title>")
	assert.Contains(t, content, "<Platform>"+platform+"</Platform>")
}

func TestEngineMissingRomWarns(t *testing.T) {
	t.Parallel()

	library, src := sourceLibrary(t, "es_classic")
	library.GamesBySystem["snes"] = append(library.GamesBySystem["snes"], &model.Game{
		RomPath:  filepath.Join(src, "roms", "snes", "Gone.sfc"),
		SystemID: "snes",
		Title:    "Gone",
	})

	result, err := NewEngine().Run(context.Background(), NewRequest(library, "batocera", t.TempDir()))
	assert.NoError(t, err)
	assert.Equal(t, 1, result.RomsCopied)
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "ROM file missing for 'Gone'") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngineExportsCatalogs(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	out := t.TempDir()
	req := NewRequest(library, "batocera", out)
	req.ExportDat = true

	_, err := NewEngine().Run(context.Background(), req)
	assert.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "dats", "snes.dat"))
}

func TestEngineCancelled(t *testing.T) {
	t.Parallel()

	library, _ := sourceLibrary(t, "es_classic")
	req := NewRequest(library, "batocera", t.TempDir())
	req.Cancel = func() bool { return true }
	_, err := NewEngine().Run(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrCancelled)
}
