package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

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

func TestGameMarksUncheckedAssets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "box.png")
	writeTestFile(t, present, "png")

	game := &model.Game{
		RomPath: filepath.Join(dir, "game.sfc"),
		Assets: []model.Asset{
			{Type: model.AssetBoxFront, FilePath: present, Verification: model.VerifyUnchecked},
			{Type: model.AssetVideo, FilePath: filepath.Join(dir, "gone.mp4"), Verification: model.VerifyUnchecked},
			{Type: model.AssetManual, FilePath: filepath.Join(dir, "seen.pdf"), Verification: model.VerifyExists},
		},
	}

	result := &Result{}
	Game(game, nil, result)

	// the pre-verified manual is not re-checked
	assert.Equal(t, 2, result.AssetsChecked)
	assert.Equal(t, model.VerifyExists, game.Assets[0].Verification)
	assert.Equal(t, model.VerifyMissing, game.Assets[1].Verification)
	assert.Equal(t, 2, result.Exists)
	assert.Equal(t, 1, result.Missing)
}

func TestGameRecoversMissingImage(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romDir := filepath.Join(root, "roms", "snes")
	romPath := filepath.Join(romDir, "Contra III (USA).sfc")
	writeTestFile(t, romPath, "rom")
	fallback := filepath.Join(romDir, "images", "Contra III (USA).png")
	writeTestFile(t, fallback, "png")

	search := &metadata.AssetSearch{SourceRoot: root, Ecosystem: "es_classic"}
	game := &model.Game{
		RomPath: romPath,
		Title:   "Contra III",
		Assets: []model.Asset{
			{Type: model.AssetBoxFront, FilePath: filepath.Join(romDir, "gone.png"), Verification: model.VerifyUnchecked},
		},
	}

	result := &Result{}
	Game(game, search, result)

	assert.Equal(t, 1, result.Recovered)
	assert.Equal(t, fallback, game.Assets[0].FilePath)
	assert.Equal(t, model.VerifyExists, game.Assets[0].Verification)
	assert.Equal(t, "png", game.Assets[0].Format)
}

func TestGameAppendsRecoveredAssetWhenNoneDeclared(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romDir := filepath.Join(root, "roms", "snes")
	romPath := filepath.Join(romDir, "Contra III (USA).sfc")
	writeTestFile(t, romPath, "rom")
	writeTestFile(t, filepath.Join(romDir, "videos", "Contra III (USA).mp4"), "mp4")

	search := &metadata.AssetSearch{SourceRoot: root, Ecosystem: "batocera"}
	game := &model.Game{RomPath: romPath, Title: "Contra III"}

	result := &Result{}
	Game(game, search, result)

	assert.Equal(t, 1, result.Recovered)
	assert.Len(t, game.Assets, 1)
	assert.Equal(t, model.AssetVideo, game.Assets[0].Type)
	assert.Equal(t, "fallback_folder", game.Assets[0].MatchKey)
}

func TestLibraryVerification(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romDir := filepath.Join(root, "roms", "snes")
	romPath := filepath.Join(romDir, "Contra III (USA).sfc")
	writeTestFile(t, romPath, "rom")
	box := filepath.Join(romDir, "images", "Contra III (USA)-image.png")
	writeTestFile(t, box, "png")

	library := model.NewLibrary(root)
	library.DetectedEcosystem = "batocera"
	library.Systems["snes"] = &model.System{SystemID: "snes", DisplayName: "snes", DetectedEcosystem: "batocera"}
	library.GamesBySystem["snes"] = []*model.Game{
		{
			RomPath: romPath,
			Title:   "Contra III",
			Assets: []model.Asset{
				{Type: model.AssetBoxFront, FilePath: box, Verification: model.VerifyUnchecked},
			},
		},
	}

	result, err := Library(context.Background(), library, Options{})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.AssetsChecked)
	assert.GreaterOrEqual(t, result.Exists, 1)
	assert.Zero(t, result.Missing)
}

func TestLibraryCancelled(t *testing.T) {
	t.Parallel()

	library := model.NewLibrary(t.TempDir())
	library.GamesBySystem["snes"] = []*model.Game{{RomPath: "x.sfc"}}
	_, err := Library(context.Background(), library, Options{Cancel: func() bool { return true }})
	assert.ErrorIs(t, err, model.ErrCancelled)
}
