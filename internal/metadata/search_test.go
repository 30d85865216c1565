package metadata

import (
	"path/filepath"
	"testing"

	"github.com/xxxsen/retrosync/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestSafeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Metal Slug_ 2nd Mission", SafeFilename(`Metal Slug: 2nd Mission`))
	assert.Equal(t, "a_b_c_d_e_f_g_h_i", SafeFilename(`a<b>c:d"e/f\g|h?i`))
	assert.Equal(t, "trailing", SafeFilename("trailing.. "))
	assert.Equal(t, "untitled", SafeFilename("  ..  "))
	assert.Equal(t, "CON_file", SafeFilename("CON"))
	assert.Equal(t, "plain name", SafeFilename("plain name"))
}

func TestAssetSearchESFamily(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romDir := filepath.Join(root, "roms", "snes")
	romPath := filepath.Join(romDir, "Contra III (USA).sfc")
	writeTestFile(t, romPath, "rom")
	writeTestFile(t, filepath.Join(romDir, "images", "Contra III (USA)-image.png"), "png")
	writeTestFile(t, filepath.Join(romDir, "videos", "Contra III (USA).mp4"), "mp4")

	search := &AssetSearch{
		SourceRoot: root,
		Ecosystem:  "es_classic",
		System:     &model.System{SystemID: "snes", DisplayName: "snes"},
	}
	game := &model.Game{RomPath: romPath, Title: "Contra III: The Alien Wars"}

	assert.Equal(t, filepath.Join(romDir, "images", "Contra III (USA)-image.png"), search.Find(game, "image"))
	assert.Equal(t, filepath.Join(romDir, "videos", "Contra III (USA).mp4"), search.Find(game, "video"))
	assert.Empty(t, search.Find(game, "manual"))
	// no bezel convention exists in this family
	assert.Empty(t, search.Find(game, "bezel"))
}

func TestAssetSearchPrefersTitleMatch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	romDir := filepath.Join(root, "roms", "snes")
	romPath := filepath.Join(romDir, "contra3.sfc")
	writeTestFile(t, romPath, "rom")
	writeTestFile(t, filepath.Join(romDir, "images", "contra3.png"), "stem match")
	writeTestFile(t, filepath.Join(romDir, "images", "Contra III.png"), "title match")

	search := &AssetSearch{SourceRoot: root, Ecosystem: "batocera"}
	game := &model.Game{RomPath: romPath, Title: "Contra III"}
	assert.Equal(t, filepath.Join(romDir, "images", "Contra III.png"), search.Find(game, "image"))
}

func TestAssetSearchLaunchBox(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	platformDir := filepath.Join(root, "Images", "Super Nintendo Entertainment System")
	writeTestFile(t, filepath.Join(platformDir, "Box - Front", "Contra III_ The Alien Wars-01.png"), "box")
	writeTestFile(t, filepath.Join(platformDir, "Fanart - Background", "Contra III_ The Alien Wars-01.jpg"), "fanart")
	writeTestFile(t, filepath.Join(root, "Manuals", "Contra III_ The Alien Wars.pdf"), "manual")

	search := &AssetSearch{
		SourceRoot: root,
		Ecosystem:  "launchbox",
		System: &model.System{
			SystemID:    "snes",
			DisplayName: "Super Nintendo Entertainment System",
		},
	}
	game := &model.Game{
		RomPath: filepath.Join(root, "Games", "SNES", "Contra III (USA).sfc"),
		Title:   "Contra III: The Alien Wars",
	}

	assert.Equal(t, filepath.Join(platformDir, "Box - Front", "Contra III_ The Alien Wars-01.png"), search.Find(game, "image"))
	assert.Equal(t, filepath.Join(platformDir, "Fanart - Background", "Contra III_ The Alien Wars-01.jpg"), search.Find(game, "fanart"))
	assert.Equal(t, filepath.Join(root, "Manuals", "Contra III_ The Alien Wars.pdf"), search.Find(game, "manual"))
	assert.Empty(t, search.Find(game, "video"))
}
