package detect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xxxsen/retrosync/internal/model"

	"github.com/stretchr/testify/assert"
)

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDetectBatoceraStyleLibrary(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "roms", "snes", "gamelist.xml"), "<gameList/>")
	mustWriteFile(t, filepath.Join(root, "roms", "snes", "Contra.sfc"), "rom")
	mustWriteFile(t, filepath.Join(root, "roms", "snes", "images", "Contra-image.png"), "img")

	result, err := New().Detect(context.Background(), root, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "batocera", result.Ecosystem)
	assert.Equal(t, "es_family", result.Family)
	assert.NotEmpty(t, result.Systems)
	assert.Equal(t, "snes", result.Systems[0].SystemID)
	assert.Equal(t, model.SourceGamelistXML, result.Systems[0].MetadataSource)
}

func TestDetectPlainESClassic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "roms", "psx", "gamelist.xml"), "<gameList/>")
	mustWriteFile(t, filepath.Join(root, "roms", "psx", "game.chd"), "rom")

	result, err := New().Detect(context.Background(), root, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "es_classic", result.Ecosystem)
	// no .emulationstation root present
	assert.NotEmpty(t, result.Warnings)
}

func TestDetectESDEFastPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "ES-DE", "gamelists", "snes", "gamelist.xml"), "<gameList/>")
	if err := os.MkdirAll(filepath.Join(root, "ES-DE", "downloaded_media"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result, err := New().Detect(context.Background(), root, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "es_de", result.Ecosystem)
	assert.Equal(t, "es_de_family", result.Family)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Len(t, result.Systems, 1)
	assert.Equal(t, "snes", result.Systems[0].SystemID)
}

func TestDetectRetroArchPlaylists(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "playlists", "Super Nintendo.lpl"), "{}")

	result, err := New().Detect(context.Background(), root, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "retroarch", result.Ecosystem)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Len(t, result.Systems, 1)
	assert.Equal(t, "snes", result.Systems[0].SystemID)
	assert.Equal(t, model.SourceRetroArchLPL, result.Systems[0].MetadataSource)
}

func TestDetectLaunchBoxRootResolution(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "LaunchBox", "Data", "Platforms", "Super Nintendo.xml"), "<LaunchBox/>")

	result, err := New().Detect(context.Background(), parent, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "launchbox", result.Ecosystem)
	assert.Equal(t, filepath.Join(parent, "LaunchBox"), result.SourceRoot)
	assert.Len(t, result.Systems, 1)
	assert.Equal(t, "snes", result.Systems[0].SystemID)
	assert.Equal(t, "Super Nintendo", result.Systems[0].DisplayName)
	assert.Equal(t, model.SourceLaunchBoxXML, result.Systems[0].MetadataSource)
}

func TestDetectSingleRomFolder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	snes := filepath.Join(root, "snes")
	mustWriteFile(t, filepath.Join(snes, "game.sfc"), "rom")

	result, err := New().Detect(context.Background(), snes, Options{ScanMode: ModeSingleRomFolder})
	assert.NoError(t, err)
	assert.Equal(t, "es_classic", result.Ecosystem)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Len(t, result.Systems, 1)
	assert.Equal(t, "snes", result.Systems[0].SystemID)
	assert.Equal(t, snes, result.Systems[0].RomRoot)
}

func TestDetectHintShortCircuit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "retrobat.ini"), "[RetroBat]")
	mustWriteFile(t, filepath.Join(root, "roms", "snes", "game.sfc"), "rom")

	result, err := New().Detect(context.Background(), root, Options{Hint: "retrobat"})
	assert.NoError(t, err)
	assert.Equal(t, "retrobat", result.Ecosystem)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestDetectCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "roms", "snes", "gamelist.xml"), "<gameList/>")

	_, err := New().Detect(context.Background(), root, Options{
		Cancel: func() bool { return true },
	})
	assert.ErrorIs(t, err, model.ErrCancelled)
}

func TestConfidenceFormula(t *testing.T) {
	t.Parallel()

	scores := map[string]float64{"batocera": 4.0, "es_classic": 1.0, "retroarch": 0.0}
	// 4/8 + (4-1)/10 = 0.8
	assert.Equal(t, 0.8, confidenceFor("batocera", scores))

	// selected scored zero still floors at 0.05
	assert.Equal(t, 0.05, confidenceFor("retroarch", map[string]float64{"retroarch": 0.0, "batocera": 0.0}))

	// clamp at 1.0
	assert.Equal(t, 1.0, confidenceFor("muos", map[string]float64{"muos": 12.0, "batocera": 1.0}))
}

func TestDedupeSystemsSortsAndDedupes(t *testing.T) {
	t.Parallel()

	systems := dedupeSystems([]*model.System{
		{SystemID: "snes", DisplayName: "snes"},
		{SystemID: "genesis", DisplayName: "genesis"},
		{SystemID: "snes", DisplayName: "Super Nintendo"},
		{SystemID: "", DisplayName: "broken"},
	})
	assert.Len(t, systems, 2)
	assert.Equal(t, "genesis", systems[0].SystemID)
	assert.Equal(t, "snes", systems[1].SystemID)
	assert.Equal(t, "snes", systems[1].DisplayName)
}
