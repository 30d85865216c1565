package dat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xxxsen/retrosync/internal/model"

	"github.com/stretchr/testify/assert"
)

const mslugCatalog = `<?xml version="1.0"?>
<datafile>
  <header><name>FinalBurn Neo</name></header>
  <game name="mslug">
    <description>Metal Slug</description>
    <year>1996</year>
    <manufacturer>Nazca</manufacturer>
    <rom name="mslug.zip" crc="deadbeef" sha1="aa00bb11cc22dd33ee44ff5566778899aabbccdd"/>
  </game>
</datafile>
`

func arcadeLibrary(t *testing.T, sourceRoot string) *model.Library {
	t.Helper()
	library := model.NewLibrary(sourceRoot)
	library.Systems["arcade"] = &model.System{SystemID: "arcade", RomRoot: sourceRoot}
	library.GamesBySystem["arcade"] = []*model.Game{
		{RomPath: filepath.Join(sourceRoot, "mslug.zip"), SystemID: "arcade", Title: "mslug"},
		{RomPath: filepath.Join(sourceRoot, "unknown.zip"), SystemID: "arcade", Title: "A Real Title"},
	}
	return library
}

func TestEnricherAppliesCatalogEntry(t *testing.T) {
	t.Parallel()

	sourceRoot := t.TempDir()
	datDir := filepath.Join(sourceRoot, "dats")
	if err := os.MkdirAll(datDir, 0o755); err != nil {
		t.Fatalf("mkdir dats: %v", err)
	}
	if err := os.WriteFile(filepath.Join(datDir, "fbneo.dat"), []byte(mslugCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	library := arcadeLibrary(t, sourceRoot)
	enricher := NewEnricher("", nil, false)
	result, err := enricher.Enrich(context.Background(), library)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Enriched)
	assert.Equal(t, []string{filepath.Join(datDir, "fbneo.dat")}, result.Sources)

	game := library.GamesBySystem["arcade"][0]
	assert.Equal(t, "Metal Slug", game.Title)
	assert.Equal(t, time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC), game.ReleaseDate)
	assert.Equal(t, "Nazca", game.Publisher)
	assert.Equal(t, "Nazca", game.Developer)
	assert.Equal(t, "deadbeef", game.CRC)
	assert.Equal(t, "aa00bb11cc22dd33ee44ff5566778899aabbccdd", game.SHA1)

	// unmatched game untouched
	other := library.GamesBySystem["arcade"][1]
	assert.Equal(t, "A Real Title", other.Title)
	assert.Empty(t, other.CRC)
}

func TestEnricherSystemOverride(t *testing.T) {
	t.Parallel()

	sourceRoot := t.TempDir()
	overridePath := filepath.Join(sourceRoot, "custom.dat")
	if err := os.WriteFile(overridePath, []byte(mslugCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	library := arcadeLibrary(t, sourceRoot)
	enricher := NewEnricher("", map[string]string{"arcade": overridePath}, false)
	result, err := enricher.Enrich(context.Background(), library)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Enriched)
	assert.Equal(t, []string{overridePath}, result.Sources)
}

func TestEnricherEnvRoot(t *testing.T) {
	envRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(envRoot, "fbneo.dat"), []byte(mslugCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	t.Setenv(CatalogRootEnv, envRoot)

	sourceRoot := t.TempDir()
	library := arcadeLibrary(t, sourceRoot)
	result, err := NewEnricher("", nil, false).Enrich(context.Background(), library)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Enriched)
}

func TestEnricherSkipsSystemsWithoutProfile(t *testing.T) {
	t.Parallel()

	sourceRoot := t.TempDir()
	library := model.NewLibrary(sourceRoot)
	library.GamesBySystem["snes"] = []*model.Game{
		{RomPath: filepath.Join(sourceRoot, "Contra.sfc"), SystemID: "snes", Title: "Contra"},
	}
	result, err := NewEnricher("", nil, false).Enrich(context.Background(), library)
	assert.NoError(t, err)
	assert.Zero(t, result.Enriched)
	assert.Empty(t, result.Sources)
}

func TestEnricherHashFallback(t *testing.T) {
	t.Parallel()

	sourceRoot := t.TempDir()
	datDir := filepath.Join(sourceRoot, "dats")
	if err := os.MkdirAll(datDir, 0o755); err != nil {
		t.Fatalf("mkdir dats: %v", err)
	}

	romPath := filepath.Join(sourceRoot, "oddly-named.zip")
	if err := os.WriteFile(romPath, []byte("rom payload"), 0o644); err != nil {
		t.Fatalf("write rom: %v", err)
	}
	hasher := NewEnricher("", nil, true)
	hashes, err := hasher.hashRomFile(romPath)
	assert.NoError(t, err)

	catalog := `<?xml version="1.0"?>
<datafile>
  <game name="mslug">
    <description>Metal Slug</description>
    <rom name="mslug.zip" crc="` + hashes.crc + `"/>
  </game>
</datafile>
`
	if err := os.WriteFile(filepath.Join(datDir, "arcade.dat"), []byte(catalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	library := model.NewLibrary(sourceRoot)
	library.GamesBySystem["arcade"] = []*model.Game{
		{RomPath: romPath, SystemID: "arcade", Title: "oddly-named"},
	}
	result, err := NewEnricher("", nil, true).Enrich(context.Background(), library)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Enriched)
	assert.Equal(t, "Metal Slug", library.GamesBySystem["arcade"][0].Title)
}

func TestIsPlaceholderTitle(t *testing.T) {
	t.Parallel()

	assert.True(t, isPlaceholderTitle("", "mslug"))
	assert.True(t, isPlaceholderTitle("MSLUG", "mslug"))
	assert.True(t, isPlaceholderTitle("metal_slug-3", "Metal Slug 3"))
	assert.False(t, isPlaceholderTitle("Metal Slug", "mslug"))
}
