package dat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xxxsen/retrosync/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestWriteExportFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	romPath := filepath.Join(dir, "mslug.zip")
	if err := os.WriteFile(romPath, []byte("rom payload"), 0o644); err != nil {
		t.Fatalf("write rom: %v", err)
	}
	games := []*model.Game{
		{RomPath: romPath, SystemID: "arcade", Title: "Metal Slug"},
		{RomPath: filepath.Join(dir, "missing.zip"), SystemID: "arcade", Title: "Missing"},
	}

	exportPath := filepath.Join(dir, "dats", "arcade.dat")
	err := WriteExportFile(exportPath, "arcade_export", games)
	assert.NoError(t, err)

	catalog, err := NewParser().ParseFile(exportPath)
	assert.NoError(t, err)
	assert.Equal(t, "arcade_export", catalog.Name)
	// missing ROM files are left out
	assert.Len(t, catalog.Entries, 1)
	entry := catalog.Entries[0]
	assert.Equal(t, "mslug", entry.SetName)
	assert.Len(t, entry.Roms, 1)
	assert.Equal(t, "mslug.zip", entry.Roms[0].Name)
	assert.Equal(t, int64(len("rom payload")), entry.Roms[0].Size)
	assert.Len(t, entry.Roms[0].CRC, 8)
	assert.Len(t, entry.Roms[0].SHA1, 40)
}
