package dat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xxxsen/retrosync/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAutoDetectorPrefersProfileFilename(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "arcade.dat"), []byte(xmlCatalogSample), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "random-notes.dat"), []byte(textCatalogSample), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	detector := NewAutoDetector([]string{root}, false)
	result := detector.Detect(context.Background(), []string{"arcade"}, nil)
	assert.Empty(t, result.Warnings)
	match, ok := result.Matches["arcade"]
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "arcade.dat"), match.Path)
	// profile filename bonus alone clears the acceptance threshold
	assert.GreaterOrEqual(t, match.Confidence, 70)
}

func TestAutoDetectorTokenMatch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "FinalBurn Neo (Arcade).dat"), []byte(xmlCatalogSample), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	detector := NewAutoDetector([]string{root}, false)
	result := detector.Detect(context.Background(), []string{"fbneo"}, nil)
	match, ok := result.Matches["fbneo"]
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "FinalBurn Neo (Arcade).dat"), match.Path)
}

func TestAutoDetectorNearMissWarning(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "something.dat"), []byte(textCatalogSample), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	detector := NewAutoDetector([]string{root}, false)
	result := detector.Detect(context.Background(), []string{"neogeo"}, nil)
	_, ok := result.Matches["neogeo"]
	assert.False(t, ok)
}

func TestAutoDetectorStrictVerify(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "arcade.dat"), []byte(xmlCatalogSample), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	games := map[string][]*model.Game{
		"arcade": {
			{RomPath: "/roms/arcade/mslug.zip", SystemID: "arcade", Title: "mslug"},
			{RomPath: "/roms/arcade/notinthere.zip", SystemID: "arcade", Title: "notinthere"},
		},
	}
	detector := NewAutoDetector([]string{root}, true)
	result := detector.Detect(context.Background(), []string{"arcade"}, games)
	match, ok := result.Matches["arcade"]
	assert.True(t, ok)
	// half the sample resolved, so the verification bonus is 17
	assert.GreaterOrEqual(t, match.Confidence, 87)

	// a library whose ROM names never resolve rejects the catalog
	miss := map[string][]*model.Game{
		"arcade": {{RomPath: "/roms/arcade/nope.zip", SystemID: "arcade", Title: "nope"}},
	}
	result = detector.Detect(context.Background(), []string{"arcade"}, miss)
	_, ok = result.Matches["arcade"]
	assert.False(t, ok)
	assert.NotEmpty(t, result.Warnings)
}
