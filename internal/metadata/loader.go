package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/retrosync/internal/model"
)

// Scan modes understood by loaders.
const (
	ScanMeta  = "meta"
	ScanQuick = "quick"
	ScanDeep  = "deep"
	ScanForce = "force"
)

// LoaderInput carries everything a loader needs for one system.
type LoaderInput struct {
	SourceRoot string
	System     *model.System
	ScanMode   string
	Progress   model.ProgressFunc
	Cancel     model.CancelFunc
	// AssetIndexBudget caps how many files the media index may visit.
	// Zero means the default budget.
	AssetIndexBudget int
}

// LoaderResult is what one loader produced for one system.
type LoaderResult struct {
	Games    []*model.Game
	Warnings []string
}

// Loader turns one system's on-disk metadata into games.
type Loader interface {
	Name() string
	Load(ctx context.Context, input *LoaderInput) (*LoaderResult, error)
}

var boolishTrue = map[string]struct{}{
	"1": {}, "true": {}, "yes": {}, "y": {},
}

func parseBoolish(value string) bool {
	_, ok := boolishTrue[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

func parseIntValue(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func parseFloatValue(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}

var esDateLayouts = []string{"20060102T150405", "2006-01-02", "2006/01/02", "2006"}

func parseESDate(value string) time.Time {
	return parseDateWith(value, esDateLayouts)
}

func parseESTimestamp(value string) time.Time {
	layouts := append([]string{}, esDateLayouts...)
	layouts = append(layouts, "2006-01-02T15:04:05")
	return parseDateWith(value, layouts)
}

var launchboxDateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02", "01/02/2006", "2006"}

func parseLaunchBoxDate(value string) time.Time {
	return parseDateWith(value, launchboxDateLayouts)
}

func parseDateWith(value string, layouts []string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func splitListValue(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	var items []string
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// resolveMetadataPath interprets a path value found in a metadata file.
// "~/" points home, "./" points at the ROM root, absolute paths stand,
// anything else is relative to the metadata file's directory.
func resolveMetadataPath(value, romRoot, metadataDir string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized := filepath.FromSlash(strings.ReplaceAll(trimmed, "\\", "/"))
	if strings.HasPrefix(trimmed, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, filepath.FromSlash(trimmed[2:]))
		}
		return normalized
	}
	if strings.HasPrefix(trimmed, "./") {
		return filepath.Join(romRoot, filepath.FromSlash(trimmed[2:]))
	}
	if filepath.IsAbs(normalized) {
		return normalized
	}
	return filepath.Join(metadataDir, normalized)
}

func verifyAssetPath(path string) model.VerificationState {
	if _, err := os.Stat(path); err == nil {
		return model.VerifyExists
	}
	return model.VerifyMissing
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
