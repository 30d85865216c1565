// Package normalize turns a detection result into a fully loaded library:
// it picks the loader for each system, runs catalog enrichment and fills
// derived fields.
package normalize

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/xxxsen/retrosync/internal/dat"
	"github.com/xxxsen/retrosync/internal/detect"
	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/metadata"
	"github.com/xxxsen/retrosync/internal/model"

	"github.com/mozillazg/go-pinyin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Options tunes one library build.
type Options struct {
	ScanMode string
	// CatalogRoot overrides where checksum catalogs are searched.
	CatalogRoot string
	// CatalogOverrides pins a catalog path per canonical system id.
	CatalogOverrides map[string]string
	// EnableHashFallback lets enrichment hash ROM files on name misses.
	EnableHashFallback bool
	AssetIndexBudget   int
	Progress           model.ProgressFunc
	Cancel             model.CancelFunc
}

// Result is the loaded library plus everything worth reporting about the run.
type Result struct {
	Library  *model.Library
	Warnings []string
	Enriched int
	Sources  []string
}

// Normalizer drives loaders and enrichment over a detected source tree.
type Normalizer struct {
	esLoader        *metadata.ESGamelistLoader
	launchboxLoader *metadata.LaunchBoxXMLLoader
	launchboxDB     *metadata.LaunchBoxDatabaseLoader
	pegasusLoader   *metadata.PegasusLoader
}

// New builds a normalizer.
func New() *Normalizer {
	return &Normalizer{
		esLoader:        metadata.NewESGamelistLoader(),
		launchboxLoader: metadata.NewLaunchBoxXMLLoader(),
		launchboxDB:     metadata.NewLaunchBoxDatabaseLoader(),
		pegasusLoader:   metadata.NewPegasusLoader(),
	}
}

// BuildLibrary loads every detected system and enriches the result.
func (n *Normalizer) BuildLibrary(ctx context.Context, detection *detect.Result, opts Options) (*Result, error) {
	logger := logutil.GetLogger(ctx)
	library := detection.ToLibrary()
	result := &Result{Library: library}
	result.Warnings = append(result.Warnings, detection.Warnings...)

	scanMode := strings.ToLower(strings.TrimSpace(opts.ScanMode))
	if scanMode == "" {
		scanMode = detection.ScanMode
	}
	// LaunchBox and single-folder sources have nothing to gain from the
	// cheaper modes.
	if detection.Ecosystem == "launchbox" || scanMode == detect.ModeSingleRomFolder {
		scanMode = metadata.ScanDeep
	}

	for _, system := range detection.Systems {
		if opts.Cancel.Cancelled() {
			return nil, model.ErrCancelled
		}
		loader := n.loaderFor(system)
		if loader == nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("No loader available for ecosystem '%s'; skipping system '%s'.", system.DetectedEcosystem, system.SystemID))
			continue
		}
		opts.Progress.Emit("load", fmt.Sprintf("loading system %s via %s", system.SystemID, loader.Name()))
		loaded, err := loader.Load(ctx, &metadata.LoaderInput{
			SourceRoot:       library.SourceRoot,
			System:           system,
			ScanMode:         scanMode,
			Progress:         opts.Progress,
			Cancel:           opts.Cancel,
			AssetIndexBudget: opts.AssetIndexBudget,
		})
		if err != nil {
			return nil, fmt.Errorf("load system %s: %w", system.SystemID, err)
		}
		result.Warnings = append(result.Warnings, loaded.Warnings...)
		library.GamesBySystem[system.SystemID] = loaded.Games
	}

	enricher := dat.NewEnricher(opts.CatalogRoot, opts.CatalogOverrides, opts.EnableHashFallback && scanMode != metadata.ScanMeta)
	enriched, err := enricher.Enrich(ctx, library)
	if err != nil {
		return nil, fmt.Errorf("enrich library: %w", err)
	}
	result.Enriched = enriched.Enriched
	result.Sources = enriched.Sources
	result.Warnings = append(result.Warnings, enriched.Warnings...)

	backfillSortTitles(library)

	total := 0
	for _, games := range library.GamesBySystem {
		total += len(games)
	}
	logger.Info("library build done",
		zap.String("ecosystem", library.DetectedEcosystem),
		zap.Int("systems", len(library.Systems)),
		zap.Int("games", total),
		zap.Int("enriched", result.Enriched))
	return result, nil
}

func (n *Normalizer) loaderFor(system *model.System) metadata.Loader {
	if system.MetadataSource == model.SourceLaunchBoxDB {
		return n.launchboxDB
	}
	switch ecosys.FamilyFor(system.DetectedEcosystem) {
	case "es_family", "es_de_family":
		return n.esLoader
	case "windows_launcher":
		return n.launchboxLoader
	case "pegasus":
		return n.pegasusLoader
	default:
		return nil
	}
}

// backfillSortTitles derives a latin sort title for CJK-titled games so
// they collate predictably in frontends that sort by plain byte order.
func backfillSortTitles(library *model.Library) {
	args := pinyin.NewArgs()
	for _, games := range library.GamesBySystem {
		for _, game := range games {
			if game.SortTitle != "" || !containsHan(game.Title) {
				continue
			}
			var parts []string
			for _, syllables := range pinyin.Pinyin(game.Title, args) {
				if len(syllables) > 0 {
					parts = append(parts, syllables[0])
				}
			}
			if len(parts) > 0 {
				game.SortTitle = strings.Join(parts, " ")
			}
		}
	}
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
