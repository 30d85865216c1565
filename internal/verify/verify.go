// Package verify checks a loaded library's asset references against the
// filesystem and recovers missing media through the same fallback folder
// conventions the loaders use.
package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/metadata"
	"github.com/xxxsen/retrosync/internal/model"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// imageAssetTypes covers every visual asset kind. A game counts as having a
// verified image when any of these exists on disk.
var imageAssetTypes = map[model.AssetType]struct{}{
	model.AssetBoxFront:           {},
	model.AssetBoxBack:            {},
	model.AssetBoxSpine:           {},
	model.AssetDisc:               {},
	model.AssetScreenshotGameplay: {},
	model.AssetScreenshotTitle:    {},
	model.AssetScreenshotMenu:     {},
	model.AssetMarquee:            {},
	model.AssetWheel:              {},
	model.AssetLogo:               {},
	model.AssetFanart:             {},
	model.AssetBackground:         {},
	model.AssetMiximage:           {},
	model.AssetBezel:              {},
}

// recoverySlots are the fallback lookups attempted per game, with the asset
// type appended when nothing in the metadata could host the find.
var recoverySlots = []struct {
	Slot     string
	Relevant func(model.AssetType) bool
	NewType  model.AssetType
}{
	{
		Slot:     "image",
		Relevant: func(t model.AssetType) bool { _, ok := imageAssetTypes[t]; return ok },
		NewType:  model.AssetBoxFront,
	},
	{
		Slot:     "video",
		Relevant: func(t model.AssetType) bool { return t == model.AssetVideo },
		NewType:  model.AssetVideo,
	},
	{
		Slot:     "manual",
		Relevant: func(t model.AssetType) bool { return t == model.AssetManual },
		NewType:  model.AssetManual,
	},
}

// Options tunes one verification run.
type Options struct {
	Progress model.ProgressFunc
	Cancel   model.CancelFunc
}

// Result summarises one verification run.
type Result struct {
	AssetsChecked int
	Exists        int
	Missing       int
	Recovered     int
	Warnings      []string
}

// Library verifies every asset reference in the library in place: unchecked
// assets get a verified state, and games with no usable image, video or
// manual get a fallback folder lookup.
func Library(ctx context.Context, library *model.Library, opts Options) (*Result, error) {
	logger := logutil.GetLogger(ctx)
	result := &Result{}

	systemIDs := make([]string, 0, len(library.GamesBySystem))
	for id := range library.GamesBySystem {
		systemIDs = append(systemIDs, id)
	}
	sort.Strings(systemIDs)

	for _, systemID := range systemIDs {
		if opts.Cancel.Cancelled() {
			return nil, model.ErrCancelled
		}
		system := library.Systems[systemID]
		ecosystem := library.DetectedEcosystem
		if system != nil && system.DetectedEcosystem != "" {
			ecosystem = system.DetectedEcosystem
		}
		search := &metadata.AssetSearch{
			SourceRoot: library.SourceRoot,
			Ecosystem:  ecosystem,
			System:     system,
		}
		for i, game := range library.GamesBySystem[systemID] {
			if opts.Cancel.Cancelled() {
				return nil, model.ErrCancelled
			}
			Game(game, search, result)
			if (i+1)%500 == 0 {
				opts.Progress.Emit("verify", fmt.Sprintf("%s: %d games checked", systemID, i+1))
			}
		}
	}

	logger.Info("asset verification done",
		zap.Int("checked", result.AssetsChecked),
		zap.Int("exists", result.Exists),
		zap.Int("missing", result.Missing),
		zap.Int("recovered", result.Recovered))
	return result, nil
}

// Game verifies one game's assets in place and attempts slot recovery.
func Game(game *model.Game, search *metadata.AssetSearch, result *Result) {
	for i := range game.Assets {
		asset := &game.Assets[i]
		if asset.Verification != model.VerifyUnchecked {
			continue
		}
		result.AssetsChecked++
		if fileExists(asset.FilePath) {
			asset.Verification = model.VerifyExists
		} else {
			asset.Verification = model.VerifyMissing
		}
	}

	if search == nil {
		tally(game, result)
		return
	}
	for _, recovery := range recoverySlots {
		verified := false
		for i := range game.Assets {
			asset := &game.Assets[i]
			if recovery.Relevant(asset.Type) && asset.Verification == model.VerifyExists {
				verified = true
				break
			}
		}
		if verified {
			continue
		}
		found := search.Find(game, recovery.Slot)
		if found == "" {
			continue
		}
		recovered := false
		for i := range game.Assets {
			asset := &game.Assets[i]
			if recovery.Relevant(asset.Type) {
				asset.FilePath = found
				asset.Format = formatOf(found)
				asset.Verification = model.VerifyExists
				recovered = true
				break
			}
		}
		if !recovered {
			game.Assets = append(game.Assets, model.Asset{
				Type:         recovery.NewType,
				FilePath:     found,
				Format:       formatOf(found),
				MatchKey:     "fallback_folder",
				Verification: model.VerifyExists,
			})
		}
		result.Recovered++
	}
	tally(game, result)
}

func tally(game *model.Game, result *Result) {
	for i := range game.Assets {
		switch game.Assets[i].Verification {
		case model.VerifyExists:
			result.Exists++
		case model.VerifyMissing:
			result.Missing++
		}
	}
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
