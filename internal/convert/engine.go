// Package convert exports a normalized library into another frontend's
// folder layout: ROMs, media and metadata files are planned, collision
// resolved and copied, with existing destination metadata merged in.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/dat"
	"github.com/xxxsen/retrosync/internal/metadata"
	"github.com/xxxsen/retrosync/internal/model"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Paths longer than this are known to break tooling on FAT32 targets and
// pre-longpath Windows, so the engine warns about them.
const longPathThreshold = 240

// Request describes one conversion run.
type Request struct {
	Library *model.Library
	// Selections limits the run to the listed games per system. A nil map
	// selects the whole library; an empty map selects nothing.
	Selections map[string][]*model.Game
	Target     string
	OutputRoot string

	CopyRoms              bool
	ExportDat             bool
	DryRun                bool
	OverwriteExisting     bool
	MergeExistingMetadata bool
	AllowAutoRename       bool

	// SystemMapping overrides destination system folder names per source
	// system id.
	SystemMapping map[string]string
	// ConflictDecisions resolves previewed duplicates per identity key.
	ConflictDecisions map[string]string

	Progress model.ProgressFunc
	Cancel   model.CancelFunc
}

// NewRequest builds a request with the defaults a plain conversion wants.
func NewRequest(library *model.Library, target, outputRoot string) *Request {
	return &Request{
		Library:               library,
		Target:                target,
		OutputRoot:            outputRoot,
		CopyRoms:              true,
		MergeExistingMetadata: true,
		AllowAutoRename:       true,
	}
}

// Result summarises one conversion run.
type Result struct {
	SystemsProcessed     int
	GamesProcessed       int
	RomsCopied           int
	AssetsCopied         int
	AssetsMissingSkipped int
	FilesSkipped         int
	FilesRenamed         int
	PreflightChecks      []string
	Warnings             []string
	DryRun               bool
}

// Engine runs conversions.
type Engine struct{}

// NewEngine builds an engine.
func NewEngine() *Engine {
	return &Engine{}
}

// selectedSystems resolves the selection into sorted system ids and their
// game lists.
func selectedSystems(req *Request) ([]string, map[string][]*model.Game) {
	selection := req.Selections
	if selection == nil {
		selection = req.Library.GamesBySystem
	}
	ids := make([]string, 0, len(selection))
	for id, games := range selection {
		if len(games) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, selection
}

// Run executes the conversion described by req.
func (e *Engine) Run(ctx context.Context, req *Request) (*Result, error) {
	logger := logutil.GetLogger(ctx)
	result := &Result{DryRun: req.DryRun}

	planner, ok := PlannerFor(req.Target)
	if !ok {
		targets := Targets()
		sort.Strings(targets)
		return nil, fmt.Errorf("unknown conversion target %q (supported: %s)", req.Target, strings.Join(targets, ", "))
	}

	systemIDs, selection := selectedSystems(req)
	totalGames := 0
	for _, id := range systemIDs {
		totalGames += len(selection[id])
	}
	if totalGames == 0 {
		result.Warnings = append(result.Warnings, "No games selected for conversion; nothing to do.")
		return result, nil
	}

	e.preflight(req, planner, systemIDs, selection, result)

	taken := make(map[string]struct{})
	for _, systemID := range systemIDs {
		if req.Cancel.Cancelled() {
			return nil, model.ErrCancelled
		}
		if err := e.convertSystem(ctx, req, planner, systemID, selection[systemID], taken, result); err != nil {
			return nil, err
		}
		result.SystemsProcessed++
	}

	if req.ExportDat {
		if err := e.exportCatalogs(ctx, req, systemIDs, selection, result); err != nil {
			return nil, err
		}
	}

	logger.Info("conversion done",
		zap.String("target", req.Target),
		zap.Bool("dry_run", req.DryRun),
		zap.Int("systems", result.SystemsProcessed),
		zap.Int("games", result.GamesProcessed),
		zap.Int("roms_copied", result.RomsCopied),
		zap.Int("assets_copied", result.AssetsCopied),
		zap.Int("renamed", result.FilesRenamed),
		zap.Int("skipped", result.FilesSkipped),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// preflight inspects the run before anything touches disk. Every check
// appends one line to result.PreflightChecks; problems become warnings and
// the run always proceeds, with affected games skipped per-game later.
func (e *Engine) preflight(req *Request, planner Planner, systemIDs []string, selection map[string][]*model.Game, result *Result) {
	add := func(format string, args ...interface{}) {
		result.PreflightChecks = append(result.PreflightChecks, fmt.Sprintf(format, args...))
	}

	totalGames := 0
	for _, id := range systemIDs {
		totalGames += len(selection[id])
	}
	add("Selected %d game(s) across %d system(s) for target '%s'.", totalGames, len(systemIDs), req.Target)

	// Destination collisions after safe-name rewriting.
	planned := map[string][]string{}
	missingRoms := 0
	for _, systemID := range systemIDs {
		destSystem := planner.DestSystemName(systemID, req.SystemMapping)
		for _, game := range selection[systemID] {
			if game.RomPath == "" {
				continue
			}
			if _, err := os.Stat(game.RomPath); err != nil {
				missingRoms++
			}
			stem := metadata.SafeFilename(game.RomBasename())
			plan := planner.Plan(req.OutputRoot, destSystem, stem, stem+filepath.Ext(game.RomPath))
			key := strings.ToLower(plan.Rom)
			planned[key] = append(planned[key], game.RomPath)
		}
	}
	var duplicated []string
	for key, sources := range planned {
		if len(sources) > 1 {
			duplicated = append(duplicated, key)
		}
	}
	sort.Strings(duplicated)
	switch {
	case len(duplicated) == 0:
		add("PASS: no duplicate destination paths.")
	case req.AllowAutoRename:
		add("PASS: %d duplicate destination path(s) will be auto-renamed.", len(duplicated))
	default:
		shown := duplicated
		if len(shown) > 3 {
			shown = shown[:3]
		}
		add("WARN: duplicate destination paths detected: %s", strings.Join(shown, ", "))
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d duplicate destination path(s) and auto-rename is disabled; duplicates will be skipped.", len(duplicated)))
	}

	if missingRoms > 0 {
		add("PARTIAL: %d ROM file(s) missing at source; they will be skipped.", missingRoms)
	} else {
		add("PASS: all selected ROM files present.")
	}

	var unmapped []string
	for _, systemID := range systemIDs {
		if _, ok := req.SystemMapping[systemID]; !ok {
			unmapped = append(unmapped, systemID)
		}
	}
	if len(unmapped) > 0 {
		add("PARTIAL: no mapping for system(s) %s; source ids used as-is.", strings.Join(unmapped, ", "))
	} else {
		add("PASS: every selected system has an explicit mapping.")
	}

	if sourceAbs, err := filepath.Abs(req.Library.SourceRoot); err == nil {
		if outputAbs, err := filepath.Abs(req.OutputRoot); err == nil {
			switch {
			case pathContains(sourceAbs, outputAbs):
				add("WARN: output root is inside the source library.")
			case pathContains(outputAbs, sourceAbs):
				add("WARN: source library is inside the output root.")
			}
		}
	}

	add("Flags: dry_run=%t overwrite_existing=%t merge_existing_metadata=%t copy_roms=%t export_dat=%t",
		req.DryRun, req.OverwriteExisting, req.MergeExistingMetadata, req.CopyRoms, req.ExportDat)
}

func pathContains(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}

// convertSystem converts one system's selected games and writes its merged
// metadata file.
func (e *Engine) convertSystem(ctx context.Context, req *Request, planner Planner, systemID string, games []*model.Game, taken map[string]struct{}, result *Result) error {
	destSystem := planner.DestSystemName(systemID, req.SystemMapping)
	system := req.Library.Systems[systemID]
	search := &metadata.AssetSearch{
		SourceRoot: req.Library.SourceRoot,
		Ecosystem:  req.Library.DetectedEcosystem,
		System:     system,
	}
	isLaunchBox := req.Target == "launchbox"

	// The metadata file location does not depend on the per-game fields.
	probe := planner.Plan(req.OutputRoot, destSystem, "probe", "probe.bin")
	metadataFile := probe.MetadataFile

	var existingEntries []metadata.GamelistEntry
	var existingProvider metadata.ProviderInfo
	var existingLB []metadata.LaunchBoxGame
	var warnings []string
	if isLaunchBox {
		existingLB, warnings = existingLaunchBoxGames(metadataFile, req.MergeExistingMetadata)
	} else {
		existingEntries, existingProvider, warnings = existingGamelistEntries(metadataFile, req.MergeExistingMetadata)
	}
	result.Warnings = append(result.Warnings, warnings...)
	existingGamelistKeys := gamelistKeySet(existingEntries)
	existingLBKeys := launchboxKeySet(existingLB)

	var newEntries []metadata.GamelistEntry
	var newLB []metadata.LaunchBoxGame
	for _, game := range games {
		if req.Cancel.Cancelled() {
			return model.ErrCancelled
		}
		// Every attempted game counts, including skips and failures.
		result.GamesProcessed++
		stem := metadata.SafeFilename(game.RomBasename())
		plan := planner.Plan(req.OutputRoot, destSystem, stem, stem+filepath.Ext(game.RomPath))

		// Honor a keep_existing decision before anything is copied.
		var key string
		if isLaunchBox {
			key = identityKey(rootRelativeOrAbs(req.OutputRoot, plan.Rom))
		} else {
			key = identityKey(dotRelative(filepath.Dir(metadataFile), plan.Rom))
		}
		if req.ConflictDecisions[key] == DecisionKeepExisting {
			exists := false
			if isLaunchBox {
				_, exists = existingLBKeys[key]
			} else {
				_, exists = existingGamelistKeys[key]
			}
			if exists {
				result.FilesSkipped++
				continue
			}
		}

		entry, lbEntry, err := e.convertGame(ctx, req, game, plan, destSystem, metadataFile, search, isLaunchBox, taken, result)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Game conversion failed for '%s': %v", game.RomPath, err))
			continue
		}
		if isLaunchBox {
			newLB = append(newLB, *lbEntry)
		} else {
			newEntries = append(newEntries, *entry)
		}
	}

	if req.DryRun {
		req.Progress.Emit("metadata", fmt.Sprintf("dry run: would write %s", metadataFile))
		return nil
	}
	if isLaunchBox {
		if len(newLB) == 0 && len(existingLB) == 0 {
			return nil
		}
		merged := mergeLaunchBoxGames(existingLB, newLB)
		if err := metadata.WriteLaunchBoxPlatformFile(metadataFile, merged); err != nil {
			return fmt.Errorf("write platform xml for %s: %w", destSystem, err)
		}
		return nil
	}
	if len(newEntries) == 0 && len(existingEntries) == 0 {
		return nil
	}
	doc := &metadata.GamelistDocument{
		Provider: existingProvider,
		Games:    mergeGamelistEntries(existingEntries, newEntries),
	}
	if err := metadata.WriteGamelistFile(metadataFile, doc); err != nil {
		return fmt.Errorf("write gamelist for %s: %w", destSystem, err)
	}
	return nil
}

// convertGame copies one game's ROM and media and builds its metadata entry.
// A panic while converting one game must not kill the batch, so it is
// recovered into an error here and surfaces as a per-game warning.
func (e *Engine) convertGame(ctx context.Context, req *Request, game *model.Game, plan *PlannedPaths, destSystem, metadataFile string, search *metadata.AssetSearch, isLaunchBox bool, taken map[string]struct{}, result *Result) (entry *metadata.GamelistEntry, lbEntry *metadata.LaunchBoxGame, err error) {
	defer func() {
		if r := recover(); r != nil {
			entry, lbEntry = nil, nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	romDest := plan.Rom
	if req.CopyRoms && game.RomPath != "" {
		if _, err := os.Stat(game.RomPath); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("ROM file missing for '%s': %s", displayTitle(game), game.RomPath))
			result.FilesSkipped++
		} else {
			dest, renamed := resolveCollision(plan.Rom, taken, !req.OverwriteExisting)
			if renamed && !req.AllowAutoRename {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Destination already exists for '%s': %s", displayTitle(game), plan.Rom))
				result.FilesSkipped++
				dest = plan.Rom
			} else {
				if renamed {
					result.FilesRenamed++
				}
				if len(dest) > longPathThreshold {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("Destination path exceeds %d characters and may fail on some filesystems: %s", longPathThreshold, dest))
				}
				if err := e.copyFile(req, game.RomPath, dest); err != nil {
					return nil, nil, fmt.Errorf("copy rom: %w", err)
				}
				result.RomsCopied++
			}
			romDest = dest
		}
	}

	assetDests := map[string]string{}
	for _, slot := range candidateSlots(plan.Assets, req.Library.DetectedEcosystem) {
		asset := pickAsset(game, slot)
		src := ""
		if asset != nil && fileExists(asset.FilePath) {
			src = asset.FilePath
			asset.Verification = model.VerifyExists
		} else if found := search.Find(game, slot); found != "" {
			src = found
			if asset != nil {
				asset.FilePath = found
				asset.Verification = model.VerifyExists
			} else {
				game.Assets = append(game.Assets, model.Asset{
					Type:         slotDefaultType[slot],
					FilePath:     found,
					Format:       strings.TrimPrefix(strings.ToLower(filepath.Ext(found)), "."),
					MatchKey:     "fallback_folder",
					Verification: model.VerifyExists,
				})
			}
		}
		if src == "" {
			if asset != nil {
				asset.Verification = model.VerifyMissing
				result.AssetsMissingSkipped++
				result.FilesSkipped++
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Missing %s asset for '%s': %s", slot, displayTitle(game), asset.FilePath))
			}
			continue
		}
		base, ok := plan.Assets[slot]
		if !ok {
			continue
		}
		dest := base + strings.ToLower(filepath.Ext(src))
		dest, renamed := resolveCollision(dest, taken, !req.OverwriteExisting)
		if renamed {
			result.FilesRenamed++
		}
		if err := e.copyFile(req, src, dest); err != nil {
			return nil, nil, fmt.Errorf("copy %s asset: %w", slot, err)
		}
		result.AssetsCopied++
		assetDests[slot] = dest
	}

	if isLaunchBox {
		lb := launchboxEntryFor(game, romDest, assetDests, req.OutputRoot, destSystem)
		return nil, &lb, nil
	}
	gl := gamelistEntryFor(game, romDest, assetDests, filepath.Dir(metadataFile))
	return &gl, nil, nil
}

func displayTitle(game *model.Game) string {
	if strings.TrimSpace(game.Title) != "" {
		return game.Title
	}
	return game.RomBasename()
}

// copyFile copies src to dest, creating parent directories. Dry runs only
// report what would happen.
func (e *Engine) copyFile(req *Request, src, dest string) error {
	if req.DryRun {
		req.Progress.Emit("copy", fmt.Sprintf("dry run: would copy %s -> %s", src, dest))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", filepath.Dir(dest), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	req.Progress.Emit("copy", fmt.Sprintf("copied %s", dest))
	return nil
}

// exportCatalogs writes one checksum catalog per source system under
// <output>/dats.
func (e *Engine) exportCatalogs(ctx context.Context, req *Request, systemIDs []string, selection map[string][]*model.Game, result *Result) error {
	logger := logutil.GetLogger(ctx)
	if req.DryRun {
		req.Progress.Emit("export", "dry run: catalog export skipped")
		return nil
	}
	for _, systemID := range systemIDs {
		if req.Cancel.Cancelled() {
			return model.ErrCancelled
		}
		path := filepath.Join(req.OutputRoot, "dats", systemID+".dat")
		if err := dat.WriteExportFile(path, systemID+"_export", selection[systemID]); err != nil {
			return fmt.Errorf("export catalog for %s: %w", systemID, err)
		}
		logger.Info("catalog exported", zap.String("system", systemID), zap.String("path", path))
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
