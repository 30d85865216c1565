package convert

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/xxxsen/retrosync/internal/metadata"
	"github.com/xxxsen/retrosync/internal/model"
)

// PreviewConflicts reports the selected games whose identity key already
// exists in the destination metadata files, so a caller can collect
// keep_new / keep_existing decisions before running the conversion.
func (e *Engine) PreviewConflicts(req *Request) ([]model.DuplicateConflict, error) {
	planner, ok := PlannerFor(req.Target)
	if !ok {
		return nil, fmt.Errorf("unknown conversion target %q", req.Target)
	}

	systemIDs, selection := selectedSystems(req)
	var conflicts []model.DuplicateConflict
	for _, systemID := range systemIDs {
		destSystem := planner.DestSystemName(systemID, req.SystemMapping)
		probe := planner.Plan(req.OutputRoot, destSystem, "probe", "probe.bin")
		metadataFile := probe.MetadataFile
		isLaunchBox := req.Target == "launchbox"

		type existingRecord struct {
			Title string
			Rom   string
		}
		existing := map[string]existingRecord{}
		if isLaunchBox {
			games, _ := existingLaunchBoxGames(metadataFile, true)
			for key, game := range launchboxKeySet(games) {
				existing[key] = existingRecord{Title: game.Title, Rom: game.ApplicationPath}
			}
		} else {
			entries, _, _ := existingGamelistEntries(metadataFile, true)
			for key, entry := range gamelistKeySet(entries) {
				existing[key] = existingRecord{Title: entry.Name, Rom: entry.Path}
			}
		}
		if len(existing) == 0 {
			continue
		}

		for _, game := range selection[systemID] {
			stem := metadata.SafeFilename(game.RomBasename())
			plan := planner.Plan(req.OutputRoot, destSystem, stem, stem+filepath.Ext(game.RomPath))
			var key string
			if isLaunchBox {
				key = identityKey(rootRelativeOrAbs(req.OutputRoot, plan.Rom))
			} else {
				key = identityKey(dotRelative(filepath.Dir(metadataFile), plan.Rom))
			}
			record, ok := existing[key]
			if !ok {
				continue
			}
			conflicts = append(conflicts, model.DuplicateConflict{
				IdentityKey:   key,
				SystemID:      systemID,
				MetadataPath:  metadataFile,
				ExistingTitle: record.Title,
				ExistingRom:   record.Rom,
				IncomingTitle: displayTitle(game),
				IncomingRom:   game.RomPath,
			})
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].SystemID != conflicts[j].SystemID {
			return conflicts[i].SystemID < conflicts[j].SystemID
		}
		return conflicts[i].IdentityKey < conflicts[j].IdentityKey
	})
	return conflicts, nil
}
