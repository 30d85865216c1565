package convert

import (
	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/model"
)

// slotDefaultType is the asset type recorded when fallback search finds a
// file for a slot the metadata never declared.
var slotDefaultType = map[string]model.AssetType{
	SlotImage:     model.AssetBoxFront,
	SlotThumbnail: model.AssetScreenshotGameplay,
	SlotMarquee:   model.AssetMarquee,
	SlotVideo:     model.AssetVideo,
	SlotManual:    model.AssetManual,
	SlotBezel:     model.AssetBezel,
	SlotFanart:    model.AssetFanart,
}

// pickAsset resolves one slot from the game's declared assets using the slot
// precedence table. Assets already verified missing are skipped.
func pickAsset(game *model.Game, slot string) *model.Asset {
	for _, wanted := range assetSlotSources[slot] {
		for i := range game.Assets {
			asset := &game.Assets[i]
			if asset.Type != wanted || asset.FilePath == "" {
				continue
			}
			if asset.Verification == model.VerifyMissing {
				continue
			}
			return asset
		}
	}
	return nil
}

// candidateSlots returns the slots worth resolving for a game: everything
// the target plans for, plus every slot the source ecosystem can plausibly
// supply via fallback folders.
func candidateSlots(planned map[string]string, sourceEcosystem string) []string {
	seen := map[string]struct{}{}
	var slots []string
	add := func(slot string) {
		if _, ok := seen[slot]; ok {
			return
		}
		seen[slot] = struct{}{}
		slots = append(slots, slot)
	}
	ordered := []string{SlotImage, SlotThumbnail, SlotMarquee, SlotVideo, SlotManual, SlotBezel, SlotFanart}
	for _, slot := range ordered {
		if _, ok := planned[slot]; ok {
			add(slot)
		}
	}
	for _, slot := range ecosys.CandidateAssetSlots(sourceEcosystem) {
		if _, ok := planned[slot]; ok {
			add(slot)
		}
	}
	return slots
}
