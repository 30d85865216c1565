package metadata

import (
	"path/filepath"
	"strings"

	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/model"
)

// Probe order over the loose filename token groups. Map iteration order is
// random, so the precedence is pinned here.
var heuristicGroupOrder = []model.AssetType{
	model.AssetBoxFront,
	model.AssetScreenshotGameplay,
	model.AssetScreenshotTitle,
	model.AssetMarquee,
	model.AssetFanart,
	model.AssetMiximage,
	model.AssetManual,
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {},
}

var manualExtensions = map[string]struct{}{
	".pdf": {}, ".cbz": {}, ".cbr": {},
}

// inferAssetType guesses the asset type of a scanned media file from its
// name suffix, parent folder and extension.
func inferAssetType(path string) model.AssetType {
	stemLower := strings.ToLower(stemOf(path))
	for _, suffix := range ecosys.MediaSuffixOrdered {
		if strings.HasSuffix(stemLower, suffix) {
			return ecosys.BatoceraSuffixToAssetType[suffix]
		}
	}
	for _, assetType := range heuristicGroupOrder {
		for _, token := range ecosys.MediaSuffixHeuristicGroups[assetType] {
			if strings.Contains(stemLower, "-"+token) || strings.Contains(stemLower, "_"+token) {
				return assetType
			}
		}
	}

	parent := filepath.Base(filepath.Dir(path))
	parentLower := strings.ToLower(parent)
	if assetType, ok := ecosys.ESDEMediaFolderToAssetType[parentLower]; ok {
		return assetType
	}
	for folder, assetType := range ecosys.RetroArchThumbnailFolderToAssetType {
		if strings.EqualFold(folder, parent) {
			return assetType
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case hasKey(videoExtensions, ext) || strings.Contains(parentLower, "video"):
		return model.AssetVideo
	case hasKey(manualExtensions, ext) || strings.Contains(parentLower, "manual"):
		return model.AssetManual
	case strings.Contains(parentLower, "marquee") || strings.Contains(parentLower, "wheel"):
		return model.AssetMarquee
	case strings.Contains(parentLower, "thumb") || strings.Contains(parentLower, "screenshot"):
		return model.AssetScreenshotGameplay
	case strings.Contains(parentLower, "bezel"):
		return model.AssetBezel
	case strings.Contains(parentLower, "fanart"):
		return model.AssetFanart
	default:
		return model.AssetBoxFront
	}
}

// normalizeAssetStem lowercases a media file stem and strips the known
// media name suffixes, so it lines up with ROM stems.
func normalizeAssetStem(stem string) string {
	normalized := strings.ToLower(stem)
	for _, suffix := range ecosys.MediaSuffixOrdered {
		if strings.HasSuffix(normalized, suffix) {
			normalized = strings.TrimSuffix(normalized, suffix)
			break
		}
	}
	return strings.TrimSpace(normalized)
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func assetFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
