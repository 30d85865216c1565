// Package ecosys holds the immutable lookup tables describing every
// supported frontend ecosystem: signature files, asset naming conventions,
// media fallback folders and checksum catalog profiles. The tables are
// loaded once and shared read-only.
package ecosys

import "github.com/xxxsen/retrosync/internal/model"

// Ecosystem ids in fixed order. The order doubles as the deterministic
// tie-break when classification falls back to arg-max scoring.
var Ecosystems = []string{
	"es_classic",
	"batocera",
	"knulli",
	"amberelec",
	"jelos_rocknix",
	"arkos",
	"onionos",
	"muos",
	"es_de",
	"emudeck",
	"retrodeck",
	"retrobat",
	"launchbox",
	"attract_mode",
	"pegasus",
	"retroarch",
}

// SignatureHints lists the path or glob signatures that contribute +1 each
// to an ecosystem's detection score.
var SignatureHints = map[string][]string{
	"retroarch":    {"*.lpl", "thumbnails"},
	"pegasus":      {"metadata.pegasus.txt"},
	"attract_mode": {"attract.cfg", "romlists"},
	"launchbox":    {"LaunchBox/Data/Platforms", "LaunchBox/Images"},
	"es_de":        {"ES-DE/gamelists", "ES-DE/downloaded_media"},
	"retrobat":     {"retrobat.ini", "roms"},
	"onionos":      {"Roms", "miyoogamelist.xml", "Imgs"},
	"muos":         {"MUOS/info/catalogue"},
	"batocera":     {"userdata/roms", "gamelist.xml"},
	"es_classic":   {".emulationstation/gamelists", ".emulationstation/es_systems.cfg"},
}

// FamilyFor maps an ecosystem id to its loader family.
func FamilyFor(ecosystem string) string {
	switch ecosystem {
	case "es_classic", "batocera", "knulli", "amberelec", "jelos_rocknix", "arkos", "retrobat":
		return "es_family"
	case "es_de", "emudeck", "retrodeck":
		return "es_de_family"
	case "launchbox":
		return "windows_launcher"
	case "attract_mode":
		return "arcade_frontend"
	case "pegasus":
		return "pegasus"
	case "retroarch":
		return "retroarch_playlist"
	case "onionos", "muos":
		return "handheld_minimal"
	default:
		return "unknown"
	}
}

// ESFamilyTagToAssetType maps gamelist.xml media tags onto asset types.
var ESFamilyTagToAssetType = map[string]model.AssetType{
	"image":     model.AssetBoxFront,
	"thumbnail": model.AssetScreenshotGameplay,
	"fanart":    model.AssetFanart,
	"marquee":   model.AssetMarquee,
	"video":     model.AssetVideo,
	"manual":    model.AssetManual,
	"bezel":     model.AssetBezel,
}

// BatoceraSuffixToAssetType maps the suffix naming style used by
// suffix-based ES derivatives.
var BatoceraSuffixToAssetType = map[string]model.AssetType{
	"-image":   model.AssetBoxFront,
	"-thumb":   model.AssetScreenshotGameplay,
	"-marquee": model.AssetMarquee,
	"-video":   model.AssetVideo,
	"-bezel":   model.AssetBezel,
}

// MediaSuffixOrdered is the suffix probe order for both asset-type
// inference and stem normalization. Longer or more specific entries first.
var MediaSuffixOrdered = []string{"-image", "-thumb", "-marquee", "-video", "-bezel"}

// MediaSuffixHeuristicGroups maps asset types to loose filename tokens
// checked after the exact suffix table (matched as "-token" or "_token").
var MediaSuffixHeuristicGroups = map[model.AssetType][]string{
	model.AssetBoxFront:           {"boxart", "box", "cover"},
	model.AssetScreenshotGameplay: {"screenshot", "snap"},
	model.AssetScreenshotTitle:    {"title"},
	model.AssetMarquee:            {"wheel", "logo"},
	model.AssetFanart:             {"fanart", "background"},
	model.AssetMiximage:           {"mix", "miximage"},
	model.AssetManual:             {"manual"},
}

// ESDEMediaFolderToAssetType maps ES-DE downloaded_media subfolders.
var ESDEMediaFolderToAssetType = map[string]model.AssetType{
	"covers":       model.AssetBoxFront,
	"backcovers":   model.AssetBoxBack,
	"3dboxes":      model.AssetBoxFront,
	"screenshots":  model.AssetScreenshotGameplay,
	"titlescreens": model.AssetScreenshotTitle,
	"marquees":     model.AssetMarquee,
	"fanart":       model.AssetFanart,
	"videos":       model.AssetVideo,
	"manuals":      model.AssetManual,
	"miximages":    model.AssetMiximage,
}

// RetroArchThumbnailFolderToAssetType maps RetroArch thumbnail folders.
var RetroArchThumbnailFolderToAssetType = map[string]model.AssetType{
	"Named_Boxarts": model.AssetBoxFront,
	"Named_Snaps":   model.AssetScreenshotGameplay,
	"Named_Titles":  model.AssetScreenshotTitle,
}

// MuosFolderToAssetType maps muOS catalogue folders.
var MuosFolderToAssetType = map[string]model.AssetType{
	"box":     model.AssetBoxFront,
	"preview": model.AssetScreenshotGameplay,
}

// MediaFallbackFolders describes where each ecosystem family keeps media by
// convention, keyed by fallback family then output slot. "{system}" expands
// to the accepted platform-name spellings.
var MediaFallbackFolders = map[string]map[string][]string{
	"es_family": {
		"image":     {"images", "downloaded_images", "boxart"},
		"thumbnail": {"images", "downloaded_images"},
		"marquee":   {"images", "wheel"},
		"video":     {"videos", "downloaded_videos"},
		"manual":    {"manuals"},
		"fanart":    {"images", "fanart"},
	},
	"es_de": {
		"image":     {"ES-DE/downloaded_media/{system}/covers", "ES-DE/downloaded_media/{system}/miximages"},
		"thumbnail": {"ES-DE/downloaded_media/{system}/screenshots"},
		"marquee":   {"ES-DE/downloaded_media/{system}/marquees"},
		"video":     {"ES-DE/downloaded_media/{system}/videos"},
		"manual":    {"ES-DE/downloaded_media/{system}/manuals"},
		"fanart":    {"ES-DE/downloaded_media/{system}/fanart"},
	},
	"retroarch": {
		"image":     {"thumbnails/{system}/Named_Boxarts"},
		"thumbnail": {"thumbnails/{system}/Named_Snaps"},
	},
	"onionos": {
		"image":     {"Roms/{system}/Imgs"},
		"thumbnail": {"Roms/{system}/Imgs"},
	},
	"muos": {
		"image":     {"MUOS/info/catalogue/{system}/box"},
		"thumbnail": {"MUOS/info/catalogue/{system}/preview"},
	},
}

// FallbackFamilyFor collapses an ecosystem id onto its media fallback
// family key.
func FallbackFamilyFor(ecosystem string) string {
	switch ecosystem {
	case "es_classic", "batocera", "knulli", "amberelec", "jelos_rocknix", "arkos", "retrobat":
		return "es_family"
	case "es_de", "emudeck", "retrodeck":
		return "es_de"
	default:
		return ecosystem
	}
}

// CandidateAssetSlots lists which output slots an ecosystem can plausibly
// supply media for, so fallback search is attempted even when metadata
// declared no asset at all.
func CandidateAssetSlots(ecosystem string) []string {
	switch ecosystem {
	case "launchbox",
		"es_classic", "batocera", "knulli", "amberelec", "jelos_rocknix", "arkos", "retrobat",
		"es_de", "emudeck", "retrodeck":
		return []string{"image", "thumbnail", "video", "manual", "marquee", "fanart"}
	case "retroarch", "onionos", "muos":
		return []string{"image", "thumbnail", "video"}
	default:
		return nil
	}
}

// CatalogProfileBySystem lists, per canonical system id, the catalog source
// keys to try in preference order.
var CatalogProfileBySystem = map[string][]string{
	"arcade": {"arcade", "fbneo", "mame"},
	"mame":   {"mame"},
	"fbneo":  {"fbneo"},
	"cps1":   {"fbneo", "mame"},
	"cps2":   {"fbneo", "mame"},
	"cps3":   {"fbneo", "mame"},
	"neogeo": {"fbneo", "mame"},
}

// CatalogSourceFilenames lists the candidate catalog filenames per source
// key, tried in order under each search root.
var CatalogSourceFilenames = map[string][]string{
	"arcade": {"arcade.dat"},
	"fbneo":  {"fbneo.dat", "FinalBurn Neo (Arcade).dat", "fbn.dat"},
	"mame":   {"mame.dat", "mame.xml", "MAME (Arcade).dat"},
}
