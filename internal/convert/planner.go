package convert

import (
	"path/filepath"

	"github.com/xxxsen/retrosync/internal/model"
)

// Asset slot names shared between planners, pickers and entry builders.
const (
	SlotImage     = "image"
	SlotThumbnail = "thumbnail"
	SlotMarquee   = "marquee"
	SlotVideo     = "video"
	SlotManual    = "manual"
	SlotBezel     = "bezel"
	SlotFanart    = "fanart"
)

// PlannedPaths is the destination layout for one game. Asset paths carry no
// extension; the engine appends the source file's extension on copy.
type PlannedPaths struct {
	Rom          string
	MetadataFile string
	Assets       map[string]string
}

// Planner lays out one target ecosystem's folder structure.
type Planner interface {
	Name() string
	// DestSystemName maps a source system id through the user mapping,
	// falling back to the target's conventions.
	DestSystemName(systemID string, mapping map[string]string) string
	Plan(outputRoot, destSystem, safeStem, romFilename string) *PlannedPaths
}

var plannerRegistry = map[string]Planner{}

func registerPlanner(p Planner) {
	plannerRegistry[p.Name()] = p
}

// PlannerFor returns the planner for a target ecosystem id.
func PlannerFor(target string) (Planner, bool) {
	p, ok := plannerRegistry[target]
	return p, ok
}

// Targets lists the supported conversion targets.
func Targets() []string {
	targets := make([]string, 0, len(plannerRegistry))
	for name := range plannerRegistry {
		targets = append(targets, name)
	}
	return targets
}

func init() {
	registerPlanner(batoceraPlanner{})
	registerPlanner(esClassicPlanner{})
	registerPlanner(esDEPlanner{})
	registerPlanner(launchboxPlanner{})
	registerPlanner(retrobatPlanner{})
}

func mappedSystem(systemID string, mapping map[string]string) string {
	if mapped, ok := mapping[systemID]; ok && mapped != "" {
		return mapped
	}
	return systemID
}

type batoceraPlanner struct{}

func (batoceraPlanner) Name() string { return "batocera" }

func (batoceraPlanner) DestSystemName(systemID string, mapping map[string]string) string {
	return mappedSystem(systemID, mapping)
}

func (batoceraPlanner) Plan(outputRoot, destSystem, safeStem, romFilename string) *PlannedPaths {
	systemRoot := filepath.Join(outputRoot, "roms", destSystem)
	return &PlannedPaths{
		Rom:          filepath.Join(systemRoot, romFilename),
		MetadataFile: filepath.Join(systemRoot, "gamelist.xml"),
		Assets: map[string]string{
			SlotImage:     filepath.Join(systemRoot, "images", safeStem+"-image"),
			SlotThumbnail: filepath.Join(systemRoot, "images", safeStem+"-thumb"),
			SlotMarquee:   filepath.Join(systemRoot, "images", safeStem+"-marquee"),
			SlotBezel:     filepath.Join(systemRoot, "images", safeStem+"-bezel"),
			SlotVideo:     filepath.Join(systemRoot, "videos", safeStem+"-video"),
			SlotManual:    filepath.Join(systemRoot, "manuals", safeStem),
		},
	}
}

type esClassicPlanner struct{}

func (esClassicPlanner) Name() string { return "es_classic" }

func (esClassicPlanner) DestSystemName(systemID string, mapping map[string]string) string {
	return mappedSystem(systemID, mapping)
}

func (esClassicPlanner) Plan(outputRoot, destSystem, safeStem, romFilename string) *PlannedPaths {
	systemRoot := filepath.Join(outputRoot, "roms", destSystem)
	return &PlannedPaths{
		Rom:          filepath.Join(systemRoot, romFilename),
		MetadataFile: filepath.Join(systemRoot, "gamelist.xml"),
		Assets: map[string]string{
			SlotImage:     filepath.Join(systemRoot, "images", safeStem),
			SlotThumbnail: filepath.Join(systemRoot, "images", safeStem+"-thumb"),
			SlotMarquee:   filepath.Join(systemRoot, "images", safeStem+"-marquee"),
			SlotVideo:     filepath.Join(systemRoot, "videos", safeStem),
			SlotManual:    filepath.Join(systemRoot, "manuals", safeStem),
		},
	}
}

type esDEPlanner struct{}

func (esDEPlanner) Name() string { return "es_de" }

func (esDEPlanner) DestSystemName(systemID string, mapping map[string]string) string {
	return mappedSystem(systemID, mapping)
}

func (esDEPlanner) Plan(outputRoot, destSystem, safeStem, romFilename string) *PlannedPaths {
	mediaRoot := filepath.Join(outputRoot, "downloaded_media", destSystem)
	return &PlannedPaths{
		Rom:          filepath.Join(outputRoot, "roms", destSystem, romFilename),
		MetadataFile: filepath.Join(outputRoot, "gamelists", destSystem, "gamelist.xml"),
		Assets: map[string]string{
			SlotImage:     filepath.Join(mediaRoot, "covers", safeStem),
			SlotThumbnail: filepath.Join(mediaRoot, "screenshots", safeStem),
			SlotMarquee:   filepath.Join(mediaRoot, "marquees", safeStem),
			SlotVideo:     filepath.Join(mediaRoot, "videos", safeStem),
			SlotManual:    filepath.Join(mediaRoot, "manuals", safeStem),
			SlotFanart:    filepath.Join(mediaRoot, "fanart", safeStem),
			SlotBezel:     filepath.Join(mediaRoot, "fanart", safeStem+"-bezel"),
		},
	}
}

type launchboxPlanner struct{}

func (launchboxPlanner) Name() string { return "launchbox" }

func (launchboxPlanner) DestSystemName(systemID string, mapping map[string]string) string {
	if mapped, ok := mapping[systemID]; ok && mapped != "" {
		return mapped
	}
	if display := launchboxPlatformNames[systemID]; display != "" {
		return display
	}
	if systemID == "" {
		return "Unknown"
	}
	return systemID
}

// Canonical ids LaunchBox knows friendlier platform names for.
var launchboxPlatformNames = map[string]string{
	"snes":      "Super Nintendo Entertainment System",
	"nes":       "Nintendo Entertainment System",
	"n64":       "Nintendo 64",
	"genesis":   "Sega Genesis",
	"megadrive": "Sega Genesis",
	"psx":       "Sony Playstation",
	"psp":       "Sony PSP",
	"dreamcast": "Sega Dreamcast",
	"gba":       "Nintendo Game Boy Advance",
	"arcade":    "Arcade",
	"neogeo":    "SNK Neo Geo AES",
}

func (launchboxPlanner) Plan(outputRoot, destSystem, safeStem, romFilename string) *PlannedPaths {
	imagesRoot := filepath.Join(outputRoot, "Images", destSystem)
	return &PlannedPaths{
		Rom:          filepath.Join(outputRoot, "Games", destSystem, romFilename),
		MetadataFile: filepath.Join(outputRoot, "Data", "Platforms", destSystem+".xml"),
		Assets: map[string]string{
			SlotImage:     filepath.Join(imagesRoot, "Box - Front", safeStem),
			SlotThumbnail: filepath.Join(imagesRoot, "Screenshot - Gameplay", safeStem),
			SlotMarquee:   filepath.Join(imagesRoot, "Clear Logo", safeStem),
			SlotFanart:    filepath.Join(imagesRoot, "Fanart - Background", safeStem),
			SlotVideo:     filepath.Join(outputRoot, "Videos", destSystem, safeStem),
			SlotManual:    filepath.Join(outputRoot, "Manuals", destSystem, safeStem),
		},
	}
}

type retrobatPlanner struct{}

func (retrobatPlanner) Name() string { return "retrobat" }

func (retrobatPlanner) DestSystemName(systemID string, mapping map[string]string) string {
	return mappedSystem(systemID, mapping)
}

func (retrobatPlanner) Plan(outputRoot, destSystem, safeStem, romFilename string) *PlannedPaths {
	systemRoot := filepath.Join(outputRoot, "roms", destSystem)
	return &PlannedPaths{
		Rom:          filepath.Join(systemRoot, romFilename),
		MetadataFile: filepath.Join(systemRoot, "gamelist.xml"),
		Assets: map[string]string{
			SlotImage:     filepath.Join(systemRoot, "images", "boxart", safeStem),
			SlotThumbnail: filepath.Join(systemRoot, "images", "boxart", safeStem+"-thumb"),
			SlotMarquee:   filepath.Join(systemRoot, "images", "wheel", safeStem),
			SlotVideo:     filepath.Join(systemRoot, "images", "video", safeStem),
			SlotManual:    filepath.Join(systemRoot, "manuals", safeStem),
		},
	}
}

// assetSlotSources lists, per slot, the asset types accepted for it in
// preference order.
var assetSlotSources = map[string][]model.AssetType{
	SlotImage: {
		model.AssetBoxFront, model.AssetBoxBack, model.AssetBoxSpine, model.AssetDisc,
		model.AssetScreenshotGameplay, model.AssetScreenshotTitle, model.AssetScreenshotMenu,
		model.AssetMiximage,
	},
	SlotThumbnail: {model.AssetScreenshotGameplay, model.AssetScreenshotTitle},
	SlotMarquee:   {model.AssetMarquee, model.AssetWheel, model.AssetLogo},
	SlotVideo:     {model.AssetVideo},
	SlotManual:    {model.AssetManual},
	SlotBezel:     {model.AssetBezel},
	SlotFanart:    {model.AssetFanart, model.AssetBackground, model.AssetBezel},
}
