package metadata

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/model"
)

// launchboxImageFolders lists the Images/<platform> subfolders probed per
// output slot, in preference order.
var launchboxImageFolders = map[string][]string{
	"image": {
		"Box - Front", "Box - Front - Reconstructed", "Box - 3D",
		"Cart - Front", "Cart - Back", "Cart - 3D", "Disc",
		"Screenshot - Gameplay", "Screenshot - Game Title",
	},
	"thumbnail": {
		"Screenshot - Gameplay", "Screenshot - Game Title",
		"Screenshot - High Scores", "Screenshot - Game Over", "Screenshot - Game Select",
	},
	"marquee": {"Clear Logo", "Arcade - Marquee", "Banner", "Steam Banner"},
}

var reservedDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {}, "COM1": {}, "LPT1": {},
}

// SafeFilename rewrites a name so it is valid on FAT/NTFS style
// filesystems: forbidden characters become underscores, trailing dots go,
// and reserved device names get a suffix.
func SafeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	cleaned = strings.TrimRight(cleaned, ".")
	if cleaned == "" {
		return "untitled"
	}
	if _, reserved := reservedDeviceNames[strings.ToUpper(cleaned)]; reserved {
		cleaned += "_file"
	}
	return cleaned
}

// AssetSearch resolves media files through ecosystem folder conventions
// when metadata declared no usable asset for a slot.
type AssetSearch struct {
	SourceRoot string
	Ecosystem  string
	System     *model.System
}

// platformNames returns the folder-name spellings to try for the system,
// both as written and with separators replaced by spaces.
func (s *AssetSearch) platformNames() []string {
	var names []string
	seen := map[string]struct{}{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[strings.ToLower(name)]; ok {
			return
		}
		seen[strings.ToLower(name)] = struct{}{}
		names = append(names, name)
	}
	if s.System != nil {
		add(s.System.DisplayName)
		add(spacedName(s.System.DisplayName))
		add(s.System.SystemID)
		add(spacedName(s.System.SystemID))
	}
	return names
}

func spacedName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

// Find searches the fallback folders of the source ecosystem for a media
// file serving the slot. The game's title is preferred over the ROM stem as
// the filename prefix.
func (s *AssetSearch) Find(game *model.Game, slot string) string {
	prefixes := searchPrefixes(game)
	if len(prefixes) == 0 {
		return ""
	}
	if s.Ecosystem == "launchbox" {
		return s.findLaunchBox(slot, prefixes)
	}
	return s.findGeneric(game, slot, prefixes)
}

func searchPrefixes(game *model.Game) []string {
	var prefixes []string
	if title := strings.TrimSpace(game.Title); title != "" {
		prefixes = append(prefixes, SafeFilename(title))
	}
	if stem := game.RomBasename(); stem != "" {
		prefixes = append(prefixes, stem)
	}
	return prefixes
}

func (s *AssetSearch) findLaunchBox(slot string, prefixes []string) string {
	for _, platform := range s.platformNames() {
		var folders []string
		switch slot {
		case "video":
			folders = []string{filepath.Join(s.SourceRoot, "Videos", platform)}
		case "manual":
			folders = []string{
				filepath.Join(s.SourceRoot, "Manuals", platform),
				filepath.Join(s.SourceRoot, "Manuals"),
			}
		case "fanart":
			folders = fanartFolders(filepath.Join(s.SourceRoot, "Images", platform))
		default:
			for _, sub := range launchboxImageFolders[slot] {
				folders = append(folders, filepath.Join(s.SourceRoot, "Images", platform, sub))
			}
		}
		for _, folder := range folders {
			if found := firstPrefixMatch(folder, prefixes); found != "" {
				return found
			}
		}
	}
	return ""
}

// fanartFolders lists every Images/<platform> subfolder whose name starts
// with "Fanart", sorted for determinism.
func fanartFolders(imagesRoot string) []string {
	entries, err := os.ReadDir(imagesRoot)
	if err != nil {
		return nil
	}
	var folders []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "Fanart") {
			folders = append(folders, filepath.Join(imagesRoot, entry.Name()))
		}
	}
	sort.Strings(folders)
	return folders
}

func (s *AssetSearch) findGeneric(game *model.Game, slot string, prefixes []string) string {
	family := ecosys.FallbackFamilyFor(s.Ecosystem)
	templates := ecosys.MediaFallbackFolders[family][slot]
	if len(templates) == 0 {
		return ""
	}
	roots := []string{s.SourceRoot}
	if family == "es_family" && game.RomPath != "" {
		parent := filepath.Dir(game.RomPath)
		roots = []string{parent, filepath.Dir(parent), s.SourceRoot}
	}
	platforms := s.platformNames()
	for _, template := range templates {
		var expanded []string
		if strings.Contains(template, "{system}") {
			for _, platform := range platforms {
				expanded = append(expanded, strings.ReplaceAll(template, "{system}", platform))
			}
		} else {
			expanded = []string{template}
		}
		for _, rel := range expanded {
			for _, root := range roots {
				if found := firstPrefixMatch(filepath.Join(root, filepath.FromSlash(rel)), prefixes); found != "" {
					return found
				}
			}
		}
	}
	return ""
}

// firstPrefixMatch returns the lexically first file in dir whose name starts
// with one of the prefixes (case-insensitive). Prefixes are tried in order,
// so a title match beats a ROM-stem match.
func firstPrefixMatch(dir string, prefixes []string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, prefix := range prefixes {
		lowered := strings.ToLower(prefix)
		for _, name := range names {
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			if strings.HasPrefix(strings.ToLower(stem), lowered) {
				return filepath.Join(dir, name)
			}
		}
	}
	return ""
}
