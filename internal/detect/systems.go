package detect

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/model"
	"github.com/xxxsen/retrosync/internal/sysid"
)

const (
	maxPlaylistFiles = 3000
	maxGamelistFiles = 6000
	// File budget when probing whether a directory holds ROMs.
	systemDirProbeBudget = 2500
)

func (d *Detector) enumerateSystems(root, ecosystem string, f *facts) ([]*model.System, error) {
	var (
		systems []*model.System
		err     error
	)
	switch ecosystem {
	case "launchbox":
		systems = d.launchboxSystems(root, f)
	case "es_de", "emudeck", "retrodeck":
		systems = d.esdeSystems(root, ecosystem)
	case "retroarch":
		systems, err = d.retroarchSystems(root, false)
	case "attract_mode":
		systems = d.attractSystems(root)
	case "onionos":
		systems = d.onionSystems(root, false)
	case "muos":
		systems = d.muosSystems(root)
	case "pegasus":
		systems, err = d.pegasusSystems(root, false)
	default:
		systems, err = d.esFamilySystems(root, ecosystem, f, false)
	}
	if err != nil {
		return nil, err
	}
	return dedupeSystems(systems), nil
}

func (d *Detector) enumerateSystemsMeta(root, ecosystem string, f *facts) ([]*model.System, error) {
	var (
		systems []*model.System
		err     error
	)
	switch ecosystem {
	case "launchbox":
		systems = d.launchboxSystems(root, f)
	case "es_de", "emudeck", "retrodeck":
		systems = d.esdeSystems(root, ecosystem)
	case "retroarch":
		systems, err = d.retroarchSystems(root, true)
	case "attract_mode":
		systems = d.attractSystems(root)
	case "onionos":
		systems = d.onionSystems(root, true)
	case "muos":
		systems = d.muosSystems(root)
	case "pegasus":
		systems, err = d.pegasusSystems(root, true)
	default:
		systems, err = d.esFamilySystems(root, ecosystem, f, true)
	}
	if err != nil {
		return nil, err
	}
	return dedupeSystems(systems), nil
}

func (d *Detector) launchboxSystems(root string, f *facts) []*model.System {
	lbRoot := root
	if f != nil && f.launchboxRoot != "" {
		lbRoot = f.launchboxRoot
	}
	platformDir := filepath.Join(lbRoot, "Data", "Platforms")
	entries, err := os.ReadDir(platformDir)
	if err != nil {
		return nil
	}
	var systems []*model.System
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		display := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		systems = append(systems, &model.System{
			SystemID:          sysid.Canonicalize(display),
			DisplayName:       display,
			RomRoot:           lbRoot,
			MetadataSource:    model.SourceLaunchBoxXML,
			MetadataPaths:     []string{filepath.Join(platformDir, entry.Name())},
			DetectedEcosystem: "launchbox",
		})
	}
	return systems
}

func (d *Detector) esdeSystems(root, ecosystem string) []*model.System {
	gamelistRoot := filepath.Join(root, "ES-DE", "gamelists")
	entries, err := os.ReadDir(gamelistRoot)
	if err != nil {
		return nil
	}
	var systems []*model.System
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		display := entry.Name()
		romRoot := firstExistingDir(
			filepath.Join(root, "roms", display),
			filepath.Join(root, "Roms", display),
		)
		if romRoot == "" {
			romRoot = filepath.Join(root, "roms", display)
		}
		system := &model.System{
			SystemID:          sysid.Canonicalize(display),
			DisplayName:       display,
			RomRoot:           romRoot,
			MetadataSource:    model.SourceGamelistXML,
			DetectedEcosystem: ecosystem,
		}
		gamelist := filepath.Join(gamelistRoot, display, "gamelist.xml")
		if pathExists(gamelist) {
			system.MetadataPaths = []string{gamelist}
		}
		systems = append(systems, system)
	}
	return systems
}

func (d *Detector) retroarchSystems(root string, metaOnly bool) ([]*model.System, error) {
	var playlists []string
	if metaOnly {
		playlists = append(playlists, globFiles(filepath.Join(root, "playlists"), "*.lpl")...)
		playlists = append(playlists, globFiles(root, "*.lpl")...)
	} else {
		found, err := d.collectMatches(root, "*.lpl", maxPlaylistFiles)
		if err != nil {
			return nil, err
		}
		playlists = found
	}
	var systems []*model.System
	for _, playlist := range playlists {
		display := strings.TrimSuffix(filepath.Base(playlist), filepath.Ext(playlist))
		systems = append(systems, &model.System{
			SystemID:          sysid.Canonicalize(display),
			DisplayName:       display,
			RomRoot:           root,
			MetadataSource:    model.SourceRetroArchLPL,
			MetadataPaths:     []string{playlist},
			DetectedEcosystem: "retroarch",
		})
	}
	return systems, nil
}

func (d *Detector) attractSystems(root string) []*model.System {
	var systems []*model.System
	for _, romlist := range globFiles(filepath.Join(root, "romlists"), "*.txt") {
		display := strings.TrimSuffix(filepath.Base(romlist), filepath.Ext(romlist))
		systems = append(systems, &model.System{
			SystemID:          sysid.Canonicalize(display),
			DisplayName:       display,
			RomRoot:           root,
			MetadataSource:    model.SourceRomlist,
			MetadataPaths:     []string{romlist},
			DetectedEcosystem: "attract_mode",
		})
	}
	return systems
}

func (d *Detector) onionSystems(root string, metaOnly bool) []*model.System {
	romsRoot := filepath.Join(root, "Roms")
	entries, err := os.ReadDir(romsRoot)
	if err != nil {
		return nil
	}
	var systems []*model.System
	for _, entry := range entries {
		if !entry.IsDir() || strings.EqualFold(entry.Name(), "Imgs") {
			continue
		}
		display := entry.Name()
		gamelist := filepath.Join(romsRoot, display, "miyoogamelist.xml")
		hasGamelist := pathExists(gamelist)
		if metaOnly && !hasGamelist {
			continue
		}
		system := &model.System{
			SystemID:          sysid.Canonicalize(display),
			DisplayName:       display,
			RomRoot:           filepath.Join(romsRoot, display),
			MetadataSource:    model.SourceNone,
			DetectedEcosystem: "onionos",
		}
		if hasGamelist {
			system.MetadataSource = model.SourceMiyooGamelist
			system.MetadataPaths = []string{gamelist}
		}
		systems = append(systems, system)
	}
	return systems
}

func (d *Detector) muosSystems(root string) []*model.System {
	catalogueRoot := filepath.Join(root, "MUOS", "info", "catalogue")
	entries, err := os.ReadDir(catalogueRoot)
	if err != nil {
		return nil
	}
	var systems []*model.System
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		display := entry.Name()
		systems = append(systems, &model.System{
			SystemID:          sysid.Canonicalize(display),
			DisplayName:       display,
			RomRoot:           root,
			MetadataSource:    model.SourceNone,
			DetectedEcosystem: "muos",
		})
	}
	return systems
}

func (d *Detector) pegasusSystems(root string, metaOnly bool) ([]*model.System, error) {
	var metadataFiles []string
	if metaOnly {
		direct := filepath.Join(root, "metadata.pegasus.txt")
		if pathExists(direct) {
			metadataFiles = append(metadataFiles, direct)
		}
		metadataFiles = append(metadataFiles, globFiles2(root, "*", "metadata.pegasus.txt")...)
	} else {
		found, err := d.collectMatches(root, "metadata.pegasus.txt", maxGamelistFiles)
		if err != nil {
			return nil, err
		}
		metadataFiles = found
	}
	var systems []*model.System
	for _, metadataFile := range metadataFiles {
		parent := filepath.Dir(metadataFile)
		display := filepath.Base(parent)
		systems = append(systems, &model.System{
			SystemID:          sysid.Canonicalize(display),
			DisplayName:       display,
			RomRoot:           parent,
			MetadataSource:    model.SourcePegasus,
			MetadataPaths:     []string{metadataFile},
			DetectedEcosystem: "pegasus",
		})
	}
	return systems, nil
}

func (d *Detector) esFamilySystems(root, ecosystem string, f *facts, metaOnly bool) ([]*model.System, error) {
	var gamelists []string
	var err error
	if metaOnly {
		gamelists, err = d.collectGamelistsMeta(root)
	} else {
		gamelists, err = d.collectMatches(root, "gamelist.xml", maxGamelistFiles)
	}
	if err != nil {
		return nil, err
	}

	detected := ecosystem
	if ecosystem == "es_classic" || ecosystem == "batocera" {
		if f != nil && f.hasBatoceraSuffixes {
			detected = "batocera"
		} else {
			detected = "es_classic"
		}
	}

	var systems []*model.System
	for _, gamelist := range gamelists {
		parent := filepath.Dir(gamelist)
		display := filepath.Base(parent)
		lower := strings.ToLower(display)
		// gamelists/<system>/gamelist.xml keeps metadata away from the ROMs;
		// the folder above carries no system name either.
		if lower == "gamelists" || lower == "metadata" {
			continue
		}
		if parentName := strings.ToLower(filepath.Base(filepath.Dir(parent))); parentName == "gamelists" {
			systems = append(systems, &model.System{
				SystemID:          sysid.Canonicalize(display),
				DisplayName:       display,
				RomRoot:           guessRomRootFor(root, display),
				MetadataSource:    model.SourceGamelistXML,
				MetadataPaths:     []string{gamelist},
				DetectedEcosystem: detected,
			})
			continue
		}
		systems = append(systems, &model.System{
			SystemID:          sysid.Canonicalize(display),
			DisplayName:       display,
			RomRoot:           parent,
			MetadataSource:    model.SourceGamelistXML,
			MetadataPaths:     []string{gamelist},
			DetectedEcosystem: detected,
		})
	}

	if metaOnly {
		return systems, nil
	}

	// ROM folders without any gamelist still count as systems when their
	// contents look like ROMs.
	known := make(map[string]struct{}, len(systems))
	for _, system := range systems {
		known[system.SystemID] = struct{}{}
	}
	for _, candidateRoot := range []string{
		filepath.Join(root, "roms"),
		filepath.Join(root, "Roms"),
		root,
	} {
		entries, err := os.ReadDir(candidateRoot)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if cancelErr := d.checkCancel(); cancelErr != nil {
				return nil, cancelErr
			}
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if strings.HasPrefix(name, ".") || ecosys.IsAssetDirectory(strings.ToLower(name)) {
				continue
			}
			canonical := sysid.Canonicalize(name)
			if _, ok := known[canonical]; ok {
				continue
			}
			dir := filepath.Join(candidateRoot, name)
			looks, err := d.looksLikeSystemDir(dir)
			if err != nil {
				return nil, err
			}
			if !looks {
				continue
			}
			known[canonical] = struct{}{}
			systems = append(systems, &model.System{
				SystemID:          canonical,
				DisplayName:       name,
				RomRoot:           dir,
				MetadataSource:    model.SourceNone,
				DetectedEcosystem: detected,
			})
		}
	}
	return systems, nil
}

// collectGamelistsMeta probes the handful of conventional metadata homes
// instead of walking the whole tree.
func (d *Detector) collectGamelistsMeta(root string) ([]string, error) {
	candidates := []string{
		root,
		filepath.Join(root, "roms"),
		filepath.Join(root, "Roms"),
		filepath.Join(root, "ES-DE", "gamelists"),
		filepath.Join(root, ".emulationstation", "gamelists"),
	}
	seen := make(map[string]struct{})
	var gamelists []string
	add := func(p string) {
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		gamelists = append(gamelists, p)
	}
	for _, candidate := range candidates {
		if err := d.checkCancel(); err != nil {
			return nil, err
		}
		direct := filepath.Join(candidate, "gamelist.xml")
		if pathExists(direct) {
			add(direct)
		}
		entries, err := os.ReadDir(candidate)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			nested := filepath.Join(candidate, entry.Name(), "gamelist.xml")
			if pathExists(nested) {
				add(nested)
			}
		}
	}
	sort.Strings(gamelists)
	return gamelists, nil
}

func (d *Detector) looksLikeSystemDir(dir string) (bool, error) {
	cacheKey := strings.ToLower(dir)
	if value, ok := d.systemDirCache[cacheKey]; ok {
		return value, nil
	}
	if pathExists(filepath.Join(dir, "gamelist.xml")) {
		d.systemDirCache[cacheKey] = true
		return true, nil
	}
	budget := systemDirProbeBudget
	found := false
	err := filepath.WalkDir(dir, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cancelErr := d.checkCancel(); cancelErr != nil {
			return cancelErr
		}
		if entry.IsDir() {
			if ecosys.IsAssetDirectory(strings.ToLower(entry.Name())) {
				return fs.SkipDir
			}
			return nil
		}
		budget--
		if budget < 0 {
			return fs.SkipAll
		}
		if ecosys.IsRomExtension(strings.ToLower(filepath.Ext(entry.Name()))) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	d.systemDirCache[cacheKey] = found
	return found, nil
}

func dedupeSystems(systems []*model.System) []*model.System {
	seen := make(map[string]struct{}, len(systems))
	deduped := make([]*model.System, 0, len(systems))
	for _, system := range systems {
		if system.SystemID == "" {
			continue
		}
		if _, ok := seen[system.SystemID]; ok {
			continue
		}
		seen[system.SystemID] = struct{}{}
		deduped = append(deduped, system)
	}
	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].SystemID < deduped[j].SystemID
	})
	return deduped
}

func guessRomRootFor(root, display string) string {
	romRoot := firstExistingDir(
		filepath.Join(root, "roms", display),
		filepath.Join(root, "Roms", display),
		filepath.Join(root, display),
	)
	if romRoot == "" {
		romRoot = filepath.Join(root, "roms", display)
	}
	return romRoot
}

func firstExistingDir(candidates ...string) string {
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}

func globFiles(dir, pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil
	}
	var files []string
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && !info.IsDir() {
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files
}

func globFiles2(dir, sub, pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, sub, pattern))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}
