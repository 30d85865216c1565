// Package detect classifies a source folder into one of the supported
// frontend ecosystems and enumerates its platform roots.
package detect

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/model"
	"github.com/xxxsen/retrosync/internal/sysid"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Scan modes accepted by the detector.
const (
	ModeMeta            = "meta"
	ModeDeep            = "deep"
	ModeForce           = "force"
	ModeSingleRomFolder = "single_rom_folder"
)

// Options tunes one detection run.
type Options struct {
	// Hint is an optional ecosystem the caller believes the root follows.
	// A matching hint short-circuits scanning; a non-matching one is ignored.
	Hint string
	// ScanMode is one of meta, deep, force or single_rom_folder.
	ScanMode string
	Progress model.ProgressFunc
	Cancel   model.CancelFunc
}

// Result is the outcome of a detection run.
type Result struct {
	SourceRoot string
	Ecosystem  string
	Family     string
	Confidence float64
	Scores     map[string]float64
	Systems    []*model.System
	Warnings   []string
	ScanMode   string
}

// ToLibrary wraps the detection outcome into an empty library shell.
func (r *Result) ToLibrary() *model.Library {
	lib := model.NewLibrary(r.SourceRoot)
	for _, system := range r.Systems {
		lib.Systems[system.SystemID] = system
	}
	lib.DetectedEcosystem = r.Ecosystem
	lib.Confidence = r.Confidence
	return lib
}

type facts struct {
	hasLPL                bool
	hasPegasusMetadata    bool
	hasAttractCfg         bool
	hasRomlistsDir        bool
	hasLaunchBoxPlatforms bool
	hasLaunchBoxImages    bool
	hasESDEGamelists      bool
	hasESDEMedia          bool
	hasRetrobatIni        bool
	hasMiyooGamelist      bool
	hasMuosCatalogue      bool
	hasGamelistXML        bool
	hasESHome             bool
	hasUserdataRoms       bool
	hasOnionImgsDir       bool
	hasBatoceraSuffixes   bool
	hasRetrobatDeepImages bool
	launchboxRoot         string
}

// Detector classifies library roots. Existence probes are memoized per run,
// so one Detector should not be shared across concurrent calls.
type Detector struct {
	progress model.ProgressFunc
	cancel   model.CancelFunc

	hasAnyCache      map[string]bool
	hasDirNamedCache map[string]bool
	systemDirCache   map[string]bool
}

// New builds a fresh detector.
func New() *Detector {
	return &Detector{
		hasAnyCache:      make(map[string]bool),
		hasDirNamedCache: make(map[string]bool),
		systemDirCache:   make(map[string]bool),
	}
}

// Detect inspects root and returns the classified ecosystem plus enumerated
// systems. It returns model.ErrCancelled when the cancel check fires.
func (d *Detector) Detect(ctx context.Context, root string, opts Options) (*Result, error) {
	d.progress = opts.Progress
	d.cancel = opts.Cancel
	d.hasAnyCache = make(map[string]bool)
	d.hasDirNamedCache = make(map[string]bool)
	d.systemDirCache = make(map[string]bool)

	logger := logutil.GetLogger(ctx)
	selectedRoot, err := filepath.Abs(root)
	if err != nil {
		selectedRoot = root
	}
	scanMode := strings.ToLower(strings.TrimSpace(opts.ScanMode))
	if scanMode == "" {
		scanMode = ModeDeep
	}
	hint := strings.ToLower(strings.TrimSpace(opts.Hint))
	if err := d.checkCancel(); err != nil {
		return nil, err
	}

	if scanMode == ModeSingleRomFolder {
		return d.singleRomFolderResult(selectedRoot, scanMode), nil
	}

	launchboxRoot := launchboxRootFromSelected(selectedRoot)
	if scanMode == ModeMeta {
		scanRoot := selectedRoot
		if launchboxRoot != "" {
			scanRoot = launchboxRoot
		}
		d.progress.Emit("detect", "metadata-only scan root: "+scanRoot)
		f, err := d.scanFactsMeta(scanRoot)
		if err != nil {
			return nil, err
		}
		scores := d.scoreEcosystems(scanRoot, f)
		ecosystem := classifyEcosystem(f, scores)
		systems, err := d.enumerateSystemsMeta(scanRoot, ecosystem, f)
		if err != nil {
			return nil, err
		}
		result := &Result{
			SourceRoot: scanRoot,
			Ecosystem:  ecosystem,
			Family:     ecosys.FamilyFor(ecosystem),
			Confidence: confidenceFor(ecosystem, scores),
			Scores:     scores,
			Systems:    systems,
			Warnings:   buildWarnings(f, ecosystem),
			ScanMode:   scanMode,
		}
		logger.Info("detect meta scan done",
			zap.String("ecosystem", result.Ecosystem),
			zap.Float64("confidence", result.Confidence),
			zap.Int("systems", len(result.Systems)))
		return result, nil
	}

	if err := d.checkCancel(); err != nil {
		return nil, err
	}
	if preferred, err := d.detectFromHint(selectedRoot, hint); err != nil {
		return nil, err
	} else if preferred != nil {
		d.progress.Emit("detect", "preferred source mode '"+hint+"' accepted")
		preferred.ScanMode = scanMode
		return preferred, nil
	}

	scanRoot := selectedRoot
	if launchboxRoot != "" {
		scanRoot = launchboxRoot
	}
	if err := d.checkCancel(); err != nil {
		return nil, err
	}
	fastEcosystem, fastFacts, err := d.autoFastDetect(scanRoot)
	if err != nil {
		return nil, err
	}
	if fastEcosystem != "" {
		d.progress.Emit("detect", "fast-path ecosystem match: "+fastEcosystem)
		scores := zeroScores()
		scores[fastEcosystem] = 10.0
		systems, err := d.enumerateSystems(scanRoot, fastEcosystem, fastFacts)
		if err != nil {
			return nil, err
		}
		return &Result{
			SourceRoot: scanRoot,
			Ecosystem:  fastEcosystem,
			Family:     ecosys.FamilyFor(fastEcosystem),
			Confidence: 1.0,
			Scores:     scores,
			Systems:    systems,
			Warnings:   buildWarnings(fastFacts, fastEcosystem),
			ScanMode:   scanMode,
		}, nil
	}

	d.progress.Emit("detect", "scanning root: "+scanRoot)
	f, err := d.scanFacts(scanRoot)
	if err != nil {
		return nil, err
	}
	scores := d.scoreEcosystems(scanRoot, f)
	ecosystem := classifyEcosystem(f, scores)
	if err := d.checkCancel(); err != nil {
		return nil, err
	}
	systems, err := d.enumerateSystems(scanRoot, ecosystem, f)
	if err != nil {
		return nil, err
	}
	result := &Result{
		SourceRoot: scanRoot,
		Ecosystem:  ecosystem,
		Family:     ecosys.FamilyFor(ecosystem),
		Confidence: confidenceFor(ecosystem, scores),
		Scores:     scores,
		Systems:    systems,
		Warnings:   buildWarnings(f, ecosystem),
		ScanMode:   scanMode,
	}
	logger.Info("detect scan done",
		zap.String("ecosystem", result.Ecosystem),
		zap.String("family", result.Family),
		zap.Float64("confidence", result.Confidence),
		zap.Int("systems", len(result.Systems)))
	return result, nil
}

func (d *Detector) singleRomFolderResult(root, scanMode string) *Result {
	name := filepath.Base(root)
	system := &model.System{
		SystemID:          sysid.Canonicalize(name),
		DisplayName:       name,
		RomRoot:           root,
		MetadataSource:    model.SourceNone,
		DetectedEcosystem: "es_classic",
	}
	scores := zeroScores()
	scores["es_classic"] = 10.0
	return &Result{
		SourceRoot: root,
		Ecosystem:  "es_classic",
		Family:     "es_family",
		Confidence: 1.0,
		Scores:     scores,
		Systems:    []*model.System{system},
		ScanMode:   scanMode,
	}
}

func (d *Detector) scanFacts(root string) (*facts, error) {
	f := &facts{}
	if err := d.checkCancel(); err != nil {
		return nil, err
	}

	// LaunchBox short-circuits the recursive probes; huge NAS roots make
	// them too expensive.
	if lbRoot := launchboxRootFromSelected(root); lbRoot != "" {
		f.hasLaunchBoxPlatforms = true
		f.hasLaunchBoxImages = pathExists(filepath.Join(lbRoot, "Images"))
		f.launchboxRoot = lbRoot
		return f, nil
	}

	f.hasRomlistsDir = pathExists(filepath.Join(root, "romlists"))
	f.hasESDEGamelists = pathExists(filepath.Join(root, "ES-DE", "gamelists"))
	f.hasESDEMedia = pathExists(filepath.Join(root, "ES-DE", "downloaded_media"))
	f.hasMuosCatalogue = pathExists(filepath.Join(root, "MUOS", "info", "catalogue"))
	f.hasESHome = pathExists(filepath.Join(root, ".emulationstation"))
	f.hasUserdataRoms = pathExists(filepath.Join(root, "userdata", "roms"))

	var err error
	if f.hasLPL, err = d.hasAny(root, "*.lpl"); err != nil {
		return nil, err
	}
	if f.hasPegasusMetadata, err = d.hasAny(root, "metadata.pegasus.txt"); err != nil {
		return nil, err
	}
	if f.hasAttractCfg, err = d.hasAny(root, "attract.cfg"); err != nil {
		return nil, err
	}
	if f.hasRetrobatIni, err = d.hasAny(root, "retrobat.ini"); err != nil {
		return nil, err
	}
	if f.hasMiyooGamelist, err = d.hasAny(root, "miyoogamelist.xml"); err != nil {
		return nil, err
	}
	if f.hasGamelistXML, err = d.hasAny(root, "gamelist.xml"); err != nil {
		return nil, err
	}
	if pathExists(filepath.Join(root, "Roms")) {
		if f.hasOnionImgsDir, err = d.hasDirNamed(filepath.Join(root, "Roms"), "Imgs"); err != nil {
			return nil, err
		}
	}
	for _, suffix := range ecosys.MediaSuffixOrdered {
		found, err := d.hasAny(root, "*"+suffix+".*")
		if err != nil {
			return nil, err
		}
		if found {
			f.hasBatoceraSuffixes = true
			break
		}
	}
	if pathExists(filepath.Join(root, "roms")) {
		boxart, err := d.hasDirNamed(filepath.Join(root, "roms"), "boxart")
		if err != nil {
			return nil, err
		}
		wheel := false
		if !boxart {
			if wheel, err = d.hasDirNamed(filepath.Join(root, "roms"), "wheel"); err != nil {
				return nil, err
			}
		}
		f.hasRetrobatDeepImages = boxart || wheel
	}
	return f, nil
}

func (d *Detector) scanFactsMeta(root string) (*facts, error) {
	f := &facts{}
	if err := d.checkCancel(); err != nil {
		return nil, err
	}

	if lbRoot := launchboxRootFromSelected(root); lbRoot != "" {
		f.hasLaunchBoxPlatforms = true
		f.hasLaunchBoxImages = pathExists(filepath.Join(lbRoot, "Images"))
		f.launchboxRoot = lbRoot
		return f, nil
	}

	f.hasRomlistsDir = pathExists(filepath.Join(root, "romlists"))
	f.hasESDEGamelists = pathExists(filepath.Join(root, "ES-DE", "gamelists"))
	f.hasESDEMedia = pathExists(filepath.Join(root, "ES-DE", "downloaded_media"))
	f.hasMuosCatalogue = pathExists(filepath.Join(root, "MUOS", "info", "catalogue"))
	f.hasESHome = pathExists(filepath.Join(root, ".emulationstation"))
	f.hasUserdataRoms = pathExists(filepath.Join(root, "userdata", "roms"))
	f.hasAttractCfg = pathExists(filepath.Join(root, "attract.cfg"))
	f.hasRetrobatIni = pathExists(filepath.Join(root, "retrobat.ini"))

	romsRoot := filepath.Join(root, "Roms")
	f.hasOnionImgsDir = pathExists(filepath.Join(romsRoot, "Imgs"))
	f.hasMiyooGamelist = anyGlob(romsRoot, "*/miyoogamelist.xml")
	f.hasLPL = anyGlob(filepath.Join(root, "playlists"), "*.lpl") || anyGlob(root, "*.lpl")
	f.hasPegasusMetadata = pathExists(filepath.Join(root, "metadata.pegasus.txt")) ||
		anyGlob(root, "*/metadata.pegasus.txt")
	gamelists, err := d.collectGamelistsMeta(root)
	if err != nil {
		return nil, err
	}
	f.hasGamelistXML = len(gamelists) > 0
	return f, nil
}

var hintAliases = map[string]string{
	"es family":            "es_classic",
	"es_family":            "es_classic",
	"es_family (gamelist)": "es_classic",
	"retroarch/playlist":   "retroarch",
	"attractmode":          "attract_mode",
}

func (d *Detector) detectFromHint(selectedRoot, hint string) (*Result, error) {
	if hint == "" {
		return nil, nil
	}
	if hint == "launchbox" {
		lbRoot := launchboxRootFromSelected(selectedRoot)
		if lbRoot == "" {
			return nil, nil
		}
		f := &facts{
			hasLaunchBoxPlatforms: true,
			hasLaunchBoxImages:    pathExists(filepath.Join(lbRoot, "Images")),
			launchboxRoot:         lbRoot,
		}
		return d.hintResult(lbRoot, "launchbox", f)
	}

	target := hint
	if mapped, ok := hintAliases[hint]; ok {
		target = mapped
	}
	matched, err := d.hintMatchesEcosystem(selectedRoot, target)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, nil
	}
	f, err := d.scanFacts(selectedRoot)
	if err != nil {
		return nil, err
	}
	return d.hintResult(selectedRoot, target, f)
}

func (d *Detector) hintResult(root, ecosystem string, f *facts) (*Result, error) {
	scores := zeroScores()
	if _, ok := scores[ecosystem]; ok {
		scores[ecosystem] = 10.0
	}
	systems, err := d.enumerateSystems(root, ecosystem, f)
	if err != nil {
		return nil, err
	}
	return &Result{
		SourceRoot: root,
		Ecosystem:  ecosystem,
		Family:     ecosys.FamilyFor(ecosystem),
		Confidence: 1.0,
		Scores:     scores,
		Systems:    systems,
		Warnings:   buildWarnings(f, ecosystem),
		ScanMode:   ModeDeep,
	}, nil
}

func (d *Detector) hintMatchesEcosystem(root, ecosystem string) (bool, error) {
	switch ecosystem {
	case "es_de":
		return pathExists(filepath.Join(root, "ES-DE", "gamelists")), nil
	case "retrobat":
		return pathExists(filepath.Join(root, "retrobat.ini")), nil
	case "retroarch":
		return d.hasAny(root, "*.lpl")
	case "attract_mode":
		return pathExists(filepath.Join(root, "romlists")) && pathExists(filepath.Join(root, "attract.cfg")), nil
	case "pegasus":
		return d.hasAny(root, "metadata.pegasus.txt")
	case "onionos":
		return pathExists(filepath.Join(root, "Roms")), nil
	case "muos":
		return pathExists(filepath.Join(root, "MUOS", "info", "catalogue")), nil
	case "es_classic":
		if pathExists(filepath.Join(root, "roms")) || pathExists(filepath.Join(root, ".emulationstation")) {
			return true, nil
		}
		return d.hasAny(root, "gamelist.xml")
	default:
		return false, nil
	}
}

func (d *Detector) autoFastDetect(root string) (string, *facts, error) {
	if pathExists(filepath.Join(root, "ES-DE", "gamelists")) && pathExists(filepath.Join(root, "ES-DE", "downloaded_media")) {
		return "es_de", &facts{hasESDEGamelists: true, hasESDEMedia: true}, nil
	}
	if pathExists(filepath.Join(root, "MUOS", "info", "catalogue")) {
		return "muos", &facts{hasMuosCatalogue: true}, nil
	}
	if pathExists(filepath.Join(root, "romlists")) && pathExists(filepath.Join(root, "attract.cfg")) {
		return "attract_mode", &facts{hasAttractCfg: true, hasRomlistsDir: true}, nil
	}
	if pathExists(filepath.Join(root, "retrobat.ini")) {
		return "retrobat", &facts{hasRetrobatIni: true}, nil
	}
	if pathExists(filepath.Join(root, "Roms")) {
		found, err := d.hasAny(filepath.Join(root, "Roms"), "miyoogamelist.xml")
		if err != nil {
			return "", nil, err
		}
		if found {
			return "onionos", &facts{hasMiyooGamelist: true, hasOnionImgsDir: true}, nil
		}
	}
	if found, err := d.hasAny(root, "metadata.pegasus.txt"); err != nil {
		return "", nil, err
	} else if found {
		return "pegasus", &facts{hasPegasusMetadata: true}, nil
	}
	if found, err := d.hasAny(root, "*.lpl"); err != nil {
		return "", nil, err
	} else if found {
		return "retroarch", &facts{hasLPL: true}, nil
	}
	return "", nil, nil
}

func (d *Detector) scoreEcosystems(root string, f *facts) map[string]float64 {
	scores := zeroScores()

	// Only fixed-path hints here; glob hints would repeat the expensive
	// recursive probes the facts already did.
	for ecosystem, hints := range ecosys.SignatureHints {
		for _, hint := range hints {
			if !strings.Contains(hint, "/") {
				continue
			}
			if pathExists(filepath.Join(root, filepath.FromSlash(hint))) {
				scores[ecosystem] += 1.0
			}
		}
	}

	if f.hasRetrobatIni {
		scores["retrobat"] += 4.0
	}
	if f.hasESDEMedia {
		scores["es_de"] += 4.0
	}
	if f.hasLaunchBoxPlatforms {
		scores["launchbox"] += 4.0
	}
	if f.hasAttractCfg && f.hasRomlistsDir {
		scores["attract_mode"] += 4.0
	}
	if f.hasMiyooGamelist && f.hasOnionImgsDir {
		scores["onionos"] += 4.0
	}
	if f.hasMuosCatalogue {
		scores["muos"] += 4.0
	}
	if f.hasLPL {
		scores["retroarch"] += 3.0
	}
	if f.hasGamelistXML {
		scores["es_classic"] += 1.5
		scores["batocera"] += 1.5
		scores["knulli"] += 1.0
		scores["amberelec"] += 1.0
		scores["jelos_rocknix"] += 1.0
		scores["arkos"] += 1.0
		scores["retrobat"] += 0.5
	}
	if f.hasBatoceraSuffixes {
		scores["batocera"] += 3.0
	}
	if f.hasRetrobatDeepImages {
		scores["retrobat"] += 2.5
	}
	if f.hasUserdataRoms {
		scores["batocera"] += 2.0
	}
	if f.hasESHome {
		scores["es_classic"] += 2.0
	}
	return scores
}

func classifyEcosystem(f *facts, scores map[string]float64) string {
	// Priority tree first; most specific single signals win.
	switch {
	case f.hasLPL:
		return "retroarch"
	case f.hasPegasusMetadata:
		return "pegasus"
	case f.hasAttractCfg && f.hasRomlistsDir:
		return "attract_mode"
	case f.hasLaunchBoxPlatforms:
		return "launchbox"
	case f.hasESDEMedia:
		return "es_de"
	case f.hasRetrobatIni:
		return "retrobat"
	case f.hasMiyooGamelist && f.hasOnionImgsDir:
		return "onionos"
	case f.hasMuosCatalogue:
		return "muos"
	case f.hasGamelistXML:
		if f.hasBatoceraSuffixes || f.hasUserdataRoms {
			return "batocera"
		}
		if f.hasRetrobatDeepImages {
			return "retrobat"
		}
		return "es_classic"
	}

	// Arg-max fallback with the fixed ecosystem order as tie-break.
	best := ecosys.Ecosystems[0]
	for _, ecosystem := range ecosys.Ecosystems {
		if scores[ecosystem] > scores[best] {
			best = ecosystem
		}
	}
	return best
}

func confidenceFor(ecosystem string, scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	values := make([]float64, 0, len(scores))
	for _, v := range scores {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	top := values[0]
	second := 0.0
	if len(values) > 1 {
		second = values[1]
	}
	margin := top - second
	if margin < 0 {
		margin = 0
	}
	selected := scores[ecosystem]

	confidence := selected/8.0 + margin/10.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.05 {
		confidence = 0.05
	}
	return float64(int(confidence*100+0.5)) / 100
}

func zeroScores() map[string]float64 {
	scores := make(map[string]float64, len(ecosys.Ecosystems))
	for _, ecosystem := range ecosys.Ecosystems {
		scores[ecosystem] = 0.0
	}
	return scores
}

func buildWarnings(f *facts, ecosystem string) []string {
	var warnings []string
	if f.hasLPL && f.hasGamelistXML {
		warnings = append(warnings, "Both RetroArch playlists and gamelist.xml were found; library may be hybrid.")
	}
	if ecosystem == "es_classic" && !f.hasESHome && f.hasGamelistXML {
		warnings = append(warnings, "ES-family detected without .emulationstation root; using generic ES-classic fallback.")
	}
	return warnings
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// launchboxRootFromSelected resolves the selected path to the LaunchBox
// root for the three accepted input shapes: the parent folder, the
// LaunchBox root itself, or LaunchBox/Data.
func launchboxRootFromSelected(selectedRoot string) string {
	if pathExists(filepath.Join(selectedRoot, "LaunchBox", "Data", "Platforms")) {
		return filepath.Join(selectedRoot, "LaunchBox")
	}
	if pathExists(filepath.Join(selectedRoot, "Data", "Platforms")) {
		return selectedRoot
	}
	if strings.EqualFold(filepath.Base(selectedRoot), "data") && pathExists(filepath.Join(selectedRoot, "Platforms")) {
		return filepath.Dir(selectedRoot)
	}
	return ""
}

func (d *Detector) hasAny(root, pattern string) (bool, error) {
	cacheKey := strings.ToLower(root) + "\x00" + pattern
	if value, ok := d.hasAnyCache[cacheKey]; ok {
		return value, nil
	}
	found := false
	err := filepath.WalkDir(root, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cancelErr := d.checkCancel(); cancelErr != nil {
			return cancelErr
		}
		if entry.IsDir() {
			return nil
		}
		if matched, _ := path.Match(pattern, entry.Name()); matched {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	d.hasAnyCache[cacheKey] = found
	return found, nil
}

func (d *Detector) hasDirNamed(root, name string) (bool, error) {
	cacheKey := strings.ToLower(root) + "\x00" + strings.ToLower(name)
	if value, ok := d.hasDirNamedCache[cacheKey]; ok {
		return value, nil
	}
	found := false
	err := filepath.WalkDir(root, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cancelErr := d.checkCancel(); cancelErr != nil {
			return cancelErr
		}
		if entry.IsDir() && strings.EqualFold(entry.Name(), name) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	d.hasDirNamedCache[cacheKey] = found
	return found, nil
}

func anyGlob(root, pattern string) bool {
	matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
	return err == nil && len(matches) > 0
}

func (d *Detector) collectMatches(root, pattern string, maxResults int) ([]string, error) {
	var results []string
	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cancelErr := d.checkCancel(); cancelErr != nil {
			return cancelErr
		}
		if entry.IsDir() {
			return nil
		}
		if matched, _ := path.Match(pattern, entry.Name()); matched {
			results = append(results, p)
			if len(results) >= maxResults {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(results)
	return results, nil
}

func (d *Detector) checkCancel() error {
	if d.cancel.Cancelled() {
		return model.ErrCancelled
	}
	return nil
}
