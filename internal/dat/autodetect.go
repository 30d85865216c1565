package dat

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/model"
	"github.com/xxxsen/retrosync/internal/sysid"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	autoDetectMaxCandidates = 5000
	autoDetectHeaderBytes   = 8192
	// Matches below this score are reported as near misses, not results.
	autoDetectThreshold    = 45
	autoDetectVerifySample = 12
)

var autoDetectIgnoredDirs = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {}, "__pycache__": {},
	"node_modules": {}, "mamedev-mame": {},
}

// CatalogMatch binds one system to the catalog file chosen for it.
type CatalogMatch struct {
	SystemID   string
	Path       string
	Confidence int
}

// AutoDetectResult is the outcome of one catalog discovery run.
type AutoDetectResult struct {
	Matches  map[string]CatalogMatch
	Warnings []string
}

// AutoDetector scores the catalog files found under the search roots
// against system names and picks the best one per system.
type AutoDetector struct {
	SearchRoots []string
	// StrictVerify additionally parses the winning catalog and requires at
	// least one of the system's ROM names to resolve in it.
	StrictVerify bool

	parser Parser
}

// NewAutoDetector builds a detector over the given search roots.
func NewAutoDetector(searchRoots []string, strictVerify bool) *AutoDetector {
	return &AutoDetector{
		SearchRoots:  searchRoots,
		StrictVerify: strictVerify,
		parser:       NewParser(),
	}
}

type catalogCandidate struct {
	path      string
	depth     int
	preferred bool
}

// Detect resolves a catalog per system id. gamesBySystem is only consulted
// for strict verification and may be nil.
func (d *AutoDetector) Detect(ctx context.Context, systems []string, gamesBySystem map[string][]*model.Game) *AutoDetectResult {
	logger := logutil.GetLogger(ctx)
	result := &AutoDetectResult{Matches: make(map[string]CatalogMatch)}

	preferredNames := d.preferredFilenames(systems)
	candidates := d.collectCandidates(preferredNames)
	if len(candidates) == 0 {
		result.Warnings = append(result.Warnings, "No catalog files found under the search roots.")
		return result
	}

	for _, systemID := range systems {
		canonical := sysid.Canonicalize(systemID)
		scored := d.scoreCandidates(canonical, candidates)
		if len(scored) == 0 {
			continue
		}
		best := scored[0]
		if best.score < autoDetectThreshold {
			result.Warnings = append(result.Warnings, nearMissWarning(canonical, scored))
			continue
		}
		confidence := best.score
		if confidence > 100 {
			confidence = 100
		}
		if d.StrictVerify {
			verified, bonus := d.verifyCandidate(best.path, gamesBySystem[canonical])
			if !verified {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Catalog '%s' failed verification against system '%s'.", filepath.Base(best.path), canonical))
				continue
			}
			confidence += bonus
			if confidence > 100 {
				confidence = 100
			}
		}
		result.Matches[canonical] = CatalogMatch{
			SystemID:   canonical,
			Path:       best.path,
			Confidence: confidence,
		}
		logger.Debug("catalog matched",
			zap.String("system", canonical),
			zap.String("catalog", best.path),
			zap.Int("confidence", confidence))
	}
	return result
}

func (d *AutoDetector) preferredFilenames(systems []string) map[string]struct{} {
	preferred := make(map[string]struct{})
	for _, systemID := range systems {
		canonical := sysid.Canonicalize(systemID)
		for _, sourceKey := range ecosys.CatalogProfileBySystem[canonical] {
			for _, filename := range ecosys.CatalogSourceFilenames[sourceKey] {
				preferred[strings.ToLower(filename)] = struct{}{}
			}
		}
	}
	return preferred
}

func (d *AutoDetector) collectCandidates(preferredNames map[string]struct{}) []catalogCandidate {
	var candidates []catalogCandidate
	for _, root := range d.SearchRoots {
		err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if entry.IsDir() {
				if _, ignored := autoDetectIgnoredDirs[strings.ToLower(entry.Name())]; ignored {
					return fs.SkipDir
				}
				return nil
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".dat" && ext != ".xml" {
				return nil
			}
			rel, relErr := filepath.Rel(root, p)
			depth := 0
			if relErr == nil {
				depth = strings.Count(filepath.ToSlash(rel), "/")
			}
			_, preferred := preferredNames[strings.ToLower(entry.Name())]
			candidates = append(candidates, catalogCandidate{path: p, depth: depth, preferred: preferred})
			if len(candidates) >= autoDetectMaxCandidates {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			continue
		}
		if len(candidates) >= autoDetectMaxCandidates {
			break
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].preferred != candidates[j].preferred {
			return candidates[i].preferred
		}
		return candidates[i].depth < candidates[j].depth
	})
	return candidates
}

type scoredCandidate struct {
	path  string
	score int
}

func (d *AutoDetector) scoreCandidates(systemID string, candidates []catalogCandidate) []scoredCandidate {
	profileNames := make(map[string]struct{})
	for _, sourceKey := range ecosys.CatalogProfileBySystem[systemID] {
		for _, filename := range ecosys.CatalogSourceFilenames[sourceKey] {
			profileNames[strings.ToLower(filename)] = struct{}{}
		}
	}
	tokens := sysid.SearchTokens(systemID)

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		score := d.scoreCandidate(candidate, systemID, tokens, profileNames)
		if score <= 0 {
			continue
		}
		scored = append(scored, scoredCandidate{path: candidate.path, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

func (d *AutoDetector) scoreCandidate(candidate catalogCandidate, systemID string, tokens []string, profileNames map[string]struct{}) int {
	base := filepath.Base(candidate.path)
	name := normalizeCatalogName(strings.TrimSuffix(base, filepath.Ext(base)))
	score := 0
	if _, ok := profileNames[strings.ToLower(base)]; ok {
		score += 70
	}
	header := readCatalogHeader(candidate.path)
	for _, token := range tokens {
		switch {
		case wordBoundaryMatch(name, token):
			score += 30
		case strings.Contains(name, token):
			score += 18
		}
		switch {
		case wordBoundaryMatch(header, token):
			score += 15
		case strings.Contains(header, token):
			score += 10
		}
	}
	if len(tokens) > 0 {
		nameTokens := alnumTokens(name)
		systemTokens := make(map[string]struct{})
		for _, token := range tokens {
			for _, t := range alnumTokens(token) {
				systemTokens[t] = struct{}{}
			}
		}
		overlap := 0
		for _, t := range nameTokens {
			if _, ok := systemTokens[t]; ok {
				overlap++
			}
		}
		if len(systemTokens) > 0 {
			score += 22 * overlap / len(systemTokens)
		}
	}
	return score
}

func (d *AutoDetector) verifyCandidate(path string, games []*model.Game) (bool, int) {
	catalog, err := d.parser.ParseFile(path)
	if err != nil {
		return false, 0
	}
	if len(games) == 0 {
		return true, 0
	}
	idx := NewIndex(catalog)
	sample := games
	if len(sample) > autoDetectVerifySample {
		sample = sample[:autoDetectVerifySample]
	}
	hits := 0
	for _, game := range sample {
		if _, ok := idx.BySet[normalizeSetName(game.RomBasename())]; ok {
			hits++
		}
	}
	if hits == 0 {
		return false, 0
	}
	return true, 35 * hits / len(sample)
}

func nearMissWarning(systemID string, scored []scoredCandidate) string {
	top := scored
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top))
	for _, s := range top {
		parts = append(parts, fmt.Sprintf("%s (%d)", filepath.Base(s.path), s.score))
	}
	return fmt.Sprintf("No catalog confidently matched system '%s'; near misses: %s", systemID, strings.Join(parts, ", "))
}

var nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeCatalogName(name string) string {
	lowered := strings.ToLower(name)
	lowered = strings.ReplaceAll(lowered, "-", " ")
	lowered = strings.ReplaceAll(lowered, "_", " ")
	return lowered
}

func alnumTokens(s string) []string {
	return strings.Fields(nonAlnumRegex.ReplaceAllString(strings.ToLower(s), " "))
}

func wordBoundaryMatch(haystack, token string) bool {
	if token == "" {
		return false
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(token) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(haystack)
}

func readCatalogHeader(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, autoDetectHeaderBytes)
	n, _ := f.Read(buf)
	return strings.ToLower(string(buf[:n]))
}
