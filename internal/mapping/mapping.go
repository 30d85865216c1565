// Package mapping persists and suggests source-to-destination system name
// mappings. Mappings live in a JSON file under the output root so repeat
// conversions against the same destination reuse earlier decisions.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gofrs/flock"
)

const (
	storeDirName  = ".retrometasync"
	storeFileName = "system_mapping.json"
)

// StorePath returns the mapping file location for an output root.
func StorePath(outputRoot string) string {
	return filepath.Join(outputRoot, storeDirName, storeFileName)
}

// Store reads and writes per-target mapping buckets.
type Store struct {
	path string
}

// NewStore builds a store rooted at the given output directory.
func NewStore(outputRoot string) *Store {
	return &Store{path: StorePath(outputRoot)}
}

// Load returns the saved mapping bucket for a target. A missing file or
// bucket yields an empty map.
func (s *Store) Load(target string) (map[string]string, error) {
	buckets, err := s.readBuckets()
	if err != nil {
		return nil, err
	}
	bucket := buckets[strings.ToLower(strings.TrimSpace(target))]
	result := make(map[string]string, len(bucket))
	for source, dest := range bucket {
		source = strings.TrimSpace(source)
		dest = strings.TrimSpace(dest)
		if source == "" || dest == "" {
			continue
		}
		result[source] = dest
	}
	return result, nil
}

// Save merges the bucket for a target into the store, preserving every
// other target's bucket. The write is guarded by a file lock so concurrent
// runs against the same output root do not clobber each other.
func (s *Store) Save(target string, bucket map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure mapping dir %s: %w", filepath.Dir(s.path), err)
	}
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock mapping store %s: %w", s.path, err)
	}
	defer lock.Unlock()

	buckets, err := s.readBuckets()
	if err != nil {
		return err
	}
	key := strings.ToLower(strings.TrimSpace(target))
	cleaned := make(map[string]string, len(bucket))
	for source, dest := range bucket {
		source = strings.TrimSpace(source)
		dest = strings.TrimSpace(dest)
		if source == "" || dest == "" {
			continue
		}
		cleaned[source] = dest
	}
	buckets[key] = cleaned

	payload, err := marshalSorted(buckets)
	if err != nil {
		return fmt.Errorf("encode mapping store: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("write mapping store %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) readBuckets() (map[string]map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping store %s: %w", s.path, err)
	}
	var buckets map[string]map[string]string
	if err := json.Unmarshal(raw, &buckets); err != nil {
		return nil, fmt.Errorf("parse mapping store %s: %w", s.path, err)
	}
	if buckets == nil {
		buckets = map[string]map[string]string{}
	}
	return buckets, nil
}

// marshalSorted renders the buckets with stable key order and two-space
// indentation. encoding/json already sorts map keys.
func marshalSorted(buckets map[string]map[string]string) ([]byte, error) {
	payload, err := json.MarshalIndent(buckets, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(payload, '\n'), nil
}

// Discover lists the system folder names already present in a destination
// tree, so suggestions can target names the frontend actually knows.
func Discover(outputRoot, target string) ([]string, error) {
	var names []string
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "batocera", "es_classic", "retrobat":
		names = dirNames(filepath.Join(outputRoot, "roms"))
	case "es_de":
		names = append(dirNames(filepath.Join(outputRoot, "roms")),
			dirNames(filepath.Join(outputRoot, "gamelists"))...)
	case "launchbox":
		names = dirNames(filepath.Join(outputRoot, "Games"))
		matches, _ := filepath.Glob(filepath.Join(outputRoot, "Data", "Platforms", "*.xml"))
		for _, match := range matches {
			base := filepath.Base(match)
			names = append(names, strings.TrimSuffix(base, filepath.Ext(base)))
		}
	default:
		return nil, fmt.Errorf("no discovery rule for target %q", target)
	}

	seen := map[string]struct{}{}
	var unique []string
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, name)
	}
	sort.Slice(unique, func(i, j int) bool {
		return strings.ToLower(unique[i]) < strings.ToLower(unique[j])
	})
	return unique, nil
}

func dirNames(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names
}

// Suggestion is one proposed source-to-destination pairing.
type Suggestion struct {
	SourceID string
	DestName string
	// Origin records how the suggestion was derived: prior, exact,
	// normalized or unmapped.
	Origin string
}

// Suggest proposes a destination name per source system id: a prior saved
// mapping wins, then an exact case-insensitive match against discovered
// names, then a normalized-name match. Unmatched systems come back with an
// empty DestName.
func Suggest(sourceIDs []string, prior map[string]string, discovered []string) []Suggestion {
	byLower := map[string]string{}
	byNormalized := map[string]string{}
	for _, name := range discovered {
		lower := strings.ToLower(name)
		if _, ok := byLower[lower]; !ok {
			byLower[lower] = name
		}
		normalized := NormalizeName(name)
		if normalized != "" {
			if _, ok := byNormalized[normalized]; !ok {
				byNormalized[normalized] = name
			}
		}
	}

	suggestions := make([]Suggestion, 0, len(sourceIDs))
	for _, sourceID := range sourceIDs {
		if dest := strings.TrimSpace(prior[sourceID]); dest != "" {
			suggestions = append(suggestions, Suggestion{SourceID: sourceID, DestName: dest, Origin: "prior"})
			continue
		}
		if dest, ok := byLower[strings.ToLower(sourceID)]; ok {
			suggestions = append(suggestions, Suggestion{SourceID: sourceID, DestName: dest, Origin: "exact"})
			continue
		}
		if dest, ok := byNormalized[NormalizeName(sourceID)]; ok {
			suggestions = append(suggestions, Suggestion{SourceID: sourceID, DestName: dest, Origin: "normalized"})
			continue
		}
		suggestions = append(suggestions, Suggestion{SourceID: sourceID, Origin: "unmapped"})
	}
	return suggestions
}

var (
	bracketGroupRegex = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	nonAlnumRegex     = regexp.MustCompile(`[^a-z0-9 ]+`)
	versionTokenRegex = regexp.MustCompile(`\b(v\d+|ver\s*\d+|version\s*\d+|rev\s*[a-z0-9]+)\b`)
)

// NormalizeName reduces a platform folder name to a comparable token: tag
// groups, separators, punctuation and version markers are stripped.
func NormalizeName(name string) string {
	lowered := strings.ToLower(name)
	lowered = bracketGroupRegex.ReplaceAllString(lowered, " ")
	lowered = strings.ReplaceAll(lowered, "_", " ")
	lowered = strings.ReplaceAll(lowered, "-", " ")
	lowered = nonAlnumRegex.ReplaceAllString(lowered, " ")
	lowered = versionTokenRegex.ReplaceAllString(lowered, " ")
	return strings.Join(strings.Fields(lowered), " ")
}
