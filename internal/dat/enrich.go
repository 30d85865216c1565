package dat

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/model"
	"github.com/xxxsen/retrosync/internal/sysid"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// CatalogRootEnv names the environment variable that injects an extra
// catalog search root.
const CatalogRootEnv = "RETROSYNC_DAT_ROOT"

const hashChunkSize = 1 << 20

// Enricher back-fills arcade game metadata (title, year, manufacturer,
// checksums) from checksum catalogs found near the library.
type Enricher struct {
	// CatalogRoot is an explicit search root checked before the
	// conventional locations.
	CatalogRoot string
	// SystemOverrides maps a canonical system id to a catalog path.
	SystemOverrides map[string]string
	// EnableHashFallback hashes ROM files when name lookup misses.
	EnableHashFallback bool

	parser     Parser
	indexCache map[string]*Index
	hashCache  map[string]hashPair
}

type hashPair struct {
	crc  string
	sha1 string
}

// EnrichResult summarizes one enrichment run.
type EnrichResult struct {
	Enriched int
	Sources  []string
	Warnings []string
}

// NewEnricher builds an enricher.
func NewEnricher(catalogRoot string, overrides map[string]string, hashFallback bool) *Enricher {
	return &Enricher{
		CatalogRoot:        catalogRoot,
		SystemOverrides:    overrides,
		EnableHashFallback: hashFallback,
		parser:             NewParser(),
		indexCache:         make(map[string]*Index),
		hashCache:          make(map[string]hashPair),
	}
}

// Enrich walks every system in the library that has a catalog profile and
// applies matching catalog entries to its games.
func (e *Enricher) Enrich(ctx context.Context, library *model.Library) (*EnrichResult, error) {
	logger := logutil.GetLogger(ctx)
	result := &EnrichResult{}
	roots := e.searchRoots(library.SourceRoot)
	sources := make(map[string]struct{})

	systemIDs := make([]string, 0, len(library.GamesBySystem))
	for systemID := range library.GamesBySystem {
		systemIDs = append(systemIDs, systemID)
	}
	sort.Strings(systemIDs)

	for _, systemID := range systemIDs {
		catalogPath := e.resolveCatalogPath(systemID, roots)
		if catalogPath == "" {
			continue
		}
		idx, err := e.loadIndex(catalogPath)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Failed to load catalog %s: %v", catalogPath, err))
			continue
		}
		used := false
		for _, game := range library.GamesBySystem[systemID] {
			entry := e.matchEntry(idx, game)
			if entry == nil {
				continue
			}
			if applyCatalogEntry(entry, game) {
				result.Enriched++
				used = true
			}
		}
		if used {
			sources[catalogPath] = struct{}{}
		}
	}

	for source := range sources {
		result.Sources = append(result.Sources, source)
	}
	sort.Strings(result.Sources)
	if result.Enriched > 0 {
		logger.Info("catalog enrichment done",
			zap.Int("enriched", result.Enriched),
			zap.Strings("sources", result.Sources))
	}
	return result, nil
}

func (e *Enricher) searchRoots(sourceRoot string) []string {
	candidates := []string{e.CatalogRoot, os.Getenv(CatalogRootEnv)}
	if sourceRoot != "" {
		candidates = append(candidates,
			filepath.Join(sourceRoot, ".retrometasync", "dats"),
			filepath.Join(sourceRoot, "metadata", "dats"),
			filepath.Join(sourceRoot, "dats"),
		)
	}
	seen := make(map[string]struct{})
	var roots []string
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		key := strings.ToLower(candidate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		roots = append(roots, candidate)
	}
	return roots
}

func (e *Enricher) resolveCatalogPath(systemID string, roots []string) string {
	canonical := sysid.Canonicalize(systemID)
	if override, ok := e.SystemOverrides[canonical]; ok && override != "" {
		if info, err := os.Stat(override); err == nil && !info.IsDir() {
			return override
		}
	}
	for _, sourceKey := range ecosys.CatalogProfileBySystem[canonical] {
		for _, root := range roots {
			for _, filename := range ecosys.CatalogSourceFilenames[sourceKey] {
				candidate := filepath.Join(root, filename)
				if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
					return candidate
				}
			}
		}
	}
	return ""
}

func (e *Enricher) loadIndex(path string) (*Index, error) {
	if idx, ok := e.indexCache[path]; ok {
		if idx == nil {
			return nil, fmt.Errorf("catalog previously failed to parse")
		}
		return idx, nil
	}
	catalog, err := e.parser.ParseFile(path)
	if err != nil {
		e.indexCache[path] = nil
		return nil, err
	}
	idx := NewIndex(catalog)
	e.indexCache[path] = idx
	return idx, nil
}

func (e *Enricher) matchEntry(idx *Index, game *model.Game) *CatalogEntry {
	if entry, ok := idx.BySet[normalizeSetName(game.RomBasename())]; ok {
		return entry
	}
	if game.CRC != "" {
		if entry, ok := idx.ByCRC[strings.ToLower(game.CRC)]; ok {
			return entry
		}
	}
	if game.SHA1 != "" {
		if entry, ok := idx.BySHA1[strings.ToLower(game.SHA1)]; ok {
			return entry
		}
	}
	if !e.EnableHashFallback {
		return nil
	}
	hashes, err := e.hashRomFile(game.RomPath)
	if err != nil {
		return nil
	}
	if entry, ok := idx.ByCRC[hashes.crc]; ok {
		return entry
	}
	if entry, ok := idx.BySHA1[hashes.sha1]; ok {
		return entry
	}
	return nil
}

func (e *Enricher) hashRomFile(path string) (hashPair, error) {
	key := strings.ToLower(path)
	if pair, ok := e.hashCache[key]; ok {
		return pair, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return hashPair{}, fmt.Errorf("open rom %s: %w", path, err)
	}
	defer f.Close()

	crcHash := crc32.NewIEEE()
	shaHash := sha1.New()
	buf := make([]byte, hashChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			crcHash.Write(buf[:n])
			shaHash.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return hashPair{}, fmt.Errorf("read rom %s: %w", path, err)
		}
	}
	pair := hashPair{
		crc:  fmt.Sprintf("%08x", crcHash.Sum32()),
		sha1: hex.EncodeToString(shaHash.Sum(nil)),
	}
	e.hashCache[key] = pair
	return pair, nil
}

// applyCatalogEntry copies catalog fields onto the game without clobbering
// values a metadata file already supplied. Titles only change when the
// current one is a filename placeholder.
func applyCatalogEntry(entry *CatalogEntry, game *model.Game) bool {
	changed := false
	if entry.Title != "" && isPlaceholderTitle(game.Title, game.RomBasename()) && game.Title != entry.Title {
		game.Title = entry.Title
		changed = true
	}
	if game.ReleaseDate.IsZero() && len(entry.Year) == 4 {
		if year, err := time.Parse("2006", entry.Year); err == nil {
			game.ReleaseDate = time.Date(year.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
			changed = true
		}
	}
	if entry.Manufacturer != "" {
		if game.Publisher == "" {
			game.Publisher = entry.Manufacturer
			changed = true
		}
		if game.Developer == "" {
			game.Developer = entry.Manufacturer
			changed = true
		}
	}
	if rom := pickEntryRom(entry, game.RomFilename()); rom != nil {
		if game.CRC == "" && rom.CRC != "" {
			game.CRC = rom.CRC
			changed = true
		}
		if game.SHA1 == "" && rom.SHA1 != "" {
			game.SHA1 = rom.SHA1
			changed = true
		}
	}
	return changed
}

// pickEntryRom prefers the rom with the exact filename; a single-rom set
// matches unconditionally.
func pickEntryRom(entry *CatalogEntry, filename string) *CatalogRom {
	lower := strings.ToLower(filename)
	for i := range entry.Roms {
		if entry.Roms[i].Name == lower {
			return &entry.Roms[i]
		}
	}
	if len(entry.Roms) == 1 {
		return &entry.Roms[0]
	}
	return nil
}

// isPlaceholderTitle reports whether the title carries no information
// beyond the ROM filename.
func isPlaceholderTitle(title, romStem string) bool {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return true
	}
	if strings.EqualFold(trimmed, romStem) {
		return true
	}
	flatten := func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		s = strings.ReplaceAll(s, "-", " ")
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return flatten(trimmed) == flatten(romStem)
}
