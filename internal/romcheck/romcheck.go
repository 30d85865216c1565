// Package romcheck validates arcade ROM archives against a checksum
// catalog: every file a set requires must be present in the archive or its
// cloneof ancestors with the declared size and CRC32.
package romcheck

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/retrosync/internal/dat"

	"github.com/bodgit/sevenzip"
)

type archiveFile struct {
	Name  string
	Size  uint64
	CRC32 uint32
}

type setDefinition struct {
	Name   string
	Parent string
	Roms   []dat.CatalogRom
}

// Checker validates archives against one parsed catalog.
type Checker struct {
	sets map[string]setDefinition
}

// NewChecker builds a checker over a parsed catalog.
func NewChecker(catalog *dat.Catalog) *Checker {
	sets := make(map[string]setDefinition, len(catalog.Entries))
	for _, entry := range catalog.Entries {
		sets[entry.SetName] = setDefinition{
			Name:   entry.SetName,
			Parent: entry.CloneOf,
			Roms:   entry.Roms,
		}
	}
	return &Checker{sets: sets}
}

// NewCheckerFromFile parses the catalog at path and builds a checker.
func NewCheckerFromFile(path string) (*Checker, error) {
	catalog, err := dat.NewParser().ParseFile(path)
	if err != nil {
		return nil, err
	}
	return NewChecker(catalog), nil
}

// CheckFile validates a single archive. Parent sets are looked up next to
// the archive and under biosDir.
func (c *Checker) CheckFile(path, biosDir string) (*ArchiveReport, error) {
	siblings, err := collectArchives(filepath.Dir(path), nil)
	if err != nil {
		return nil, err
	}
	nameToPath := indexByStem(siblings)
	mergeBiosPaths(nameToPath, biosDir)
	return c.checkOne(path, biosDir, nameToPath)
}

// CheckDir validates every archive under romDir, optionally filtered to the
// given extensions.
func (c *Checker) CheckDir(ctx context.Context, romDir, biosDir string, exts []string) (*Report, error) {
	if romDir == "" {
		return nil, errors.New("romdir is required")
	}
	allowed := normalizeExts(exts)
	paths, err := collectArchives(romDir, allowed)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no archive files under %s", romDir)
	}
	nameToPath := indexByStem(paths)
	mergeBiosPaths(nameToPath, biosDir)

	report := &Report{}
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		archive, err := c.checkOne(path, biosDir, nameToPath)
		if err != nil {
			return nil, err
		}
		report.Archives = append(report.Archives, archive)
	}
	return report, nil
}

func (c *Checker) checkOne(path, biosDir string, nameToPath map[string]string) (*ArchiveReport, error) {
	setName := strings.ToLower(stemOf(path))
	def, ok := c.sets[setName]
	if !ok {
		return &ArchiveReport{
			FilePath: path,
			SetName:  setName,
			Missing: []*EntryCheck{
				{State: MatchMissing, Message: fmt.Sprintf("set %s not found in catalog", setName)},
			},
		}, nil
	}

	files, closer, err := openArchive(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer closer.Close()

	aggregate := append([]archiveFile{}, files...)
	report := &ArchiveReport{FilePath: path, SetName: setName}
	for _, parent := range parentChain(def, c.sets) {
		parentPath, exists := nameToPath[strings.ToLower(parent)]
		isBios := exists && pathInDir(parentPath, biosDir)
		report.Parents = append(report.Parents, ParentRef{Name: parent, Exists: exists, IsBios: isBios})
		if !exists {
			continue
		}
		parentFiles, parentCloser, err := openArchive(parentPath)
		if err != nil {
			return nil, fmt.Errorf("open parent archive %s: %w", parentPath, err)
		}
		aggregate = append(aggregate, parentFiles...)
		parentCloser.Close()
	}

	matchEntries(def, aggregate, report)
	return report, nil
}

// matchEntries classifies every catalog entry of the set against the
// aggregated archive contents.
func matchEntries(def setDefinition, files []archiveFile, report *ArchiveReport) {
	byFullName := make(map[string]archiveFile)
	byBaseName := make(map[string][]archiveFile)
	byCRC := make(map[string][]archiveFile)
	for _, f := range files {
		lower := strings.ToLower(f.Name)
		byFullName[lower] = f
		base := strings.ToLower(filepath.Base(f.Name))
		byBaseName[base] = append(byBaseName[base], f)
		crc := fmt.Sprintf("%08x", f.CRC32)
		byCRC[crc] = append(byCRC[crc], f)
	}

	record := func(check *EntryCheck) {
		switch check.State {
		case MatchExact:
			report.Exact = append(report.Exact, check)
		case MatchPartial:
			report.Partial = append(report.Partial, check)
		default:
			report.Missing = append(report.Missing, check)
		}
	}

	for i := range def.Roms {
		rom := &def.Roms[i]
		name := strings.ToLower(rom.Name)
		check := &EntryCheck{Rom: rom}

		classify := func(f archiveFile) bool {
			sizeMatch := rom.Size == 0 || int64(f.Size) == rom.Size
			crcMatch := rom.CRC == "" || strings.EqualFold(fmt.Sprintf("%08x", f.CRC32), rom.CRC)
			if sizeMatch && crcMatch {
				check.State = MatchExact
				return true
			}
			if sizeMatch || crcMatch {
				check.State = MatchPartial
				if !sizeMatch {
					check.Message = fmt.Sprintf("size mismatch need %d got %d", rom.Size, f.Size)
				} else {
					check.Message = fmt.Sprintf("crc mismatch need %s got %08x", rom.CRC, f.CRC32)
				}
				return true
			}
			return false
		}

		if f, ok := byFullName[name]; ok && classify(f) {
			record(check)
			continue
		}
		matched := false
		for _, f := range byBaseName[name] {
			if classify(f) {
				matched = true
				break
			}
		}
		if matched {
			record(check)
			continue
		}
		// a correct file under a wrong name still counts as partial
		if rom.CRC != "" {
			for _, f := range byCRC[strings.ToLower(rom.CRC)] {
				if rom.Size > 0 && int64(f.Size) != rom.Size {
					continue
				}
				check.State = MatchPartial
				check.Message = fmt.Sprintf("name mismatch expected %s found %s", rom.Name, f.Name)
				matched = true
				break
			}
		}
		if matched {
			record(check)
			continue
		}

		if optionalRomName(rom.Name) {
			check.State = MatchPartial
			check.Message = "optional entry missing"
		} else {
			check.State = MatchMissing
			check.Message = fmt.Sprintf("missing rom: %s", rom.Name)
		}
		record(check)
	}
}

// optionalRomName covers entries most dumps legitimately lack, such as
// undumped PLDs and protection MCUs.
func optionalRomName(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasSuffix(name, ".mcu"):
		return true
	case strings.HasPrefix(name, "pal"):
		return true
	default:
		return false
	}
}

func parentChain(def setDefinition, all map[string]setDefinition) []string {
	var chain []string
	seen := make(map[string]struct{})
	parent := strings.TrimSpace(def.Parent)
	for parent != "" {
		lower := strings.ToLower(parent)
		if _, ok := seen[lower]; ok {
			break
		}
		seen[lower] = struct{}{}
		chain = append(chain, parent)
		next, ok := all[lower]
		if !ok {
			break
		}
		parent = strings.TrimSpace(next.Parent)
	}
	return chain
}

var archiveExts = map[string]struct{}{"zip": {}, "7z": {}}

func collectArchives(root string, allowed map[string]struct{}) ([]string, error) {
	if allowed == nil {
		allowed = archiveExts
	}
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
		if _, ok := allowed[ext]; !ok {
			return nil
		}
		paths = append(paths, filepath.Clean(p))
		return nil
	})
	return paths, err
}

func indexByStem(paths []string) map[string]string {
	out := make(map[string]string)
	for _, p := range paths {
		stem := strings.ToLower(stemOf(p))
		if stem == "" {
			continue
		}
		if _, ok := out[stem]; !ok {
			out[stem] = p
		}
	}
	return out
}

func mergeBiosPaths(nameToPath map[string]string, biosDir string) {
	if biosDir == "" {
		return
	}
	biosPaths, err := collectArchives(biosDir, nil)
	if err != nil {
		return
	}
	for stem, path := range indexByStem(biosPaths) {
		if _, ok := nameToPath[stem]; !ok {
			nameToPath[stem] = path
		}
	}
}

func normalizeExts(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	out := make(map[string]struct{})
	for _, ext := range exts {
		trimmed := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
		if trimmed != "" {
			out[trimmed] = struct{}{}
		}
	}
	return out
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func pathInDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func openArchive(path string) ([]archiveFile, io.Closer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		zr, err := zip.OpenReader(path)
		if err != nil {
			return nil, nil, err
		}
		files := make([]archiveFile, 0, len(zr.File))
		for _, f := range zr.File {
			files = append(files, archiveFile{Name: f.Name, Size: f.UncompressedSize64, CRC32: f.CRC32})
		}
		return files, zr, nil
	case ".7z":
		sr, err := sevenzip.OpenReader(path)
		if err != nil {
			return nil, nil, err
		}
		files := make([]archiveFile, 0, len(sr.File))
		for _, f := range sr.File {
			files = append(files, archiveFile{Name: f.Name, Size: f.UncompressedSize, CRC32: f.CRC32})
		}
		return files, sr, nil
	default:
		return nil, nil, fmt.Errorf("unsupported archive format: %s", filepath.Ext(path))
	}
}
