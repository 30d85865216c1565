// Package dat reads and writes ROM checksum catalogs (DAT files) in both
// the XML dialect used by MAME and FinalBurn Neo and the older clrmamepro
// text dialect, and enriches arcade libraries from them.
package dat

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// CatalogRom is one checksummed file inside a set.
type CatalogRom struct {
	Name string
	Size int64
	CRC  string
	SHA1 string
}

// CatalogEntry is one ROM set.
type CatalogEntry struct {
	SetName      string
	Title        string
	Manufacturer string
	CloneOf      string
	Year         string
	Roms         []CatalogRom
}

// Catalog is one parsed DAT file.
type Catalog struct {
	Path    string
	Name    string
	Entries []CatalogEntry
}

// Parser reads DAT catalogs in either dialect.
type Parser struct{}

// NewParser builds a fresh catalog parser.
func NewParser() Parser {
	return Parser{}
}

// ParseFile sniffs the dialect and parses the catalog. A catalog with zero
// entries is treated as an invalid file, not an empty one.
func (p Parser) ParseFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	var catalog *Catalog
	if bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte("<")) {
		catalog, err = p.parseXML(data)
	} else {
		catalog, err = p.parseText(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(catalog.Entries) == 0 {
		return nil, fmt.Errorf("parse catalog %s: no recognizable set entries", path)
	}
	catalog.Path = path
	if catalog.Name == "" {
		catalog.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return catalog, nil
}

type xmlCatalogRom struct {
	Name string `xml:"name,attr"`
	Size int64  `xml:"size,attr"`
	CRC  string `xml:"crc,attr"`
	SHA1 string `xml:"sha1,attr"`
}

type xmlCatalogGame struct {
	Name         string          `xml:"name,attr"`
	CloneOf      string          `xml:"cloneof,attr"`
	Description  string          `xml:"description"`
	Year         string          `xml:"year"`
	Manufacturer string          `xml:"manufacturer"`
	Roms         []xmlCatalogRom `xml:"rom"`
}

type xmlCatalogHeader struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

// The root tag varies between dialect generations (datafile, mame), so no
// XMLName constraint here. Some tools nest a datafile element one level in.
type xmlCatalogRoot struct {
	Header   xmlCatalogHeader `xml:"header"`
	Games    []xmlCatalogGame `xml:"game"`
	Machines []xmlCatalogGame `xml:"machine"`
	Nested   []struct {
		Games    []xmlCatalogGame `xml:"game"`
		Machines []xmlCatalogGame `xml:"machine"`
	} `xml:"datafile"`
}

func (p Parser) parseXML(data []byte) (*Catalog, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false // many DATs carry a DTD; relax strict parsing

	var root xmlCatalogRoot
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	games := append([]xmlCatalogGame{}, root.Games...)
	games = append(games, root.Machines...)
	for _, nested := range root.Nested {
		games = append(games, nested.Games...)
		games = append(games, nested.Machines...)
	}

	catalog := &Catalog{Name: strings.TrimSpace(root.Header.Name)}
	for _, game := range games {
		setName := normalizeSetName(game.Name)
		if setName == "" {
			continue
		}
		entry := CatalogEntry{
			SetName:      setName,
			Title:        strings.TrimSpace(game.Description),
			Manufacturer: strings.TrimSpace(game.Manufacturer),
			CloneOf:      normalizeSetName(game.CloneOf),
			Year:         firstYear(game.Year),
		}
		for _, rom := range game.Roms {
			entry.Roms = append(entry.Roms, CatalogRom{
				Name: strings.ToLower(strings.TrimSpace(rom.Name)),
				Size: rom.Size,
				CRC:  strings.ToLower(strings.TrimSpace(rom.CRC)),
				SHA1: strings.ToLower(strings.TrimSpace(rom.SHA1)),
			})
		}
		catalog.Entries = append(catalog.Entries, entry)
	}
	return catalog, nil
}

var (
	textRomLineRegex = regexp.MustCompile(`rom\s*\((.*)\)\s*$`)
	textAttrRegex    = regexp.MustCompile(`([A-Za-z0-9_]+)\s+("[^"]*"|\S+)`)
	yearRegex        = regexp.MustCompile(`\d{4}`)
)

func (p Parser) parseText(data []byte) (*Catalog, error) {
	catalog := &Catalog{}
	var current *CatalogEntry
	var currentName string
	for _, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
		if line == "" {
			continue
		}
		if current == nil {
			if (strings.HasPrefix(line, "game") || strings.HasPrefix(line, "machine")) && strings.Contains(line, "(") {
				current = &CatalogEntry{}
				currentName = ""
			}
			continue
		}
		if line == ")" {
			// set name prefers the first rom file stem
			setName := currentName
			if len(current.Roms) > 0 {
				base := current.Roms[0].Name
				setName = strings.TrimSuffix(base, filepath.Ext(base))
			}
			current.SetName = normalizeSetName(setName)
			if current.Title == "" {
				current.Title = currentName
			}
			if current.SetName != "" {
				catalog.Entries = append(catalog.Entries, *current)
			}
			current = nil
			continue
		}
		if m := textRomLineRegex.FindStringSubmatch(line); m != nil {
			attrs := parseTextAttrs(m[1])
			rom := CatalogRom{
				Name: strings.ToLower(attrs["name"]),
				CRC:  strings.ToLower(attrs["crc"]),
				SHA1: strings.ToLower(attrs["sha1"]),
			}
			if size, err := strconv.ParseInt(attrs["size"], 10, 64); err == nil {
				rom.Size = size
			}
			current.Roms = append(current.Roms, rom)
			continue
		}
		key, value := splitTextLine(line)
		switch key {
		case "name":
			currentName = value
		case "description":
			current.Title = value
		case "year":
			current.Year = firstYear(value)
		case "manufacturer", "developer":
			current.Manufacturer = value
		case "cloneof":
			current.CloneOf = normalizeSetName(value)
		}
	}
	return catalog, nil
}

func parseTextAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range textAttrRegex.FindAllStringSubmatch(s, -1) {
		attrs[strings.ToLower(m[1])] = strings.Trim(m[2], `"`)
	}
	return attrs
}

func splitTextLine(line string) (string, string) {
	fields := strings.SplitN(line, " ", 2)
	key := strings.ToLower(strings.TrimSpace(fields[0]))
	value := ""
	if len(fields) > 1 {
		value = strings.Trim(strings.TrimSpace(fields[1]), `"`)
	}
	return key, value
}

func normalizeSetName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func firstYear(value string) string {
	return yearRegex.FindString(value)
}

// Index provides the catalog lookups used during enrichment. The first
// entry claiming a key wins.
type Index struct {
	BySet  map[string]*CatalogEntry
	ByCRC  map[string]*CatalogEntry
	BySHA1 map[string]*CatalogEntry
}

// NewIndex builds the lookup maps over a parsed catalog.
func NewIndex(catalog *Catalog) *Index {
	idx := &Index{
		BySet:  make(map[string]*CatalogEntry, len(catalog.Entries)),
		ByCRC:  make(map[string]*CatalogEntry),
		BySHA1: make(map[string]*CatalogEntry),
	}
	for i := range catalog.Entries {
		entry := &catalog.Entries[i]
		if _, ok := idx.BySet[entry.SetName]; !ok {
			idx.BySet[entry.SetName] = entry
		}
		for _, rom := range entry.Roms {
			if rom.CRC != "" {
				if _, ok := idx.ByCRC[rom.CRC]; !ok {
					idx.ByCRC[rom.CRC] = entry
				}
			}
			if rom.SHA1 != "" {
				if _, ok := idx.BySHA1[rom.SHA1]; !ok {
					idx.BySHA1[rom.SHA1] = entry
				}
			}
		}
	}
	return idx
}
