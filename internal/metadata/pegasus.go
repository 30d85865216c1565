package metadata

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PegasusGame is the parsed view of one game block in a
// metadata.pegasus.txt file.
type PegasusGame struct {
	Title       string
	SortBy      string
	Files       []string
	Developers  []string
	Publishers  []string
	Genres      []string
	Summary     string
	Description string
	Players     string
	Release     string
	Rating      string
	Assets      map[string]string
}

// PegasusDocument is a parsed metadata.pegasus.txt file.
type PegasusDocument struct {
	Collection string
	Games      []PegasusGame
}

// ParsePegasusFile reads a metadata.pegasus.txt file. The format is
// line based: "key: value" entries, indented continuation lines, and game
// blocks opened by a "game:" entry.
func ParsePegasusFile(path string) (*PegasusDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pegasus metadata %s: %w", path, err)
	}
	defer f.Close()

	doc := &PegasusDocument{}
	var current *PegasusGame
	var lastKey string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	lineNo := 0

	commitGame := func() error {
		if current == nil {
			return nil
		}
		if strings.TrimSpace(current.Title) == "" {
			return fmt.Errorf("pegasus metadata %s:%d: game block missing title", path, lineNo)
		}
		doc.Games = append(doc.Games, *current)
		current = nil
		return nil
	}

	appendValue := func(key, value string) {
		if key == "collection" {
			if doc.Collection == "" {
				doc.Collection = value
			}
			return
		}
		if current == nil {
			return
		}
		joinInto := func(dst *string) {
			if *dst == "" {
				*dst = value
			} else {
				*dst += "\n" + value
			}
		}
		switch key {
		case "game":
			joinInto(&current.Title)
		case "sort-by", "sort_title", "sortby":
			current.SortBy = value
		case "file", "files":
			current.Files = append(current.Files, value)
		case "developer", "developers":
			current.Developers = append(current.Developers, splitListValue(value)...)
		case "publisher", "publishers":
			current.Publishers = append(current.Publishers, splitListValue(value)...)
		case "genre", "genres":
			current.Genres = append(current.Genres, splitListValue(value)...)
		case "summary":
			joinInto(&current.Summary)
		case "description":
			joinInto(&current.Description)
		case "players":
			current.Players = value
		case "release":
			current.Release = value
		case "rating":
			current.Rating = value
		default:
			if assetKey := strings.TrimPrefix(key, "assets."); assetKey != key && assetKey != "" {
				if current.Assets == nil {
					current.Assets = make(map[string]string)
				}
				if _, ok := current.Assets[assetKey]; !ok {
					current.Assets[assetKey] = value
				}
			}
		}
	}

	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSuffix(scanner.Text(), "\r")
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\uFEFF")
		}
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			lastKey = ""
			continue
		}

		firstRune, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsSpace(firstRune) {
			if lastKey == "" {
				return nil, fmt.Errorf("pegasus metadata %s:%d: value without preceding entry", path, lineNo)
			}
			appendValue(lastKey, trimmed)
			continue
		}

		colon := strings.IndexRune(raw, ':')
		if colon == -1 {
			return nil, fmt.Errorf("pegasus metadata %s:%d: expected key-value entry", path, lineNo)
		}
		key := strings.ToLower(strings.TrimSpace(raw[:colon]))
		if key == "" {
			return nil, fmt.Errorf("pegasus metadata %s:%d: invalid entry name", path, lineNo)
		}
		value := ""
		if colon+1 < len(raw) {
			value = strings.TrimSpace(raw[colon+1:])
		}

		if key == "game" {
			if err := commitGame(); err != nil {
				return nil, err
			}
			current = &PegasusGame{}
		}
		lastKey = key
		if value == "" {
			continue
		}
		appendValue(key, value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan pegasus metadata %s: %w", path, err)
	}
	if err := commitGame(); err != nil {
		return nil, err
	}
	if doc.Collection == "" && len(doc.Games) == 0 {
		return nil, fmt.Errorf("pegasus metadata %s: no collection or game blocks found", path)
	}
	return doc, nil
}
