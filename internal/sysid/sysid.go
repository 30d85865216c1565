// Package sysid normalizes platform identifiers so that the many spellings
// frontends use for the same hardware collapse onto one canonical id.
package sysid

import (
	"regexp"
	"strings"
)

// Alias keys are themselves normalized before lookup, so entries stay in
// canonical key form.
var aliasToCanonical = map[string]string{
	// Nintendo
	"super_nintendo": "snes",
	"super_famicom":  "snes",
	"nintendo_64":    "n64",
	"nintendo64":     "n64",
	"n64":            "n64",
	"n64dd":          "n64dd",
	"gamecube":       "gamecube",
	"gc":             "gamecube",
	"ngc":            "gamecube",
	// Sony
	"psp":                   "psp",
	"playstation_portable":  "psp",
	"sony_psp":              "psp",
	"psx":                   "psx",
	"ps1":                   "psx",
	"playstation":           "psx",
	// Sega
	"sega_genesis": "genesis",
	"mega_drive":   "megadrive",
	"sega_cd":      "segacd",
	"segacd":       "segacd",
	"mega_cd":      "segacd",
	"megacd":       "segacd",
	// SNK
	"snk_neo_geo_aes": "neogeo",
	// Commodore
	"commodore_amiga_cd32": "amigacd32",
	"amiga_cd32":           "amigacd32",
	"amigacd32":            "amigacd32",
	"cd32":                 "amigacd32",
	"commodore_amiga":      "commodore_amiga",
	// Arcade families
	"capcom_play_system_1": "cps1",
	"capcom_play_system_2": "cps2",
	"capcom_play_system_3": "cps3",
	// General shorthand
	"dc": "dreamcast",
}

var canonicalToSearchTokens = map[string][]string{
	"n64":             {"n64", "nintendo 64"},
	"n64dd":           {"n64dd", "nintendo 64dd"},
	"gamecube":        {"gamecube", "game cube", "nintendo gamecube"},
	"psp":             {"psp", "playstation portable", "sony psp"},
	"segacd":          {"segacd", "sega cd", "mega cd", "megacd"},
	"amigacd32":       {"amigacd32", "amiga cd32", "commodore cd32", "cd32"},
	"commodore_amiga": {"commodore amiga", "amiga", "commodore"},
	"snes":            {"snes", "super nintendo", "super famicom"},
	"genesis":         {"genesis", "sega genesis", "mega drive"},
	"megadrive":       {"megadrive", "mega drive", "genesis"},
	"neogeo":          {"neogeo", "neo geo", "snk neo geo"},
	"dreamcast":       {"dreamcast", "sega dreamcast", "dc"},
	"cps1":            {"cps1", "capcom play system 1"},
	"cps2":            {"cps2", "capcom play system 2"},
	"cps3":            {"cps3", "capcom play system 3"},
}

var underscoreCollapseRegex = regexp.MustCompile(`_+`)

// Canonicalize maps any spelling of a system id to its canonical form.
// Applying it to its own output returns the same value.
func Canonicalize(raw string) string {
	normalized := normalizeAliasKey(raw)
	if normalized == "" {
		return ""
	}
	if canonical, ok := aliasToCanonical[normalized]; ok {
		return canonical
	}
	return normalized
}

// SearchTokens expands a system id into the token list used when matching
// the id against catalog filenames and headers.
func SearchTokens(raw string) []string {
	canonical := Canonicalize(raw)
	tokens := make([]string, 0, 6)
	tokens = append(tokens, canonicalToSearchTokens[canonical]...)
	if canonical != "" && !containsToken(tokens, canonical) {
		tokens = append(tokens, canonical)
	}
	spaced := strings.TrimSpace(strings.ReplaceAll(canonical, "_", " "))
	if spaced != "" && !containsToken(tokens, spaced) {
		tokens = append(tokens, spaced)
	}
	for _, part := range strings.Split(canonical, "_") {
		token := strings.TrimSpace(part)
		if len(token) >= 2 && !containsToken(tokens, token) {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func normalizeAliasKey(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "&", " and ")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = underscoreCollapseRegex.ReplaceAllString(normalized, "_")
	normalized = strings.Trim(normalized, "_")
	return normalized
}
