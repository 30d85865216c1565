package sysid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Super Nintendo", "snes"},
		{"super-nintendo", "snes"},
		{"SNES", "snes"},
		{"Sega CD", "segacd"},
		{"Mega-CD", "segacd"},
		{"PlayStation", "psx"},
		{"ps1", "psx"},
		{"Capcom Play System 1", "cps1"},
		{"Commodore Amiga CD32", "amigacd32"},
		{"dc", "dreamcast"},
		{"  Neo--Geo  ", "neo_geo"},
		{"D&D Arcade", "d_and_d_arcade"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Canonicalize(tc.in), "input %q", tc.in)
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Super Nintendo", "snes", "Sega CD", "playstation portable",
		"some unknown-system", "Capcom Play System 2",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		assert.Equal(t, once, Canonicalize(once), "input %q", in)
	}
}

func TestSearchTokens(t *testing.T) {
	t.Parallel()

	tokens := SearchTokens("Super Nintendo")
	assert.Contains(t, tokens, "snes")
	assert.Contains(t, tokens, "super nintendo")
	assert.Contains(t, tokens, "super famicom")

	tokens = SearchTokens("commodore_amiga")
	assert.Contains(t, tokens, "commodore amiga")
	assert.Contains(t, tokens, "amiga")
	// underscore parts at least two chars long are added individually
	assert.Contains(t, tokens, "commodore")

	assert.Empty(t, SearchTokens("  "))
}
