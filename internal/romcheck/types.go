package romcheck

import "github.com/xxxsen/retrosync/internal/dat"

// MatchState expresses how well one catalog ROM entry matched the archive.
type MatchState int

const (
	MatchExact   MatchState = iota // name and checksum both matched
	MatchPartial                   // name or checksum matched, not both
	MatchMissing                   // no usable match in the archive
)

// EntryCheck is the outcome for a single catalog ROM entry.
type EntryCheck struct {
	Rom     *dat.CatalogRom
	State   MatchState
	Message string
}

// ParentRef describes a cloneof ancestor consulted during a check.
type ParentRef struct {
	Name   string
	Exists bool
	IsBios bool
}

// ArchiveReport aggregates the outcomes for one archive file.
type ArchiveReport struct {
	FilePath string
	SetName  string
	// Parents is the cloneof chain, closest first.
	Parents []ParentRef
	Exact   []*EntryCheck
	Partial []*EntryCheck
	Missing []*EntryCheck
}

// Complete reports whether every required entry was at least partially
// matched.
func (r *ArchiveReport) Complete() bool {
	return len(r.Missing) == 0
}

// Report is the outcome of one directory check.
type Report struct {
	Archives []*ArchiveReport
}
