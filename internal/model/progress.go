package model

import "errors"

// ErrCancelled reports that a caller-supplied cancel check fired. Work that
// stops on it has a distinct outcome from both success and failure.
var ErrCancelled = errors.New("operation cancelled")

// Progress is one structured progress event emitted by a long running
// operation.
type Progress struct {
	Stage   string
	Message string
}

// ProgressFunc receives progress events. A nil ProgressFunc is always valid.
type ProgressFunc func(p Progress)

// Emit reports one event if the callback is set.
func (f ProgressFunc) Emit(stage, message string) {
	if f != nil {
		f(Progress{Stage: stage, Message: message})
	}
}

// CancelFunc reports whether the caller asked to stop. A nil CancelFunc
// never cancels.
type CancelFunc func() bool

// Cancelled evaluates the check, treating nil as not cancelled.
func (f CancelFunc) Cancelled() bool {
	return f != nil && f()
}

// DuplicateConflict describes an incoming game whose identity key already
// exists in the destination metadata file.
type DuplicateConflict struct {
	IdentityKey   string
	SystemID      string
	MetadataPath  string
	ExistingTitle string
	ExistingRom   string
	IncomingTitle string
	IncomingRom   string
}
