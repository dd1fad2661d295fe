package audit

import "io"

// Writer is a destination for audit events.
//
// Implementations set HashPrev and Hash on the event, persist it before
// returning and report any failure to the caller.
type Writer interface {
	Write(event *Event) error

	// LastHash returns the hash of the last written event, or GenesisHash.
	LastHash() string

	io.Closer
}

// NopWriter discards all events. It is used when no audit log is configured.
type NopWriter struct{}

var _ Writer = NopWriter{}

func (NopWriter) Write(*Event) error { return nil }
func (NopWriter) Close() error       { return nil }
func (NopWriter) LastHash() string   { return GenesisHash }
