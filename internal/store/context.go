package store

import (
	"net"

	"github.com/danij/Forum-sub001/internal/idgen"
)

// SortOrder is the direction a list query is paged in.
type SortOrder uint8

const (
	Ascending SortOrder = iota
	Descending
)

// DisplayContext is the per-request tuple that shapes list responses
// (§4.1 GLOSSARY "Display context").
type DisplayContext struct {
	SortOrder             SortOrder
	PageNumber            int
	CheckNotChangedSince  idgen.Timestamp // zero == no check requested
}

// ObserverContext travels with every command and query (§4.2: "All writes
// and reads carry an observer context").
type ObserverContext struct {
	PerformedBy     idgen.ID
	CurrentTime     idgen.Timestamp
	DisplayContext  DisplayContext
	SourceIP        net.IP
}
