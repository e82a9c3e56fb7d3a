// Package idgen provides the 128-bit identifier, wall-clock, spin-lock, and
// fixed-size buffer pool primitives the rest of the forum core is built on.
package idgen

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// ID is a 128-bit identifier with a fixed, comparable in-memory form and a
// canonical ASCII representation. The spec leaves the choice of textual
// UUID representation out of scope; this repo uses google/uuid's raw bytes
// for storage and its dashed-hex String() as the wire/key form.
type ID uuid.UUID

// Zero is the sentinel empty ID, used for "no parent"/"unset" references.
var Zero ID

// AnonymousUserID is the well-known id of the special sentinel "anonymous"
// user referenced by §3 (User entity).
var AnonymousUserID = ID(uuid.Nil)

// NewID generates a fresh random 128-bit identifier.
func NewID() ID {
	return ID(uuid.New())
}

// String renders the canonical fixed ASCII form, e.g.
// "c4a6558b-1234-4e51-9d2a-000000000001".
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the unset sentinel.
func (id ID) IsZero() bool {
	return id == Zero
}

// Bytes returns the raw 128-bit big-endian byte form used by the event log
// (§6.1: "UUIDs are raw bytes").
func (id ID) Bytes() [16]byte {
	return [16]byte(id)
}

// IDFromBytes reconstructs an ID from its raw 16-byte form.
func IDFromBytes(b [16]byte) ID {
	return ID(b)
}

// ParseID parses the canonical dashed-hex form produced by String().
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Zero, err
	}
	return ID(u), nil
}

// MustParseID is ParseID but panics on error; used only for compile-time
// constant ids in tests and fixtures.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// HexDigest is a convenience helper used by a handful of index keys that
// want a short, collision-resistant prefix of an id rather than the full
// dashed form (e.g. log-line correlation ids).
func HexDigest(id ID) string {
	b := id.Bytes()
	return hex.EncodeToString(b[:8])
}
