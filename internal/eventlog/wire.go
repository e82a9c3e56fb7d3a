// Package eventlog implements the append-only binary event log: the
// writer (C6) observes every accepted store mutation and frames it to
// disk, and the importer (C7) replays those frames back into a fresh
// Collection at startup (§4.3, §4.4, §6.1).
package eventlog

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/danij/Forum-sub001/internal/idgen"
)

// cursor is a small bump-allocator over a byte slice used by both the
// encode and decode sides of the wire format. There is no ecosystem
// library for this bespoke framing (§6.1 is fixed by the spec down to the
// byte), so cursor is deliberately minimal rather than a dependency.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor { return &cursor{buf: buf} }

func (c *cursor) putUint16(v uint16) {
	c.buf = binary.LittleEndian.AppendUint16(c.buf, v)
}

func (c *cursor) putUint32(v uint32) {
	c.buf = binary.LittleEndian.AppendUint32(c.buf, v)
}

func (c *cursor) putUint64(v uint64) {
	c.buf = binary.LittleEndian.AppendUint64(c.buf, v)
}

func (c *cursor) putInt64(v int64) { c.putUint64(uint64(v)) }

func (c *cursor) putByte(b byte) { c.buf = append(c.buf, b) }

func (c *cursor) putBool(b bool) {
	if b {
		c.putByte(1)
	} else {
		c.putByte(0)
	}
}

func (c *cursor) putID(id idgen.ID) {
	b := id.Bytes()
	c.buf = append(c.buf, b[:]...)
}

// putIP writes ip left-padded with zeros into 16 bytes (§6.1).
func (c *cursor) putIP(ip net.IP) {
	var raw [16]byte
	v4 := ip.To4()
	if v4 != nil {
		copy(raw[12:], v4)
	} else if v6 := ip.To16(); v6 != nil {
		copy(raw[:], v6)
	}
	c.buf = append(c.buf, raw[:]...)
}

func (c *cursor) putString(s string) {
	c.putUint32(uint32(len(s)))
	c.buf = append(c.buf, s...)
}

func (c *cursor) putBytes(b []byte) {
	c.putUint32(uint32(len(b)))
	c.buf = append(c.buf, b...)
}

func (c *cursor) bytes() []byte { return c.buf }

// reader walks a decode-side byte slice, failing closed on truncation.
type reader struct {
	buf []byte
	pos int
	err error
}

func newReader(buf []byte) *reader { return &reader{buf: buf} }

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("eventlog: truncated record: need %d bytes at offset %d, have %d", n, r.pos, len(r.buf))
		return false
	}
	return true
}

func (r *reader) uint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) int64() int64 { return int64(r.uint64()) }

func (r *reader) byteVal() byte {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) boolVal() bool { return r.byteVal() != 0 }

func (r *reader) id() idgen.ID {
	if !r.need(16) {
		return idgen.Zero
	}
	var raw [16]byte
	copy(raw[:], r.buf[r.pos:r.pos+16])
	r.pos += 16
	return idgen.IDFromBytes(raw)
}

func (r *reader) ip() net.IP {
	if !r.need(16) {
		return nil
	}
	raw := make([]byte, 16)
	copy(raw, r.buf[r.pos:r.pos+16])
	r.pos += 16
	ip := net.IP(raw)
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip
}

func (r *reader) string() string {
	n := r.uint32()
	if !r.need(int(n)) {
		return ""
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s
}

func (r *reader) bytesVal() []byte {
	n := r.uint32()
	if !r.need(int(n)) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b
}
