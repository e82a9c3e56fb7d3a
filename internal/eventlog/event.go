package eventlog

import (
	"fmt"

	"github.com/danij/Forum-sub001/internal/store"
)

// EncodeRecord builds one full on-disk record (frame + header + context +
// payload) for evt (§6.1 blob body: eventType, eventVersion,
// contextVersion, then context + payload).
func EncodeRecord(evt store.WriteEvent) ([]byte, error) {
	entry, ok := codecTable[evt.Type]
	if !ok {
		return nil, fmt.Errorf("eventlog: no encoder registered for event type %d", evt.Type)
	}
	c := newCursor(make([]byte, 0, 128))
	c.putUint16(uint16(evt.Type))
	c.putUint16(entry.versionFor(evt))
	c.putUint16(contextVersion1)
	encodeContextV1(c, evt.Ctx)
	entry.encode(c, evt)
	return encodeFrame(c.bytes()), nil
}
