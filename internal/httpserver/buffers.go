package httpserver

import "github.com/danij/Forum-sub001/internal/idgen"

// BufferPools bundles the two fixed-size free-lists §4.6 calls for: one for
// inbound header/body arenas, one for outbound response chunks. Both are
// created once at startup and sized by the loaded config.
type BufferPools struct {
	Read  *idgen.BufferPool
	Write *idgen.BufferPool
}

// NewBufferPools preallocates readCount buffers of readSize bytes and
// writeCount buffers of writeSize bytes.
func NewBufferPools(readCount, readSize, writeCount, writeSize int) *BufferPools {
	return &BufferPools{
		Read:  idgen.NewBufferPool(readCount, readSize),
		Write: idgen.NewBufferPool(writeCount, writeSize),
	}
}

// MaxReadChunks and MaxWriteChunks bound how many pool buffers a single
// request body / response body may chain together (§4.6: "bounded, both
// compile-time"). They are deliberately constants rather than config so a
// saturated chain always fails the same way regardless of deployment.
const (
	MaxReadChunks  = 8
	MaxWriteChunks = 64
)
