package capture

import "sync"

// bufferPool recycles frame pixel buffers. The writer hands each buffer back
// through Frame.Recycle once the frame is serialized, so steady-state
// capture stops allocating after the queue has filled once. Buffers that
// are never returned are simply collected.
type bufferPool struct {
	size int
	pool sync.Pool // stores *[]byte
}

func newBufferPool(size int) *bufferPool { return &bufferPool{size: size} }

// get returns a buffer of exactly size bytes. Contents are undefined.
func (p *bufferPool) get() []byte {
	if v := p.pool.Get(); v != nil {
		buf := *(v.(*[]byte))
		if cap(buf) >= p.size {
			return buf[:p.size]
		}
	}
	return make([]byte, p.size)
}

// put returns buf for reuse. The caller must not touch buf afterwards.
func (p *bufferPool) put(buf []byte) {
	if cap(buf) < p.size {
		return
	}
	p.pool.Put(&buf)
}
