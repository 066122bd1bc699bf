// Package targettest builds synthetic target memory for tests.
package targettest

import (
	"encoding/binary"

	"corescope/internal/target"
)

// Builder lays out a single little-endian heap segment. Allocations are
// 8-byte aligned and start at Base.
type Builder struct {
	Base    uint64
	PtrSize int
	heap    []byte
}

// NewBuilder returns a builder whose heap starts at base.
func NewBuilder(base uint64, ptrSize int) *Builder {
	return &Builder{Base: base, PtrSize: ptrSize}
}

// Alloc reserves size zeroed bytes and returns their address.
func (b *Builder) Alloc(size int) uint64 {
	for len(b.heap)%8 != 0 {
		b.heap = append(b.heap, 0)
	}
	addr := b.Base + uint64(len(b.heap))
	b.heap = append(b.heap, make([]byte, size)...)
	return addr
}

func (b *Builder) slot(addr uint64, size int) []byte {
	off := addr - b.Base
	return b.heap[off : off+uint64(size)]
}

// PutU8 stores a byte at addr.
func (b *Builder) PutU8(addr uint64, v uint8) {
	b.slot(addr, 1)[0] = v
}

// PutU16 stores a little-endian uint16 at addr.
func (b *Builder) PutU16(addr uint64, v uint16) {
	binary.LittleEndian.PutUint16(b.slot(addr, 2), v)
}

// PutU32 stores a little-endian uint32 at addr.
func (b *Builder) PutU32(addr uint64, v uint32) {
	binary.LittleEndian.PutUint32(b.slot(addr, 4), v)
}

// PutU64 stores a little-endian uint64 at addr.
func (b *Builder) PutU64(addr uint64, v uint64) {
	binary.LittleEndian.PutUint64(b.slot(addr, 8), v)
}

// PutPtr stores a pointer-sized value at addr.
func (b *Builder) PutPtr(addr uint64, v uint64) {
	if b.PtrSize == 4 {
		b.PutU32(addr, uint32(v))
		return
	}
	b.PutU64(addr, v)
}

// PutBytes copies data to addr.
func (b *Builder) PutBytes(addr uint64, data []byte) {
	copy(b.slot(addr, len(data)), data)
}

// UTF8 allocates a u16-length-prefixed string and returns its address.
func (b *Builder) UTF8(s string) uint64 {
	addr := b.Alloc(2 + len(s))
	b.PutU16(addr, uint16(len(s)))
	b.PutBytes(addr+2, []byte(s))
	return addr
}

// Image maps the heap into a fresh image.
func (b *Builder) Image() *target.Image {
	im := target.NewImage()
	if err := im.MapNamed(b.Base, b.heap, "rw-", "heap"); err != nil {
		panic(err)
	}
	return im
}
