package pointer

import (
	"encoding/binary"
	"fmt"

	"corescope/internal/catalog"
	"corescope/internal/target"
)

// MaxReadSize caps a single read. Larger requests come from garbage sizes.
const MaxReadSize = 1 << 20

// Resolver dereferences addresses against target memory for one session.
type Resolver struct {
	mem   target.Memory
	bits  Bitness
	order binary.ByteOrder
}

// NewResolver returns a resolver over mem. A nil order means little-endian.
func NewResolver(mem target.Memory, bits Bitness, order binary.ByteOrder) *Resolver {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Resolver{mem: mem, bits: bits, order: order}
}

// Bitness returns the target address width.
func (r *Resolver) Bitness() Bitness {
	return r.bits
}

// ByteOrder returns the target data encoding.
func (r *Resolver) ByteOrder() binary.ByteOrder {
	return r.order
}

// Memory returns the underlying memory source.
func (r *Resolver) Memory() target.Memory {
	return r.mem
}

// ParseAddress parses a token using the resolver's bitness.
func (r *Resolver) ParseAddress(token string) (Address, error) {
	return ParseAddress(token, r.bits)
}

// ReadBytes reads exactly n bytes at addr.
func (r *Resolver) ReadBytes(addr Address, n uint64) ([]byte, error) {
	if n > MaxReadSize {
		return nil, Corrupt(addr, "", "implausible read of %d bytes", n)
	}
	if uint64(addr)+n < uint64(addr) {
		return nil, Corrupt(addr, "", "read of %d bytes wraps the address space", n)
	}
	buf := make([]byte, n)
	got, err := r.mem.ReadMemory(buf, uint64(addr))
	if err != nil {
		return nil, &CorruptDataError{Addr: addr, Err: fmt.Errorf("reading %d bytes: %w", n, err)}
	}
	if uint64(got) != n {
		return nil, Corrupt(addr, "", "short read: %d of %d bytes", got, n)
	}
	return buf, nil
}

// ReadUint reads an unsigned integer of 1, 2, 4 or 8 bytes.
func (r *Resolver) ReadUint(addr Address, size uint64) (uint64, error) {
	raw, err := r.ReadBytes(addr, size)
	if err != nil {
		return 0, err
	}
	v, ok := r.decode(raw)
	if !ok {
		return 0, fmt.Errorf("unsupported integer size %d", size)
	}
	return v, nil
}

// ReadPointer reads a target pointer at addr.
func (r *Resolver) ReadPointer(addr Address) (Address, error) {
	v, err := r.ReadUint(addr, r.bits.PointerSize())
	if err != nil {
		return 0, err
	}
	return Address(v), nil
}

// ReadUTF8 reads a length-prefixed string: a u16 byte count followed by the bytes.
func (r *Resolver) ReadUTF8(addr Address) (string, error) {
	if addr.IsNull() {
		return "", &CorruptDataError{Addr: addr, Type: "J9UTF8", Err: ErrNil}
	}
	n, err := r.ReadUint(addr, 2)
	if err != nil {
		return "", err
	}
	data, err := r.ReadBytes(addr.Add(2), n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Readable reports whether at least one byte at addr can be read.
func (r *Resolver) Readable(addr Address) bool {
	var b [1]byte
	n, err := r.mem.ReadMemory(b[:], uint64(addr))
	return err == nil && n == 1
}

// Read decodes the structure d at addr. It returns every field or a
// CorruptDataError; it never returns a partial field set.
func (r *Resolver) Read(addr Address, d *catalog.StructureDescriptor) (*Fields, error) {
	if addr.IsNull() {
		return nil, &CorruptDataError{Addr: addr, Type: d.Name, Err: ErrNil}
	}

	raw, err := r.ReadBytes(addr, d.Size)
	if err != nil {
		if cde, ok := err.(*CorruptDataError); ok {
			cde.Type = d.Name
		}
		return nil, err
	}

	ptrSize := r.bits.PointerSize()
	fields := newFields(d, addr)
	for _, fd := range d.Fields() {
		size, _ := fd.Kind.Size(ptrSize)
		if fd.Offset+size > d.Size || fd.Offset+size < fd.Offset {
			return nil, Corrupt(addr, d.Name, "field %s at offset %d overruns %d-byte structure", fd.Name, fd.Offset, d.Size)
		}

		v, _ := r.decode(raw[fd.Offset : fd.Offset+size])
		if fd.Kind.Signed() {
			v = signExtend(v, size)
		}

		switch {
		case fd.Kind == catalog.KindBool && v > 1:
			return nil, Corrupt(addr, d.Name, "field %s holds non-boolean %d", fd.Name, v)
		case fd.Max != 0 && !fd.Kind.Signed() && v > fd.Max:
			return nil, Corrupt(addr, d.Name, "field %s value %d exceeds plausible maximum %d", fd.Name, v, fd.Max)
		case fd.Max != 0 && fd.Kind.Signed() && (int64(v) < 0 || uint64(int64(v)) > fd.Max):
			return nil, Corrupt(addr, d.Name, "field %s value %d outside plausible range [0, %d]", fd.Name, int64(v), fd.Max)
		case fd.Kind == catalog.KindPointer && v != 0 && v%ptrSize != 0:
			return nil, Corrupt(addr, d.Name, "field %s holds misaligned pointer 0x%x", fd.Name, v)
		case fd.Kind == catalog.KindPointer && v != 0 && !r.Readable(Address(v)):
			return nil, Corrupt(addr, d.Name, "field %s points to unmapped address 0x%x", fd.Name, v)
		}

		fields.add(Field{FieldDescriptor: fd, Addr: addr.Add(fd.Offset), Value: v})
	}
	return fields, nil
}

// decode reads an unsigned integer from 1, 2, 4 or 8 bytes.
func (r *Resolver) decode(raw []byte) (uint64, bool) {
	switch len(raw) {
	case 1:
		return uint64(raw[0]), true
	case 2:
		return uint64(r.order.Uint16(raw)), true
	case 4:
		return uint64(r.order.Uint32(raw)), true
	case 8:
		return r.order.Uint64(raw), true
	}
	return 0, false
}

func signExtend(v uint64, size uint64) uint64 {
	shift := 64 - 8*size
	return uint64(int64(v<<shift) >> shift)
}
