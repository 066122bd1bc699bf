package pointer

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescope/internal/catalog"
	"corescope/internal/target"
	"corescope/internal/target/targettest"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		token   string
		bits    Bitness
		want    Address
		wantErr bool
	}{
		{token: "0x7f001000", bits: Bits64, want: 0x7f001000},
		{token: "7F001000", bits: Bits64, want: 0x7f001000},
		{token: "0X10", bits: Bits32, want: 0x10},
		{token: "0xffffffffffffffff", bits: Bits64, want: 0xffffffffffffffff},
		{token: "0xffffffff", bits: Bits32, want: 0xffffffff},
		{token: "0x100000000", bits: Bits32, wantErr: true},
		{token: "0x", bits: Bits64, wantErr: true},
		{token: "", bits: Bits64, wantErr: true},
		{token: "0xzz", bits: Bits64, wantErr: true},
		{token: "-1", bits: Bits64, wantErr: true},
		{token: "0x10", bits: Bitness(16), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseAddress(tt.token, tt.bits)
			if tt.wantErr {
				var iae *InvalidAddressError
				assert.True(t, errors.As(err, &iae), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBitnessOf(t *testing.T) {
	b, err := BitnessOf(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), b.PointerSize())

	_, err = BitnessOf(48)
	assert.Error(t, err)
}

func sampleStructure(t *testing.T) *catalog.StructureDescriptor {
	t.Helper()
	d, err := catalog.NewStructure("J9Sample", 24, []catalog.FieldDescriptor{
		{Name: "next", Kind: catalog.KindPointer, Offset: 0, Target: "J9Sample"},
		{Name: "count", Kind: catalog.KindU32, Offset: 8, Max: 100},
		{Name: "delta", Kind: catalog.KindI16, Offset: 12},
		{Name: "enabled", Kind: catalog.KindBool, Offset: 14},
		{Name: "size", Kind: catalog.KindUDATA, Offset: 16},
	}, nil)
	require.NoError(t, err)
	return d
}

func TestResolverRead(t *testing.T) {
	d := sampleStructure(t)
	b := targettest.NewBuilder(0x10000, 8)
	first := b.Alloc(24)
	second := b.Alloc(24)

	b.PutPtr(first, second)
	b.PutU32(first+8, 7)
	b.PutU16(first+12, 0xfffe)
	b.PutU8(first+14, 1)
	b.PutU64(first+16, 0x1234)

	r := NewResolver(b.Image(), Bits64, binary.LittleEndian)
	fields, err := r.Read(Address(first), d)
	require.NoError(t, err)
	require.Len(t, fields.All(), 5)

	next, err := fields.Pointer("next")
	require.NoError(t, err)
	assert.Equal(t, Address(second), next)

	f, ok := fields.Get("delta")
	require.True(t, ok)
	assert.Equal(t, int64(-2), f.Int())
	assert.Equal(t, "-2", f.Format())

	f, _ = fields.Get("enabled")
	assert.Equal(t, "true", f.Format())
	f, _ = fields.Get("size")
	assert.Equal(t, "0x1234", f.Format())
	f, _ = fields.Get("next")
	assert.Equal(t, "!J9Sample 0x10018", f.Format())

	_, err = fields.Uint("missing")
	assert.Error(t, err)

	// The null next pointer of the second node is not an error.
	tp := TypedPointer{Addr: next, Type: d}
	fields, err = tp.Deref(r)
	require.NoError(t, err)
	assert.True(t, fields.Addr == next)
}

func TestResolverReadCorrupt(t *testing.T) {
	d := sampleStructure(t)

	tests := []struct {
		name  string
		setup func(b *targettest.Builder, addr uint64)
		addr  func(addr uint64) Address
	}{
		{
			name:  "null address",
			setup: func(b *targettest.Builder, addr uint64) {},
			addr:  func(uint64) Address { return 0 },
		},
		{
			name:  "unmapped address",
			setup: func(b *targettest.Builder, addr uint64) {},
			addr:  func(uint64) Address { return 0xdead0000 },
		},
		{
			name:  "structure runs off the mapping",
			setup: func(b *targettest.Builder, addr uint64) {},
			addr:  func(addr uint64) Address { return Address(addr + 8) },
		},
		{
			name:  "count exceeds plausible maximum",
			setup: func(b *targettest.Builder, addr uint64) { b.PutU32(addr+8, 101) },
			addr:  func(addr uint64) Address { return Address(addr) },
		},
		{
			name:  "nested pointer to unmapped memory",
			setup: func(b *targettest.Builder, addr uint64) { b.PutPtr(addr, 0xbad000) },
			addr:  func(addr uint64) Address { return Address(addr) },
		},
		{
			name:  "misaligned nested pointer",
			setup: func(b *targettest.Builder, addr uint64) { b.PutPtr(addr, addr+3) },
			addr:  func(addr uint64) Address { return Address(addr) },
		},
		{
			name:  "non-boolean flag",
			setup: func(b *targettest.Builder, addr uint64) { b.PutU8(addr+14, 7) },
			addr:  func(addr uint64) Address { return Address(addr) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := targettest.NewBuilder(0x10000, 8)
			addr := b.Alloc(24)
			tt.setup(b, addr)
			r := NewResolver(b.Image(), Bits64, nil)

			fields, err := r.Read(tt.addr(addr), d)
			assert.Nil(t, fields)
			var cde *CorruptDataError
			require.True(t, errors.As(err, &cde), "got %v", err)
			assert.Equal(t, "J9Sample", cde.Type)
			assert.True(t, IsCorrupt(err))
		})
	}
}

func TestResolverReadOverrunningLayout(t *testing.T) {
	d, err := catalog.NewStructure("Short", 4, []catalog.FieldDescriptor{
		{Name: "wide", Kind: catalog.KindU64, Offset: 0},
	}, nil)
	require.NoError(t, err)

	b := targettest.NewBuilder(0x1000, 8)
	addr := b.Alloc(16)
	r := NewResolver(b.Image(), Bits64, nil)

	_, err = r.Read(Address(addr), d)
	assert.True(t, IsCorrupt(err), "got %v", err)
}

func TestResolverThirtyTwoBit(t *testing.T) {
	d, err := catalog.NewStructure("Pair", 8, []catalog.FieldDescriptor{
		{Name: "first", Kind: catalog.KindPointer, Offset: 0},
		{Name: "second", Kind: catalog.KindUDATA, Offset: 4},
	}, nil)
	require.NoError(t, err)

	b := targettest.NewBuilder(0x8000, 4)
	addr := b.Alloc(8)
	b.PutPtr(addr, addr)
	b.PutPtr(addr+4, 0xcafe)

	r := NewResolver(b.Image(), Bits32, nil)
	fields, err := r.Read(Address(addr), d)
	require.NoError(t, err)

	v, err := fields.Uint("second")
	require.NoError(t, err)
	assert.Equal(t, uint64(0xcafe), v)

	p, err := r.ReadPointer(Address(addr))
	require.NoError(t, err)
	assert.Equal(t, Address(addr), p)
}

func TestResolverReadUTF8(t *testing.T) {
	b := targettest.NewBuilder(0x1000, 8)
	s := b.UTF8("java/lang/String")
	broken := b.Alloc(2)
	b.PutU16(broken, 500)

	r := NewResolver(b.Image(), Bits64, nil)
	got, err := r.ReadUTF8(Address(s))
	require.NoError(t, err)
	assert.Equal(t, "java/lang/String", got)

	_, err = r.ReadUTF8(Address(broken))
	assert.True(t, IsCorrupt(err), "got %v", err)

	_, err = r.ReadUTF8(0)
	assert.True(t, errors.Is(err, ErrNil), "got %v", err)
}

func TestResolverReadBytesLimits(t *testing.T) {
	r := NewResolver(target.NewImage(), Bits64, nil)

	_, err := r.ReadBytes(0x1000, MaxReadSize+1)
	assert.True(t, IsCorrupt(err))

	_, err = r.ReadBytes(0xfffffffffffffff0, 0x20)
	assert.True(t, IsCorrupt(err))

	_, err = r.ReadBytes(0x1000, 4)
	assert.True(t, errors.Is(err, target.ErrUnmapped), "got %v", err)
	assert.False(t, r.Readable(0x1000))
}

type stalledMemory struct{ target.Memory }

func (stalledMemory) ReadMemory(buf []byte, addr uint64) (int, error) {
	return 0, target.ErrTimeout
}

func TestResolverTimeoutIsCorrupt(t *testing.T) {
	r := NewResolver(stalledMemory{target.NewImage()}, Bits64, nil)

	_, err := r.ReadPointer(0x1000)
	assert.True(t, IsCorrupt(err), "got %v", err)
	assert.True(t, errors.Is(err, target.ErrTimeout), "got %v", err)
}
