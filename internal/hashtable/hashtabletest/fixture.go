// Package hashtabletest lays out hash tables in synthetic target memory.
package hashtabletest

import (
	"strconv"

	"corescope/internal/catalog"
	"corescope/internal/hashtable"
	"corescope/internal/target/targettest"
)

// Structures returns the J9HashTable and J9HashTableNode layouts for a
// pointer size of 4 or 8.
func Structures(ptrSize uint64) []*catalog.StructureDescriptor {
	header, err := catalog.NewStructure("J9HashTable", ptrSize+16, []catalog.FieldDescriptor{
		{Name: "nodes", Kind: catalog.KindPointer, Offset: 0},
		{Name: "tableSize", Kind: catalog.KindU32, Offset: ptrSize},
		{Name: "numberOfNodes", Kind: catalog.KindU32, Offset: ptrSize + 4},
		{Name: "hashRule", Kind: catalog.KindU32, Offset: ptrSize + 8},
		{Name: "elementType", Kind: catalog.KindU32, Offset: ptrSize + 12},
	}, nil)
	if err != nil {
		panic(err)
	}
	node, err := catalog.NewStructure("J9HashTableNode", 3*ptrSize, []catalog.FieldDescriptor{
		{Name: "key", Kind: catalog.KindUDATA, Offset: 0},
		{Name: "value", Kind: catalog.KindUDATA, Offset: ptrSize},
		{Name: "next", Kind: catalog.KindPointer, Offset: 2 * ptrSize, Target: "J9HashTableNode"},
	}, nil)
	if err != nil {
		panic(err)
	}
	return []*catalog.StructureDescriptor{header, node}
}

// Catalog returns a catalog holding only the hash table structures.
func Catalog(ptrSize uint64) *catalog.Catalog {
	c, err := catalog.New(Structures(ptrSize)...)
	if err != nil {
		panic(err)
	}
	return c
}

// Table describes a table to lay out. Keys and values are given as they
// would be typed on a command line; udata ones are parsed as integers.
type Table struct {
	Rule    hashtable.HashRule
	Elem    hashtable.ElementType
	Buckets int
	Entries [][2]string
}

// Built records where the pieces of a table ended up.
type Built struct {
	Header uint64
	Array  uint64
	Nodes  []uint64 // in Entries order
}

// Build writes the table into b. Each entry is prepended to the chain of the
// bucket its key hashes to.
func (tt Table) Build(b *targettest.Builder) Built {
	ptr := uint64(b.PtrSize)
	heads := make([]uint64, tt.Buckets)
	built := Built{}

	for _, e := range tt.Entries {
		key, err := tt.Elem.ParseKey(e[0])
		if err != nil {
			panic(err)
		}
		h, err := tt.Rule.Hash(key)
		if err != nil {
			panic(err)
		}
		idx := h % uint64(tt.Buckets)

		node := b.Alloc(int(3 * ptr))
		if tt.Elem == hashtable.UDATAToUTF8 {
			b.PutPtr(node, mustUint(e[0]))
		} else {
			b.PutPtr(node, b.UTF8(e[0]))
		}
		if tt.Elem == hashtable.UTF8ToUDATA {
			b.PutPtr(node+ptr, mustUint(e[1]))
		} else {
			b.PutPtr(node+ptr, b.UTF8(e[1]))
		}
		b.PutPtr(node+2*ptr, heads[idx])
		heads[idx] = node
		built.Nodes = append(built.Nodes, node)
	}

	if tt.Buckets > 0 {
		built.Array = b.Alloc(tt.Buckets * int(ptr))
		for i, head := range heads {
			b.PutPtr(built.Array+uint64(i)*ptr, head)
		}
	}

	built.Header = b.Alloc(int(ptr + 16))
	b.PutPtr(built.Header, built.Array)
	b.PutU32(built.Header+ptr, uint32(tt.Buckets))
	b.PutU32(built.Header+ptr+4, uint32(len(tt.Entries)))
	b.PutU32(built.Header+ptr+8, uint32(tt.Rule))
	b.PutU32(built.Header+ptr+12, uint32(tt.Elem))
	return built
}

// NextOffset returns the offset of the next field in a node.
func NextOffset(ptrSize int) uint64 {
	return 2 * uint64(ptrSize)
}

func mustUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		panic(err)
	}
	return v
}
