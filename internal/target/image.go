package target

import (
	"fmt"
	"sort"
)

// segment is one contiguous mapped range of an Image.
type segment struct {
	addr uint64
	data []byte
	perm string
	name string
}

func (s segment) size() uint64 {
	return uint64(len(s.data))
}

func (s segment) contains(addr uint64) bool {
	return s.addr <= addr && addr < s.addr+s.size()
}

// Image is a static memory image made of non-overlapping segments. Core files
// are backed by an Image over their mmap'd PT_LOAD segments, and tests build
// one directly.
type Image struct {
	segs []segment // sorted by addr
}

// NewImage returns an empty image.
func NewImage() *Image {
	return &Image{}
}

// Map adds data at addr. It fails if the range wraps or overlaps an existing segment.
func (im *Image) Map(addr uint64, data []byte) error {
	return im.MapNamed(addr, data, "rw-", "")
}

// MapNamed is Map with a permission string and a label for region listings.
func (im *Image) MapNamed(addr uint64, data []byte, perm, name string) error {
	if len(data) == 0 {
		return nil
	}
	end := addr + uint64(len(data))
	if end < addr {
		return fmt.Errorf("segment at 0x%x wraps the address space", addr)
	}
	for _, s := range im.segs {
		if addr < s.addr+s.size() && s.addr < end {
			return fmt.Errorf("segment 0x%x-0x%x overlaps 0x%x-0x%x", addr, end, s.addr, s.addr+s.size())
		}
	}
	im.segs = append(im.segs, segment{addr: addr, data: data, perm: perm, name: name})
	sort.Slice(im.segs, func(i, j int) bool { return im.segs[i].addr < im.segs[j].addr })
	return nil
}

// find returns the index of the segment containing addr.
func (im *Image) find(addr uint64) (int, bool) {
	// Binary search for an upper-bound segment, then check
	// if the previous segment contains addr.
	k := sort.Search(len(im.segs), func(k int) bool {
		return addr < im.segs[k].addr
	})
	k--
	if k >= 0 && im.segs[k].contains(addr) {
		return k, true
	}
	return 0, false
}

// ReadMemory copies len(buf) bytes starting at addr. Reads may span
// adjacent segments; a read that runs into a hole returns the bytes copied
// so far and ErrUnmapped.
func (im *Image) ReadMemory(buf []byte, addr uint64) (int, error) {
	n := 0
	for n < len(buf) {
		cur := addr + uint64(n)
		if cur < addr {
			return n, ErrUnmapped
		}
		k, ok := im.find(cur)
		if !ok {
			return n, fmt.Errorf("%w: 0x%x", ErrUnmapped, cur)
		}
		s := im.segs[k]
		n += copy(buf[n:], s.data[cur-s.addr:])
	}
	return n, nil
}

// Regions lists the image segments in address order.
func (im *Image) Regions() []Region {
	regions := make([]Region, 0, len(im.segs))
	for _, s := range im.segs {
		regions = append(regions, Region{Addr: s.addr, Size: s.size(), Perm: s.perm, Name: s.name})
	}
	return regions
}
