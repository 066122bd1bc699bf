// Package target provides read-only access to the address space of an
// inspected process or core dump.
package target

import (
	"errors"
	"fmt"
)

var (
	// ErrUnmapped is returned when an address is not inside any mapped region.
	ErrUnmapped = errors.New("address not mapped")

	// ErrTimeout is returned when a live-target read does not complete in time.
	ErrTimeout = errors.New("memory read timed out")
)

// Memory reads target memory. ReadMemory is like io.ReaderAt.ReadAt, but the
// address is a uint64 so that it can address all of 64-bit memory.
type Memory interface {
	ReadMemory(buf []byte, addr uint64) (n int, err error)
}

// RegionLister is implemented by memory sources that can enumerate their mappings.
type RegionLister interface {
	Regions() []Region
}

// Region describes one mapping of target memory.
type Region struct {
	Addr uint64
	Size uint64
	Perm string // e.g. "r-x"
	Name string // backing file or segment label, may be empty
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.Addr + r.Size
}

// Contains reports whether addr lies within the region.
func (r Region) Contains(addr uint64) bool {
	return r.Addr <= addr && addr < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("0x%x-0x%x %s %s", r.Addr, r.End(), r.Perm, r.Name)
}
