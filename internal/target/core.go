package target

import (
	"debug/elf"
	"encoding/binary"
	"fmt"

	"corescope/internal/elfx"
)

// CoreFile is a static memory image read from an ELF core dump. Reads are
// served straight from the mmap'd file and never block.
type CoreFile struct {
	*Image
	elf *elfx.Image
}

// OpenCore maps the core dump at path. Only the file-backed part of each
// PT_LOAD segment is readable; zero-filled tails are reported as unmapped.
func OpenCore(path string) (*CoreFile, error) {
	im, err := elfx.Open(path)
	if err != nil {
		return nil, err
	}
	if !im.IsCore() {
		im.Close()
		return nil, fmt.Errorf("%s is not a core file (type %s)", path, im.File.Type)
	}

	core := &CoreFile{Image: NewImage(), elf: im}
	for _, seg := range im.Loads {
		if seg.Filesz == 0 {
			continue
		}
		data, ok := im.SegmentData(seg)
		if !ok {
			im.Close()
			return nil, fmt.Errorf("segment at 0x%x extends past end of %s", seg.Vaddr, path)
		}
		if err := core.MapNamed(seg.Vaddr, data, seg.Perm(), "core"); err != nil {
			im.Close()
			return nil, fmt.Errorf("map segment: %w", err)
		}
	}
	return core, nil
}

// Bits returns the address width recorded in the core header.
func (c *CoreFile) Bits() int {
	return c.elf.Bits()
}

// ByteOrder returns the data encoding recorded in the core header.
func (c *CoreFile) ByteOrder() binary.ByteOrder {
	return c.elf.ByteOrder()
}

// Machine returns the architecture recorded in the core header.
func (c *CoreFile) Machine() elf.Machine {
	return c.elf.Machine()
}

// Close unmaps the core file.
func (c *CoreFile) Close() error {
	return c.elf.Close()
}
