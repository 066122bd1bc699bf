// Package elfx opens ELF core dumps and executables, maps them read-only,
// and exposes their PT_LOAD segments and symbol tables.
package elfx

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"
	"syscall"
)

type Image struct {
	Path    string
	File    *elf.File
	All     []byte
	Loads   []Seg
	Dynsyms []Sym
	Syms    []Sym
	f       *os.File
}

type Seg struct {
	Vaddr, Off, Filesz, Memsz uint64
	Flags                     elf.ProgFlag
}

// Perm renders the segment flags as an "rwx" string.
func (s Seg) Perm() string {
	perm := []byte("---")
	if s.Flags&elf.PF_R != 0 {
		perm[0] = 'r'
	}
	if s.Flags&elf.PF_W != 0 {
		perm[1] = 'w'
	}
	if s.Flags&elf.PF_X != 0 {
		perm[2] = 'x'
	}
	return string(perm)
}

type Sym struct {
	Name string
	Addr uint64
	Size uint64
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Memsz:  p.Memsz,
			Flags:  p.Flags,
		})
	}

	im.loadDynamicSymbols()
	im.loadStaticSymbols()
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.All != nil {
		err1 = syscall.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		err3 := im.File.Close()
		if err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// IsCore reports whether the file is an ELF core dump.
func (im *Image) IsCore() bool {
	return im.File.Type == elf.ET_CORE
}

// Bits returns the address width of the image (32 or 64).
func (im *Image) Bits() int {
	if im.File.Class == elf.ELFCLASS32 {
		return 32
	}
	return 64
}

// ByteOrder returns the data encoding of the image.
func (im *Image) ByteOrder() binary.ByteOrder {
	return im.File.ByteOrder
}

// Machine returns the target architecture.
func (im *Image) Machine() elf.Machine {
	return im.File.Machine
}

// SegmentData returns the file-backed bytes of a PT_LOAD segment.
// It returns false if the segment lies outside the mapped file.
func (im *Image) SegmentData(s Seg) ([]byte, bool) {
	end := s.Off + s.Filesz
	if end < s.Off || end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[s.Off:end:end], true
}

// loadDynamicSymbols loads symbols from the .dynsym section.
func (im *Image) loadDynamicSymbols() {
	if im.File == nil || im.File.Section(".dynsym") == nil {
		return
	}

	dynsyms, err := im.File.DynamicSymbols()
	if err != nil {
		return
	}

	for _, sym := range dynsyms {
		if sym.Value == 0 || sym.Name == "" {
			continue
		}
		im.Dynsyms = append(im.Dynsyms, Sym{Name: sym.Name, Addr: sym.Value, Size: sym.Size})
	}
}

// loadStaticSymbols loads symbols from .symtab; stripped binaries have none.
func (im *Image) loadStaticSymbols() {
	if im.File == nil {
		return
	}

	syms, err := im.File.Symbols()
	if err != nil {
		return // .symtab not available or stripped
	}

	for _, sym := range syms {
		// Skip undefined symbols and section/file markers
		if sym.Value == 0 || sym.Name == "" {
			continue
		}
		if t := elf.ST_TYPE(sym.Info); t == elf.STT_SECTION || t == elf.STT_FILE {
			continue
		}
		im.Syms = append(im.Syms, Sym{Name: sym.Name, Addr: sym.Value, Size: sym.Size})
	}
}
