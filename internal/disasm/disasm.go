// Package disasm decodes ARM64 code read from target memory into a flat
// instruction stream.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// MaxCount caps how many instructions one request may decode.
const MaxCount = 256

// Inst is a simplified decoded instruction.
type Inst struct {
	VA     uint64  // virtual address of instruction
	Text   string  // formatted disassembly string
	Op     string  // mnemonic in lowercase
	Raw    [4]byte // raw encoding
	Target uint64  // branch or adr destination, zero if none
	Bad    bool    // encoding did not decode
}

// Stream is a linear sequence of instructions.
type Stream []Inst

// Decode disassembles data as little-endian ARM64 code starting at va.
// Undecodable words become ".word" entries so the stream stays aligned.
func Decode(data []byte, va uint64) Stream {
	out := make(Stream, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		pc := va + uint64(i)
		in := Inst{VA: pc}
		copy(in.Raw[:], data[i:i+4])

		inst, err := arm64asm.Decode(data[i : i+4])
		if err != nil {
			in.Bad = true
			in.Op = ".word"
			in.Text = fmt.Sprintf(".word 0x%08x", binary.LittleEndian.Uint32(in.Raw[:]))
			out = append(out, in)
			continue
		}

		in.Op = strings.ToLower(inst.Op.String())
		in.Text = arm64asm.GNUSyntax(inst)
		for _, arg := range inst.Args {
			if rel, ok := arg.(arm64asm.PCRel); ok {
				in.Target = uint64(int64(pc) + int64(rel))
			}
		}
		out = append(out, in)
	}
	return out
}

// Symbolizer names an address, typically the nearest symbol plus offset.
type Symbolizer func(addr uint64) (string, bool)

// Format renders the stream one instruction per line. When sym is non-nil,
// branch targets get a trailing comment naming them.
func (s Stream) Format(sym Symbolizer) string {
	var b strings.Builder
	for _, in := range s {
		fmt.Fprintf(&b, "%x  %-40s", in.VA, in.Text)
		if in.Target != 0 && sym != nil {
			if name, ok := sym(in.Target); ok {
				fmt.Fprintf(&b, " ; %s", name)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
