package target

import (
	"sort"
	"sync"

	"github.com/ianlancetaylor/demangle"

	"corescope/internal/elfx"
)

// Symbol is a named address range from an executable's symbol tables.
type Symbol struct {
	Name string
	Addr uint64
	Size uint64
}

// Demangled returns the symbol name with C++ mangling removed.
func (s Symbol) Demangled() string {
	return CachedDemangle(s.Name)
}

// Symbols is an address-sorted symbol table used to name target addresses.
type Symbols struct {
	Path string
	syms []Symbol
}

// LoadSymbols reads .dynsym and .symtab from the executable at path.
func LoadSymbols(path string) (*Symbols, error) {
	im, err := elfx.Open(path)
	if err != nil {
		return nil, err
	}
	defer im.Close()

	var syms []Symbol
	for _, s := range append(im.Dynsyms, im.Syms...) {
		syms = append(syms, Symbol{Name: s.Name, Addr: s.Addr, Size: s.Size})
	}
	st := NewSymbols(syms)
	st.Path = path
	return st, nil
}

// NewSymbols builds a table from syms, dropping exact duplicates.
func NewSymbols(syms []Symbol) *Symbols {
	seen := make(map[Symbol]bool, len(syms))
	out := make([]Symbol, 0, len(syms))
	for _, s := range syms {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return &Symbols{syms: out}
}

// Len returns the number of symbols.
func (st *Symbols) Len() int {
	return len(st.syms)
}

// Lookup finds the closest symbol at or below addr and returns it with the
// offset of addr into it. Sized symbols that end before addr do not match.
func (st *Symbols) Lookup(addr uint64) (Symbol, uint64, bool) {
	k := sort.Search(len(st.syms), func(k int) bool {
		return addr < st.syms[k].Addr
	})
	k--
	if k < 0 {
		return Symbol{}, 0, false
	}
	s := st.syms[k]
	if s.Size != 0 && addr >= s.Addr+s.Size {
		return Symbol{}, 0, false
	}
	return s, addr - s.Addr, true
}

// demangleCache memoizes demangled names; symbol tables repeat heavily.
var demangleCache = struct {
	mu    sync.RWMutex
	names map[string]string
}{names: make(map[string]string)}

// CachedDemangle demangles a C++ symbol name, returning it unchanged when it is not mangled.
func CachedDemangle(mangled string) string {
	demangleCache.mu.RLock()
	if cached, ok := demangleCache.names[mangled]; ok {
		demangleCache.mu.RUnlock()
		return cached
	}
	demangleCache.mu.RUnlock()

	demangled := demangle.Filter(mangled, demangle.NoClones)

	demangleCache.mu.Lock()
	demangleCache.names[mangled] = demangled
	demangleCache.mu.Unlock()
	return demangled
}
