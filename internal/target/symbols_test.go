package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolsLookup(t *testing.T) {
	st := NewSymbols([]Symbol{
		{Name: "_ZN3foo3barEv", Addr: 0x2000, Size: 0x40},
		{Name: "main", Addr: 0x1000},
		{Name: "main", Addr: 0x1000},
	})
	assert.Equal(t, 2, st.Len())

	tests := []struct {
		name    string
		addr    uint64
		want    string
		wantOff uint64
		found   bool
	}{
		{name: "exact", addr: 0x1000, want: "main", found: true},
		{name: "unsized symbol extends", addr: 0x1800, want: "main", wantOff: 0x800, found: true},
		{name: "inside sized symbol", addr: 0x2010, want: "_ZN3foo3barEv", wantOff: 0x10, found: true},
		{name: "past sized symbol", addr: 0x2040},
		{name: "below first symbol", addr: 0x10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, off, ok := st.Lookup(tt.addr)
			assert.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.want, sym.Name)
				assert.Equal(t, tt.wantOff, off)
			}
		})
	}
}

func TestCachedDemangle(t *testing.T) {
	assert.Equal(t, "foo::bar()", CachedDemangle("_ZN3foo3barEv"))
	assert.Equal(t, "foo::bar()", CachedDemangle("_ZN3foo3barEv"))
	assert.Equal(t, "plain_c_name", CachedDemangle("plain_c_name"))
}
