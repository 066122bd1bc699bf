package flags

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescope/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	class, err := catalog.NewStructure("J9Class", 64, nil, []catalog.ConstantDescriptor{
		catalog.IntConstant("J9AccPublic", 0x1),
		catalog.IntConstant("J9AccPrivate", 0x2),
		catalog.IntConstant("J9AccFinal", 0x10),
	})
	require.NoError(t, err)
	method, err := catalog.NewStructure("J9Method", 32, nil, []catalog.ConstantDescriptor{
		catalog.StringConstant("J9MethodKind", "romMethod"),
	})
	require.NoError(t, err)
	empty, err := catalog.NewStructure("J9Object", 16, nil, nil)
	require.NoError(t, err)

	c, err := catalog.New(class, method, empty)
	require.NoError(t, err)
	return c
}

func TestShow(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "list structures",
			want: "J9Class\nJ9Method\nJ9Object\n",
		},
		{
			name: "structure constants",
			args: []string{"J9Class"},
			want: "J9AccPublic: 1\nJ9AccPrivate: 2\nJ9AccFinal: 16\n",
		},
		{
			name: "string constant",
			args: []string{"J9Method"},
			want: "J9MethodKind: romMethod\n",
		},
		{
			name: "structure without constants",
			args: []string{"J9Object"},
			want: "",
		},
		{
			name: "unknown structure",
			args: []string{"J9Nope"},
			want: NoSuchStructure + "\n",
		},
		{
			name: "single flag",
			args: []string{"J9Class", "J9AccPublic"},
			want: "J9AccPublic: 1\n",
		},
		{
			name: "absent flag prints nothing",
			args: []string{"J9Class", "J9AccStatic"},
			want: "",
		},
		{
			name: "unknown structure skips flag lookup",
			args: []string{"J9Nope", "J9AccPublic"},
			want: NoSuchStructure + "\n",
		},
	}

	in := NewInspector(testCatalog(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, in.Show(&out, tt.args...))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestShowListsEachStructureOnce(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewInspector(testCatalog(t)).Show(&out))

	seen := map[string]int{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		seen[line]++
	}
	assert.Len(t, seen, 3)
	for name, n := range seen {
		assert.Equal(t, 1, n, name)
	}
}

func TestShowTooManyArgs(t *testing.T) {
	var out bytes.Buffer
	err := NewInspector(testCatalog(t)).Show(&out, "a", "b", "c")
	assert.Error(t, err)
	assert.Empty(t, out.String())
}
