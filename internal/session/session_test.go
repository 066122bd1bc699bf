package session

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescope/internal/command"
	"corescope/internal/hashtable"
	"corescope/internal/hashtable/hashtabletest"
	"corescope/internal/pointer"
	"corescope/internal/target"
	"corescope/internal/target/targettest"
)

const catalogYAML = `
structures:
  - name: J9Class
    size: 16
    fields:
      - {name: superclass, type: pointer, offset: 0, target: J9Class}
    constants:
      - {name: J9AccPublic, value: 0x1}
      - {name: J9AccAbstract, value: 0x400}
  - name: J9Method
    size: 32
`

func memFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ddr/j9.yaml", []byte(catalogYAML), 0o644))
	return fs
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "catalog only", cfg: Config{CatalogPath: "c.json"}},
		{name: "core", cfg: Config{CatalogPath: "c.json", CorePath: "core.1", Bitness: 64}},
		{name: "missing catalog", cfg: Config{CorePath: "core.1"}, wantErr: true},
		{name: "core and pid", cfg: Config{CatalogPath: "c.json", CorePath: "core.1", PID: 4}, wantErr: true},
		{name: "negative pid", cfg: Config{CatalogPath: "c.json", PID: -1}, wantErr: true},
		{name: "bad bitness", cfg: Config{CatalogPath: "c.json", Bitness: 16}, wantErr: true},
		{name: "negative timeout", cfg: Config{CatalogPath: "c.json", ReadTimeout: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("CORESCOPE_CATALOG", "/ddr/env.json")
	t.Setenv("CORESCOPE_EXE", "/opt/java/bin/java")
	t.Setenv("CORESCOPE_BITNESS", "32")
	t.Setenv("CORESCOPE_TIMEOUT", "500ms")

	cfg := Config{CatalogPath: "/ddr/flag.json"}
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/ddr/flag.json", cfg.CatalogPath)
	assert.Equal(t, "/opt/java/bin/java", cfg.ExecutablePath)
	assert.Equal(t, 32, cfg.Bitness)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout())

	t.Setenv("CORESCOPE_TIMEOUT", "soon")
	cfg = Config{}
	assert.Error(t, cfg.ApplyEnv())

	assert.Equal(t, target.DefaultReadTimeout, Config{}.Timeout())
}

func TestOpenCatalogOnly(t *testing.T) {
	s, err := Open(Config{CatalogPath: "/ddr/j9.yaml"}, memFs(t), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "no target", s.Target)
	assert.Equal(t, pointer.Bits64, s.Context.Bitness)
	assert.Nil(t, s.Context.Symbols)

	var out bytes.Buffer
	require.NoError(t, s.Exec("showflags J9Class J9AccAbstract", &out))
	assert.Equal(t, "J9AccAbstract: 1024\n", out.String())

	out.Reset()
	require.NoError(t, s.Exec("!showflags", &out))
	assert.Equal(t, "J9Class\nJ9Method\n", out.String())

	out.Reset()
	require.NoError(t, s.Exec("   ", &out))
	assert.Empty(t, out.String())

	err = s.Exec("bogus 1 2", &out)
	var uce *command.UnknownCommandError
	assert.True(t, errors.As(err, &uce))
}

func TestOpenBitnessOverride(t *testing.T) {
	s, err := Open(Config{CatalogPath: "/ddr/j9.yaml", Bitness: 32}, memFs(t), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, pointer.Bits32, s.Context.Bitness)

	var out bytes.Buffer
	err = s.Exec("findKeyValue 0x100000000 key", &out)
	var iae *pointer.InvalidAddressError
	assert.True(t, errors.As(err, &iae), "got %v", err)
}

func TestOpenErrors(t *testing.T) {
	fs := memFs(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing catalog file", cfg: Config{CatalogPath: "/ddr/none.yaml"}},
		{name: "missing core file", cfg: Config{CatalogPath: "/ddr/j9.yaml", CorePath: "/nonexistent/core.42"}},
		{name: "missing executable", cfg: Config{CatalogPath: "/ddr/j9.yaml", ExecutablePath: "/nonexistent/java"}},
		{name: "invalid config", cfg: Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg, fs, nil)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestNewOverImage(t *testing.T) {
	b := targettest.NewBuilder(0x70000, 4)
	built := hashtabletest.Table{
		Rule:    hashtable.HashJava,
		Elem:    hashtable.UTF8ToUTF8,
		Buckets: 2,
		Entries: [][2]string{{"java.home", "/opt/java"}, {"user.dir", "/tmp"}},
	}.Build(b)

	s, err := New(Config{}, hashtabletest.Catalog(4), b.Image(), 32, nil, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, s.Exec("!findKeyValue "+pointer.Address(built.Header).String()+" user.dir", &out))
	assert.Equal(t, "Value for key user.dir: /tmp\n", out.String())

	_, err = New(Config{}, hashtabletest.Catalog(4), b.Image(), 48, nil, nil)
	assert.Error(t, err)
}

func TestRunKeepsArguments(t *testing.T) {
	b := targettest.NewBuilder(0x70000, 8)
	built := hashtabletest.Table{
		Rule:    hashtable.HashXX,
		Elem:    hashtable.UTF8ToUTF8,
		Buckets: 4,
		Entries: [][2]string{{"user name", "duke"}, {"", "empty"}},
	}.Build(b)
	s, err := New(Config{}, hashtabletest.Catalog(8), b.Image(), 64, nil, nil)
	require.NoError(t, err)
	table := pointer.Address(built.Header).String()

	var out bytes.Buffer
	require.NoError(t, s.Run("!findKeyValue", []string{table, "user name"}, &out))
	assert.Equal(t, "Value for key user name: duke\n", out.String())

	out.Reset()
	require.NoError(t, s.Run("findKeyValue", []string{table, ""}, &out))
	assert.Equal(t, "Value for key : empty\n", out.String())

	// The same key through Exec is split on whitespace.
	var ue *command.UsageError
	assert.True(t, errors.As(s.Exec("findKeyValue "+table+" user name", &out), &ue))
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		name string
		args []string
	}{
		{line: "", name: ""},
		{line: "showflags", name: "showflags", args: []string{}},
		{line: "!findKeyValue 0x10  key ", name: "findKeyValue", args: []string{"0x10", "key"}},
		{line: "\tdis 0x1000 4", name: "dis", args: []string{"0x1000", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, args := SplitLine(tt.line)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.args, args)
		})
	}
}
