package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescope/internal/hashtable"
	"corescope/internal/hashtable/hashtabletest"
	"corescope/internal/pointer"
	"corescope/internal/session"
	"corescope/internal/target/targettest"
	"corescope/internal/ui/colorize"
)

func testSession(t *testing.T) (*session.Session, uint64) {
	t.Helper()
	b := targettest.NewBuilder(0x50000, 8)
	built := hashtabletest.Table{
		Rule:    hashtable.HashJava,
		Elem:    hashtable.UTF8ToUTF8,
		Buckets: 2,
		Entries: [][2]string{{"java.version", "21"}, {"os.name", "Linux"}},
	}.Build(b)

	s, err := session.New(session.Config{}, hashtabletest.Catalog(8), b.Image(), 64, nil, nil)
	require.NoError(t, err)
	return s, built.Header
}

func TestRunLines(t *testing.T) {
	s, table := testSession(t)
	script := strings.Join([]string{
		"showflags",
		"",
		"!findKeyValue " + pointer.Address(table).String() + " os.name",
		"findKeyValue 0x0",
		"findKeyValue 0x0 key",
		"nosuch",
		"quit",
		"showflags",
	}, "\n")

	var out, errOut bytes.Buffer
	require.NoError(t, runLines(s, strings.NewReader(script), &out, &errOut, false))

	assert.Equal(t, "J9HashTable\nJ9HashTableNode\nValue for key os.name: Linux\n", out.String())

	errs := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	require.Len(t, errs, 3)
	assert.Equal(t, "error: usage: findKeyValue <hashtable> <key>", errs[0])
	assert.Contains(t, errs[1], "corrupt data at 0x0")
	assert.Contains(t, errs[2], `unrecognized command "nosuch"`)
}

func TestRunLinesInteractivePrompt(t *testing.T) {
	s, _ := testSession(t)
	var out, errOut bytes.Buffer
	require.NoError(t, runLines(s, strings.NewReader("exit\n"), &out, &errOut, true))
	assert.Contains(t, out.String(), "Type help for commands")
	assert.True(t, strings.HasSuffix(out.String(), prompt))
}

func TestConsoleSubmit(t *testing.T) {
	t.Setenv("CORESCOPE_NO_COLOR", "1")
	s, table := testSession(t)
	m := newConsole(s)

	run, quit := m.submit("findKeyValue " + pointer.Address(table).String() + " java.version")
	require.False(t, quit)
	require.NotNil(t, run)
	assert.True(t, m.running)

	again, _ := m.submit("showflags")
	assert.Nil(t, again, "one command at a time")

	m.appendResult(run().(resultMsg))
	assert.False(t, m.running)
	transcript := colorize.StripANSI(strings.Join(m.transcript, "\n"))
	assert.Contains(t, transcript, "> findKeyValue")
	assert.Contains(t, transcript, "Value for key java.version: 21")

	run, _ = m.submit("dumpstruct J9HashTable 0xdead0000")
	m.appendResult(run().(resultMsg))
	assert.Contains(t, colorize.StripANSI(m.transcript[len(m.transcript)-1]), "error: dumpstruct: corrupt data")

	run, _ = m.submit("help")
	m.appendResult(run().(resultMsg))
	assert.Contains(t, colorize.StripANSI(m.transcript[len(m.transcript)-1]), "findKeyValue")

	_, quit = m.submit("quit")
	assert.True(t, quit)

	run, quit = m.submit("   ")
	assert.Nil(t, run)
	assert.False(t, quit)
}

func TestConsoleHistory(t *testing.T) {
	s, _ := testSession(t)
	m := newConsole(s)
	for _, line := range []string{"showflags", "memmap"} {
		run, _ := m.submit(line)
		m.appendResult(run().(resultMsg))
	}

	m.recall(-1)
	assert.Equal(t, "memmap", m.input.Value())
	m.recall(-1)
	assert.Equal(t, "showflags", m.input.Value())
	m.recall(-1)
	assert.Equal(t, "showflags", m.input.Value())
	m.recall(1)
	m.recall(1)
	assert.Equal(t, "", m.input.Value())
}

func TestStructureItems(t *testing.T) {
	items := structureItems(hashtabletest.Catalog(8))
	require.Len(t, items, 2)
	node := items[1].(structureItem)
	assert.Equal(t, "J9HashTableNode", node.FilterValue())
	assert.Equal(t, 3, node.fields)
	assert.Equal(t, uint64(24), node.size)
}

func TestSchemaJSON(t *testing.T) {
	for _, doc := range []bool{false, true} {
		bts, err := schemaJSON(doc)
		require.NoError(t, err)

		var schema map[string]any
		require.NoError(t, json.Unmarshal(bts, &schema))
		assert.Contains(t, schema, "$defs")
	}

	bts, _ := schemaJSON(true)
	assert.Contains(t, string(bts), "StructureDocument")
	bts, _ = schemaJSON(false)
	assert.Contains(t, string(bts), "readTimeout")
}

func flagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addSessionFlags(c.Flags())
	require.NoError(t, c.Flags().Parse(args))
	return c
}

func TestConfigFromFlags(t *testing.T) {
	t.Setenv("CORESCOPE_CATALOG", "/env/catalog.json")
	t.Setenv("CORESCOPE_TIMEOUT", "")
	t.Setenv("CORESCOPE_LOG_LEVEL", "")

	cfg, err := configFromFlags(flagCommand(t, "-b", "32", "--timeout", "750ms"), []string{"core.99"})
	require.NoError(t, err)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "core.99", cfg.CorePath)
	assert.Equal(t, "/env/catalog.json", cfg.CatalogPath)
	assert.Equal(t, 32, cfg.Bitness)
	assert.Equal(t, 750*time.Millisecond, cfg.ReadTimeout)

	cfg, err = configFromFlags(flagCommand(t, "-C", "/flag/c.yaml", "-p", "12"), nil)
	require.NoError(t, err)
	assert.Equal(t, "/flag/c.yaml", cfg.CatalogPath)
	assert.Equal(t, 12, cfg.PID)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)

	_, err = configFromFlags(flagCommand(t, "-p", "12"), []string{"core.1"})
	assert.Error(t, err)
}

func TestConfigDebugFromLogLevel(t *testing.T) {
	t.Setenv("CORESCOPE_CATALOG", "/env/catalog.json")
	t.Setenv("CORESCOPE_LOG_LEVEL", "debug")

	cfg, err := configFromFlags(flagCommand(t), nil)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)

	t.Setenv("CORESCOPE_LOG_LEVEL", "info")
	cfg, err = configFromFlags(flagCommand(t, "-d"), nil)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestRunOnePassesArgumentsVerbatim(t *testing.T) {
	b := targettest.NewBuilder(0x50000, 8)
	built := hashtabletest.Table{
		Rule:    hashtable.HashJava,
		Elem:    hashtable.UTF8ToUTF8,
		Buckets: 2,
		Entries: [][2]string{{"java vendor", "Eclipse"}},
	}.Build(b)
	s, err := session.New(session.Config{}, hashtabletest.Catalog(8), b.Image(), 64, nil, nil)
	require.NoError(t, err)
	table := pointer.Address(built.Header).String()

	var out bytes.Buffer
	require.NoError(t, runOne(s, []string{"findKeyValue", table, "java vendor"}, &out))
	assert.Equal(t, "Value for key java vendor: Eclipse\n", out.String())

	out.Reset()
	err = runOne(s, []string{"findKeyValue", table}, &out)
	assert.True(t, isCommandFailure(err), "got %v", err)
}
