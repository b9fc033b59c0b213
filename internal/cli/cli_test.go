package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/config"
	"github.com/matzehuels/flowboard/pkg/store"
)

// isolate points config and data at temp dirs so tests never touch the
// user's board.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FLOWBOARD_STORE", store.BackendFile)
	t.Setenv("FLOWBOARD_STORE_DIR", t.TempDir())
	t.Setenv("FLOWBOARD_BOARD", "")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.stdin = strings.NewReader(stdin)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// saved opens the saved board the way a command does.
func saved(t *testing.T) *actions.Board {
	t.Helper()
	c := New(io.Discard, LogInfo)
	require.NoError(t, c.loadConfig())
	s, err := c.openBoard(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { s.close(context.Background()) })
	return s.board
}

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]any
		wantErr bool
	}{
		{"string", []string{"title=Hello"}, map[string]any{"title": "Hello"}, false},
		{"number", []string{"count=3"}, map[string]any{"count": float64(3)}, false},
		{"list", []string{`items=["a","b"]`}, map[string]any{"items": []any{"a", "b"}}, false},
		{"escaped newline", []string{`text=a\nb`}, map[string]any{"text": "a\nb"}, false},
		{"empty removes", []string{"title="}, map[string]any{"title": nil}, false},
		{"value with equals", []string{"q=a=b"}, map[string]any{"q": "a=b"}, false},
		{"missing equals", []string{"title"}, nil, true},
		{"empty key", []string{"=x"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfigFlags(t *testing.T) {
	isolate(t)

	c := New(io.Discard, LogInfo)
	c.verbose = true
	c.boardName = "team"
	require.NoError(t, c.loadConfig())
	assert.Equal(t, log.DebugLevel, c.Logger.GetLevel())
	assert.Equal(t, "team", c.config().Board.Name)

	c = New(io.Discard, LogInfo)
	c.storeName = "floppy"
	assert.Error(t, c.loadConfig())
}

func TestDescribeStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Board.Name = "team"
	cfg.Store.Backend = store.BackendRedis
	cfg.Store.Redis.Addr = "localhost:6379"
	cfg.Store.Redis.DB = 2

	got := map[string]string{}
	for _, kv := range describeStore(cfg) {
		got[kv[0]] = kv[1]
	}
	assert.Equal(t, "redis", got["Backend"])
	assert.Equal(t, "localhost:6379/2", got["Address"])
	assert.Contains(t, got["Keys"], "team:")
}

func TestEditCommands(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "add", "sticky-note", "--x", "10", "--y", "20")
	require.NoError(t, err)
	assert.Equal(t, 16, saved(t).Model().Len())

	_, err = run(t, "", "add", "no-such-thing")
	assert.Error(t, err)

	_, err = run(t, "", "move", "banner", "5", "6")
	require.NoError(t, err)
	_, err = run(t, "", "set", "banner", "title=Hi there")
	require.NoError(t, err)
	_, err = run(t, "", "disable", "photo")
	require.NoError(t, err)

	m := saved(t).Model()
	banner, _ := m.Instance("banner")
	assert.Equal(t, 5.0, banner.X)
	assert.Equal(t, 6.0, banner.Y)
	assert.Equal(t, "Hi there", banner.Payload["title"])
	photo, _ := m.Instance("photo")
	assert.False(t, photo.Enabled)

	_, err = run(t, "", "rm", "banner")
	require.NoError(t, err)
	assert.False(t, saved(t).Model().Has("banner"))

	_, err = run(t, "", "rm", "banner")
	assert.Error(t, err)
}

func TestLinkCommands(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "link", "sticky-note", "action-card")
	require.NoError(t, err)
	links := saved(t).Model().Links()
	require.Len(t, links, 1)
	assert.Equal(t, "sticky-note", links[0].From)
	assert.Equal(t, "action-card", links[0].To)

	_, err = run(t, "", "link", "thumbs-up", "action-card")
	assert.Error(t, err, "thumbs-up is not connectable")

	_, err = run(t, "", "unlink", "3")
	assert.Error(t, err)
	_, err = run(t, "", "unlink", "0")
	require.NoError(t, err)
	assert.Empty(t, saved(t).Model().Links())
}

func TestExportImport(t *testing.T) {
	isolate(t)

	out, err := run(t, "", "export")
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "nodes")

	dot, err := run(t, "", "export", "--format", "dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dot, "digraph"))

	_, err = run(t, "", "export", "--format", "gif")
	assert.Error(t, err)

	_, err = run(t, `{"nodes":[{"id":"n1","type":"Sticky Note"},{"id":"n2","type":"Nope"}],"edges":[]}`, "import")
	require.NoError(t, err)
	m := saved(t).Model()
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Has("n1"))
}

func TestClearRequiresConfirmation(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Equal(t, 15, saved(t).Model().Len())

	_, err = run(t, "", "clear", "--yes")
	require.NoError(t, err)
}

func TestStreamsUnknown(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "streams", "nobody")
	assert.Error(t, err)
}

func TestCompletion(t *testing.T) {
	isolate(t)

	out, err := run(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "flowboard")
}
