package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/geom"
)

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestBoard(t, Options{})
	_, err := src.Startup(ctx)
	require.NoError(t, err)
	src.Model().SetLinks([]board.Link{{From: "sticky-note", To: "action-card", Color: "#f00"}})

	doc := src.Export()
	require.Len(t, doc.Nodes, 2)
	data, err := boardio.Marshal(doc)
	require.NoError(t, err)

	dst := newTestBoard(t, Options{})
	dst.Model().AddInstance("photo", geom.Point{})
	im, err := dst.Import(ctx, data)
	require.NoError(t, err)
	assert.Empty(t, im.Dropped)

	m := dst.Model()
	assert.Equal(t, []string{"sticky-note", "action-card"}, m.IDs())
	require.Len(t, m.Links(), 1)
	assert.Equal(t, "sticky-note", m.Links()[0].From)
	assert.Equal(t, "action-card", m.Links()[0].To)
	assert.True(t, m.HasSnapshot())

	var rects []geom.Rect
	for _, inst := range m.Instances() {
		assert.True(t, inst.Arranged)
		rects = append(rects, inst.Rect())
	}
	assert.Equal(t, geom.VerticalCenterOffset(rects, 800), m.View().Y)
}

func TestImportEmpty(t *testing.T) {
	b := newTestBoard(t, Options{})
	_, err := b.Startup(context.Background())
	require.NoError(t, err)

	im, err := b.Import(context.Background(), []byte(`{"nodes":[{"id":"x","type":"Unknown"}],"edges":[]}`))
	require.NoError(t, err)
	assert.True(t, im.Empty())
	assert.Equal(t, []string{"x"}, im.Dropped)
	assert.Equal(t, 0, b.Model().Len())
	assert.False(t, b.Model().HasSnapshot())
}

func TestImportInvalidJSON(t *testing.T) {
	b := newTestBoard(t, Options{})
	_, err := b.Startup(context.Background())
	require.NoError(t, err)

	_, err = b.Import(context.Background(), []byte(`{nope`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
	assert.Equal(t, 15, b.Model().Len())
}
