package actions

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
	"github.com/matzehuels/flowboard/pkg/store"
)

func TestAssetID(t *testing.T) {
	tests := []struct {
		name    string
		payload registry.Payload
		want    string
	}{
		{"nil", nil, ""},
		{"id wins", registry.Payload{"imageId": "abc", "imageUrl": "http://h/api/images/zzz"}, "abc"},
		{"from url", registry.Payload{"imageUrl": "http://localhost:8080/api/images/5f1c"}, "5f1c"},
		{"relative url", registry.Payload{"imageUrl": "/api/images/rel"}, "rel"},
		{"url with query", registry.Payload{"imageUrl": "http://h/api/images/q1?size=2"}, "q1"},
		{"trailing slash", registry.Payload{"imageUrl": "http://h/api/images/"}, ""},
		{"unsafe id", registry.Payload{"imageId": ".."}, ""},
		{"not a string", registry.Payload{"imageId": 42}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssetID(tt.payload))
		})
	}
}

func TestAssetIDs(t *testing.T) {
	instances := []board.Instance{
		{ID: "a", Payload: registry.Payload{"imageId": "one"}},
		{ID: "b", Payload: registry.Payload{"imageUrl": "http://h/api/images/two"}},
		{ID: "c", Payload: registry.Payload{"imageId": "one"}},
		{ID: "d"},
	}
	assert.Equal(t, []string{"one", "two"}, AssetIDs(instances))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	fb := &fakeBackend{deleteErr: assert.AnError}

	b := newTestBoard(t, Options{Persist: newLayer(t, st), Backend: fb})
	_, err := b.Startup(ctx)
	require.NoError(t, err)

	m := b.Model()
	m.SetPayload("photo", registry.Payload{"imageId": "img-1"})
	m.SetPayload("sticky-note", registry.Payload{"imageUrl": "http://h/api/images/img-2"})
	m.SetLinks([]board.Link{{From: "sticky-note", To: "photo"}})
	m.Streams().Append("photo", "text")
	m.StartLink("action-card")
	b.graph = []byte(`{}`)

	require.NoError(t, b.Clear(ctx))

	slices.Sort(fb.deleted)
	assert.Equal(t, []string{"img-1", "img-2"}, fb.deleted)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Links())
	assert.Equal(t, 0, m.Streams().Len())
	assert.False(t, m.Linking().Active)
	assert.False(t, m.HasSnapshot())
	assert.Nil(t, b.Graph())
	require.NoError(t, b.Close(ctx))

	again := newTestBoard(t, Options{Persist: newLayer(t, st)})
	t.Cleanup(func() { _ = again.Close(ctx) })
	restored, err := again.Startup(ctx)
	require.NoError(t, err)
	assert.True(t, restored, "a cleared board stays empty after a restart")
	assert.Equal(t, 0, again.Model().Len())
}

func TestClearWithoutBackend(t *testing.T) {
	b := newTestBoard(t, Options{})
	_, err := b.Startup(context.Background())
	require.NoError(t, err)
	b.Model().SetPayload("photo", registry.Payload{"imageId": "img-1"})

	require.NoError(t, b.Clear(context.Background()))
	assert.Equal(t, 0, b.Model().Len())
}

func TestClearCacheAndArrange(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	layer := newLayer(t, st)

	b := newTestBoard(t, Options{Persist: layer})
	_, err := b.Startup(ctx)
	require.NoError(t, err)
	m := b.Model()
	tpl, ok := m.SaveAsTemplate("sticky-note")
	require.True(t, ok)
	m.SetLinks([]board.Link{{From: "sticky-note", To: "photo"}})
	m.Move("photo", geom.Point{X: -400, Y: -400})
	m.StartLink("action-card")
	layer.Wait()

	require.NoError(t, b.ClearCacheAndArrange(ctx))
	layer.Wait()

	assert.Equal(t, 15, m.Len())
	assert.Empty(t, m.Links())
	assert.False(t, m.Linking().Active)
	photo, _ := m.Instance("photo")
	assert.True(t, photo.Arranged)
	assert.GreaterOrEqual(t, photo.X, 0.0)
	assert.GreaterOrEqual(t, photo.Y, 0.0)

	_, ok, err = st.Get(ctx, layer.Keys().Templates())
	require.NoError(t, err)
	assert.False(t, ok, "templates are not rewritten by a reset")
	_, stillRegistered := m.Registry().Lookup(tpl)
	assert.True(t, stillRegistered)
	require.NoError(t, b.Close(ctx))
}

func TestRestoreDefaults(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t, Options{})
	m := b.Model()
	m.AddInstance("sticky-note", geom.Point{})
	m.AddInstance("photo", geom.Point{})
	m.SetLinks([]board.Link{{From: "sticky-note-1", To: "photo-1"}})
	m.StartLink("photo-1")

	b.RestoreDefaults(ctx)

	assert.Equal(t, 15, m.Len())
	assert.False(t, m.Has("sticky-note-1"))
	assert.Empty(t, m.Links())
	assert.False(t, m.Linking().Active)
	assert.True(t, m.HasSnapshot())
	for _, inst := range m.Instances() {
		assert.True(t, inst.Arranged, inst.ID)
		assert.False(t, m.IsChanged(inst.ID), inst.ID)
	}
}
