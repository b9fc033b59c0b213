package actions

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowboard/pkg/arrange"
	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/registry"
)

// maxParallelDeletes bounds concurrent image deletes during a clear.
const maxParallelDeletes = 8

// Clear removes everything: remote image assets referenced by any instance
// payload (best effort), every persisted key, all instances, links and
// stream buffers, the pending link and the change-detection snapshot.
// Only a store failure is returned, after the board was cleared anyway.
func (b *Board) Clear(ctx context.Context) error {
	start := time.Now()

	b.deleteAssets(ctx, AssetIDs(b.m.Instances()))

	var err error
	if b.layer != nil {
		err = b.layer.Clear(ctx)
	}
	b.m.Clear()
	b.setGraph(nil)

	b.track(ctx, "clear", start, err)
	return err
}

// ClearCacheAndArrange drops the persisted board and all links, cancels a
// pending link and animates an arrange of what is left. The instances
// themselves stay and are saved again as they move.
func (b *Board) ClearCacheAndArrange(ctx context.Context) error {
	start := time.Now()

	var err error
	if b.layer != nil {
		err = b.layer.Clear(ctx)
	}
	b.m.SetLinks(nil)
	b.m.CancelLink()
	if aerr := b.animate(ctx, b.clearD); aerr != nil && err == nil {
		err = aerr
	}

	b.track(ctx, "reset", start, err)
	return err
}

// RestoreDefaults replaces the board with the arranged default layout,
// drops links and the pending link, and takes a fresh change-detection
// snapshot.
func (b *Board) RestoreDefaults(ctx context.Context) {
	start := time.Now()

	b.m.Replace(board.DefaultInstances(b.m.Registry()), nil)
	b.m.CancelLink()
	r := arrange.Arrange(b.m.Instances(), b.viewport, b.arrOpts...)
	arrange.Apply(b.m, r)
	b.m.ResetSnapshot()

	b.track(ctx, "restore", start, nil)
}

// deleteAssets deletes ids on the backend in parallel. Failures are logged
// and otherwise ignored.
func (b *Board) deleteAssets(ctx context.Context, ids []string) {
	if b.backend == nil || len(ids) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(maxParallelDeletes)
	for _, id := range ids {
		g.Go(func() error {
			if err := b.backend.DeleteImage(ctx, id); err != nil {
				b.logger.Debug("image delete failed", "id", id, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// AssetIDs returns the distinct remote image ids referenced by instances,
// in first-seen order.
func AssetIDs(instances []board.Instance) []string {
	var ids []string
	for _, inst := range instances {
		id := AssetID(inst.Payload)
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// AssetID returns the remote image id of a payload: its imageId field, or
// else the last path segment of its imageUrl. Ids that are not safe to put
// in a request path are ignored.
func AssetID(p registry.Payload) string {
	id := p.String("imageId")
	if id == "" {
		id = lastSegment(p.String("imageUrl"))
	}
	if id == "" || errors.ValidateAssetID(id) != nil {
		return ""
	}
	return id
}

func lastSegment(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	return p[strings.LastIndex(p, "/")+1:]
}
