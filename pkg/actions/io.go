package actions

import (
	"context"
	"time"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/geom"
)

// Export returns the link-driven export of the board.
func (b *Board) Export() boardio.Document {
	return boardio.Export(b.m, b.viewport)
}

// Import replaces the board with the document in data. Nodes whose type
// names no known definition are dropped along with their edges. When
// nothing survives the board is emptied and the change-detection snapshot
// dropped; otherwise the view is centered vertically on the imported
// instances and a fresh snapshot taken. Invalid JSON leaves the board
// untouched.
func (b *Board) Import(ctx context.Context, data []byte) (boardio.Imported, error) {
	start := time.Now()
	im, err := boardio.Parse(b.m.Registry(), data)
	if err != nil {
		b.track(ctx, "import", start, err)
		return im, err
	}
	if len(im.Dropped) > 0 {
		b.logger.Warn("dropped nodes with unknown types", "ids", im.Dropped)
	}

	if im.Empty() {
		b.m.Replace(nil, nil)
		b.m.DropSnapshot()
		b.track(ctx, "import", start, nil)
		return im, nil
	}

	b.m.Replace(im.Instances, im.Links)
	b.m.SetViewY(geom.VerticalCenterOffset(enabledRects(im.Instances), b.viewport.H))
	b.m.ResetSnapshot()
	b.track(ctx, "import", start, nil)
	return im, nil
}

func enabledRects(instances []board.Instance) []geom.Rect {
	rects := make([]geom.Rect, 0, len(instances))
	for _, inst := range instances {
		if inst.Enabled {
			rects = append(rects, inst.Rect())
		}
	}
	return rects
}
