package actions

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowboard/pkg/arrange"
	"github.com/matzehuels/flowboard/pkg/backend"
	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/observability"
	"github.com/matzehuels/flowboard/pkg/persist"
)

// DefaultViewport is used when no viewport is configured.
var DefaultViewport = geom.Size{W: 1280, H: 800}

// ClearArrangeDuration is the animation length of [Board.ClearCacheAndArrange].
const ClearArrangeDuration = 260 * time.Millisecond

// viewPadding is the minimum inset of an instance added at the current view.
const viewPadding = 24

// maxJitter bounds the random offset of an instance added at the view.
const maxJitter = 12

// Backend is the part of the processing backend a board uses.
// [*backend.Client] implements it.
type Backend interface {
	Summarize(ctx context.Context, doc boardio.Document) (backend.Summary, error)
	Process(ctx context.Context, graph json.RawMessage) (io.ReadCloser, error)
	UploadImage(ctx context.Context, filename string, r io.Reader, prevID string) (backend.Image, error)
	UploadImageURL(ctx context.Context, src, prevID string) (backend.Image, error)
	DeleteImage(ctx context.Context, id string) error
}

// Options configures a [Board].
type Options struct {
	Viewport geom.Size
	// Persist saves the board. Nil keeps the board in memory only.
	Persist *persist.Layer
	// Backend handles summarize, process and images. Nil disables them.
	Backend Backend
	// ArrangeDuration is the length of an animated arrange.
	ArrangeDuration time.Duration
	// ClearDuration is the length of the arrange after a cache reset.
	ClearDuration time.Duration
	Arrange       []arrange.Option
	Logger        *log.Logger
	// Jitter returns the offset added to instances placed at the current
	// view. Defaults to a uniform integer in [-12, 12].
	Jitter func() float64
}

// Board runs actions against one model.
type Board struct {
	m        *board.Model
	layer    *persist.Layer
	backend  Backend
	viewport geom.Size
	animD    time.Duration
	clearD   time.Duration
	arrOpts  []arrange.Option
	logger   *log.Logger
	jitter   func() float64

	unwatch func()

	graphMu sync.Mutex
	graph   json.RawMessage
}

// New wraps m.
func New(m *board.Model, opts Options) *Board {
	b := &Board{
		m:        m,
		layer:    opts.Persist,
		backend:  opts.Backend,
		viewport: opts.Viewport,
		animD:    opts.ArrangeDuration,
		clearD:   opts.ClearDuration,
		arrOpts:  opts.Arrange,
		logger:   opts.Logger,
		jitter:   opts.Jitter,
	}
	if b.viewport.W <= 0 || b.viewport.H <= 0 {
		b.viewport = DefaultViewport
	}
	if b.animD <= 0 {
		b.animD = arrange.DefaultDuration
	}
	if b.clearD <= 0 {
		b.clearD = ClearArrangeDuration
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	if b.jitter == nil {
		b.jitter = func() float64 { return float64(rand.IntN(2*maxJitter+1) - maxJitter) }
	}
	return b
}

// Model returns the wrapped model.
func (b *Board) Model() *board.Model { return b.m }

// Viewport returns the size arranges and exports use.
func (b *Board) Viewport() geom.Size { return b.viewport }

// SetViewport changes the viewport. Non-positive sizes are ignored.
func (b *Board) SetViewport(s geom.Size) {
	if s.W > 0 && s.H > 0 {
		b.viewport = s
	}
}

// Graph returns the graph remembered from the last summarize, or nil. It is
// safe to call while [Board.Process] runs on another goroutine.
func (b *Board) Graph() json.RawMessage {
	b.graphMu.Lock()
	defer b.graphMu.Unlock()
	return b.graph
}

func (b *Board) setGraph(g json.RawMessage) {
	b.graphMu.Lock()
	b.graph = g
	b.graphMu.Unlock()
}

// track reports an action to the board hooks.
func (b *Board) track(ctx context.Context, action string, start time.Time, err error) {
	observability.Board().OnAction(ctx, action, time.Since(start), err)
}

// =============================================================================
// Lifecycle
// =============================================================================

// Startup restores the board from the store. When nothing was stored (or
// the store failed) the default layout is loaded and arranged. The
// change-detection snapshot is taken afterwards and, with persistence
// configured, later changes are saved in the background.
func (b *Board) Startup(ctx context.Context) (restored bool, err error) {
	defer b.track(ctx, "startup", time.Now(), nil)

	if b.layer != nil {
		restored, err = b.layer.Restore(ctx, b.m)
		if err != nil {
			b.logger.Warn("could not restore board, using defaults", "err", err)
			restored = false
		}
	}
	if !restored {
		b.m.Replace(board.DefaultInstances(b.m.Registry()), nil)
		b.arrangeNow(ctx)
	}
	b.m.EnsureSnapshot()

	if b.layer != nil && b.unwatch == nil {
		b.unwatch = b.layer.Watch(b.m)
		if !restored {
			b.layer.Save(b.m, board.ChangeAll)
		}
	}
	b.logger.Debug("board ready", "restored", restored, "instances", b.m.Len())
	return restored, nil
}

// Close stops background saving and writes the whole board once more.
func (b *Board) Close(ctx context.Context) error {
	if b.unwatch != nil {
		b.unwatch()
		b.unwatch = nil
	}
	if b.layer == nil {
		return nil
	}
	err := b.layer.Flush(ctx, b.m)
	b.layer.Close()
	return err
}

// =============================================================================
// Arrange
// =============================================================================

// Arrange packs the enabled instances into the viewport. Animated arranges
// block for the configured duration; cancelling ctx jumps to the end.
func (b *Board) Arrange(ctx context.Context, animated bool) error {
	if !animated {
		b.arrangeNow(ctx)
		return nil
	}
	return b.animate(ctx, b.animD)
}

func (b *Board) arrangeNow(ctx context.Context) {
	start := time.Now()
	r := arrange.Arrange(b.m.Instances(), b.viewport, b.arrOpts...)
	arrange.Apply(b.m, r)
	observability.Board().OnArrange(ctx, len(r.Positions), r.Columns, false, time.Since(start))
}

func (b *Board) animate(ctx context.Context, d time.Duration) error {
	start := time.Now()
	n := b.m.Len()
	err := arrange.Animate(ctx, b.m, b.viewport, d, nil, b.arrOpts...)
	observability.Board().OnArrange(ctx, n, 0, true, time.Since(start))
	return err
}

// =============================================================================
// Adding
// =============================================================================

// AddAtView adds an instance of defID centered in the visible part of the
// board, nudged by a small random offset so repeated adds do not stack
// exactly. It returns the new id, or false for an unknown definition.
func (b *Board) AddAtView(defID string) (string, bool) {
	def, ok := b.m.Registry().Lookup(defID)
	if !ok {
		return "", false
	}
	size := def.Size()
	view := b.m.View()
	j := b.jitter()
	p := geom.Point{
		X: math.Round(-view.X + max(viewPadding, (b.viewport.W-size.W)/2) + j),
		Y: math.Round(-view.Y + max(viewPadding, (b.viewport.H-size.H)/2) + j),
	}
	return b.m.AddInstance(defID, p)
}
