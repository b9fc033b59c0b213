package arrange

import (
	"context"
	"time"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/geom"
)

const (
	// DefaultDuration is the length of an animated arrange.
	DefaultDuration = 240 * time.Millisecond
	// FrameInterval is the tick period used by [Animate], about one
	// display refresh.
	FrameInterval = 16 * time.Millisecond
)

// EaseOutCubic maps t in [0, 1] to 1-(1-t)^3. It is monotonic, starts fast
// and settles gently. Values outside [0, 1] are clamped.
func EaseOutCubic(t float64) float64 {
	t = geom.Clamp(t, 0, 1)
	u := 1 - t
	return 1 - u*u*u
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Frame is one step of an animation.
type Frame struct {
	Positions map[string]geom.Point
	OffsetY   float64
	// Done is set on the final frame, whose values equal the target
	// exactly.
	Done bool
}

// Animation interpolates from a starting layout to an arranged one.
type Animation struct {
	Duration time.Duration

	from    map[string]geom.Point
	to      map[string]geom.Point
	fromY   float64
	targetY float64
}

// NewAnimation prepares an animation from the current positions and
// vertical offset to target. Instances missing from from start at their
// target position.
func NewAnimation(from map[string]geom.Point, fromY float64, target Result, d time.Duration) *Animation {
	start := make(map[string]geom.Point, len(target.Positions))
	for id, p := range target.Positions {
		if q, ok := from[id]; ok {
			start[id] = q
		} else {
			start[id] = p
		}
	}
	return &Animation{
		Duration: max(0, d),
		from:     start,
		to:       target.Positions,
		fromY:    fromY,
		targetY:  target.OffsetY,
	}
}

// Step returns the frame at elapsed. Once elapsed reaches the duration the
// frame is the exact target with Done set.
func (a *Animation) Step(elapsed time.Duration) Frame {
	if a.Duration <= 0 || elapsed >= a.Duration {
		return a.final()
	}
	e := EaseOutCubic(float64(max(0, elapsed)) / float64(a.Duration))
	f := Frame{
		Positions: make(map[string]geom.Point, len(a.to)),
		OffsetY:   lerp(a.fromY, a.targetY, e),
	}
	for id, to := range a.to {
		from := a.from[id]
		f.Positions[id] = geom.Point{X: lerp(from.X, to.X, e), Y: lerp(from.Y, to.Y, e)}
	}
	return f
}

func (a *Animation) final() Frame {
	f := Frame{Positions: make(map[string]geom.Point, len(a.to)), OffsetY: a.targetY, Done: true}
	for id, p := range a.to {
		f.Positions[id] = p
	}
	return f
}

// Run drives a from the tick channel, measuring elapsed time from start.
// Each frame goes to apply; after the final frame onDone is called exactly
// once. If ctx is cancelled or ticks is closed first, the final frame is
// applied immediately so the board never stays half-way, and the context
// error (or nil) is returned. onDone may be nil.
func Run(ctx context.Context, a *Animation, start time.Time, ticks <-chan time.Time, apply func(Frame), onDone func()) error {
	finish := func() {
		apply(a.final())
		if onDone != nil {
			onDone()
		}
	}
	if a.Duration <= 0 {
		finish()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			finish()
			return ctx.Err()
		case now, ok := <-ticks:
			if !ok {
				finish()
				return nil
			}
			f := a.Step(now.Sub(start))
			if f.Done {
				finish()
				return nil
			}
			apply(f)
		}
	}
}

// Animate arranges m inside viewport, easing instances and the view offset
// to the result over d. It blocks until the animation finishes or ctx is
// done. Instances are marked arranged from the first frame.
//
// Overlapping calls on the same model are not guarded; callers serialize
// them.
func Animate(ctx context.Context, m *board.Model, viewport geom.Size, d time.Duration, onDone func(), opts ...Option) error {
	instances := m.Instances()
	target := Arrange(instances, viewport, opts...)

	from := make(map[string]geom.Point, len(instances))
	for _, inst := range instances {
		from[inst.ID] = inst.Position()
	}
	anim := NewAnimation(from, m.View().Y, target, d)

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	return Run(ctx, anim, time.Now(), ticker.C, func(f Frame) {
		m.MoveMany(f.Positions, true)
		m.SetViewY(f.OffsetY)
	}, onDone)
}
