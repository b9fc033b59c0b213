package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureUI(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, spin bytes.Buffer
	prevOut, prevSpin := uiOut, spinnerOut
	uiOut, spinnerOut = &out, &spin
	t.Cleanup(func() { uiOut, spinnerOut = prevOut, prevSpin })
	return &out, &spin
}

func TestSpinnerStop(t *testing.T) {
	_, spin := captureUI(t)

	s := newSpinnerWithContext(context.Background(), "Processing...")
	s.tick = 5 * time.Millisecond
	s.Start()
	time.Sleep(40 * time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Contains(t, spin.String(), "Processing...")
	assert.False(t, s.Cancelled(), "Stop is not a cancellation")
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	captureUI(t)
	s := newSpinnerWithContext(context.Background(), "idle")
	s.Stop()
	assert.False(t, s.Cancelled())
}

func TestSpinnerParentCancel(t *testing.T) {
	captureUI(t)
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx, cancel
		}},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), time.Millisecond)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			defer cancel()
			s := newSpinnerWithContext(ctx, "waiting")
			s.Start()
			assert.Eventually(t, s.Cancelled, time.Second, 5*time.Millisecond)
			s.Stop()
		})
	}
}

func TestSpinnerStopMessages(t *testing.T) {
	out, _ := captureUI(t)

	newSpinnerWithContext(context.Background(), "a").StopWithSuccess("Summarized")
	newSpinnerWithContext(context.Background(), "b").StopWithError("Process failed")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], iconSuccess)
	assert.Contains(t, lines[0], "Summarized")
	assert.Contains(t, lines[1], iconError)
}
