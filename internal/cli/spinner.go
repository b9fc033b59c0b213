package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerOut receives spinner frames. It is stderr so piped stdout stays
// clean.
var spinnerOut io.Writer = os.Stderr

var errSpinnerStopped = stderrors.New("spinner stopped")

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a message with the elapsed time while a backend call
// runs. It stops on its own when the context ends.
type Spinner struct {
	message string
	ctx     context.Context
	cancel  context.CancelCauseFunc
	start   time.Time
	tick    time.Duration
	stopped chan struct{}

	mu      sync.Mutex
	started bool
	width   int
	once    sync.Once
}

// newSpinnerWithContext creates a spinner bound to ctx.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancelCause(ctx)
	return &Spinner{
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		tick:    80 * time.Millisecond,
		stopped: make(chan struct{}),
	}
}

// Start begins drawing frames. Calling it twice has no effect.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.start = time.Now()
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	elapsed := time.Since(s.start).Truncate(time.Second)
	line := fmt.Sprintf("%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
	if elapsed > 0 {
		line += " " + StyleDim.Render(elapsed.String())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(spinnerOut, "\r"+line)
	s.width = max(s.width, len(line))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(spinnerOut, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// Stop ends the animation and clears the line. It is safe to call more
// than once and on a spinner that never started.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel(errSpinnerStopped)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
	})
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context ended before Stop.
func (s *Spinner) Cancelled() bool {
	cause := context.Cause(s.ctx)
	return cause != nil && !stderrors.Is(cause, errSpinnerStopped)
}
