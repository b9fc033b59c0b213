package persist

import (
	"context"
	"encoding/json"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/observability"
	"github.com/matzehuels/flowboard/pkg/registry"
	"github.com/matzehuels/flowboard/pkg/store"
)

// writeTimeout bounds a single background write.
const writeTimeout = 5 * time.Second

// Layer persists one board to a store.
type Layer struct {
	st     store.Store
	keys   store.Keys
	logger *log.Logger

	mu      sync.Mutex
	pending map[string][]byte
	wake    chan struct{}
	idle    *sync.Cond
	busy    bool
	closed  bool
	done    chan struct{}
}

// New creates a layer writing to st under keys and starts its background
// writer. If logger is nil, log.Default() is used. Call [Layer.Close] to
// stop the writer.
func New(st store.Store, keys store.Keys, logger *log.Logger) *Layer {
	if logger == nil {
		logger = log.Default()
	}
	l := &Layer{
		st:      st,
		keys:    keys,
		logger:  logger,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	l.idle = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Keys returns the keys the layer writes.
func (l *Layer) Keys() store.Keys { return l.keys }

// =============================================================================
// Writing
// =============================================================================

// Watch saves the categories of m that change from now on. The returned
// function stops watching.
func (l *Layer) Watch(m *board.Model) (stop func()) {
	return m.Subscribe(func(c board.Change) { l.Save(m, c) })
}

// Save encodes the current value of every category in changes and queues
// it for writing. It does not wait for the write.
func (l *Layer) Save(m *board.Model, changes board.Change) {
	for key, data := range l.encode(m, changes) {
		l.enqueue(key, data)
	}
}

// Flush writes instances, links, view, templates and streams of m
// synchronously, in parallel, and waits for queued writes to finish first.
// Errors are logged and the first one is returned.
func (l *Layer) Flush(ctx context.Context, m *board.Model) error {
	l.Wait()
	g, ctx := errgroup.WithContext(ctx)
	for key, data := range l.encode(m, board.ChangeAll) {
		g.Go(func() error {
			return l.write(ctx, key, data)
		})
	}
	return g.Wait()
}

// Wait blocks until every queued write has been attempted.
func (l *Layer) Wait() {
	l.mu.Lock()
	for len(l.pending) > 0 || l.busy {
		l.idle.Wait()
	}
	l.mu.Unlock()
}

// Close drains queued writes and stops the background writer.
func (l *Layer) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	l.signal()
	<-l.done
}

func (l *Layer) encode(m *board.Model, changes board.Change) map[string][]byte {
	out := make(map[string][]byte, 5)
	put := func(key string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			l.logger.Debug("encode failed", "key", key, "err", err)
			return
		}
		out[key] = data
	}
	if changes&board.ChangeInstances != 0 {
		insts := m.Instances()
		recs := make(InstanceMap, 0, len(insts))
		for _, inst := range insts {
			recs = append(recs, recordOf(inst))
		}
		put(l.keys.Instances(), recs)
	}
	if changes&board.ChangeLinks != 0 {
		links := m.Links()
		if links == nil {
			links = []board.Link{}
		}
		put(l.keys.Links(), links)
	}
	if changes&board.ChangeView != 0 {
		put(l.keys.View(), m.View())
	}
	if changes&board.ChangeTemplates != 0 {
		var recs TemplateMap
		for _, def := range m.Registry().Templates() {
			if strings.HasPrefix(def.ID, registry.TemplatePrefix) {
				recs = append(recs, templateRecordOf(def))
			}
		}
		put(l.keys.Templates(), recs)
	}
	if changes&board.ChangeStreams != 0 {
		put(l.keys.Streams(), m.Streams().Snapshot())
	}
	return out
}

func (l *Layer) enqueue(key string, data []byte) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending[key] = data
	l.mu.Unlock()
	l.signal()
}

func (l *Layer) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Layer) run() {
	defer close(l.done)
	for range l.wake {
		l.mu.Lock()
		batch := l.pending
		l.pending = make(map[string][]byte)
		l.busy = len(batch) > 0
		closed := l.closed
		l.mu.Unlock()

		for key, data := range batch {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			_ = l.write(ctx, key, data)
			cancel()
		}

		l.mu.Lock()
		l.busy = false
		more := len(l.pending) > 0
		l.idle.Broadcast()
		l.mu.Unlock()

		if more {
			l.signal()
			continue
		}
		if closed {
			return
		}
	}
}

func (l *Layer) write(ctx context.Context, key string, data []byte) error {
	err := l.st.Set(ctx, key, data)
	observability.Store().OnStoreWrite(ctx, key, len(data), err)
	if err != nil {
		l.logger.Debug("store write failed", "key", key, "err", err)
		return errors.Wrap(errors.ErrCodeStore, err, "write %s", key)
	}
	return nil
}

// Clear deletes every key of the board and drops queued writes.
func (l *Layer) Clear(ctx context.Context) error {
	l.mu.Lock()
	clear(l.pending)
	l.mu.Unlock()
	l.Wait()

	var first error
	for _, key := range l.keys.All() {
		err := l.st.Delete(ctx, key)
		observability.Store().OnStoreDelete(ctx, key, err)
		if err != nil {
			l.logger.Debug("store delete failed", "key", key, "err", err)
			if first == nil {
				first = errors.Wrap(errors.ErrCodeStore, err, "delete %s", key)
			}
		}
	}
	return first
}

// =============================================================================
// Reading
// =============================================================================

// Snapshot is the decoded content of the store for one board.
type Snapshot struct {
	// Restored is set when an instance entry exists, even an empty one.
	// An empty restored board stays empty instead of getting defaults.
	Restored  bool
	Instances InstanceMap
	Links     []board.Link
	View      *geom.Point
	Templates TemplateMap
	Streams   map[string]string
}

// Load reads the board entries in dependency order. Malformed entries read
// as empty; only store failures are returned.
func (l *Layer) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	if data, ok, err := l.get(ctx, l.keys.Templates()); err != nil {
		return snap, err
	} else if ok {
		var tpls TemplateMap
		if err := json.Unmarshal(data, &tpls); err != nil {
			l.logger.Debug("ignoring malformed templates", "err", err)
		}
		for _, t := range tpls {
			if strings.HasPrefix(t.ID, registry.TemplatePrefix) {
				snap.Templates = append(snap.Templates, t)
			}
		}
	}

	data, ok, err := l.get(ctx, l.keys.Instances())
	if err != nil {
		return snap, err
	}
	if ok {
		snap.Restored = true
		if err := json.Unmarshal(data, &snap.Instances); err != nil {
			l.logger.Debug("ignoring malformed instances", "err", err)
		}
	}

	if len(snap.Instances) > 0 {
		if data, ok, err := l.get(ctx, l.keys.Links()); err != nil {
			return snap, err
		} else if ok {
			snap.Links = decodeLinks(data)
		}
		if data, ok, err := l.get(ctx, l.keys.View()); err != nil {
			return snap, err
		} else if ok {
			if v, ok := decodeView(data); ok {
				snap.View = &v
			}
		}
	}

	if data, ok, err := l.get(ctx, l.keys.Streams()); err != nil {
		return snap, err
	} else if ok {
		var streams map[string]string
		if json.Unmarshal(data, &streams) == nil {
			snap.Streams = streams
		}
	}
	return snap, nil
}

func (l *Layer) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := l.st.Get(ctx, key)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeStore, err, "read %s", key)
	}
	observability.Store().OnStoreRead(ctx, key, ok)
	return data, ok, nil
}

// RegisterTemplates adds the templates of snap to reg. Templates whose id is
// taken or whose base definition is unknown are skipped and returned.
func RegisterTemplates(reg *registry.Registry, snap Snapshot) (skipped []string) {
	for _, t := range snap.Templates {
		if err := reg.AddTemplate(t.Definition()); err != nil {
			skipped = append(skipped, t.ID)
		}
	}
	return skipped
}

// Rehydrate binds every stored instance to a definition of reg: first the
// recorded definition, then the identifier resolution chain. Instances
// that resolve to nothing are left out and their ids returned as dropped.
// Stored order is kept.
func Rehydrate(reg *registry.Registry, recs InstanceMap) (instances []board.Instance, dropped []string) {
	for _, r := range recs {
		def, ok := registry.Definition{}, false
		if r.Def != "" {
			def, ok = reg.Lookup(r.Def)
		}
		if !ok {
			def, ok = reg.Resolve(r.ID)
		}
		if !ok {
			dropped = append(dropped, r.ID)
			continue
		}
		instances = append(instances, r.instance(def))
	}
	return instances, dropped
}

// Restore loads the board into m: templates into its registry, then
// instances, links, view and stream buffers. It reports whether an instance
// entry existed. Links and the view are only applied when instances were
// stored. Nothing is changed on m when the store fails.
func (l *Layer) Restore(ctx context.Context, m *board.Model) (bool, error) {
	snap, err := l.Load(ctx)
	if err != nil {
		return false, err
	}
	if skipped := RegisterTemplates(m.Registry(), snap); len(skipped) > 0 {
		l.logger.Debug("skipped templates", "ids", skipped)
	}
	if !snap.Restored {
		if snap.Streams != nil {
			m.Streams().Load(snap.Streams)
		}
		return false, nil
	}

	instances, dropped := Rehydrate(m.Registry(), snap.Instances)
	if len(dropped) > 0 {
		l.logger.Warn("dropped instances without a definition", "ids", dropped)
	}
	m.Replace(instances, snap.Links)
	if snap.View != nil {
		m.SetView(*snap.View)
	}
	if snap.Streams != nil {
		m.Streams().Load(maps.Clone(snap.Streams))
	}
	return true, nil
}
