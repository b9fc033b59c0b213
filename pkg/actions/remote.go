package actions

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowboard/pkg/backend"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/registry"
	"github.com/matzehuels/flowboard/pkg/stream"
)

// LocalPreviewPrefix starts the src of an image kept only on this board.
const LocalPreviewPrefix = "local-"

func (b *Board) requireBackend() error {
	if b.backend == nil {
		return errors.New(errors.ErrCodeUnsupported, "no backend configured")
	}
	return nil
}

// =============================================================================
// Summarize / process
// =============================================================================

// Summarize sends the export to the backend and remembers the graph it
// returns for [Board.Process]. A response without a graph is an error and
// leaves the remembered graph as it was.
func (b *Board) Summarize(ctx context.Context) (backend.Summary, error) {
	start := time.Now()
	if err := b.requireBackend(); err != nil {
		return backend.Summary{}, err
	}
	sum, err := b.backend.Summarize(ctx, b.Export())
	if err == nil && !sum.HasGraph() {
		err = errors.New(errors.ErrCodeBackend, "summarize returned no graph")
	}
	b.track(ctx, "summarize", start, err)
	if err != nil {
		return sum, err
	}
	b.setGraph(sum.Graph)
	b.logger.Debug("summarized board", "nodes", sum.Nodes, "edges", sum.Edges)
	return sum, nil
}

// Process runs the remembered graph, summarizing first when there is none.
// All stream buffers are cleared once a graph is at hand, then the event
// stream is read to its end into the buffers. Error events do not stop the
// read; they are counted in the returned stats.
func (b *Board) Process(ctx context.Context) (stream.Stats, error) {
	if err := b.requireBackend(); err != nil {
		return stream.Stats{}, err
	}
	graph := b.Graph()
	if graph == nil {
		sum, err := b.Summarize(ctx)
		if err != nil {
			return stream.Stats{}, err
		}
		graph = sum.Graph
	}
	return b.ProcessGraph(ctx, graph)
}

// ProcessGraph runs graph without reading the model. Only the stream
// buffers are touched, so it may run while other goroutines edit the board.
func (b *Board) ProcessGraph(ctx context.Context, graph json.RawMessage) (stream.Stats, error) {
	start := time.Now()
	if err := b.requireBackend(); err != nil {
		return stream.Stats{}, err
	}
	if len(graph) == 0 {
		return stream.Stats{}, errors.New(errors.ErrCodeInvalidInput, "no graph to process")
	}

	b.m.Streams().Clear()
	body, err := b.backend.Process(ctx, graph)
	if err != nil {
		b.track(ctx, "process", start, err)
		return stream.Stats{}, err
	}
	defer body.Close()

	stats, err := stream.Consume(ctx, body, b.m.Streams(), b.logger)
	b.track(ctx, "process", start, err)
	return stats, err
}

// =============================================================================
// Images
// =============================================================================

// Attachment is the outcome of attaching an image to an instance.
type Attachment struct {
	Image backend.Image
	// Local is set when the backend could not store the image and the
	// instance only shows a local preview.
	Local bool
	// Cause is the backend error behind a local fallback.
	Cause error
}

// UploadImage attaches the image read from r to instance id. The backend
// replaces the image the instance referenced before. If the upload fails
// the instance gets a local preview instead (src "local-<uuid>",
// localPreview true) and no remote id; that is not an error.
func (b *Board) UploadImage(ctx context.Context, id, filename string, r io.Reader) (Attachment, error) {
	start := time.Now()
	inst, ok := b.m.Instance(id)
	if !ok {
		return Attachment{}, errors.New(errors.ErrCodeNotFound, "instance %q not found", id)
	}

	cause := b.requireBackend()
	if cause == nil {
		img, err := b.backend.UploadImage(ctx, filename, r, AssetID(inst.Payload))
		if err == nil {
			b.m.SetPayload(id, withRemoteImage(inst.Payload, img))
			b.track(ctx, "upload-image", start, nil)
			return Attachment{Image: img}, nil
		}
		cause = err
	}

	b.logger.Warn("image upload failed, keeping a local preview", "id", id, "err", cause)
	p := withoutRemoteImage(inst.Payload)
	p["src"] = LocalPreviewPrefix + uuid.NewString()
	p["localPreview"] = true
	b.m.SetPayload(id, p)
	b.track(ctx, "upload-image", start, cause)
	return Attachment{Local: true, Cause: cause}, nil
}

// ImportImageURL asks the backend to fetch src and attaches the stored copy
// to instance id. If that fails the instance shows src directly.
func (b *Board) ImportImageURL(ctx context.Context, id, src string) (Attachment, error) {
	start := time.Now()
	inst, ok := b.m.Instance(id)
	if !ok {
		return Attachment{}, errors.New(errors.ErrCodeNotFound, "instance %q not found", id)
	}
	if src == "" {
		return Attachment{}, errors.New(errors.ErrCodeInvalidInput, "url is required")
	}

	cause := b.requireBackend()
	if cause == nil {
		img, err := b.backend.UploadImageURL(ctx, src, AssetID(inst.Payload))
		if err == nil {
			b.m.SetPayload(id, withRemoteImage(inst.Payload, img))
			b.track(ctx, "import-image", start, nil)
			return Attachment{Image: img}, nil
		}
		cause = err
	}

	b.logger.Warn("image import failed, linking the source directly", "id", id, "err", cause)
	p := withoutRemoteImage(inst.Payload)
	p["src"] = src
	b.m.SetPayload(id, p)
	b.track(ctx, "import-image", start, cause)
	return Attachment{Local: true, Cause: cause}, nil
}

func withRemoteImage(p registry.Payload, img backend.Image) registry.Payload {
	out := withoutRemoteImage(p)
	delete(out, "src")
	out["imageUrl"] = img.URL
	out["imageId"] = img.ID
	return out
}

func withoutRemoteImage(p registry.Payload) registry.Payload {
	out := p.Clone()
	if out == nil {
		out = registry.Payload{}
	}
	delete(out, "imageUrl")
	delete(out, "imageId")
	delete(out, "localPreview")
	return out
}
