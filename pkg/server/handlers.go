package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/buildinfo"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
	"github.com/matzehuels/flowboard/pkg/render/nodelink"
	"github.com/matzehuels/flowboard/pkg/render/snapshot"
)

// =============================================================================
// Board state
// =============================================================================

type instanceView struct {
	board.Instance
	Changed bool `json:"changed"`
}

type boardView struct {
	Instances []instanceView `json:"instances"`
	Links     []board.Link   `json:"links"`
	View      geom.Point     `json:"view"`
	Viewport  geom.Size      `json:"viewport"`
	Linking   board.Cursor   `json:"linking"`
	HasGraph  bool           `json:"hasGraph"`
}

type definitionView struct {
	ID string `json:"id"`
	registry.Definition
	Template bool `json:"template"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleBoard(w http.ResponseWriter, _ *http.Request) {
	var v boardView
	_ = s.locked(func(b *actions.Board) error {
		m := b.Model()
		for _, inst := range m.Instances() {
			v.Instances = append(v.Instances, instanceView{Instance: inst, Changed: m.IsChanged(inst.ID)})
		}
		v.Links = m.Links()
		v.View = m.View()
		v.Viewport = b.Viewport()
		v.Linking = m.Linking()
		v.HasGraph = b.Graph() != nil
		return nil
	})
	if v.Instances == nil {
		v.Instances = []instanceView{}
	}
	if v.Links == nil {
		v.Links = []board.Link{}
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDefinitions(w http.ResponseWriter, _ *http.Request) {
	var out []definitionView
	_ = s.locked(func(b *actions.Board) error {
		for _, def := range b.Model().Registry().Definitions() {
			out = append(out, definitionView{ID: def.ID, Definition: def, Template: def.Template})
		}
		return nil
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStreams(w http.ResponseWriter, _ *http.Request) {
	// Streams carry their own lock; process writes them without the board mutex.
	writeJSON(w, http.StatusOK, s.board.Model().Streams().Snapshot())
}

// =============================================================================
// Instances
// =============================================================================

type addRequest struct {
	Def    string  `json:"def"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	AtView bool    `json:"atView"`
}

type idResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleAddInstance(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Def == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "def is required"))
		return
	}
	var id string
	err := s.locked(func(b *actions.Board) error {
		var ok bool
		if req.AtView {
			id, ok = b.AddAtView(req.Def)
		} else {
			id, ok = b.Model().AddInstance(req.Def, geom.Point{X: req.X, Y: req.Y})
		}
		if !ok {
			return errors.New(errors.ErrCodeUnknownDefinition, "unknown definition %q", req.Def)
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func instanceNotFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "instance %q not found", id)
}

// instanceAction runs fn on the instance named in the path and answers 204,
// or 404 when fn reports it missing.
func (s *Server) instanceAction(fn func(m *board.Model, id string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := s.locked(func(b *actions.Board) error {
			if !fn(b.Model(), id) {
				return instanceNotFound(id)
			}
			return nil
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	s.instanceAction((*board.Model).DeleteInstance)(w, r)
}

func (s *Server) handleFront(w http.ResponseWriter, r *http.Request) {
	s.instanceAction((*board.Model).BringToFront)(w, r)
}

type patchRequest struct {
	X       *float64         `json:"x"`
	Y       *float64         `json:"y"`
	W       *float64         `json:"w"`
	H       *float64         `json:"h"`
	Enabled *bool            `json:"enabled"`
	Payload registry.Payload `json:"payload"`
}

func (s *Server) handlePatchInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req patchRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var out board.Instance
	err := s.locked(func(b *actions.Board) error {
		m := b.Model()
		inst, ok := m.Instance(id)
		if !ok {
			return instanceNotFound(id)
		}
		if req.X != nil || req.Y != nil {
			p := inst.Position()
			if req.X != nil {
				p.X = *req.X
			}
			if req.Y != nil {
				p.Y = *req.Y
			}
			m.Move(id, p)
		}
		if req.W != nil || req.H != nil {
			size := geom.Size{W: inst.W, H: inst.H}
			if req.W != nil {
				size.W = *req.W
			}
			if req.H != nil {
				size.H = *req.H
			}
			if size.Empty() {
				return errors.New(errors.ErrCodeInvalidInput, "size %vx%v must be positive", size.W, size.H)
			}
			m.Resize(id, size)
		}
		if req.Enabled != nil {
			m.SetEnabled(id, *req.Enabled)
		}
		if req.Payload != nil {
			m.SetPayload(id, req.Payload)
		}
		out, _ = m.Instance(id)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var defID string
	err := s.locked(func(b *actions.Board) error {
		var ok bool
		if defID, ok = b.Model().SaveAsTemplate(id); !ok {
			return instanceNotFound(id)
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: defID})
}

// =============================================================================
// Links
// =============================================================================

type linkStateResponse struct {
	State string `json:"state"`
	From  string `json:"from,omitempty"`
}

func (s *Server) handleLinkStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var resp linkStateResponse
	_ = s.locked(func(b *actions.Board) error {
		m := b.Model()
		resp.State = m.StartLink(req.From).String()
		resp.From = m.Linking().From
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLinkCursor(w http.ResponseWriter, r *http.Request) {
	var p geom.Point
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = s.locked(func(b *actions.Board) error {
		b.Model().MoveCursor(p)
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

type finishResponse struct {
	Created bool        `json:"created"`
	Link    *board.Link `json:"link,omitempty"`
}

func (s *Server) handleLinkFinish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To string `json:"to"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var resp finishResponse
	_ = s.locked(func(b *actions.Board) error {
		if l, ok := b.Model().FinishLink(req.To); ok {
			resp = finishResponse{Created: true, Link: &l}
		}
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLinkCancel(w http.ResponseWriter, _ *http.Request) {
	_ = s.locked(func(b *actions.Board) error {
		b.Model().CancelLink()
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "link index %q is not a number", chi.URLParam(r, "index")))
		return
	}
	err = s.locked(func(b *actions.Board) error {
		if !b.Model().RemoveLink(i) {
			return errors.New(errors.ErrCodeNotFound, "no link at index %d", i)
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Board actions
// =============================================================================

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Animated bool `json:"animated"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err := s.locked(func(b *actions.Board) error {
		return b.Arrange(r.Context(), req.Animated)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	var (
		doc       boardio.Document
		instances []board.Instance
		links     []board.Link
		opts      snapshot.Options
		reg       *registry.Registry
	)
	_ = s.locked(func(b *actions.Board) error {
		doc = b.Export()
		m := b.Model()
		instances, links, reg = m.Instances(), m.ValidLinks(), m.Registry()
		vp := b.Viewport()
		opts = snapshot.Options{Width: int(vp.W), Height: int(vp.H), View: m.View()}
		return nil
	})

	switch format {
	case "", "json":
		data, err := boardio.Marshal(doc)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = io.WriteString(w, nodelink.ToDOT(doc, nodelink.Options{Detailed: true}))
	case "svg":
		svg, err := nodelink.RenderSVG(r.Context(), nodelink.ToDOT(doc, nodelink.Options{}))
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	case "png":
		var buf bytes.Buffer
		if err := snapshot.WritePNG(&buf, reg, instances, links, opts); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unknown export format %q", format))
	}
}

type importResponse struct {
	Instances int      `json:"instances"`
	Links     int      `json:"links"`
	Dropped   []string `json:"dropped,omitempty"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read import body"))
		return
	}
	var im boardio.Imported
	err = s.locked(func(b *actions.Board) error {
		im, err = b.Import(r.Context(), data)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Instances: len(im.Instances), Links: len(im.Links), Dropped: im.Dropped})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.boardAction(w, r, func(b *actions.Board) error { return b.Clear(r.Context()) })
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.boardAction(w, r, func(b *actions.Board) error { return b.ClearCacheAndArrange(r.Context()) })
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.boardAction(w, r, func(b *actions.Board) error {
		b.RestoreDefaults(r.Context())
		return nil
	})
}

func (s *Server) boardAction(w http.ResponseWriter, r *http.Request, fn func(b *actions.Board) error) {
	if err := s.locked(fn); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Processing
// =============================================================================

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !s.processing.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, errorBody{Error: "processing already running"})
		return
	}
	// The graph is taken under the lock; the background run only touches
	// the stream buffers.
	var graph json.RawMessage
	err := s.locked(func(b *actions.Board) error {
		if graph = b.Graph(); graph != nil {
			return nil
		}
		sum, err := b.Summarize(r.Context())
		graph = sum.Graph
		return err
	})
	if err != nil {
		s.processing.Store(false)
		s.writeError(w, r, err)
		return
	}

	s.procWG.Add(1)
	go func() {
		defer s.procWG.Done()
		defer s.processing.Store(false)
		stats, err := s.board.ProcessGraph(s.bg, graph)
		if err != nil {
			s.logger.Error("process failed", "err", err)
			return
		}
		s.logger.Info("process finished", "frames", stats.Frames, "nodes", len(stats.Nodes), "errors", len(stats.Errors))
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
}
