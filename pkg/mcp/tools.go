package mcp

import (
	"context"
	"fmt"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/render/nodelink"
)

func boolPtr(b bool) *bool { return &b }

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcpgo.NewTool("list_instances",
				mcpgo.WithDescription("List every instance on the board with its definition, position, size, z order and flags"),
				mcpgo.WithToolAnnotation(mcpgo.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
			),
			Handler: s.handleListInstances,
		},
		{
			Tool: mcpgo.NewTool("add_instance",
				mcpgo.WithDescription("Add an instance of a module definition. Without x and y it is placed in the middle of the current view."),
				mcpgo.WithString("def", mcpgo.Description("Definition id, e.g. sticky-note or a tpl- template"), mcpgo.Required()),
				mcpgo.WithNumber("x", mcpgo.Description("Left edge in board pixels (optional)")),
				mcpgo.WithNumber("y", mcpgo.Description("Top edge in board pixels (optional)")),
			),
			Handler: s.handleAddInstance,
		},
		{
			Tool: mcpgo.NewTool("delete_instance",
				mcpgo.WithDescription("Delete an instance and every link touching it"),
				mcpgo.WithString("id", mcpgo.Description("Instance id"), mcpgo.Required()),
				mcpgo.WithToolAnnotation(mcpgo.ToolAnnotation{DestructiveHint: boolPtr(true)}),
			),
			Handler: s.handleDeleteInstance,
		},
		{
			Tool: mcpgo.NewTool("link",
				mcpgo.WithDescription("Connect two connectable instances with a directed link"),
				mcpgo.WithString("from", mcpgo.Description("Source instance id"), mcpgo.Required()),
				mcpgo.WithString("to", mcpgo.Description("Target instance id"), mcpgo.Required()),
			),
			Handler: s.handleLink,
		},
		{
			Tool: mcpgo.NewTool("arrange",
				mcpgo.WithDescription("Pack the enabled instances into rows that fit the viewport"),
				mcpgo.WithBoolean("animated", mcpgo.Description("Animate the move (default false)")),
			),
			Handler: s.handleArrange,
		},
		{
			Tool: mcpgo.NewTool("export_board",
				mcpgo.WithDescription("Export the board as the JSON document the backend consumes, or as Graphviz DOT"),
				mcpgo.WithString("format", mcpgo.Description("json (default) or dot"), mcpgo.Enum("json", "dot")),
				mcpgo.WithToolAnnotation(mcpgo.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
			),
			Handler: s.handleExport,
		},
	}
}

type instanceSummary struct {
	ID          string  `json:"id"`
	Def         string  `json:"def,omitempty"`
	Name        string  `json:"name,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	W           float64 `json:"w"`
	H           float64 `json:"h"`
	Z           int     `json:"z"`
	Enabled     bool    `json:"enabled"`
	Connectable bool    `json:"connectable"`
	Changed     bool    `json:"changed"`
}

func (s *Server) handleListInstances(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.locked(func(b *actions.Board) (*mcpgo.CallToolResult, error) {
		m := b.Model()
		out := make([]instanceSummary, 0, m.Len())
		for _, inst := range m.Instances() {
			sum := instanceSummary{
				ID: inst.ID, Def: inst.Def,
				X: inst.X, Y: inst.Y, W: inst.W, H: inst.H, Z: inst.Z,
				Enabled: inst.Enabled, Connectable: inst.Connectable,
				Changed: m.IsChanged(inst.ID),
			}
			if def, ok := m.Registry().Resolve(inst.ID); ok {
				sum.Name = def.Name
			}
			out = append(out, sum)
		}
		return jsonResult(out)
	})
}

func (s *Server) handleAddInstance(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	def, err := req.RequireString("def")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	_, hasX := args["x"]
	_, hasY := args["y"]

	return s.locked(func(b *actions.Board) (*mcpgo.CallToolResult, error) {
		var (
			id string
			ok bool
		)
		if hasX || hasY {
			p := geom.Point{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0)}
			id, ok = b.Model().AddInstance(def, p)
		} else {
			id, ok = b.AddAtView(def)
		}
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownDefinition, "unknown definition %q", def)
		}
		return mcpgo.NewToolResultText(fmt.Sprintf("added %s", id)), nil
	})
}

func (s *Server) handleDeleteInstance(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return s.locked(func(b *actions.Board) (*mcpgo.CallToolResult, error) {
		if !b.Model().DeleteInstance(id) {
			return nil, errors.New(errors.ErrCodeNotFound, "instance %q not found", id)
		}
		return mcpgo.NewToolResultText(fmt.Sprintf("deleted %s", id)), nil
	})
}

func (s *Server) handleLink(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return s.locked(func(b *actions.Board) (*mcpgo.CallToolResult, error) {
		m := b.Model()
		// Drop a gesture left pending by another surface so the start below
		// cannot toggle it off.
		m.CancelLink()
		if m.StartLink(from) != board.LinkPending {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%q is missing or not connectable", from)
		}
		l, ok := m.FinishLink(to)
		if !ok {
			m.CancelLink()
			return nil, errors.New(errors.ErrCodeInvalidInput, "cannot link %q to %q", from, to)
		}
		return mcpgo.NewToolResultText(fmt.Sprintf("linked %s -> %s (link %d)", l.From, l.To, len(m.Links())-1)), nil
	})
}

func (s *Server) handleArrange(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	animated := req.GetBool("animated", false)
	return s.locked(func(b *actions.Board) (*mcpgo.CallToolResult, error) {
		if err := b.Arrange(ctx, animated); err != nil {
			return nil, err
		}
		return mcpgo.NewToolResultText(fmt.Sprintf("arranged %d instances", b.Model().Len())), nil
	})
}

func (s *Server) handleExport(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	format := req.GetString("format", "json")
	return s.locked(func(b *actions.Board) (*mcpgo.CallToolResult, error) {
		doc := b.Export()
		switch format {
		case "json":
			data, err := boardio.Marshal(doc)
			if err != nil {
				return nil, err
			}
			return mcpgo.NewToolResultText(string(data)), nil
		case "dot":
			return mcpgo.NewToolResultText(nodelink.ToDOT(doc, nodelink.Options{Detailed: true})), nil
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown export format %q", format)
	})
}
