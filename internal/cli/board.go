package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
)

// =============================================================================
// Inspecting
// =============================================================================

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show instances, links and stream buffers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				m := b.Model()
				fmt.Fprintln(uiOut, StyleTitle.Render("Board "+c.config().Board.Name))
				printStats(m.Len(), len(m.Links()), m.Streams().Len())
				if m.Len() > 0 {
					fmt.Fprintln(uiOut, instanceTable(m))
				}
				for i, l := range m.Links() {
					fmt.Fprintf(uiOut, "  %s %s %s %s\n", StyleNumber.Render(strconv.Itoa(i)), l.From, StyleDim.Render(iconArrow), l.To)
				}
				if cur := m.Linking(); cur.Active {
					printInfo("linking from %s %s", cur.From, iconPending)
				}
				for _, id := range m.Streams().IDs() {
					text, _ := m.Streams().Get(id)
					printKeyValue(id, fmt.Sprintf("%d bytes streamed", len(text)))
				}
				return nil
			})
		},
	}
}

// instanceTable renders the instances in z order of insertion with their
// presenter summary.
func instanceTable(m *board.Model) string {
	reg := m.Registry()
	instances := m.Instances()
	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		flags := []string{}
		if !inst.Enabled {
			flags = append(flags, "off")
		}
		if m.IsChanged(inst.ID) {
			flags = append(flags, "changed")
		}
		if inst.Connectable {
			flags = append(flags, "link")
		}
		rows = append(rows, []string{
			inst.ID,
			defName(reg, inst),
			fmt.Sprintf("%.0f,%.0f", inst.X, inst.Y),
			fmt.Sprintf("%.0fx%.0f", inst.W, inst.H),
			strconv.Itoa(inst.Z),
			strings.Join(flags, " "),
			summary(reg, inst),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Type", "Pos", "Size", "Z", "Flags", "Content").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			inst := instances[row]
			switch {
			case !inst.Enabled:
				return styleOff
			case col == 5 && m.IsChanged(inst.ID):
				return styleChanged
			case col == 0:
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func defName(reg *registry.Registry, inst board.Instance) string {
	if def, ok := reg.Lookup(inst.Def); ok {
		return def.Name
	}
	if def, ok := reg.Resolve(inst.ID); ok {
		return def.Name
	}
	return "?"
}

// summary is the first presenter line, shortened for the table.
func summary(reg *registry.Registry, inst board.Instance) string {
	p, ok := reg.PresenterFor(inst.ID)
	if !ok {
		return ""
	}
	lines := p.Lines(inst.Payload)
	if len(lines) == 0 {
		return ""
	}
	s := lines[0]
	if r := []rune(s); len(r) > 32 {
		s = string(r[:31]) + "…"
	}
	return s
}

func (c *CLI) defsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "defs",
		Short: "List module definitions and saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				var rows [][]string
				for _, def := range b.Model().Registry().Definitions() {
					kind := "built-in"
					if def.Template {
						kind = "template"
					}
					size := def.Size()
					rows = append(rows, []string{
						def.ID, def.Name, fmt.Sprintf("%.0fx%.0f", size.W, size.H),
						strconv.FormatBool(def.Connectable), kind,
					})
				}
				t := table.New().
					Border(lipgloss.RoundedBorder()).
					BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
					Headers("ID", "Name", "Size", "Connectable", "Kind").
					Rows(rows...).
					StyleFunc(func(row, _ int) lipgloss.Style {
						if row == table.HeaderRow {
							return styleHeader
						}
						return lipgloss.NewStyle()
					})
				fmt.Fprintln(uiOut, t.Render())
				return nil
			})
		},
	}
}

// =============================================================================
// Editing Instances
// =============================================================================

func (c *CLI) addCommand() *cobra.Command {
	var (
		x, y   float64
		atView bool
	)
	cmd := &cobra.Command{
		Use:   "add <definition>",
		Short: "Add an instance of a definition",
		Long: `Add an instance of a definition or saved template.

Without --x/--y the instance is placed in the middle of the current view.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDefinitions,
		RunE: func(cmd *cobra.Command, args []string) error {
			placed := cmd.Flags().Changed("x") || cmd.Flags().Changed("y")
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				var (
					id string
					ok bool
				)
				if placed && !atView {
					id, ok = b.Model().AddInstance(args[0], geom.Point{X: x, Y: y})
				} else {
					id, ok = b.AddAtView(args[0])
				}
				if !ok {
					return errors.New(errors.ErrCodeUnknownDefinition, "unknown definition %q (see flowboard defs)", args[0])
				}
				printSuccess("Added %s", StyleHighlight.Render(id))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "left edge in board pixels")
	cmd.Flags().Float64Var(&y, "y", 0, "top edge in board pixels")
	cmd.Flags().BoolVar(&atView, "at-view", false, "place in the middle of the current view")
	return cmd
}

// instanceCommand builds a command that runs fn on one instance.
func (c *CLI) instanceCommand(use, short, done string, fn func(m *board.Model, id string) bool) *cobra.Command {
	return &cobra.Command{
		Use:               use + " <id>",
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeInstances,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				if !fn(b.Model(), args[0]) {
					return errors.New(errors.ErrCodeNotFound, "instance %q not found", args[0])
				}
				printSuccess("%s %s", done, StyleHighlight.Render(args[0]))
				return nil
			})
		},
	}
}

func (c *CLI) rmCommand() *cobra.Command {
	return c.instanceCommand("rm", "Delete an instance and its links", "Deleted", (*board.Model).DeleteInstance)
}

func (c *CLI) frontCommand() *cobra.Command {
	return c.instanceCommand("front", "Bring an instance to the front", "Raised", (*board.Model).BringToFront)
}

func (c *CLI) enableCommand(enabled bool) *cobra.Command {
	if enabled {
		return c.instanceCommand("enable", "Show a hidden instance", "Enabled", func(m *board.Model, id string) bool {
			return m.SetEnabled(id, true)
		})
	}
	return c.instanceCommand("disable", "Hide an instance from arrange and export", "Disabled", func(m *board.Model, id string) bool {
		return m.SetEnabled(id, false)
	})
}

func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <x> <y>",
		Short: "Move an instance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, errX := strconv.ParseFloat(args[1], 64)
			y, errY := strconv.ParseFloat(args[2], 64)
			if errX != nil || errY != nil {
				return errors.New(errors.ErrCodeInvalidInput, "position %s,%s is not numeric", args[1], args[2])
			}
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				if !b.Model().Move(args[0], geom.Point{X: x, Y: y}) {
					return errors.New(errors.ErrCodeNotFound, "instance %q not found", args[0])
				}
				printSuccess("Moved %s to %v,%v", StyleHighlight.Render(args[0]), x, y)
				return nil
			})
		},
	}
}

func (c *CLI) setCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <key>=<value>...",
		Short: "Edit payload fields of an instance",
		Long: `Edit payload fields of an instance.

Values that parse as JSON (numbers, booleans, arrays, quoted strings) are
stored as such; anything else is stored as a plain string. An empty value
removes the field.`,
		Example: `  flowboard set sticky-note title="Ship it"
  flowboard set agenda-panel 'actions=["Plan","Build"]'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				m := b.Model()
				inst, ok := m.Instance(args[0])
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "instance %q not found", args[0])
				}
				payload := inst.Payload.Clone()
				if payload == nil {
					payload = registry.Payload{}
				}
				for k, v := range edits {
					if v == nil {
						delete(payload, k)
						continue
					}
					payload[k] = v
				}
				m.SetPayload(args[0], payload)
				printSuccess("Updated %d field(s) of %s", len(edits), StyleHighlight.Render(args[0]))
				return nil
			})
		},
	}
}

// parseAssignments reads key=value pairs. An empty value maps to nil.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "expected key=value, got %q", arg)
		}
		if raw == "" {
			out[key] = nil
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil && v != nil {
			out[key] = v
			continue
		}
		out[key] = strings.ReplaceAll(raw, `\n`, "\n")
	}
	return out, nil
}

func (c *CLI) templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "save <id>",
		Short: "Save an instance as a reusable template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				defID, ok := b.Model().SaveAsTemplate(args[0])
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "instance %q not found", args[0])
				}
				printSuccess("Saved template %s", StyleHighlight.Render(defID))
				printNextStep("Use it", "flowboard add "+defID)
				return nil
			})
		},
	})
	return cmd
}

// =============================================================================
// Links & Layout
// =============================================================================

func (c *CLI) linkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <from> <to>",
		Short: "Link two connectable instances",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				m := b.Model()
				m.CancelLink()
				if m.StartLink(args[0]) != board.LinkPending {
					return errors.New(errors.ErrCodeInvalidInput, "%q is missing or not connectable", args[0])
				}
				l, ok := m.FinishLink(args[1])
				if !ok {
					m.CancelLink()
					return errors.New(errors.ErrCodeInvalidInput, "cannot link %q to %q", args[0], args[1])
				}
				printSuccess("Linked %s %s %s", l.From, iconArrow, l.To)
				return nil
			})
		},
	}
}

func (c *CLI) unlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <index>",
		Short: "Remove a link by its index (see flowboard show)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "link index %q is not a number", args[0])
			}
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				if !b.Model().RemoveLink(i) {
					return errors.New(errors.ErrCodeNotFound, "no link at index %d", i)
				}
				printSuccess("Removed link %d", i)
				return nil
			})
		},
	}
}

func (c *CLI) arrangeCommand() *cobra.Command {
	var animate bool
	cmd := &cobra.Command{
		Use:   "arrange",
		Short: "Pack the enabled instances into the viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				if err := b.Arrange(ctx, animate); err != nil {
					return err
				}
				printSuccess("Arranged %d instances", b.Model().Len())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&animate, "animate", false, "step through the animation (persists every frame)")
	return cmd
}
