package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listOriginStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

const tuiHelp = "↑/↓ move  space toggle  f front  l link  esc cancel  d delete  a arrange  q quit"

func (c *CLI) tuiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Edit the board interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				p := tea.NewProgram(newBoardModel(ctx, b), tea.WithContext(ctx), tea.WithAltScreen())
				_, err := p.Run()
				if err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
					return err
				}
				return nil
			})
		},
	}
}

// =============================================================================
// BoardModel - Interactive board editing
// =============================================================================

// BoardModel is the bubbletea model of the board editor. It holds a cursor
// over the instances in insertion order and applies key presses to the
// board directly.
type BoardModel struct {
	ctx    context.Context
	board  *actions.Board
	Cursor int
	Offset int
	Height int
	Status string
}

func newBoardModel(ctx context.Context, b *actions.Board) BoardModel {
	return BoardModel{ctx: ctx, board: b, Height: 15}
}

// selected returns the id under the cursor.
func (m BoardModel) selected() (string, bool) {
	ids := m.board.Model().IDs()
	if m.Cursor < 0 || m.Cursor >= len(ids) {
		return "", false
	}
	return ids[m.Cursor], true
}

func (m BoardModel) Init() tea.Cmd {
	return nil
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
		m.scroll()
	}
	return m, nil
}

func (m BoardModel) handleKey(key string) (tea.Model, tea.Cmd) {
	model := m.board.Model()
	n := model.Len()
	id, ok := m.selected()

	switch key {
	case "q", "ctrl+c":
		model.CancelLink()
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < n-1 {
			m.Cursor++
		}
	case "esc":
		if model.Linking().Active {
			model.CancelLink()
			m.Status = "link cancelled"
		}
	case " ":
		if ok {
			inst, _ := model.Instance(id)
			model.SetEnabled(id, !inst.Enabled)
			if inst.Enabled {
				m.Status = "disabled " + id
			} else {
				m.Status = "enabled " + id
			}
		}
	case "f":
		if ok && model.BringToFront(id) {
			m.Status = "raised " + id
		}
	case "l":
		if ok {
			m.Status = m.link(model, id)
		}
	case "d":
		if ok && model.DeleteInstance(id) {
			m.Status = "deleted " + id
			if m.Cursor >= model.Len() && m.Cursor > 0 {
				m.Cursor--
			}
		}
	case "a":
		if err := m.board.Arrange(m.ctx, false); err != nil {
			m.Status = errors.UserMessage(err)
		} else {
			m.Status = fmt.Sprintf("arranged %d instances", model.Len())
		}
	}
	m.scroll()
	return m, nil
}

// link starts a link on id, or finishes the pending one there. Pressing l
// on the origin again cancels.
func (m BoardModel) link(model *board.Model, id string) string {
	cur := model.Linking()
	if !cur.Active || cur.From == id {
		if model.StartLink(id) == board.LinkPending {
			return "linking from " + id + " " + iconPending
		}
		if cur.Active {
			return "link cancelled"
		}
		return id + " cannot be linked"
	}
	if l, ok := model.FinishLink(id); ok {
		return fmt.Sprintf("linked %s %s %s", l.From, iconArrow, l.To)
	}
	return id + " cannot be linked"
}

func (m *BoardModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m BoardModel) View() string {
	var b strings.Builder
	model := m.board.Model()
	reg := model.Registry()
	instances := model.Instances()
	cur := model.Linking()

	b.WriteString(StyleTitle.Render("Flowboard"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(tuiHelp))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(instances))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		inst := instances[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		state := "on"
		if !inst.Enabled {
			state = "off"
		}
		rows = append(rows, []string{cursor, inst.ID, defName(reg, inst), state, fmt.Sprint(inst.Z), summary(reg, inst)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Type", "", "Z", "Content").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(instances) {
				return lipgloss.NewStyle()
			}
			inst := instances[idx]
			switch {
			case cur.Active && inst.ID == cur.From:
				return listOriginStyle
			case idx == m.Cursor:
				return listSelectedStyle
			case !inst.Enabled:
				return styleOff
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d links", min(m.Cursor+1, len(instances)), len(instances), len(model.ValidLinks()))))
	if m.Status != "" {
		b.WriteString("  ")
		b.WriteString(StyleValue.Render(m.Status))
	}
	b.WriteString("\n")
	return b.String()
}
