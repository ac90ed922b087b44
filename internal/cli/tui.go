package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/devtoc/infograph/pkg/docstore"
	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/widget"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrowseModel - Keyboard navigation over a page
// =============================================================================

// browseRow is one widget line of the page outline.
type browseRow struct {
	id    widget.ID
	depth int
}

// BrowseModel is the bubbletea model for stepping through the selectable
// widgets of a page the way Tab and Shift-Tab do in the editor.
type BrowseModel struct {
	ctx   context.Context
	store *docstore.Store
	page  document.PageID

	rows   []browseRow
	Height int
	Offset int
}

// NewBrowseModel creates a browse model over page of the store's document.
func NewBrowseModel(ctx context.Context, store *docstore.Store, page document.PageID) BrowseModel {
	m := BrowseModel{ctx: ctx, store: store, page: page, Height: 15}
	m.rows = outline(store.Document(), page)
	return m
}

// outline lists the widgets of page in layer order with composite members
// indented under their owner.
func outline(d *document.Document, page document.PageID) []browseRow {
	p, ok := d.Page(page)
	if !ok {
		return nil
	}
	var rows []browseRow
	var visit func(id widget.ID, depth int)
	visit = func(id widget.ID, depth int) {
		rows = append(rows, browseRow{id: id, depth: depth})
		if w, ok := d.Widgets[id]; ok && depth < 8 {
			for _, m := range w.MemberIDs() {
				visit(m, depth+1)
			}
		}
	}
	for _, id := range p.LayerOrder {
		visit(id, 0)
	}
	return rows
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "down", "j":
			m.store.Next(m.ctx, m.page)
		case "shift+tab", "up", "k":
			m.store.Previous(m.ctx, m.page)
		case "enter":
			m.enter()
		case "esc":
			m.leave()
		}
		m.scroll()
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// enter selects the first member of the selected composite.
func (m *BrowseModel) enter() {
	sel := m.store.Selection()
	if len(sel) != 1 {
		return
	}
	w, ok := m.store.Document().Widget(sel[0])
	if !ok || !w.Kind().IsComposite() {
		return
	}
	if members := w.MemberIDs(); len(members) > 0 {
		m.store.Select(m.ctx, members[0])
	}
}

// leave selects the owner of the selected member.
func (m *BrowseModel) leave() {
	sel := m.store.Selection()
	if len(sel) != 1 {
		return
	}
	if parent, ok := m.store.Parents().ParentID(sel[0]); ok {
		m.store.Select(m.ctx, parent)
	}
}

// scroll keeps the selected row inside the visible window.
func (m *BrowseModel) scroll() {
	cursor := m.cursor()
	if cursor < 0 {
		return
	}
	if cursor < m.Offset {
		m.Offset = cursor
	}
	if cursor >= m.Offset+m.Height {
		m.Offset = cursor - m.Height + 1
	}
}

func (m BrowseModel) cursor() int {
	sel := m.store.Selection()
	if len(sel) == 0 {
		return -1
	}
	return slices.IndexFunc(m.rows, func(r browseRow) bool { return r.id == sel[0] })
}

func (m BrowseModel) View() string {
	var b strings.Builder
	doc := m.store.Document()
	selected := m.store.Selection()

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s / %s", doc.Title, m.page)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab/shift+tab move  ⏎ enter group  esc leave group  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		w := doc.Widgets[r.id]

		cursor := "  "
		if slices.Contains(selected, r.id) {
			cursor = "▸ "
		}
		name := strings.Repeat("  ", r.depth) + string(r.id)
		rows = append(rows, []string{cursor, name, string(w.Kind()), truncateText(w.Str("text"), 28)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Widget", "Kind", "Text").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			r := m.rows[idx]
			switch {
			case slices.Contains(selected, r.id):
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case doc.Widgets[r.id].IsHidden():
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  selected: %s", joinIDs(selected))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func truncateText(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
