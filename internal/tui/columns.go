package tui

import (
	"strconv"
	"strings"

	"boardnav/internal/nav"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// Column intents. A column never changes navigator state itself; the app routes these to the
// controller, the hover state or the Actions collaborator.
type (
	selectIntentMsg struct {
		Level nav.Level
		ID    string
	}
	// hoverIntentMsg with an empty ID means the pointer left the column.
	hoverIntentMsg struct {
		Level nav.Level
		ID    string
	}
	actionIntentMsg struct {
		Level  nav.Level
		Action nav.Action
		ID     string
	}
)

// column renders one navigator level. It is a pure view over its fields.
type column struct {
	state   nav.ColumnState
	hovered string
	caps    nav.Capabilities
	focused bool
	spinner string

	width  int
	height int
}

// columnHeaderRows is the title line plus the rule under it.
const columnHeaderRows = 2

func (c column) rows() int {
	if n := c.height - columnHeaderRows; n > 0 {
		return n
	}
	return 0
}

func (c column) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.state.Items {
		if c.state.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// offset scrolls just enough to keep the hovered row (or else the selected row) visible.
func (c column) offset() int {
	anchor := c.indexOf(c.hovered)
	if anchor < 0 {
		anchor = c.indexOf(c.state.SelectedID)
	}
	rows := c.rows()
	if anchor < rows || rows == 0 {
		return 0
	}
	return anchor - rows + 1
}

func (c column) render() string {
	if c.width <= 0 || c.height <= 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg)
	if c.focused {
		headerStyle = headerStyle.Foreground(colorAccentFg).Background(colorAccent)
	}
	title := c.state.Title
	if n := len(c.state.Items); n > 0 {
		title += " (" + strconv.Itoa(n) + ")"
	}
	lines := []string{
		headerStyle.Render(fitWidth(" "+title, c.width)),
		styleMuted().Render(strings.Repeat(glyphHRule(), c.width)),
	}

	switch {
	case c.state.Loading:
		lines = append(lines, styleMuted().Render(" "+strings.TrimSpace(c.spinner+" Loading…")))
	case c.state.Err != nil:
		errStyle := lipgloss.NewStyle().Foreground(colorFlashErrorBg)
		lines = append(lines, errStyle.Render(fitWidth(" ! "+c.state.Err.Error(), c.width)))
	case len(c.state.Items) == 0:
		lines = append(lines, styleMuted().Render(" (empty)"))
	default:
		off := c.offset()
		end := off + c.rows()
		if end > len(c.state.Items) {
			end = len(c.state.Items)
		}
		for i := off; i < end; i++ {
			lines = append(lines, c.renderRow(c.state.Items[i]))
		}
	}

	return normalizePane(strings.Join(lines, "\n"), c.width, c.height)
}

func (c column) renderRow(it nav.ColumnItem) string {
	selected := it.ID == c.state.SelectedID
	hovered := it.ID == c.hovered

	left := " " + glyphIcon(it.Icon) + " " + it.Title
	if it.Completed {
		left = " " + glyphCheck() + " " + it.Title
	}

	var right string
	if hovered && c.caps != 0 {
		right = c.actionBadges()
	} else {
		right = c.meta(it)
	}
	if it.HasChildren || selected {
		right += glyphTwisty(selected)
	}
	right += " "

	leftW := c.width - xansi.StringWidth(right)
	if leftW < 1 {
		leftW = 1
		right = ""
	}
	row := fitWidth(left, leftW) + right

	st := lipgloss.NewStyle()
	switch {
	case selected:
		st = st.Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	case hovered:
		st = st.Background(colorHoverBg)
	}
	if it.Completed && !selected {
		st = st.Foreground(colorDoneFg)
	}
	return st.Render(row)
}

// meta is the compact right-hand metadata: label dots, priority marks and child count.
func (c column) meta(it nav.ColumnItem) string {
	var parts []string
	if n := len(it.Meta.LabelColors); n > 0 {
		if n > 3 {
			n = 3
		}
		parts = append(parts, strings.Repeat(glyphLabelDot(), n))
	}
	if r := it.Meta.Priority.Rank(); r >= 3 {
		parts = append(parts, strings.Repeat("!", r-2))
	}
	if it.Meta.Count != nil && *it.Meta.Count > 0 {
		parts = append(parts, strconv.Itoa(*it.Meta.Count))
	}
	if len(parts) == 0 {
		return " "
	}
	return " " + strings.Join(parts, " ") + " "
}

func (c column) actionBadges() string {
	var b strings.Builder
	for _, a := range c.caps.Actions() {
		b.WriteString(" ")
		b.WriteString(glyphAction(a))
	}
	b.WriteString(" ")
	return b.String()
}

// actionSpans returns the [start, end) x range of each action badge on a hovered row. It mirrors
// renderRow's right-aligned layout.
func (c column) actionSpans(it nav.ColumnItem) map[nav.Action][2]int {
	selected := it.ID == c.state.SelectedID
	tail := 1 // trailing space
	if it.HasChildren || selected {
		tail += xansi.StringWidth(glyphTwisty(selected))
	}
	x := c.width - tail - xansi.StringWidth(c.actionBadges())
	if x < 1 {
		return nil
	}
	spans := make(map[nav.Action][2]int, 3)
	for _, a := range c.caps.Actions() {
		x++ // separator
		w := xansi.StringWidth(glyphAction(a))
		spans[a] = [2]int{x, x + w}
		x += w
	}
	return spans
}

type columnHit struct {
	ID        string
	Action    nav.Action
	HasAction bool
}

// hitTest maps a point local to the column to the row (and action badge) under it.
func (c column) hitTest(x, y int) (columnHit, bool) {
	if c.state.Loading || c.state.Err != nil || x < 0 || x >= c.width || y < columnHeaderRows {
		return columnHit{}, false
	}
	i := y - columnHeaderRows + c.offset()
	if y-columnHeaderRows >= c.rows() || i < 0 || i >= len(c.state.Items) {
		return columnHit{}, false
	}
	it := c.state.Items[i]
	hit := columnHit{ID: it.ID}
	if it.ID == c.hovered {
		for a, span := range c.actionSpans(it) {
			if x >= span[0] && x < span[1] {
				hit.Action, hit.HasAction = a, true
			}
		}
	}
	return hit, true
}

// mouseIntent turns a mouse event at column-local (x, y) into an intent, or nil.
func (c column) mouseIntent(msg tea.MouseMsg, x, y int) tea.Msg {
	hit, ok := c.hitTest(x, y)
	switch msg.Action {
	case tea.MouseActionMotion:
		if !ok {
			return hoverIntentMsg{Level: c.state.Level}
		}
		return hoverIntentMsg{Level: c.state.Level, ID: hit.ID}
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !ok {
			return nil
		}
		if hit.HasAction {
			return actionIntentMsg{Level: c.state.Level, Action: hit.Action, ID: hit.ID}
		}
		return selectIntentMsg{Level: c.state.Level, ID: hit.ID}
	}
	return nil
}

// keyTarget is the row keyboard actions apply to: the hovered row, else the selected one.
func (c column) keyTarget() (string, bool) {
	if c.indexOf(c.hovered) >= 0 {
		return c.hovered, true
	}
	if c.indexOf(c.state.SelectedID) >= 0 {
		return c.state.SelectedID, true
	}
	return "", false
}

// moveHover returns the intent for moving the keyboard cursor by delta rows.
func (c column) moveHover(delta int) tea.Msg {
	n := len(c.state.Items)
	if n == 0 {
		return nil
	}
	i := c.indexOf(c.hovered)
	if i < 0 {
		i = c.indexOf(c.state.SelectedID)
	}
	switch {
	case i < 0 && delta >= 0:
		i = 0
	case i < 0:
		i = n - 1
	default:
		i += delta
	}
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return hoverIntentMsg{Level: c.state.Level, ID: c.state.Items[i].ID}
}

// actionIntent validates a keyboard action against the column's capabilities.
func (c column) actionIntent(a nav.Action) tea.Msg {
	if !c.caps.Has(a) {
		return nil
	}
	id, ok := c.keyTarget()
	if !ok {
		return nil
	}
	return actionIntentMsg{Level: c.state.Level, Action: a, ID: id}
}
