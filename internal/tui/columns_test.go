package tui

import (
	"errors"
	"strings"
	"testing"

	"boardnav/internal/nav"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

func testColumn(n int) column {
	items := make([]nav.ColumnItem, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		items = append(items, nav.ColumnItem{ID: id, Title: "Item " + id, Icon: nav.IconItem})
	}
	return column{
		state:  nav.ColumnState{Level: nav.LevelItem, Title: "Sprint", Items: items},
		width:  30,
		height: 2 + 4,
	}
}

func TestColumn_RenderShape(t *testing.T) {
	c := testColumn(3)
	out := c.render()

	lines := strings.Split(out, "\n")
	if len(lines) != c.height {
		t.Fatalf("expected %d lines, got %d", c.height, len(lines))
	}
	for i, ln := range lines {
		if w := xansi.StringWidth(ln); w != c.width {
			t.Fatalf("line %d width = %d, want %d: %q", i, w, c.width, ln)
		}
	}
	if !strings.Contains(lines[0], "Sprint (3)") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "Item a") || !strings.Contains(lines[4], "Item c") {
		t.Fatalf("rows out of order:\n%s", out)
	}
}

func TestColumn_LoadingErrorEmpty(t *testing.T) {
	c := testColumn(0)

	c.state.Loading = true
	if out := c.render(); !strings.Contains(out, "Loading") {
		t.Fatalf("expected loading indicator:\n%s", out)
	}

	c.state.Loading = false
	c.state.Err = errors.New("boom")
	if out := c.render(); !strings.Contains(out, "boom") {
		t.Fatalf("expected error:\n%s", out)
	}

	c.state.Err = nil
	if out := c.render(); !strings.Contains(out, "(empty)") {
		t.Fatalf("expected empty marker:\n%s", out)
	}
}

func TestColumn_HitTestFollowsScroll(t *testing.T) {
	c := testColumn(10) // 4 visible rows
	if hit, ok := c.hitTest(3, 2); !ok || hit.ID != "a" {
		t.Fatalf("first row hit = %+v %v", hit, ok)
	}
	if _, ok := c.hitTest(3, 1); ok {
		t.Fatal("header rows must not hit")
	}
	if _, ok := c.hitTest(3, 2+4); ok {
		t.Fatal("rows past the column height must not hit")
	}

	// Hovering row g scrolls it into view: g is index 6, so offset is 3.
	c.hovered = "g"
	if off := c.offset(); off != 3 {
		t.Fatalf("offset = %d", off)
	}
	if hit, ok := c.hitTest(3, 2); !ok || hit.ID != "d" {
		t.Fatalf("scrolled first row hit = %+v %v", hit, ok)
	}
	if out := c.render(); !strings.Contains(out, "Item g") || strings.Contains(out, "Item a") {
		t.Fatalf("render should follow scroll:\n%s", out)
	}
}

func TestColumn_ActionBadgesOnlyOnHoveredRow(t *testing.T) {
	setGlyphs(glyphSetASCII)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	c := testColumn(2)
	c.caps = nav.Caps(nav.ActionToggleComplete, nav.ActionDelete)

	spans := c.actionSpans(c.state.Items[0])
	del := spans[nav.ActionDelete]

	// Without hover the badge area is a plain row hit.
	if hit, ok := c.hitTest(del[0], 2); !ok || hit.HasAction {
		t.Fatalf("unhovered hit = %+v", hit)
	}

	c.hovered = "a"
	row := strings.Split(c.render(), "\n")[2]
	if got := xansi.Cut(row, del[0], del[1]); got != "[d]" {
		t.Fatalf("badge at span = %q in row %q", got, row)
	}
	hit, ok := c.hitTest(del[0]+1, 2)
	if !ok || !hit.HasAction || hit.Action != nav.ActionDelete || hit.ID != "a" {
		t.Fatalf("badge hit = %+v", hit)
	}

	msg := c.mouseIntent(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, del[0], 2)
	if got, ok := msg.(actionIntentMsg); !ok || got.Action != nav.ActionDelete || got.ID != "a" {
		t.Fatalf("intent = %#v", msg)
	}
}

func TestColumn_MouseIntents(t *testing.T) {
	c := testColumn(2)

	if got := c.mouseIntent(tea.MouseMsg{Action: tea.MouseActionMotion}, 1, 3); got != (hoverIntentMsg{Level: nav.LevelItem, ID: "b"}) {
		t.Fatalf("motion = %#v", got)
	}
	if got := c.mouseIntent(tea.MouseMsg{Action: tea.MouseActionMotion}, 1, 5); got != (hoverIntentMsg{Level: nav.LevelItem}) {
		t.Fatalf("motion over blank rows should leave, got %#v", got)
	}
	if got := c.mouseIntent(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, 1, 2); got != (selectIntentMsg{Level: nav.LevelItem, ID: "a"}) {
		t.Fatalf("click = %#v", got)
	}
	if got := c.mouseIntent(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonRight}, 1, 2); got != nil {
		t.Fatalf("right click = %#v", got)
	}
}

func TestColumn_KeyboardIntents(t *testing.T) {
	c := testColumn(3)

	if got := c.moveHover(1); got != (hoverIntentMsg{Level: nav.LevelItem, ID: "a"}) {
		t.Fatalf("first down = %#v", got)
	}
	c.state.SelectedID = "b"
	if got := c.moveHover(1); got != (hoverIntentMsg{Level: nav.LevelItem, ID: "c"}) {
		t.Fatalf("down from selection = %#v", got)
	}
	c.hovered = "c"
	if got := c.moveHover(1); got != (hoverIntentMsg{Level: nav.LevelItem, ID: "c"}) {
		t.Fatalf("down at the end = %#v", got)
	}

	if got := c.actionIntent(nav.ActionToggleComplete); got != nil {
		t.Fatalf("action without capability = %#v", got)
	}
	c.caps = nav.Caps(nav.ActionToggleComplete)
	if got := c.actionIntent(nav.ActionToggleComplete); got != (actionIntentMsg{Level: nav.LevelItem, Action: nav.ActionToggleComplete, ID: "c"}) {
		t.Fatalf("action = %#v", got)
	}
}
