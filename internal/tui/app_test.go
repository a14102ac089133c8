package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"boardnav/internal/childcache"
	"boardnav/internal/nav"
	"boardnav/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type testApp struct {
	m       appModel
	backend *fakeBackend
	cache   *childcache.Cache
}

func newTestApp(t *testing.T, location, profile, dataDir string) *testApp {
	t.Helper()
	fb := newFakeBackend()
	tree, err := fb.BoardTree(context.Background(), "b1")
	if err != nil {
		t.Fatal(err)
	}
	cache := childcache.New(fb)
	t.Cleanup(cache.Close)

	m := newAppModel(context.Background(), appDeps{
		Backend:  fb,
		Cache:    cache,
		Board:    tree,
		Location: location,
		Caps:     nav.ProfileCapabilities(profile),
		DataDir:  dataDir,
	})
	ta := &testApp{m: m, backend: fb, cache: cache}
	ta.send(t, tea.WindowSizeMsg{Width: 120, Height: 30})
	return ta
}

func (ta *testApp) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := ta.m.Update(msg)
	m, ok := next.(appModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	ta.m = m
	return cmd
}

func (ta *testApp) key(t *testing.T, k string) tea.Cmd {
	t.Helper()
	switch k {
	case "up":
		return ta.send(t, tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		return ta.send(t, tea.KeyMsg{Type: tea.KeyDown})
	case "left":
		return ta.send(t, tea.KeyMsg{Type: tea.KeyLeft})
	case "right":
		return ta.send(t, tea.KeyMsg{Type: tea.KeyRight})
	case "enter":
		return ta.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return ta.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	}
	return ta.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func (ta *testApp) path() nav.Path { return ta.m.ctrl.Path() }

// waitChildren blocks until the children of itemID are cached.
func (ta *testApp) waitChildren(t *testing.T, itemID string) {
	t.Helper()
	if _, err := ta.cache.GetOrFetch(context.Background(), itemID); err != nil {
		t.Fatalf("fetch %s: %v", itemID, err)
	}
}

func TestApp_SelectToggleCollapsesAndClearsDeeperHover(t *testing.T) {
	ta := newTestApp(t, "", "manage", "")

	ta.send(t, selectIntentMsg{Level: nav.LevelCollection, ID: "c1"})
	if got := ta.path(); got != (nav.Path{CollectionID: "c1"}) {
		t.Fatalf("path = %v", got)
	}
	if ta.m.focus != nav.LevelItem {
		t.Fatalf("focus = %v, want item column", ta.m.focus)
	}

	ta.send(t, hoverIntentMsg{Level: nav.LevelItem, ID: "i2"})
	ta.send(t, hoverIntentMsg{Level: nav.LevelCollection, ID: "c2"})
	ta.send(t, selectIntentMsg{Level: nav.LevelCollection, ID: "c1"})

	if got := ta.path(); !got.IsZero() {
		t.Fatalf("expected collapse to root, got %v", got)
	}
	if got := ta.m.hover.At(nav.LevelItem); got != "" {
		t.Fatalf("item hover should be cleared on collapse, got %q", got)
	}
	if got := ta.m.hover.At(nav.LevelCollection); got != "c2" {
		t.Fatalf("collection hover should survive, got %q", got)
	}
}

func TestApp_RestoreFetchesSelectedChildren(t *testing.T) {
	ta := newTestApp(t, "list=c1&task=i2", "browse", "")
	ta.waitChildren(t, "i2")

	cols := ta.m.columns()
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	if cols[2].state.Loading || len(cols[2].state.Items) != 2 {
		t.Fatalf("sub-item column = %+v", cols[2].state)
	}
	if ta.m.focus != nav.LevelSubItem {
		t.Fatalf("focus = %v, want deepest column", ta.m.focus)
	}
	if n := ta.backend.fetchCount("i2"); n != 1 {
		t.Fatalf("expected one fetch, got %d", n)
	}
}

func TestApp_StaleLocationKeepsValidPrefix(t *testing.T) {
	ta := newTestApp(t, "list=c2&task=12", "browse", "")
	if got := ta.path(); got != (nav.Path{CollectionID: "c2"}) {
		t.Fatalf("path = %v", got)
	}
}

func TestApp_FetchedChildrenPruneRestoredSubItem(t *testing.T) {
	ta := newTestApp(t, "list=c1", "browse", "")
	ta.m.ctrl = nav.NewController(ta.m.tree, nav.Options{
		Policy: nav.LocationPolicy{SubItem: true},
		Loader: ta.cache,
		Hover:  ta.m.hover,
	})

	// Children of i2 are unknown at restore time, so the sub-item id is kept for now.
	ta.m.ctrl.RestoreFromExternalState("list=c1&task=i2&sub=gone")
	if got := ta.path().SubItemID; got != "gone" {
		t.Fatalf("sub-item id = %q, want it kept until children load", got)
	}

	ta.waitChildren(t, "i2")
	ta.send(t, cacheEventMsg(childcache.Event{
		Kind:    childcache.EventFetched,
		Request: ta.m.ctrl.LastRequest(),
	}))
	if got := ta.path(); got != (nav.Path{CollectionID: "c1", ItemID: "i2"}) {
		t.Fatalf("path = %v", got)
	}
}

func TestApp_SpinnerTickPrunesWhenFetchEventIsLost(t *testing.T) {
	ta := newTestApp(t, "list=c1", "browse", "")
	ta.m.ctrl = nav.NewController(ta.m.tree, nav.Options{
		Policy: nav.LocationPolicy{SubItem: true},
		Loader: ta.cache,
		Hover:  ta.m.hover,
	})
	ta.m.ctrl.RestoreFromExternalState("list=c1&task=i2&sub=gone")
	ta.waitChildren(t, "i2")

	// No cacheEventMsg is delivered; the next tick still re-checks the sub-item.
	ta.send(t, spinner.TickMsg{})
	if got := ta.path(); got != (nav.Path{CollectionID: "c1", ItemID: "i2"}) {
		t.Fatalf("path = %v", got)
	}

	ta.m.ctrl.SelectSubItem("s1")
	ta.send(t, spinner.TickMsg{})
	if got := ta.path().SubItemID; got != "s1" {
		t.Fatalf("sub-item id = %q, want s1 kept", got)
	}
}

func TestForwardEvents_NeverBlocks(t *testing.T) {
	ch := make(chan childcache.Event, 1)
	fwd := forwardEvents(ch)
	fwd(childcache.Event{Kind: childcache.EventPending})
	fwd(childcache.Event{Kind: childcache.EventFetched})
	if ev := <-ch; ev.Kind != childcache.EventPending {
		t.Fatalf("event = %v", ev.Kind)
	}
}

func TestApp_MouseHoverLeaveAndClick(t *testing.T) {
	ta := newTestApp(t, "", "browse", "")
	lay := ta.m.layout(1)
	rowY := lay.bodyTop + columnHeaderRows // first collection

	ta.send(t, tea.MouseMsg{X: 2, Y: rowY, Action: tea.MouseActionMotion})
	if got := ta.m.hover.At(nav.LevelCollection); got != "c1" {
		t.Fatalf("hover = %q, want c1", got)
	}
	ta.send(t, tea.MouseMsg{X: 2, Y: rowY + 1, Action: tea.MouseActionMotion})
	if got := ta.m.hover.At(nav.LevelCollection); got != "c2" {
		t.Fatalf("hover = %q, want c2", got)
	}

	// Moving into the preview pane leaves the column.
	ta.send(t, tea.MouseMsg{X: lay.previewX + 5, Y: rowY, Action: tea.MouseActionMotion})
	if got := ta.m.hover.At(nav.LevelCollection); got != "" {
		t.Fatalf("hover should clear when leaving the column, got %q", got)
	}

	ta.send(t, tea.MouseMsg{X: 2, Y: rowY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := ta.path(); got != (nav.Path{CollectionID: "c1"}) {
		t.Fatalf("path = %v", got)
	}
}

func TestApp_KeyboardDrillDownAndBack(t *testing.T) {
	ta := newTestApp(t, "", "browse", "")

	ta.key(t, "down")
	ta.key(t, "enter")
	if got := ta.path(); got != (nav.Path{CollectionID: "c1"}) {
		t.Fatalf("path = %v", got)
	}
	ta.key(t, "down")
	ta.key(t, "down")
	ta.key(t, "enter")
	if got := ta.path(); got != (nav.Path{CollectionID: "c1", ItemID: "i2"}) {
		t.Fatalf("path = %v", got)
	}
	ta.waitChildren(t, "i2")

	// Nothing is open in the sub-item column, so back collapses the item.
	ta.key(t, "esc")
	if got := ta.path(); got != (nav.Path{CollectionID: "c1"}) {
		t.Fatalf("path = %v", got)
	}
	if ta.m.focus != nav.LevelItem {
		t.Fatalf("focus = %v", ta.m.focus)
	}
}

func TestApp_ToggleSubItemInvalidatesAndRefetches(t *testing.T) {
	ta := newTestApp(t, "list=c1&task=i2", "browse", "")
	ta.waitChildren(t, "i2")

	cmd := ta.send(t, actionIntentMsg{Level: nav.LevelSubItem, Action: nav.ActionToggleComplete, ID: "s1"})
	if cmd == nil {
		t.Fatal("expected an action command")
	}
	done, ok := cmd().(actionDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("action result = %#v", done)
	}
	ta.send(t, done)

	subs, err := ta.cache.GetOrFetch(context.Background(), "i2")
	if err != nil {
		t.Fatal(err)
	}
	if !subs[0].Completed {
		t.Fatalf("expected refetched list to show the toggle, got %+v", subs)
	}
	if n := ta.backend.fetchCount("i2"); n != 2 {
		t.Fatalf("expected a refetch after invalidation, got %d fetches", n)
	}
	if !strings.Contains(ta.m.flash.text, "Marked done") {
		t.Fatalf("flash = %q", ta.m.flash.text)
	}
}

func TestApp_ProfileGatesActions(t *testing.T) {
	ta := newTestApp(t, "list=c1", "browse", "")

	if cmd := ta.send(t, actionIntentMsg{Level: nav.LevelItem, Action: nav.ActionDelete, ID: "i1"}); cmd != nil {
		t.Fatal("browse profile must not delete items")
	}
	if cmd := ta.send(t, actionIntentMsg{Level: nav.LevelCollection, Action: nav.ActionToggleComplete, ID: "c1"}); cmd != nil {
		t.Fatal("browse profile offers no collection actions")
	}
	if calls := ta.backend.callLog(); len(calls) != 0 {
		t.Fatalf("unexpected backend calls %v", calls)
	}
}

func TestApp_ActionFailureIsNotified(t *testing.T) {
	ta := newTestApp(t, "list=c1", "manage", "")

	cmd := ta.send(t, actionIntentMsg{Level: nav.LevelItem, Action: nav.ActionToggleComplete, ID: "i1"})
	ta.send(t, cmd())
	if ta.m.flash.kind != noticeError || !strings.Contains(ta.m.flash.text, "failed") {
		t.Fatalf("flash = %+v", ta.m.flash)
	}
}

func TestApp_RenameThroughPrompt(t *testing.T) {
	ta := newTestApp(t, "list=c1", "manage", "")

	ta.send(t, actionIntentMsg{Level: nav.LevelItem, Action: nav.ActionEdit, ID: "i1"})
	if ta.m.rename == nil {
		t.Fatal("expected rename prompt")
	}
	if got := ta.m.rename.input.Value(); got != "Design" {
		t.Fatalf("prompt value = %q", got)
	}
	ta.key(t, "!")
	cmd := ta.key(t, "enter")
	if ta.m.rename != nil {
		t.Fatal("prompt should close on enter")
	}
	ta.send(t, cmd())

	tree, _ := ta.backend.BoardTree(context.Background(), "b1")
	if got := tree.Collections[0].Items[0].Name; got != "Design!" {
		t.Fatalf("renamed to %q", got)
	}
}

func TestApp_CopyLocation(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	ta := newTestApp(t, "list=c1&task=i1", "browse", "")
	ta.key(t, "y")
	if copied != "list=c1&task=i1" {
		t.Fatalf("copied %q", copied)
	}

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	ta.key(t, "y")
	if ta.m.flash.kind != noticeError {
		t.Fatalf("expected error notice, got %+v", ta.m.flash)
	}
}

func TestApp_PersistsLastLocation(t *testing.T) {
	dir := t.TempDir()
	ta := newTestApp(t, "", "browse", dir)

	ta.send(t, selectIntentMsg{Level: nav.LevelCollection, ID: "c2"})
	ta.send(t, selectIntentMsg{Level: nav.LevelItem, ID: "i3"})

	st, err := store.LoadNavState(dir)
	if err != nil {
		t.Fatal(err)
	}
	if st.LastBoardID != "b1" || st.Location("b1") != "list=c2&task=i3" {
		t.Fatalf("nav state = %+v", st)
	}
}

func TestApp_ViewShowsColumnsAndPreview(t *testing.T) {
	ta := newTestApp(t, "list=c1&task=i2", "browse", "")
	ta.waitChildren(t, "i2")
	ta.send(t, hoverIntentMsg{Level: nav.LevelSubItem, ID: "s2"})

	out := ta.m.View()
	for _, want := range []string{"Demo", "?list=c1&task=i2", "Sprint", "Build", "Compile", "subitem of Build"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestResolveBoard(t *testing.T) {
	fb := newFakeBackend()
	ctx := context.Background()

	bd, err := ResolveBoard(ctx, fb, "", "")
	if err != nil || bd.ID != "b1" {
		t.Fatalf("default board = %+v, %v", bd, err)
	}
	bd, err = ResolveBoard(ctx, fb, "demo", "")
	if err != nil || bd.ID != "b1" {
		t.Fatalf("by name = %+v, %v", bd, err)
	}
	if _, err := ResolveBoard(ctx, fb, "nope", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
