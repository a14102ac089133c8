package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"boardnav/internal/config"
	"boardnav/internal/model"
	"boardnav/internal/store"
	"boardnav/internal/web"
)

type cliEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Hints []string        `json:"_hints"`
}

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// mustRun runs boardnav against dir with logging off and decodes the JSON envelope into out.
func mustRun(t *testing.T, dir string, out any, args ...string) cliEnvelope {
	t.Helper()
	full := append([]string{"--data-dir", dir, "--log-level", "disabled"}, args...)
	stdout, stderr, err := runCLI(t, full)
	if err != nil {
		t.Fatalf("command failed: boardnav %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", full, err, stderr, stdout)
	}
	var env cliEnvelope
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s", err, stdout)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("unmarshal data: %v\ndata:\n%s", err, env.Data)
		}
	}
	return env
}

func mustFail(t *testing.T, dir string, args ...string) string {
	t.Helper()
	full := append([]string{"--data-dir", dir, "--log-level", "disabled"}, args...)
	stdout, stderr, err := runCLI(t, full)
	if err == nil {
		t.Fatalf("expected boardnav %v to fail; stdout:\n%s", full, stdout)
	}
	return string(stderr)
}

func seedBoard(t *testing.T) (string, model.Board) {
	t.Helper()
	dir := t.TempDir()
	var b model.Board
	env := mustRun(t, dir, &b, "seed")
	if b.ID == "" || b.Name != "Demo" {
		t.Fatalf("unexpected seeded board: %+v", b)
	}
	if len(env.Hints) == 0 || env.Hints[0] != "boardnav --board "+b.ID {
		t.Fatalf("expected open hint, got %v", env.Hints)
	}
	return dir, b
}

func findCollection(t *testing.T, b model.Board, name string) model.Collection {
	t.Helper()
	for _, c := range b.Collections {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("collection %q not found", name)
	return model.Collection{}
}

func findItem(t *testing.T, b model.Board, name string) model.Item {
	t.Helper()
	for _, c := range b.Collections {
		for _, it := range c.Items {
			if it.Name == name {
				return it
			}
		}
	}
	t.Fatalf("item %q not found", name)
	return model.Item{}
}

func TestBoardsTreeAndSubItems(t *testing.T) {
	dir, seeded := seedBoard(t)

	var boards []model.Board
	mustRun(t, dir, &boards, "boards")
	if len(boards) != 1 || boards[0].ID != seeded.ID {
		t.Fatalf("boards: %+v", boards)
	}

	var tree model.Board
	mustRun(t, dir, &tree, "tree", "demo")
	build := findItem(t, tree, "Build")
	if build.SubItems != nil {
		t.Fatalf("tree without --embed must not embed sub-items: %+v", build.SubItems)
	}
	if build.SubItemCount != 2 {
		t.Fatalf("expected Build to count 2 sub-items, got %d", build.SubItemCount)
	}

	var embedded model.Board
	mustRun(t, dir, &embedded, "tree", "--embed", seeded.ID)
	if got := findItem(t, embedded, "Build").SubItems; len(got) != 2 {
		t.Fatalf("expected 2 embedded sub-items, got %+v", got)
	}
	if got := findItem(t, embedded, "Design").SubItems; got == nil || len(got) != 0 {
		t.Fatalf("expected an empty embedded list for Design, got %#v", got)
	}

	var subs []model.SubItem
	mustRun(t, dir, &subs, "subitems", build.ID)
	if len(subs) != 2 || subs[0].Name != "Compile" || subs[1].Name != "Test" {
		t.Fatalf("subitems: %+v", subs)
	}
}

func TestBoards_EmptyStoreHintsSeed(t *testing.T) {
	env := mustRun(t, t.TempDir(), nil, "boards")
	if string(env.Data) != "[]" {
		t.Fatalf("expected empty list, got %s", env.Data)
	}
	if !reflect.DeepEqual(env.Hints, []string{"boardnav seed"}) {
		t.Fatalf("hints: %v", env.Hints)
	}
}

func TestResolve_DropsStaleIDs(t *testing.T) {
	dir, b := seedBoard(t)
	sprint := findCollection(t, b, "Sprint")

	var res web.ResolveResponse
	env := mustRun(t, dir, &res, "resolve", "list="+sprint.ID+"&task=nope")

	if res.Path.CollectionID != sprint.ID || res.Path.ItemID != "" {
		t.Fatalf("path: %+v", res.Path)
	}
	if res.Location != "list="+sprint.ID {
		t.Fatalf("location: %q", res.Location)
	}
	if res.Preview.Kind != "collection" || res.Preview.Source != "selection" {
		t.Fatalf("preview: %+v", res.Preview)
	}
	if len(res.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(res.Columns))
	}
	if len(env.Hints) != 1 || !strings.Contains(env.Hints[0], "stale ids dropped") {
		t.Fatalf("expected stale-id hint, got %v", env.Hints)
	}
}

func TestResolve_SelectedItemLoadsChildren(t *testing.T) {
	dir, b := seedBoard(t)
	sprint := findCollection(t, b, "Sprint")
	build := findItem(t, b, "Build")

	var res web.ResolveResponse
	env := mustRun(t, dir, &res, "resolve", "--board", "Demo", "list="+sprint.ID+"&task="+build.ID)

	if len(env.Hints) != 0 {
		t.Fatalf("unexpected hints: %v", env.Hints)
	}
	if res.Preview.Kind != "item" || res.Preview.ID != build.ID {
		t.Fatalf("preview: %+v", res.Preview)
	}
	if !res.Preview.ChildrenKnown || len(res.Preview.SubItems) != 2 {
		t.Fatalf("expected loaded children, got %+v", res.Preview)
	}
	if len(res.Columns) != 3 || res.Columns[2].Level != "subitem" || len(res.Columns[2].Items) != 2 {
		t.Fatalf("columns: %+v", res.Columns)
	}
}

func TestResolve_HoverDoesNotLoadChildren(t *testing.T) {
	dir, b := seedBoard(t)
	sprint := findCollection(t, b, "Sprint")
	release := findItem(t, b, "Release")

	var res web.ResolveResponse
	mustRun(t, dir, &res, "resolve", "--hover", "list="+sprint.ID+"&task="+release.ID, "list="+sprint.ID)

	if res.Preview.Kind != "item" || res.Preview.Source != "hover" || res.Preview.ID != release.ID {
		t.Fatalf("preview: %+v", res.Preview)
	}
	if res.Preview.ChildrenKnown {
		t.Fatalf("hovering must not load children: %+v", res.Preview)
	}
	if res.Path.ItemID != "" {
		t.Fatalf("hover must not select: %+v", res.Path)
	}
}

func TestActions_ToggleRenameDelete(t *testing.T) {
	dir, b := seedBoard(t)
	build := findItem(t, b, "Build")

	var subs []model.SubItem
	mustRun(t, dir, &subs, "subitems", build.ID)
	compile := subs[0]

	var ref model.Ref
	env := mustRun(t, dir, &ref, "toggle", "subitem", compile.ID)
	if ref.Kind != model.KindSubItem || ref.ParentID != build.ID || !ref.Completed {
		t.Fatalf("toggle ref: %+v", ref)
	}
	if !reflect.DeepEqual(env.Hints, []string{"boardnav subitems " + build.ID}) {
		t.Fatalf("hints: %v", env.Hints)
	}

	mustRun(t, dir, &ref, "rename", "item", build.ID, "Build it")
	if ref.Kind != model.KindItem || ref.ID != build.ID {
		t.Fatalf("rename ref: %+v", ref)
	}

	mustRun(t, dir, &ref, "delete", "sub", compile.ID)
	mustRun(t, dir, &subs, "subitems", build.ID)
	if len(subs) != 1 || subs[0].Name != "Test" {
		t.Fatalf("after delete: %+v", subs)
	}

	var tree model.Board
	mustRun(t, dir, &tree, "tree")
	if findItem(t, tree, "Build it").ID != build.ID {
		t.Fatalf("rename not visible in tree")
	}
}

func TestErrors_NotFoundAndBadInput(t *testing.T) {
	dir, _ := seedBoard(t)

	if got := mustFail(t, dir, "subitems", "nope"); !strings.Contains(got, "item not found: nope") {
		t.Fatalf("stderr: %q", got)
	}
	if got := mustFail(t, dir, "tree", "nope"); !strings.Contains(got, "board not found: nope") {
		t.Fatalf("stderr: %q", got)
	}
	if got := mustFail(t, dir, "toggle", "widget", "x"); !strings.Contains(got, `unknown kind "widget"`) {
		t.Fatalf("stderr: %q", got)
	}
	if got := mustFail(t, dir, "rename", "item", "x", "  "); !strings.Contains(got, "name is required") {
		t.Fatalf("stderr: %q", got)
	}
	if got := mustFail(t, dir, "--source", "ftp", "boards"); !strings.Contains(got, "invalid flags") {
		t.Fatalf("stderr: %q", got)
	}
	if got := mustFail(t, dir, "resolve", "--server-side", "list=x"); !strings.Contains(got, "needs --source remote") {
		t.Fatalf("stderr: %q", got)
	}
}

func TestRoot_NoBoardsFailsBeforeTUI(t *testing.T) {
	got := mustFail(t, t.TempDir())
	if !strings.Contains(got, "no boards yet") {
		t.Fatalf("stderr: %q", got)
	}
}

func TestFormat_YAML(t *testing.T) {
	dir, _ := seedBoard(t)
	stdout, stderr, err := runCLI(t, []string{"--data-dir", dir, "--log-level", "disabled", "--format", "yaml", "boards"})
	if err != nil {
		t.Fatalf("boards --format yaml: %v\n%s", err, stderr)
	}
	out := string(stdout)
	if !strings.HasPrefix(out, "data:\n") || !strings.Contains(out, "name: Demo") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
}

// startRemote serves the store in dir through the real web handler.
func startRemote(t *testing.T, dir string, readOnly bool) string {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	srv, err := web.NewServer(web.ServerConfig{Addr: "127.0.0.1:0", ReadOnly: readOnly, Profile: config.ProfileManage}, st)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestRemoteSource(t *testing.T) {
	dir, b := seedBoard(t)
	url := startRemote(t, dir, false)
	sprint := findCollection(t, b, "Sprint")
	build := findItem(t, b, "Build")

	// A separate data dir proves nothing is read locally.
	client := t.TempDir()

	var boards []model.Board
	mustRun(t, client, &boards, "--remote", url, "boards")
	if len(boards) != 1 || boards[0].ID != b.ID {
		t.Fatalf("remote boards: %+v", boards)
	}

	var subs []model.SubItem
	mustRun(t, client, &subs, "--remote", url, "subitems", build.ID)
	if len(subs) != 2 {
		t.Fatalf("remote subitems: %+v", subs)
	}

	var ref model.Ref
	mustRun(t, client, &ref, "--remote", url, "toggle", "subitem", subs[1].ID)
	if !ref.Completed || ref.ParentID != build.ID {
		t.Fatalf("remote toggle: %+v", ref)
	}

	var res web.ResolveResponse
	mustRun(t, client, &res, "--remote", url, "resolve", "list="+sprint.ID+"&task="+build.ID)
	if res.Preview.ID != build.ID || len(res.Preview.SubItems) != 2 {
		t.Fatalf("client-side resolve: %+v", res.Preview)
	}

	var server struct {
		Location string `json:"location"`
		Preview  struct {
			Kind string `json:"kind"`
			ID   string `json:"id"`
		} `json:"preview"`
	}
	mustRun(t, client, &server, "--remote", url, "resolve", "--server-side", "list="+sprint.ID+"&task=gone")
	if server.Location != "list="+sprint.ID || server.Preview.Kind != "collection" {
		t.Fatalf("server-side resolve: %+v", server)
	}

	if got := mustFail(t, client, "--remote", url, "tree", "nope"); !strings.Contains(got, "board not found: nope") {
		t.Fatalf("stderr: %q", got)
	}
	if got := mustFail(t, client, "--remote", url, "subitems", "nope"); !strings.Contains(got, "item not found: nope") {
		t.Fatalf("stderr: %q", got)
	}
}

func TestRemoteSource_ReadOnlyServerRejectsActions(t *testing.T) {
	dir, b := seedBoard(t)
	url := startRemote(t, dir, true)
	build := findItem(t, b, "Build")

	got := mustFail(t, t.TempDir(), "--remote", url, "toggle", "item", build.ID)
	if !strings.Contains(got, "403") && !strings.Contains(strings.ToLower(got), "read-only") {
		t.Fatalf("stderr: %q", got)
	}
}

func TestLocalOnlyCommandsRejectRemote(t *testing.T) {
	for _, args := range [][]string{{"seed"}, {"serve"}} {
		full := append([]string{"--remote", "http://127.0.0.1:1"}, args...)
		if got := mustFail(t, t.TempDir(), full...); !strings.Contains(got, "needs the local store") {
			t.Fatalf("%v: stderr %q", args, got)
		}
	}
}

func TestSessionArgs(t *testing.T) {
	app := &App{ConfigPath: "/etc/boardnav.yaml"}
	cfg := config.DefaultConfig()
	cfg.DataDir = "/data"
	app.cfg = &cfg

	got := app.sessionArgs(" Demo ")
	want := []string{"--data-dir", "/data", "--config", "/etc/boardnav.yaml", "--board", "Demo"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("local: got %v want %v", got, want)
	}

	cfg.Source = config.SourceRemote
	cfg.Remote.BaseURL = "http://127.0.0.1:3340"
	got = app.sessionArgs("")
	want = []string{"--data-dir", "/data", "--config", "/etc/boardnav.yaml", "--remote", "http://127.0.0.1:3340"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("remote: got %v want %v", got, want)
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]model.Kind{
		"collection": model.KindCollection,
		"list":       model.KindCollection,
		"Item":       model.KindItem,
		"task":       model.KindItem,
		"subitem":    model.KindSubItem,
		" sub ":      model.KindSubItem,
	}
	for in, want := range cases {
		got, err := parseKind(in)
		if err != nil || got != want {
			t.Fatalf("parseKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := parseKind("widget"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestPublish(t *testing.T) {
	dir, b := seedBoard(t)
	out := t.TempDir()

	var res struct {
		Written []string `json:"written"`
	}
	mustRun(t, dir, &res, "publish", "--to", out)
	if len(res.Written) < 2 || !strings.HasSuffix(res.Written[0], "index.md") {
		t.Fatalf("written: %v", res.Written)
	}
	build := findItem(t, b, "Build")
	found := false
	for _, p := range res.Written {
		if strings.HasSuffix(p, build.ID+".md") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a page for Build in %v", res.Written)
	}

	if got := mustFail(t, dir, "publish", "--to", out); !strings.Contains(got, "file exists") {
		t.Fatalf("stderr: %q", got)
	}
}
