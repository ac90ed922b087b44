package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/devtoc/infograph/pkg/cache"
	"github.com/devtoc/infograph/pkg/docstore"
	"github.com/devtoc/infograph/pkg/history"
	"github.com/devtoc/infograph/pkg/observability"
	"github.com/devtoc/infograph/pkg/records"
	"github.com/devtoc/infograph/pkg/storage"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	repo, err := storage.NewFile(filepath.Join(t.TempDir(), "docs"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	recs, err := records.ImportFile("../docstore/testdata/legacy.json")
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if err := repo.Save(context.Background(), "report", recs); err != nil {
		t.Fatalf("Save: %v", err)
	}
	logger := log.New(io.Discard)
	srv := NewServer(docstore.NewLoader(repo, nil, nil, nil, logger), logger, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func decodeInto(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func TestHealthAndList(t *testing.T) {
	ts := newTestServer(t)

	if code, _ := do(t, ts, http.MethodGet, "/healthz", ""); code != http.StatusOK {
		t.Errorf("healthz = %d", code)
	}

	code, body := do(t, ts, http.MethodGet, "/documents", "")
	if code != http.StatusOK {
		t.Fatalf("list = %d %s", code, body)
	}
	var list struct{ Documents []string }
	decodeInto(t, body, &list)
	if len(list.Documents) != 1 || list.Documents[0] != "report" {
		t.Errorf("documents = %v", list.Documents)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		method, path, body string
		status             int
		code               string
	}{
		{http.MethodGet, "/documents/missing", "", http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{http.MethodGet, "/documents/report/pages/nope/reading-order", "", http.StatusNotFound, "PAGE_NOT_FOUND"},
		{http.MethodPost, "/documents/report/commands", `{"type":"explode"}`, http.StatusBadRequest, "INVALID_COMMAND"},
		{http.MethodPost, "/documents/report/undo", "", http.StatusNotImplemented, "UNSUPPORTED"},
		{http.MethodGet, "/documents/report/pages/cover/diagram?format=gif", "", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			code, body := do(t, ts, tt.method, tt.path, tt.body)
			if code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", code, tt.status, body)
			}
			var e errorBody
			decodeInto(t, body, &e)
			if e.Error != tt.code {
				t.Errorf("error = %q, want %q", e.Error, tt.code)
			}
		})
	}
}

func TestCommandsUndoSave(t *testing.T) {
	ts := newTestServer(t, WithHistory(func() history.History { return history.NewMemory(10) }))

	code, body := do(t, ts, http.MethodPost, "/documents/report/commands",
		`[{"type":"ungroupWidget","payload":{"pageId":"cover","groupId":"group-stats"}}]`)
	if code != http.StatusOK {
		t.Fatalf("commands = %d %s", code, body)
	}
	var res struct{ Results []Result }
	decodeInto(t, body, &res)
	if len(res.Results) != 1 || !res.Results[0].Changed || res.Results[0].Type != "ungroupWidget" {
		t.Fatalf("results = %+v", res.Results)
	}

	code, body = do(t, ts, http.MethodGet, "/documents/report/check", "")
	var rep CheckReport
	decodeInto(t, body, &rep)
	if code != http.StatusOK || !rep.OK {
		t.Errorf("check = %d %+v", code, rep)
	}

	code, body = do(t, ts, http.MethodPost, "/documents/report/undo", "")
	var moved struct{ Changed bool }
	decodeInto(t, body, &moved)
	if code != http.StatusOK || !moved.Changed {
		t.Fatalf("undo = %d %s", code, body)
	}
	_, body = do(t, ts, http.MethodGet, "/documents/report", "")
	if !strings.Contains(string(body), `"group-stats"`) {
		t.Error("undo did not restore the group")
	}

	if code, body := do(t, ts, http.MethodPost, "/documents/report/save", ""); code != http.StatusNoContent {
		t.Errorf("save = %d %s", code, body)
	}
}

func TestReadingOrderAndDiagram(t *testing.T) {
	ts := newTestServer(t)

	code, body := do(t, ts, http.MethodGet, "/documents/report/pages/cover/reading-order", "")
	if code != http.StatusOK {
		t.Fatalf("reading-order = %d %s", code, body)
	}
	var ro struct{ Order []string }
	decodeInto(t, body, &ro)
	want := "text-title shape-bar chart-sales responsiveText-kpi"
	if got := strings.Join(ro.Order, " "); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}

	code, body = do(t, ts, http.MethodGet, "/documents/report/pages/cover/diagram?format=dot", "")
	if code != http.StatusOK || !strings.HasPrefix(string(body), `digraph "cover"`) {
		t.Errorf("diagram = %d %s", code, body)
	}
}

type cacheEvents struct {
	mu     sync.Mutex
	events []string
	size   int
}

func (c *cacheEvents) add(event, keyType string) {
	if keyType != cache.KeyTypeRender {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *cacheEvents) OnCacheHit(_ context.Context, keyType string)  { c.add("hit", keyType) }
func (c *cacheEvents) OnCacheMiss(_ context.Context, keyType string) { c.add("miss", keyType) }
func (c *cacheEvents) OnCacheSet(_ context.Context, keyType string, size int) {
	c.mu.Lock()
	c.size = size
	c.mu.Unlock()
	c.add("set", keyType)
}

func TestDiagramCached(t *testing.T) {
	events := &cacheEvents{}
	observability.SetCacheHooks(events)
	t.Cleanup(observability.Reset)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	ts := newTestServer(t, WithRenderCache(fc, nil))

	const path = "/documents/report/pages/cover/diagram?format=dot"
	code, first := do(t, ts, http.MethodGet, path, "")
	if code != http.StatusOK {
		t.Fatalf("diagram = %d %s", code, first)
	}
	code, second := do(t, ts, http.MethodGet, path, "")
	if code != http.StatusOK || string(second) != string(first) {
		t.Fatalf("cached diagram = %d %s", code, second)
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	want := []string{"miss", "set", "hit"}
	if strings.Join(events.events, " ") != strings.Join(want, " ") {
		t.Errorf("cache events = %v, want %v", events.events, want)
	}
	if events.size != len(first) {
		t.Errorf("cached size = %d, want %d", events.size, len(first))
	}
}

func TestSelectionNavigation(t *testing.T) {
	ts := newTestServer(t)

	code, body := do(t, ts, http.MethodPut, "/documents/report/selection", `{"ids":["text-title","ghost"]}`)
	if code != http.StatusOK {
		t.Fatalf("selection = %d %s", code, body)
	}
	var sel Selection
	decodeInto(t, body, &sel)
	if len(sel.IDs) != 1 || sel.IDs[0] != "text-title" {
		t.Errorf("selection = %v, want [text-title]", sel.IDs)
	}

	code, body = do(t, ts, http.MethodPost, "/documents/report/pages/cover/next", "")
	var step struct {
		Moved bool
		ID    string
	}
	decodeInto(t, body, &step)
	if code != http.StatusOK || !step.Moved || step.ID != "group-stats" {
		t.Errorf("next = %d %s", code, body)
	}
}
