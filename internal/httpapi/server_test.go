package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blogd/internal/blog"
	"blogd/internal/eventbus"
	"blogd/internal/store"
	"blogd/pkg/types"
)

func newTestServer(t *testing.T) (http.Handler, *blog.Service) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	svc := blog.New(st, eventbus.NewMemory())
	return NewMux(svc), svc
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Buffer
	if body != "" {
		rdr = bytes.NewBufferString(body)
	} else {
		rdr = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateBlog_CreatedWithAlertAndLocation(t *testing.T) {
	h, _ := newTestServer(t)
	w := doJSON(t, h, http.MethodPost, "/api/blogs", `{"name":"Gophers","handle":"go"}`, map[string]string{UserHeader: "alice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var b types.Blog
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("json: %v", err)
	}
	if b.ID == nil || b.UserLogin != "alice" {
		t.Fatalf("unexpected blog: %+v", b)
	}
	if loc := w.Header().Get("Location"); loc != "/api/blogs/"+idString(b.ID) {
		t.Fatalf("location=%q", loc)
	}
	if a := w.Header().Get("X-blogApp-alert"); a != "blogApp.blog.created" {
		t.Fatalf("alert=%q", a)
	}
	if p := w.Header().Get("X-blogApp-params"); p != idString(b.ID) {
		t.Fatalf("params=%q", p)
	}
}

func TestCreateWithID_BadRequestWithFailureAlert(t *testing.T) {
	h, _ := newTestServer(t)
	w := doJSON(t, h, http.MethodPost, "/api/entries", `{"id":5,"title":"t","content":"c","date":"2024-01-01T00:00:00Z"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if e := w.Header().Get("X-blogApp-error"); e != "error.idexists" {
		t.Fatalf("error header=%q", e)
	}
	if p := w.Header().Get("X-blogApp-params"); p != "entry" {
		t.Fatalf("params=%q", p)
	}
	var body types.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Key != "idexists" || body.Code != http.StatusBadRequest {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestUpdate_WithoutIDCreates(t *testing.T) {
	h, _ := newTestServer(t)
	w := doJSON(t, h, http.MethodPut, "/api/tags", `{"name":"golang"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var tag types.Tag
	_ = json.Unmarshal(w.Body.Bytes(), &tag)

	w = doJSON(t, h, http.MethodPut, "/api/tags", `{"id":`+idString(tag.ID)+`,"name":"go"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if a := w.Header().Get("X-blogApp-alert"); a != "blogApp.tag.updated" {
		t.Fatalf("alert=%q", a)
	}
}

func TestGet_NotFoundAndBadID(t *testing.T) {
	h, _ := newTestServer(t)
	if w := doJSON(t, h, http.MethodGet, "/api/entries/42", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/entries/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestDelete_AlertAndSecondDelete404(t *testing.T) {
	h, _ := newTestServer(t)
	w := doJSON(t, h, http.MethodPost, "/api/tags", `{"name":"gone"}`, nil)
	var tag types.Tag
	_ = json.Unmarshal(w.Body.Bytes(), &tag)

	w = doJSON(t, h, http.MethodDelete, "/api/tags/"+idString(tag.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if a := w.Header().Get("X-blogApp-alert"); a != "blogApp.tag.deleted" {
		t.Fatalf("alert=%q", a)
	}
	if w := doJSON(t, h, http.MethodDelete, "/api/tags/"+idString(tag.ID), "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", w.Code)
	}
}

func TestListEntries_PaginationHeadersAndScope(t *testing.T) {
	h, svc := newTestServer(t)
	ctx := blog.WithUser(context.Background(), "alice")
	b, err := svc.CreateBlog(ctx, types.Blog{Name: "alice", Handle: "al"})
	if err != nil {
		t.Fatalf("blog: %v", err)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := svc.CreateEntry(ctx, types.Entry{Title: "e", Content: "c", Date: base.Add(time.Duration(i) * time.Minute), Blog: &types.Blog{ID: b.ID}}); err != nil {
			t.Fatalf("entry: %v", err)
		}
	}

	w := doJSON(t, h, http.MethodGet, "/api/entries?page=1&size=2", "", map[string]string{UserHeader: "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if tc := w.Header().Get("X-Total-Count"); tc != "5" {
		t.Fatalf("total=%q", tc)
	}
	link := w.Header().Get("Link")
	for _, want := range []string{`page=2&size=2>; rel="next"`, `page=0&size=2>; rel="prev"`, `page=2&size=2>; rel="last"`, `rel="first"`} {
		if !strings.Contains(link, want) {
			t.Fatalf("link %q missing %q", link, want)
		}
	}
	var items []types.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &items)
	if len(items) != 2 {
		t.Fatalf("items=%d", len(items))
	}

	w = doJSON(t, h, http.MethodGet, "/api/entries", "", map[string]string{UserHeader: "bob"})
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("bob should see no entries, got %s", w.Body.String())
	}
}

func TestList_InvalidPage(t *testing.T) {
	h, _ := newTestServer(t)
	if w := doJSON(t, h, http.MethodGet, "/api/blogs?page=-1", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/blogs?size=zero", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSearchEntries(t *testing.T) {
	h, svc := newTestServer(t)
	ctx := context.Background()
	for _, title := range []string{"Go channels", "Rust lifetimes"} {
		if _, err := svc.CreateEntry(ctx, types.Entry{Title: title, Content: "c", Date: time.Now()}); err != nil {
			t.Fatalf("entry: %v", err)
		}
	}
	w := doJSON(t, h, http.MethodGet, "/api/_search/entries?query=channels", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var items []types.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &items)
	if len(items) != 1 || items[0].Title != "Go channels" {
		t.Fatalf("unexpected results: %+v", items)
	}
	if !strings.Contains(w.Header().Get("Link"), "query=channels") {
		t.Fatalf("link should carry the query: %q", w.Header().Get("Link"))
	}
}

func TestUnsupportedMediaType(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/blogs", bytes.NewBufferString(`{"name":"abc","handle":"ab"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestBadJSONAndBodyTooLarge(t *testing.T) {
	h, _ := newTestServer(t)
	if w := doJSON(t, h, http.MethodPost, "/api/blogs", "not-json", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	SetMaxBodyBytes(64)
	defer SetMaxBodyBytes(0)
	big := `{"name":"` + strings.Repeat("a", 200) + `","handle":"ab"}`
	if w := doJSON(t, h, http.MethodPost, "/api/blogs", big, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", w.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	h, _ := newTestServer(t)
	if w := doJSON(t, h, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz=%d", w.Code)
	}
	w := doJSON(t, h, http.MethodGet, "/readyz", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ready" {
		t.Fatalf("readyz=%d %q", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff header=%q", got)
	}
}

func TestCORS_WhenEnabled(t *testing.T) {
	SetCORSOptions(true, []string{"http://ui.local"}, []string{"GET", "POST"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/blogs", nil)
	req.Header.Set("Origin", "http://ui.local")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://ui.local" {
		t.Fatalf("allow-origin=%q", got)
	}
}
