package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogd/internal/eventbus"
	"blogd/pkg/types"
)

type sseEvent struct {
	id, name, data string
}

// readEvents parses SSE frames from the response body onto a channel.
func readEvents(t *testing.T, resp *http.Response) <-chan sseEvent {
	t.Helper()
	ch := make(chan sseEvent, 16)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 64*1024), 1<<20)
		var cur sseEvent
		for sc.Scan() {
			line := sc.Text()
			switch {
			case line == "":
				if cur.name != "" {
					ch <- cur
				}
				cur = sseEvent{}
			case strings.HasPrefix(line, "id: "):
				cur.id = strings.TrimPrefix(line, "id: ")
			case strings.HasPrefix(line, "event: "):
				cur.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				cur.data = strings.TrimPrefix(line, "data: ")
			}
		}
	}()
	return ch
}

func nextEvent(t *testing.T, ch <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("stream closed")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return sseEvent{}
}

func openWatch(t *testing.T, ctx context.Context, url string) *http.Response {
	t.Helper()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("watch status=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type=%q", ct)
	}
	return resp
}

// waitSubscribers blocks until the watch handler has registered on the bus.
func waitSubscribers(t *testing.T, bus *eventbus.Memory, name string, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for bus.Subscribers(name) != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers for %s = %d, want %d", name, bus.Subscribers(name), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatchEntry_StreamsUpdatesAndReleasesOnDisconnect(t *testing.T) {
	h, svc := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	bus := svc.Bus().(*eventbus.Memory)

	ctx := context.Background()
	e, err := svc.CreateEntry(ctx, types.Entry{Title: "v1", Content: "c", Date: time.Now(), Attachment: "QUJD", AttachmentContentType: "text/plain"})
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	other, err := svc.CreateEntry(ctx, types.Entry{Title: "other", Content: "c", Date: time.Now()})
	if err != nil {
		t.Fatalf("entry: %v", err)
	}

	wctx, cancel := context.WithCancel(ctx)
	resp := openWatch(t, wctx, srv.URL+"/api/entries/"+idString(e.ID)+"/watch")
	defer resp.Body.Close()
	events := readEvents(t, resp)

	first := nextEvent(t, events)
	if first.name != "entryUpdate" || first.id == "" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	var got map[string]any
	_ = json.Unmarshal([]byte(first.data), &got)
	if got["title"] != "v1" || got["attachmentSize"] != "3 bytes" || got["attachmentUri"] != "data:text/plain;base64,QUJD" {
		t.Fatalf("unexpected payload: %s", first.data)
	}
	waitSubscribers(t, bus, eventbus.EntryUpdate, 1)

	// Updates to other entries are not streamed.
	other.Title = "other v2"
	if _, err := svc.UpdateEntry(ctx, *other); err != nil {
		t.Fatalf("update other: %v", err)
	}
	e.Title = "v2"
	if _, err := svc.UpdateEntry(ctx, *e); err != nil {
		t.Fatalf("update: %v", err)
	}
	ev := nextEvent(t, events)
	if !strings.Contains(ev.data, `"title":"v2"`) {
		t.Fatalf("expected v2, got %s", ev.data)
	}

	cancel()
	waitSubscribers(t, bus, eventbus.EntryUpdate, 0)
	waitSubscribers(t, bus, eventbus.EntryDelete, 0)
}

func TestWatchBlog_EndsOnDelete(t *testing.T) {
	h, svc := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	b, err := svc.CreateBlog(context.Background(), types.Blog{Name: "doomed", Handle: "dd"})
	if err != nil {
		t.Fatalf("blog: %v", err)
	}
	resp := openWatch(t, context.Background(), srv.URL+"/api/blogs/"+idString(b.ID)+"/watch")
	defer resp.Body.Close()
	events := readEvents(t, resp)
	if ev := nextEvent(t, events); ev.name != "blogUpdate" {
		t.Fatalf("unexpected first event: %+v", ev)
	}
	waitSubscribers(t, svc.Bus().(*eventbus.Memory), eventbus.BlogDelete, 1)

	if err := svc.DeleteBlog(context.Background(), *b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ev := nextEvent(t, events); ev.name != "blogDelete" {
		t.Fatalf("expected delete event, got %+v", ev)
	}
	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("stream should end after delete")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not close")
	}
}

func TestWatchEntry_EndsWhenBlogDeleted(t *testing.T) {
	h, svc := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	bus := svc.Bus().(*eventbus.Memory)

	ctx := context.Background()
	b, err := svc.CreateBlog(ctx, types.Blog{Name: "parent", Handle: "pa"})
	if err != nil {
		t.Fatalf("blog: %v", err)
	}
	e, err := svc.CreateEntry(ctx, types.Entry{Title: "child", Content: "c", Date: time.Now(), Blog: &types.Blog{ID: b.ID}})
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	resp := openWatch(t, ctx, srv.URL+"/api/entries/"+idString(e.ID)+"/watch")
	defer resp.Body.Close()
	events := readEvents(t, resp)
	if ev := nextEvent(t, events); ev.name != "entryUpdate" {
		t.Fatalf("unexpected first event: %+v", ev)
	}
	waitSubscribers(t, bus, eventbus.EntryDelete, 1)

	if err := svc.DeleteBlog(ctx, *b.ID); err != nil {
		t.Fatalf("delete blog: %v", err)
	}
	if ev := nextEvent(t, events); ev.name != "entryDelete" {
		t.Fatalf("expected entryDelete, got %+v", ev)
	}
	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("stream should end after the entry is gone")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not close")
	}
	waitSubscribers(t, bus, eventbus.EntryUpdate, 0)
	waitSubscribers(t, bus, eventbus.EntryDelete, 0)
}

func TestWatch_NotFound(t *testing.T) {
	h, _ := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/entries/99/watch", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestWatch_KeepaliveComments(t *testing.T) {
	SetWatchKeepalive(20 * time.Millisecond)
	defer SetWatchKeepalive(0)
	h, svc := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	b, _ := svc.CreateBlog(context.Background(), types.Blog{Name: "alive", Handle: "al"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp := openWatch(t, ctx, srv.URL+"/api/blogs/"+idString(b.ID)+"/watch")
	defer resp.Body.Close()
	r := bufio.NewReader(resp.Body)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.HasPrefix(line, ": keepalive") {
			return
		}
	}
	t.Fatal("no keepalive comment seen")
}
