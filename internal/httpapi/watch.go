package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"blogd/internal/datautil"
	"blogd/internal/detail"
	"blogd/internal/eventbus"
	"blogd/pkg/types"
)

// entryView is what an entry watch stream sends: the entry plus the values
// the detail page derives from its attachment.
type entryView struct {
	*types.Entry
	AttachmentSize string `json:"attachmentSize,omitempty"`
	AttachmentURI  string `json:"attachmentUri,omitempty"`
}

// sameID keeps only events whose payload is the entity with the given id.
func sameID[T any](id int64, idOf func(*T) *int64) func(eventbus.Event) bool {
	return func(e eventbus.Event) bool {
		p, ok := e.Payload.(*T)
		if !ok || p == nil {
			return false
		}
		got := idOf(p)
		return got != nil && *got == id
	}
}

// deleted returns a channel closed once id is deleted, and the subscription
// backing it.
func deleted(bus eventbus.Bus, event string, id int64) (<-chan struct{}, eventbus.Subscription) {
	ch := make(chan struct{})
	var once sync.Once
	sub := bus.Subscribe(event, func(e eventbus.Event) {
		if v, ok := e.Payload.(int64); ok && v == id {
			once.Do(func() { close(ch) })
		}
	})
	return ch, sub
}

// watchEntry streams an entry detail view as Server-Sent Events.
//
// @Summary  Watch an entry
// @Produce  text/event-stream
// @Param    id path int true "Entry id"
// @Success  200
// @Failure  404 {object} types.ErrorResponse
// @Router   /api/entries/{id}/watch [get]
func watchEntry(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		e, err := svc.GetEntry(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		bus := eventbus.Filter(svc.Bus(), sameID(id, entryID))
		view := detail.NewEntryDetail(bus, e, datautil.Default())
		defer view.Dispose()
		gone, sub := deleted(svc.Bus(), eventbus.EntryDelete, id)
		defer sub.Unsubscribe()

		render := func() any {
			cur := view.Entry()
			out := entryView{Entry: cur}
			if cur.Attachment != "" {
				out.AttachmentSize = view.ByteSize(cur.Attachment)
				out.AttachmentURI = view.OpenFile(cur.AttachmentContentType, cur.Attachment)
			}
			return out
		}
		logger.Debug().Str("event", view.Event()).Int64("id", id).Str("req_id", reqID(r)).Msg("watch open")
		stream(w, r, "entry", view.View, gone, render)
	}
}

// watchBlog streams a blog detail view as Server-Sent Events.
//
// @Summary  Watch a blog
// @Produce  text/event-stream
// @Param    id path int true "Blog id"
// @Success  200
// @Failure  404 {object} types.ErrorResponse
// @Router   /api/blogs/{id}/watch [get]
func watchBlog(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		b, err := svc.GetBlog(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		view := detail.NewBlogDetail(eventbus.Filter(svc.Bus(), sameID(id, blogID)), b)
		defer view.Dispose()
		gone, sub := deleted(svc.Bus(), eventbus.BlogDelete, id)
		defer sub.Unsubscribe()

		logger.Debug().Str("event", view.Event()).Int64("id", id).Str("req_id", reqID(r)).Msg("watch open")
		stream(w, r, "blog", view.View, gone, func() any { return view.Blog() })
	}
}

// stream writes the current state of view, then one event per change, until
// the client leaves, the server shuts down, or the entity is deleted.
func stream[T any](w http.ResponseWriter, r *http.Request, entity string, view *detail.View[T], gone <-chan struct{}, render func() any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	out := io.Writer(w)
	if requestLogLevel(r) >= LevelDebug {
		out = io.MultiWriter(w, &loggingLineWriter{})
	}

	watchStreams.WithLabelValues(entity).Inc()
	defer watchStreams.WithLabelValues(entity).Dec()

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	updateName := entity + "Update"
	if err := writeEvent(out, updateName, render()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(watchKeepalive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			_ = writeEvent(out, entity+"Delete", map[string]any{"deleted": true})
			flusher.Flush()
			return
		case <-view.Changed():
			if err := writeEvent(out, updateName, render()); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(out, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ulid.Make(), name, data)
	return err
}
