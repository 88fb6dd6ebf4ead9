package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blogd/internal/blog"
	"blogd/internal/eventbus"
	"blogd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *blog.Service satisfies it.
type Service interface {
	CreateBlog(ctx context.Context, b types.Blog) (*types.Blog, error)
	UpdateBlog(ctx context.Context, b types.Blog) (*types.Blog, error)
	GetBlog(ctx context.Context, id int64) (*types.Blog, error)
	ListBlogs(ctx context.Context, page types.Page) (types.PageResult[types.Blog], error)
	DeleteBlog(ctx context.Context, id int64) error

	CreateTag(ctx context.Context, t types.Tag) (*types.Tag, error)
	UpdateTag(ctx context.Context, t types.Tag) (*types.Tag, error)
	GetTag(ctx context.Context, id int64) (*types.Tag, error)
	ListTags(ctx context.Context, page types.Page) (types.PageResult[types.Tag], error)
	DeleteTag(ctx context.Context, id int64) error

	CreateEntry(ctx context.Context, e types.Entry) (*types.Entry, error)
	UpdateEntry(ctx context.Context, e types.Entry) (*types.Entry, error)
	GetEntry(ctx context.Context, id int64) (*types.Entry, error)
	ListEntries(ctx context.Context, page types.Page) (types.PageResult[types.Entry], error)
	SearchEntries(ctx context.Context, query string, page types.Page) (types.PageResult[types.Entry], error)
	DeleteEntry(ctx context.Context, id int64) error

	Bus() eventbus.Bus
	Ready(ctx context.Context) bool
}

// UserHeader carries the login of the calling user.
const UserHeader = "X-User-Login"

func blogID(b *types.Blog) *int64   { return b.ID }
func tagID(t *types.Tag) *int64     { return t.ID }
func entryID(e *types.Entry) *int64 { return e.ID }

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"Link", "X-Total-Count", alertHeader, errorHeader, paramsHeader},
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(currentUser)

		r.Post("/blogs", createHandler("blog", "/api/blogs/", svc.CreateBlog, blogID))
		r.Put("/blogs", updateHandler("blog", "/api/blogs/", svc.UpdateBlog, blogID))
		r.Get("/blogs", listHandler("/api/blogs", svc.ListBlogs))
		r.Get("/blogs/{id}", getHandler(svc.GetBlog))
		r.Delete("/blogs/{id}", deleteHandler("blog", svc.DeleteBlog))
		r.Get("/blogs/{id}/watch", watchBlog(svc))

		r.Post("/tags", createHandler("tag", "/api/tags/", svc.CreateTag, tagID))
		r.Put("/tags", updateHandler("tag", "/api/tags/", svc.UpdateTag, tagID))
		r.Get("/tags", listHandler("/api/tags", svc.ListTags))
		r.Get("/tags/{id}", getHandler(svc.GetTag))
		r.Delete("/tags/{id}", deleteHandler("tag", svc.DeleteTag))

		r.Post("/entries", createHandler("entry", "/api/entries/", svc.CreateEntry, entryID))
		r.Put("/entries", updateHandler("entry", "/api/entries/", svc.UpdateEntry, entryID))
		r.Get("/entries", listHandler("/api/entries", svc.ListEntries))
		r.Get("/entries/{id}", getHandler(svc.GetEntry))
		r.Delete("/entries/{id}", deleteHandler("entry", svc.DeleteEntry))
		r.Get("/entries/{id}/watch", watchEntry(svc))

		r.Get("/_search/entries", searchEntriesHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unavailable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// currentUser stores the caller's login on the request context.
func currentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		login := strings.TrimSpace(r.Header.Get(UserHeader))
		if login == "" {
			login = blog.AnonymousUser
		}
		next.ServeHTTP(w, r.WithContext(blog.WithUser(r.Context(), login)))
	})
}
