// Package blog implements the blog, tag and entry operations behind the REST
// API. Every successful write is broadcast on the event bus so open detail
// views pick it up.
package blog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"blogd/internal/eventbus"
	"blogd/internal/store"
	"blogd/pkg/types"
)

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	SaveBlog(ctx context.Context, b types.Blog) (*types.Blog, error)
	GetBlog(ctx context.Context, id int64) (*types.Blog, error)
	ListBlogs(ctx context.Context, page types.Page) (types.PageResult[types.Blog], error)
	DeleteBlog(ctx context.Context, id int64) ([]int64, error)

	SaveTag(ctx context.Context, t types.Tag) (*types.Tag, error)
	GetTag(ctx context.Context, id int64) (*types.Tag, error)
	ListTags(ctx context.Context, page types.Page) (types.PageResult[types.Tag], error)
	DeleteTag(ctx context.Context, id int64) error

	SaveEntry(ctx context.Context, e types.Entry) (*types.Entry, error)
	GetEntry(ctx context.Context, id int64) (*types.Entry, error)
	ListEntriesByOwner(ctx context.Context, login string, page types.Page) (types.PageResult[types.Entry], error)
	SearchEntries(ctx context.Context, query string, page types.Page) (types.PageResult[types.Entry], error)
	DeleteEntry(ctx context.Context, id int64) error
}

// Service coordinates repository writes with event broadcasts.
type Service struct {
	repo Repository
	bus  eventbus.Bus
	log  zerolog.Logger
}

// New constructs a Service. A nil bus gets a private in-memory bus.
func New(repo Repository, bus eventbus.Bus) *Service {
	if bus == nil {
		bus = eventbus.NewMemory()
	}
	return &Service{repo: repo, bus: bus, log: zerolog.Nop()}
}

// SetLogger installs a structured logger.
func (s *Service) SetLogger(l zerolog.Logger) { s.log = l.With().Str("component", "blog").Logger() }

// Bus returns the bus the service publishes on.
func (s *Service) Bus() eventbus.Bus { return s.bus }

// mapStoreErr turns store.ErrNotFound into the typed 404 error.
func mapStoreErr(err error, entity string, id int64) error {
	if store.IsNotFound(err) {
		return ErrNotFound(entity, id)
	}
	return err
}

// ---- blogs ----

// CreateBlog stores a new blog owned by the current user unless one is given.
func (s *Service) CreateBlog(ctx context.Context, b types.Blog) (*types.Blog, error) {
	s.log.Debug().Str("name", b.Name).Msg("create blog")
	if b.ID != nil {
		return nil, errIDExists("blog")
	}
	if b.UserLogin == "" {
		b.UserLogin = CurrentUser(ctx)
	}
	return s.saveBlog(ctx, b)
}

// UpdateBlog saves an existing blog; a blog without id is created.
func (s *Service) UpdateBlog(ctx context.Context, b types.Blog) (*types.Blog, error) {
	if b.ID == nil {
		return s.CreateBlog(ctx, b)
	}
	s.log.Debug().Int64("id", *b.ID).Msg("update blog")
	return s.saveBlog(ctx, b)
}

func (s *Service) saveBlog(ctx context.Context, b types.Blog) (*types.Blog, error) {
	if err := validateBlog(b); err != nil {
		return nil, err
	}
	saved, err := s.repo.SaveBlog(ctx, b)
	if err != nil {
		if b.ID != nil {
			return nil, mapStoreErr(err, "blog", *b.ID)
		}
		return nil, err
	}
	s.bus.Publish(eventbus.BlogUpdate, saved)
	return saved, nil
}

// GetBlog fetches a blog by id.
func (s *Service) GetBlog(ctx context.Context, id int64) (*types.Blog, error) {
	b, err := s.repo.GetBlog(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "blog", id)
	}
	return b, nil
}

// ListBlogs returns a page of blogs.
func (s *Service) ListBlogs(ctx context.Context, page types.Page) (types.PageResult[types.Blog], error) {
	return s.repo.ListBlogs(ctx, page)
}

// DeleteBlog removes a blog and its entries. Each entry removed with the
// blog gets its own delete event before the blog's.
func (s *Service) DeleteBlog(ctx context.Context, id int64) error {
	entryIDs, err := s.repo.DeleteBlog(ctx, id)
	if err != nil {
		return mapStoreErr(err, "blog", id)
	}
	s.log.Debug().Int64("id", id).Int("entries", len(entryIDs)).Msg("deleted blog")
	for _, eid := range entryIDs {
		s.bus.Publish(eventbus.EntryDelete, eid)
	}
	s.bus.Publish(eventbus.BlogDelete, id)
	return nil
}

// ---- tags ----

// CreateTag stores a new tag.
func (s *Service) CreateTag(ctx context.Context, t types.Tag) (*types.Tag, error) {
	if t.ID != nil {
		return nil, errIDExists("tag")
	}
	return s.saveTag(ctx, t)
}

// UpdateTag saves an existing tag; a tag without id is created.
func (s *Service) UpdateTag(ctx context.Context, t types.Tag) (*types.Tag, error) {
	if t.ID == nil {
		return s.CreateTag(ctx, t)
	}
	return s.saveTag(ctx, t)
}

func (s *Service) saveTag(ctx context.Context, t types.Tag) (*types.Tag, error) {
	if err := validateTag(t); err != nil {
		return nil, err
	}
	saved, err := s.repo.SaveTag(ctx, t)
	if err != nil {
		if t.ID != nil {
			return nil, mapStoreErr(err, "tag", *t.ID)
		}
		return nil, err
	}
	s.bus.Publish(eventbus.TagUpdate, saved)
	return saved, nil
}

// GetTag fetches a tag by id.
func (s *Service) GetTag(ctx context.Context, id int64) (*types.Tag, error) {
	t, err := s.repo.GetTag(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "tag", id)
	}
	return t, nil
}

// ListTags returns a page of tags.
func (s *Service) ListTags(ctx context.Context, page types.Page) (types.PageResult[types.Tag], error) {
	return s.repo.ListTags(ctx, page)
}

// DeleteTag removes a tag.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTag(ctx, id); err != nil {
		return mapStoreErr(err, "tag", id)
	}
	s.bus.Publish(eventbus.TagDelete, id)
	return nil
}

// ---- entries ----

// CreateEntry stores a new entry.
func (s *Service) CreateEntry(ctx context.Context, e types.Entry) (*types.Entry, error) {
	s.log.Debug().Str("title", e.Title).Msg("create entry")
	if e.ID != nil {
		return nil, errIDExists("entry")
	}
	return s.saveEntry(ctx, e)
}

// UpdateEntry saves an existing entry; an entry without id is created.
func (s *Service) UpdateEntry(ctx context.Context, e types.Entry) (*types.Entry, error) {
	if e.ID == nil {
		return s.CreateEntry(ctx, e)
	}
	s.log.Debug().Int64("id", *e.ID).Msg("update entry")
	return s.saveEntry(ctx, e)
}

func (s *Service) saveEntry(ctx context.Context, e types.Entry) (*types.Entry, error) {
	if err := validateEntry(e); err != nil {
		return nil, err
	}
	if e.Blog != nil && e.Blog.ID != nil {
		if _, err := s.repo.GetBlog(ctx, *e.Blog.ID); err != nil {
			if store.IsNotFound(err) {
				return nil, errInvalid("entry", "blog", fmt.Sprintf("references unknown blog %d", *e.Blog.ID))
			}
			return nil, err
		}
	}
	for _, t := range e.Tags {
		if t.ID == nil {
			return nil, errInvalid("entry", "tags", "must reference saved tags")
		}
		if _, err := s.repo.GetTag(ctx, *t.ID); err != nil {
			if store.IsNotFound(err) {
				return nil, errInvalid("entry", "tags", fmt.Sprintf("references unknown tag %d", *t.ID))
			}
			return nil, err
		}
	}
	saved, err := s.repo.SaveEntry(ctx, e)
	if err != nil {
		if e.ID != nil {
			return nil, mapStoreErr(err, "entry", *e.ID)
		}
		return nil, err
	}
	s.bus.Publish(eventbus.EntryUpdate, saved)
	return saved, nil
}

// GetEntry fetches an entry with its blog and tags.
func (s *Service) GetEntry(ctx context.Context, id int64) (*types.Entry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "entry", id)
	}
	return e, nil
}

// ListEntries returns the current user's entries, newest first.
func (s *Service) ListEntries(ctx context.Context, page types.Page) (types.PageResult[types.Entry], error) {
	return s.repo.ListEntriesByOwner(ctx, CurrentUser(ctx), page)
}

// SearchEntries runs a text search over entry titles and content.
func (s *Service) SearchEntries(ctx context.Context, query string, page types.Page) (types.PageResult[types.Entry], error) {
	s.log.Debug().Str("query", query).Msg("search entries")
	return s.repo.SearchEntries(ctx, query, page)
}

// DeleteEntry removes an entry.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	s.log.Debug().Int64("id", id).Msg("delete entry")
	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return mapStoreErr(err, "entry", id)
	}
	s.bus.Publish(eventbus.EntryDelete, id)
	return nil
}

// Ready reports whether the repository is reachable.
func (s *Service) Ready(ctx context.Context) bool {
	if p, ok := s.repo.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx) == nil
	}
	return true
}
