package detail

import (
	"blogd/internal/eventbus"
	"blogd/pkg/types"
)

// BlogDetail backs the blog detail page.
type BlogDetail struct {
	*View[*types.Blog]
}

// NewBlogDetail opens a detail view on an already resolved blog.
func NewBlogDetail(bus eventbus.Bus, blog *types.Blog) *BlogDetail {
	return &BlogDetail{View: NewView(bus, eventbus.BlogUpdate, blog)}
}

// Blog returns the blog being shown.
func (d *BlogDetail) Blog() *types.Blog { return d.Current() }
