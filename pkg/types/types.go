package types

import "time"

// Blog is a named collection of entries owned by a single user.
type Blog struct {
	// Database identifier. Must be omitted on create.
	// example: 1
	ID *int64 `json:"id,omitempty" example:"1"`
	// Display name of the blog.
	// example: Jhipster Blog
	Name string `json:"name" example:"Jhipster Blog"`
	// URL-friendly handle.
	// example: jhipster
	Handle string `json:"handle" example:"jhipster"`
	// Login of the owning user.
	// example: admin
	UserLogin string `json:"userLogin,omitempty" example:"admin"`
}

// Tag labels entries.
type Tag struct {
	// example: 3
	ID *int64 `json:"id,omitempty" example:"3"`
	// example: golang
	Name string `json:"name" example:"golang"`
}

// Entry is a single blog post.
type Entry struct {
	// example: 7
	ID *int64 `json:"id,omitempty" example:"7"`
	// example: Hello world
	Title string `json:"title" example:"Hello world"`
	// Body text of the post.
	Content string `json:"content" example:"First post."`
	// Publication timestamp.
	Date time.Time `json:"date"`
	// Owning blog. Only the id is required on writes.
	Blog *Blog `json:"blog,omitempty"`
	Tags []Tag `json:"tags,omitempty"`
	// Optional binary attachment, base64 encoded.
	Attachment string `json:"attachment,omitempty"`
	// example: image/png
	AttachmentContentType string `json:"attachmentContentType,omitempty" example:"image/png"`
}

// Int64 returns a pointer to v; handy for building entities with ids.
func Int64(v int64) *int64 { return &v }
