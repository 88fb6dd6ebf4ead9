package detail

import (
	"blogd/internal/datautil"
	"blogd/internal/eventbus"
	"blogd/pkg/types"
)

// EntryDetail backs the entry detail page. ByteSize and OpenFile are the
// helpers supplied at construction, exposed as-is for rendering the
// attachment.
type EntryDetail struct {
	*View[*types.Entry]

	ByteSize datautil.ByteSizeFunc
	OpenFile datautil.OpenFileFunc
}

// NewEntryDetail opens a detail view on an already resolved entry.
func NewEntryDetail(bus eventbus.Bus, entry *types.Entry, h datautil.Helpers) *EntryDetail {
	return &EntryDetail{
		View:     NewView(bus, eventbus.EntryUpdate, entry),
		ByteSize: h.ByteSize,
		OpenFile: h.OpenFile,
	}
}

// Entry returns the entry being shown.
func (d *EntryDetail) Entry() *types.Entry { return d.Current() }
