package detail

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogd/internal/datautil"
	"blogd/internal/eventbus"
	"blogd/pkg/types"
)

// countingBus wraps a Memory bus and counts Subscribe/Unsubscribe calls.
type countingBus struct {
	*eventbus.Memory
	subscribes   int
	unsubscribes int
}

type countingSub struct {
	inner eventbus.Subscription
	bus   *countingBus
}

func (s countingSub) Unsubscribe() {
	s.bus.unsubscribes++
	s.inner.Unsubscribe()
}

func (b *countingBus) Subscribe(name string, h eventbus.Handler) eventbus.Subscription {
	b.subscribes++
	return countingSub{inner: b.Memory.Subscribe(name, h), bus: b}
}

func newCountingBus() *countingBus { return &countingBus{Memory: eventbus.NewMemory()} }

func blog(id int64, name string) *types.Blog {
	return &types.Blog{ID: types.Int64(id), Name: name}
}

func TestBlogDetail_Scenario(t *testing.T) {
	bus := eventbus.NewMemory()
	d := NewBlogDetail(bus, blog(1, "A"))
	assert.Equal(t, blog(1, "A"), d.Blog())

	bus.Publish(eventbus.BlogUpdate, blog(1, "B"))
	assert.Equal(t, blog(1, "B"), d.Blog())

	d.Dispose()
	bus.Publish(eventbus.BlogUpdate, blog(1, "C"))
	assert.Equal(t, blog(1, "B"), d.Blog())
}

func TestDetail_EventNames(t *testing.T) {
	bus := newCountingBus()
	b := NewBlogDetail(bus, blog(1, "A"))
	e := NewEntryDetail(bus, &types.Entry{ID: types.Int64(2)}, datautil.Default())
	defer b.Dispose()
	defer e.Dispose()
	assert.Equal(t, "blogApp:blogUpdate", b.Event())
	assert.Equal(t, "blogApp:entryUpdate", e.Event())
	assert.Equal(t, 1, bus.Subscribers(b.Event()))
	assert.Equal(t, 1, bus.Subscribers(e.Event()))
}

func TestView_InitialEntityBeforeAnyEvent(t *testing.T) {
	e := &types.Entry{ID: types.Int64(4), Title: "t"}
	d := NewEntryDetail(eventbus.NewMemory(), e, datautil.Default())
	assert.Same(t, e, d.Entry())
}

func TestView_LastPayloadWins(t *testing.T) {
	bus := eventbus.NewMemory()
	d := NewBlogDetail(bus, blog(1, "start"))
	var last *types.Blog
	for _, n := range []string{"p1", "p2", "p3", "p4"} {
		last = blog(1, n)
		bus.Publish(eventbus.BlogUpdate, last)
	}
	assert.Same(t, last, d.Blog())
}

func TestView_ReplacesWithoutMerge(t *testing.T) {
	bus := eventbus.NewMemory()
	d := NewBlogDetail(bus, &types.Blog{ID: types.Int64(1), Name: "A", Handle: "a", UserLogin: "u"})
	bus.Publish(eventbus.BlogUpdate, &types.Blog{ID: types.Int64(1), Name: "B"})
	assert.Equal(t, &types.Blog{ID: types.Int64(1), Name: "B"}, d.Blog())
}

func TestView_IgnoresOtherEvents(t *testing.T) {
	bus := eventbus.NewMemory()
	d := NewBlogDetail(bus, blog(1, "A"))
	bus.Publish(eventbus.EntryUpdate, &types.Entry{Title: "x"})
	bus.Publish(eventbus.TagUpdate, blog(9, "wrong channel"))
	assert.Equal(t, "A", d.Blog().Name)
}

func TestView_NilAndMistypedPayloadsIgnored(t *testing.T) {
	bus := eventbus.NewMemory()
	d := NewBlogDetail(bus, blog(1, "A"))
	bus.Publish(eventbus.BlogUpdate, nil)
	bus.Publish(eventbus.BlogUpdate, (*types.Blog)(nil))
	bus.Publish(eventbus.BlogUpdate, types.Blog{Name: "by value"})
	bus.Publish(eventbus.BlogUpdate, "junk")
	assert.Equal(t, blog(1, "A"), d.Blog())
	select {
	case <-d.Changed():
		t.Fatal("ignored payloads must not signal a change")
	default:
	}
}

func TestView_SingleSubscriptionAndIdempotentDispose(t *testing.T) {
	bus := newCountingBus()
	d := NewEntryDetail(bus, &types.Entry{Title: "t"}, datautil.Default())
	require.Equal(t, 1, bus.subscribes)
	require.Equal(t, 1, bus.Subscribers(eventbus.EntryUpdate))

	d.Dispose()
	d.Dispose()
	d.Dispose()
	assert.Equal(t, 1, bus.unsubscribes)
	assert.Equal(t, 0, bus.Subscribers(eventbus.EntryUpdate))
}

func TestView_ChangedAndDoneSignals(t *testing.T) {
	bus := eventbus.NewMemory()
	d := NewBlogDetail(bus, blog(1, "A"))
	bus.Publish(eventbus.BlogUpdate, blog(1, "B"))
	bus.Publish(eventbus.BlogUpdate, blog(1, "C"))

	select {
	case <-d.Changed():
	default:
		t.Fatal("expected a pending change signal")
	}
	select {
	case <-d.Changed():
		t.Fatal("change signals should coalesce")
	default:
	}
	assert.Equal(t, "C", d.Blog().Name)

	d.Dispose()
	select {
	case <-d.Done():
	default:
		t.Fatal("Done should be closed after Dispose")
	}
}

func TestView_ManyViewsShareOneBus(t *testing.T) {
	bus := eventbus.NewMemory()
	a := NewBlogDetail(bus, blog(1, "A"))
	b := NewBlogDetail(bus, blog(1, "A"))
	a.Dispose()
	bus.Publish(eventbus.BlogUpdate, blog(1, "B"))
	assert.Equal(t, "A", a.Blog().Name)
	assert.Equal(t, "B", b.Blog().Name)
	b.Dispose()
}

func TestEntryDetail_HelpersArePassedThrough(t *testing.T) {
	h := datautil.Default()
	d := NewEntryDetail(eventbus.NewMemory(), &types.Entry{}, h)
	defer d.Dispose()

	assert.Equal(t, reflect.ValueOf(h.ByteSize).Pointer(), reflect.ValueOf(d.ByteSize).Pointer())
	assert.Equal(t, reflect.ValueOf(h.OpenFile).Pointer(), reflect.ValueOf(d.OpenFile).Pointer())
	assert.Equal(t, "3 bytes", d.ByteSize("QUJD"))
	assert.Equal(t, "data:text/plain;base64,QUJD", d.OpenFile("text/plain", "QUJD"))
}

func TestEntryDetail_CustomHelpers(t *testing.T) {
	size := func(string) string { return "size" }
	open := func(string, string) string { return "open" }
	d := NewEntryDetail(eventbus.NewMemory(), &types.Entry{}, datautil.Helpers{ByteSize: size, OpenFile: open})
	defer d.Dispose()
	assert.Equal(t, reflect.ValueOf(size).Pointer(), reflect.ValueOf(d.ByteSize).Pointer())
	assert.Equal(t, "open", d.OpenFile("", ""))
}
