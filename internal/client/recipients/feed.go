// Package recipients maintains a cursor-paginated feed of saved recipients
// per delivery method.
package recipients

import (
	"context"
	"sync"

	"github.com/swiftsend/swiftsend/internal/client/api"
)

const pageSize = 20

// Lister fetches one recipient page. Satisfied by *api.Client.
type Lister interface {
	ListRecipients(ctx context.Context, method string, lastID int64, limit int) ([]api.Recipient, error)
}

// Feed pulls recipients for one delivery method a page at a time. The cursor
// is the sequence ID of the last item seen; an empty page marks the feed
// exhausted for good. Safe for concurrent use.
type Feed struct {
	lister Lister
	method string

	mu        sync.Mutex
	items     []api.Recipient
	cursor    int64
	fetching  bool
	exhausted bool
}

// NewFeed creates an empty feed for the given delivery method.
func NewFeed(lister Lister, method string) *Feed {
	return &Feed{lister: lister, method: method}
}

// NextPage fetches the next page and appends it to the feed. It returns the
// new items, or nil when a fetch is already running or the feed is
// exhausted. A failed fetch leaves the cursor untouched so the same page can
// be retried.
func (f *Feed) NextPage(ctx context.Context) ([]api.Recipient, error) {
	f.mu.Lock()
	if f.exhausted || f.fetching {
		f.mu.Unlock()
		return nil, nil
	}
	f.fetching = true
	cursor := f.cursor
	f.mu.Unlock()

	page, err := f.lister.ListRecipients(ctx, f.method, cursor, pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetching = false
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		f.exhausted = true
		return nil, nil
	}
	f.cursor = page[len(page)-1].SeqID
	f.items = append(f.items, page...)
	return page, nil
}

// Items returns a copy of everything fetched so far.
func (f *Feed) Items() []api.Recipient {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Recipient, len(f.items))
	copy(out, f.items)
	return out
}

// Exhausted reports whether the server has signalled the end of the feed.
func (f *Feed) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exhausted
}

// Fetching reports whether a page fetch is in flight.
func (f *Feed) Fetching() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetching
}

// Prepend inserts a freshly created recipient at the head of the feed
// without disturbing the cursor.
func (f *Feed) Prepend(rec api.Recipient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append([]api.Recipient{rec}, f.items...)
}

// Reset clears the feed so the next page starts from the beginning.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.cursor = 0
	f.exhausted = false
}
