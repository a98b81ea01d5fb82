package prophet

import (
	"context"
	"errors"
	"iter"
)

// FlowPageFetcher fetches one page of search results.
type FlowPageFetcher interface {
	FetchFlowPage(ctx context.Context, req *SearchRequest) (*FlowPage, error)
}

// FlowIterator lazily walks the pages of a flow search. Records can be
// consumed one at a time (Next, Seq, ForEach, Collect) or a page at a time
// (First, NextPage). Both share one cursor: a page handed out by NextPage is
// not yielded again by Next, and records of a buffered page that were not
// yet consumed are skipped when NextPage moves past them.
//
// Pages are requested strictly in order and never concurrently. A failed
// fetch leaves the cursor untouched so the call can be retried. A
// FlowIterator must not be shared between goroutines.
type FlowIterator struct {
	fetcher FlowPageFetcher
	request SearchRequest

	limit    int
	hasLimit bool

	pageNumber int
	exhausted  bool
	buffer     *FlowPage
	offset     int
	yielded    int
	found      *int
}

// NewFlowIterator returns an iterator over the pages of req, starting at page
// 0. No request is made until the iterator is consumed.
func NewFlowIterator(fetcher FlowPageFetcher, req *SearchRequest) *FlowIterator {
	it := &FlowIterator{fetcher: fetcher}
	if req != nil {
		it.request = *req
	}

	it.request.Page = 0

	return it
}

// Take caps the number of records Next will ever yield. It replaces any
// earlier cap and returns the iterator.
func (it *FlowIterator) Take(n int) *FlowIterator {
	it.limit = max(n, 0)
	it.hasLimit = true

	return it
}

// First returns page 0. On an unstarted iterator the page also seeds record
// iteration, so Next starts from its records without fetching it again. Once
// iteration has started First is a side request that changes nothing.
func (it *FlowIterator) First(ctx context.Context) (*FlowPage, error) {
	if it.started() {
		return it.fetch(ctx, 0)
	}

	page, err := it.advance(ctx)
	if err != nil {
		return nil, err
	}

	it.buffer = page
	it.offset = 0

	return page, nil
}

// NextPage returns the next page, or nil with no request once the last page
// has been seen.
func (it *FlowIterator) NextPage(ctx context.Context) (*FlowPage, error) {
	page, err := it.advance(ctx)
	if err != nil || page == nil {
		return nil, err
	}

	it.buffer = page
	it.offset = len(page.Flows)

	return page, nil
}

// Next returns the next record. It returns ErrNoMoreItems once the results
// or the Take cap are used up.
func (it *FlowIterator) Next(ctx context.Context) (*Flow, error) {
	if it.hasLimit && it.yielded >= it.limit {
		return nil, ErrNoMoreItems
	}

	for it.buffer == nil || it.offset >= len(it.buffer.Flows) {
		page, err := it.advance(ctx)
		if err != nil {
			return nil, err
		}

		if page == nil {
			return nil, ErrNoMoreItems
		}

		it.buffer = page
		it.offset = 0
	}

	flow := &it.buffer.Flows[it.offset]
	it.offset++
	it.yielded++

	return flow, nil
}

// HasNext reports whether Next would yield a record, fetching the next page
// if the buffered one is used up.
func (it *FlowIterator) HasNext(ctx context.Context) (bool, error) {
	if it.hasLimit && it.yielded >= it.limit {
		return false, nil
	}

	for it.buffer == nil || it.offset >= len(it.buffer.Flows) {
		page, err := it.advance(ctx)
		if err != nil {
			return false, err
		}

		if page == nil {
			return false, nil
		}

		it.buffer = page
		it.offset = 0
	}

	return true, nil
}

// Collect drains the iterator. Without Take this reads every page of the
// result set. On error the records read so far are returned with it.
func (it *FlowIterator) Collect(ctx context.Context) ([]Flow, error) {
	var flows []Flow

	for {
		flow, err := it.Next(ctx)
		if errors.Is(err, ErrNoMoreItems) {
			return flows, nil
		}

		if err != nil {
			return flows, err
		}

		flows = append(flows, *flow)
	}
}

// ForEach calls fn for every remaining record until fn returns an error.
func (it *FlowIterator) ForEach(ctx context.Context, fn func(*Flow) error) error {
	for {
		flow, err := it.Next(ctx)
		if errors.Is(err, ErrNoMoreItems) {
			return nil
		}

		if err != nil {
			return err
		}

		err = fn(flow)
		if err != nil {
			return err
		}
	}
}

// Seq adapts the iterator to a range-over-func sequence. A fetch error is
// yielded once and ends the sequence.
func (it *FlowIterator) Seq(ctx context.Context) iter.Seq2[*Flow, error] {
	return func(yield func(*Flow, error) bool) {
		for {
			flow, err := it.Next(ctx)
			if errors.Is(err, ErrNoMoreItems) {
				return
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(flow, nil) {
				return
			}
		}
	}
}

// TotalFound is the match count reported by the most recent page on the
// shared cursor.
func (it *FlowIterator) TotalFound() (int, bool) {
	if it.found == nil {
		return 0, false
	}

	return *it.found, true
}

// Exhausted reports whether the last page has been fetched.
func (it *FlowIterator) Exhausted() bool {
	return it.exhausted
}

// PageNumber is the index of the next page to fetch.
func (it *FlowIterator) PageNumber() int {
	return it.pageNumber
}

// Yielded is the number of records returned by Next so far.
func (it *FlowIterator) Yielded() int {
	return it.yielded
}

func (it *FlowIterator) started() bool {
	return it.pageNumber > 0 || it.buffer != nil
}

// advance fetches the page under the cursor and moves past it. State only
// changes after a successful fetch.
func (it *FlowIterator) advance(ctx context.Context) (*FlowPage, error) {
	if it.exhausted {
		return nil, nil
	}

	page, err := it.fetch(ctx, it.pageNumber)
	if err != nil {
		return nil, err
	}

	it.pageNumber++
	it.exhausted = !page.HasMore
	found := page.Found
	it.found = &found

	return page, nil
}

func (it *FlowIterator) fetch(ctx context.Context, page int) (*FlowPage, error) {
	req := it.request
	req.Page = page

	return it.fetcher.FetchFlowPage(ctx, &req)
}
