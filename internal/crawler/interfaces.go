package crawler

import "context"

// Fetcher is the transport capability the core depends on. Get succeeds
// only on a success status; failures come back as classified errors
// (ErrNotFound, ErrFetchFailed, ErrResponseTooLarge) so the robots cache
// can tell a missing resource apart from every other failure.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// PageSink receives each successfully fetched page. Implementations own
// persistence; a sink error is logged and does not fail the crawl.
type PageSink interface {
	SavePage(page *PageRecord) error
}
