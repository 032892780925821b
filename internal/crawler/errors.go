package crawler

import "errors"

var (
	// ErrEmptyFrontier is returned by Pop when the frontier holds no URLs.
	ErrEmptyFrontier = errors.New("frontier is empty")

	// ErrNotFound marks a 404 response. The robots cache relies on this
	// being distinguishable from every other fetch failure.
	ErrNotFound = errors.New("resource not found")

	// ErrFetchFailed marks a non-2xx status (other than 404) or a
	// transport-level failure.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrResponseTooLarge marks a response body over the size cap.
	ErrResponseTooLarge = errors.New("response body too large")

	// ErrMalformedURL marks a URL missing a scheme separator or host.
	ErrMalformedURL = errors.New("malformed URL")
)
