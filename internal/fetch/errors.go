package fetch

import (
	"fmt"
	"net/http"
)

// DownloadError reports a failed bulk snapshot download: a network failure,
// a non-200 response, or unexpected archive contents.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// APIError reports a failed Open API page request. The job is aborted on the
// first failed page; throttled requests are not retried.
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("complaints api: status %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("complaints api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("complaints api: %v", e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Throttled reports whether the API rejected the request for rate limiting.
func (e *APIError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
