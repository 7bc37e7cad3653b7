package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/acronymdata/complaints-etl/internal/config"
	"github.com/acronymdata/complaints-etl/internal/models"
	"github.com/acronymdata/complaints-etl/internal/transform"
)

// APIFetcher pulls complaints from the CFPB Open API, filtered to a received
// date range and paginated with frm/size offsets.
type APIFetcher struct {
	endpoint   string
	pageSize   int
	httpClient *http.Client
}

// defaultPageSize is used when the configured page size is not positive; a
// zero page size would keep the pagination loop from ever terminating.
const defaultPageSize = 1000

// NewAPIFetcher creates a new incremental API fetcher
func NewAPIFetcher(cfg config.FetchConfig) *APIFetcher {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &APIFetcher{
		endpoint: cfg.APIEndpoint,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// apiResponse mirrors the Elasticsearch-style envelope the Open API returns.
// Hits is a pointer so a response missing the "hits" key is distinguishable
// from an empty result set.
type apiResponse struct {
	Hits *struct {
		Hits []struct {
			Source models.RawComplaint `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Fetch returns all complaints received in [start, end], concatenating pages
// until a short page. A failed page aborts the whole pull; there are no
// retries, so a throttled request surfaces as an APIError.
func (f *APIFetcher) Fetch(ctx context.Context, start, end time.Time) ([]models.RawComplaint, error) {
	var raws []models.RawComplaint

	for offset := 0; ; offset += f.pageSize {
		page, err := f.fetchPage(ctx, start, end, offset)
		if err != nil {
			return nil, err
		}

		raws = append(raws, page...)
		if len(page) < f.pageSize {
			break
		}
	}

	log.Printf("Fetched %d raw records from API for %s..%s",
		len(raws), start.Format("2006-01-02"), end.Format("2006-01-02"))
	return raws, nil
}

func (f *APIFetcher) fetchPage(ctx context.Context, start, end time.Time, offset int) ([]models.RawComplaint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.pageURL(start, end, offset), nil)
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512)); len(bytes.TrimSpace(snippet)) > 0 {
			apiErr.Err = errors.New(string(bytes.TrimSpace(snippet)))
		}
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &APIError{Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	// The API always wraps results in a "hits" envelope; its absence means
	// the response format changed upstream.
	if envelope.Hits == nil {
		return nil, &transform.SchemaError{Missing: []string{"hits"}}
	}

	page := make([]models.RawComplaint, len(envelope.Hits.Hits))
	for i, hit := range envelope.Hits.Hits {
		page[i] = hit.Source
	}
	return page, nil
}

func (f *APIFetcher) pageURL(start, end time.Time, offset int) string {
	params := url.Values{}
	params.Set("date_received_min", start.Format("2006-01-02"))
	params.Set("date_received_max", end.Format("2006-01-02"))
	// Offset pagination is only stable over a fixed sort order.
	params.Set("sort", "created_date_desc")
	params.Set("field", "all")
	params.Set("format", "json")
	params.Set("no_aggs", "true")
	params.Set("size", strconv.Itoa(f.pageSize))
	params.Set("frm", strconv.Itoa(offset))
	return f.endpoint + "?" + params.Encode()
}
