package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/acronymdata/complaints-etl/internal/config"
	"github.com/acronymdata/complaints-etl/internal/models"
	"github.com/acronymdata/complaints-etl/internal/transform"
)

func apiConfig(url string, pageSize int) config.FetchConfig {
	return config.FetchConfig{
		APIEndpoint: url,
		Timeout:     30 * time.Second,
		PageSize:    pageSize,
	}
}

func envelope(records []models.RawComplaint) map[string]interface{} {
	hits := make([]map[string]interface{}, len(records))
	for i, r := range records {
		hits[i] = map[string]interface{}{"_source": r}
	}
	return map[string]interface{}{
		"hits": map[string]interface{}{"hits": hits},
	}
}

func TestAPIFetcher_Fetch(t *testing.T) {
	records := []models.RawComplaint{
		{ComplaintID: "4001", DateReceived: "2021-04-01", Product: "Mortgage", Company: "Acme Bank"},
		{ComplaintID: "4002", DateReceived: "2021-04-02", Product: "Credit card", Company: "Acme Bank"},
	}

	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"date_received_min": q.Get("date_received_min"),
			"date_received_max": q.Get("date_received_max"),
			"sort":              q.Get("sort"),
			"field":             q.Get("field"),
			"no_aggs":           q.Get("no_aggs"),
			"format":            q.Get("format"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope(records))
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(apiConfig(server.URL, 100))

	start := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 4, 2, 0, 0, 0, 0, time.UTC)
	raws, err := fetcher.Fetch(context.Background(), start, end)

	assert.NoError(t, err)
	assert.Len(t, raws, 2)
	assert.Equal(t, "4001", raws[0].ComplaintID)
	assert.Equal(t, "Mortgage", raws[0].Product)
	assert.Equal(t, "2021-04-01", gotQuery["date_received_min"])
	assert.Equal(t, "2021-04-02", gotQuery["date_received_max"])
	assert.Equal(t, "created_date_desc", gotQuery["sort"])
	assert.Equal(t, "all", gotQuery["field"])
	assert.Equal(t, "true", gotQuery["no_aggs"])
	assert.Equal(t, "json", gotQuery["format"])
}

func TestAPIFetcher_Fetch_Paginated(t *testing.T) {
	// 5 records with page size 2: three requests, the last one short.
	var all []models.RawComplaint
	for i := 0; i < 5; i++ {
		all = append(all, models.RawComplaint{
			ComplaintID:  strconv.Itoa(1000 + i),
			DateReceived: "2021-04-01",
		})
	}

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		frm, _ := strconv.Atoi(r.URL.Query().Get("frm"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		page := all[frm:]
		if len(page) > size {
			page = page[:size]
		}
		json.NewEncoder(w).Encode(envelope(page))
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(apiConfig(server.URL, 2))
	raws, err := fetcher.Fetch(context.Background(), time.Now(), time.Now())

	assert.NoError(t, err)
	assert.Len(t, raws, 5)
	assert.Equal(t, 3, requests)
	assert.Equal(t, "1004", raws[4].ComplaintID)
}

func TestAPIFetcher_Fetch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream search cluster unavailable")
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(apiConfig(server.URL, 100))
	raws, err := fetcher.Fetch(context.Background(), time.Now(), time.Now())

	assert.Error(t, err)
	assert.Nil(t, raws)

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.False(t, apiErr.Throttled())

	// The response body is folded into the message for operators.
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "upstream search cluster unavailable")
}

func TestAPIFetcher_Fetch_APIErrorEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(apiConfig(server.URL, 100))
	_, err := fetcher.Fetch(context.Background(), time.Now(), time.Now())

	assert.Error(t, err)
	assert.Equal(t, "complaints api: status 502", err.Error())
}

func TestAPIFetcher_Fetch_Throttled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(apiConfig(server.URL, 100))
	_, err := fetcher.Fetch(context.Background(), time.Now(), time.Now())

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Throttled())
}

func TestAPIFetcher_Fetch_MissingHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(apiConfig(server.URL, 100))
	raws, err := fetcher.Fetch(context.Background(), time.Now(), time.Now())

	assert.Error(t, err)
	assert.Nil(t, raws)

	var schemaErr *transform.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Missing, "hits")
}

func TestAPIFetcher_Fetch_NonPositivePageSize(t *testing.T) {
	// A zero page size must not make the pagination loop spin forever; the
	// fetcher falls back to the default instead.
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, strconv.Itoa(defaultPageSize), r.URL.Query().Get("size"))
		json.NewEncoder(w).Encode(envelope(nil))
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(apiConfig(server.URL, 0))
	raws, err := fetcher.Fetch(context.Background(), time.Now(), time.Now())

	assert.NoError(t, err)
	assert.Empty(t, raws)
	assert.Equal(t, 1, requests)
}

func TestAPIFetcher_Fetch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(apiConfig(server.URL, 100))
	_, err := fetcher.Fetch(context.Background(), time.Now(), time.Now())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal response")
}
