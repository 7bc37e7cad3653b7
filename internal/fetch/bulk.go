package fetch

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/acronymdata/complaints-etl/internal/config"
	"github.com/acronymdata/complaints-etl/internal/models"
)

// BulkFetcher downloads the full complaint database snapshot, a zipped CSV
// published at a fixed URL.
type BulkFetcher struct {
	url        string
	httpClient *http.Client
}

// NewBulkFetcher creates a new bulk snapshot fetcher
func NewBulkFetcher(cfg config.FetchConfig) *BulkFetcher {
	return &BulkFetcher{
		url: cfg.BulkFileURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Fetch downloads the snapshot to a temporary file, decompresses it, and
// decodes the contained CSV. It returns the raw records together with the
// CSV header so the caller can validate the schema.
func (f *BulkFetcher) Fetch(ctx context.Context) ([]models.RawComplaint, []string, error) {
	tmpPath, err := f.download(ctx)
	if err != nil {
		return nil, nil, &DownloadError{URL: f.url, Err: err}
	}
	defer os.Remove(tmpPath)

	raws, header, err := readSnapshot(tmpPath)
	if err != nil {
		return nil, nil, &DownloadError{URL: f.url, Err: err}
	}

	log.Printf("Downloaded bulk snapshot: %d raw records", len(raws))
	return raws, header, nil
}

// download saves the snapshot to a temporary file and returns its path.
func (f *BulkFetcher) download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received status code %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "complaints-*.csv.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	return tmpFile.Name(), nil
}

// readSnapshot opens the zip archive and decodes the first CSV entry.
func readSnapshot(path string) ([]models.RawComplaint, []string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unexpected content, not a zip archive: %w", err)
	}
	defer archive.Close()

	var entry *zip.File
	for _, file := range archive.File {
		if strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
			entry = file
			break
		}
	}
	if entry == nil {
		return nil, nil, errors.New("archive contains no CSV entry")
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create CSV decoder: %w", err)
	}

	var raws []models.RawComplaint
	for {
		var raw models.RawComplaint
		if err := dec.Decode(&raw); err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, fmt.Errorf("failed to decode CSV row: %w", err)
		}
		raws = append(raws, raw)
	}

	return raws, dec.Header(), nil
}
