package contracts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"position-desk/internal/api"
)

// Fetcher downloads the daily F&O bhavcopy from the NSE archives.
type Fetcher struct {
	client      *api.Client
	urlTemplate string
	retry       *api.RetryConfig
}

// NewFetcher takes a URL with a {date} placeholder filled as YYYYMMDD.
func NewFetcher(client *api.Client, urlTemplate string) *Fetcher {
	return &Fetcher{client: client, urlTemplate: urlTemplate, retry: api.DefaultRetryConfig()}
}

func (f *Fetcher) URL(date time.Time) string {
	return strings.ReplaceAll(f.urlTemplate, "{date}", date.Format("20060102"))
}

// Fetch returns the bhavcopy rows for date. A missing file (holiday, not yet
// published) surfaces as ErrNoData.
func (f *Fetcher) Fetch(ctx context.Context, date time.Time) ([]Row, error) {
	resp, err := f.client.GETWithRetry(ctx, f.URL(date), f.retry, api.NSEArchiveHeaders())
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w (%s)", ErrNoData, date.Format("02-01-2006"))
		}
		return nil, fmt.Errorf("download bhavcopy: %w", err)
	}
	return ReadBhavcopy(resp.Body)
}

// LoadFile reads a bhavcopy saved locally, zipped or not.
func LoadFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadBhavcopy(data)
}

// FileSource serves the same saved bhavcopy for every date.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(context.Context, time.Time) ([]Row, error) {
	return LoadFile(f.Path)
}
