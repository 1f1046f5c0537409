package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"aquatrend/internal/dataprocessing"
	apperrors "aquatrend/internal/errors"
)

// maxFetchBytes caps remote downloads. Lab exports are a few megabytes
// at most; anything larger is a misconfigured URL.
const maxFetchBytes = 64 << 20

// Source locates one input table. When both are set the URL wins and
// the file is the offline fallback.
type Source struct {
	URL  string
	File string
}

// Fetcher downloads published exports over HTTP.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher with the given request timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "fetcher")),
	}
}

// Fetch downloads the resource at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("invalid source URL %s", rawURL), err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("failed to fetch %s", rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d fetching %s", resp.StatusCode, rawURL), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("failed to read %s", rawURL), err)
	}

	f.logger.InfoContext(ctx, "fetched source",
		slog.String("url", rawURL),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

// Load resolves a source into a table. A configured URL takes
// precedence over the local file.
func (f *Fetcher) Load(ctx context.Context, src Source, sheetNames []string) (*dataprocessing.Table, error) {
	if src.URL != "" {
		data, err := f.Fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		if isCSV(urlPath(src.URL)) {
			return LoadCSVBytes(data)
		}
		return LoadExcelBytes(data, sheetNames)
	}

	if src.File == "" {
		return nil, apperrors.NewConfigError("source has neither URL nor file", nil)
	}
	if isCSV(src.File) {
		return LoadCSV(src.File)
	}
	return LoadExcel(src.File, sheetNames)
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// urlPath extracts the path portion so extension sniffing ignores
// query strings.
func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return path.Base(u.Path)
}
