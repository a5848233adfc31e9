package blank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultCatalogURL = "https://cdn.statically.io/gh/filearchitect/blank-files/main/files/files.json"
	DefaultBaseURL    = "https://cdn.statically.io/gh/filearchitect/blank-files/main/"

	userAgent   = "structa-blank"
	maxDownload = 64 << 20
)

var (
	ErrCatalogUnavailable = errors.New("blank catalog unavailable")
	ErrNoTemplate         = errors.New("no functional blank available")
	ErrTooLarge           = errors.New("response exceeds size limit")
	errNilHTTPClient      = errors.New("http client is nil")
)

// Entry describes where the template for one extension lives.
type Entry struct {
	URL     string
	Package bool
}

// Index maps a lowercased extension to its catalog entry.
type Index map[string]Entry

type rawCatalog struct {
	Files []rawEntry `json:"files"`
}

type rawEntry struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Package bool   `json:"package"`
}

// Client talks to the remote blank-file catalog and its CDN.
type Client struct {
	http    *http.Client
	catalog string
	base    string
	limit   int64
}

func NewClient(h *http.Client) Client {
	if h == nil {
		h = http.DefaultClient
	}
	return Client{http: h, catalog: DefaultCatalogURL, base: DefaultBaseURL, limit: maxDownload}
}

func (c Client) WithCatalogURL(v string) Client {
	if v = strings.TrimSpace(v); v == "" {
		c.catalog = DefaultCatalogURL
		return c
	}
	c.catalog = v
	return c
}

func (c Client) WithBaseURL(v string) Client {
	if v = strings.TrimSpace(v); v == "" {
		c.base = DefaultBaseURL
		return c
	}
	c.base = strings.TrimRight(v, "/") + "/"
	return c
}

// Catalog fetches and normalizes the remote index.
func (c Client) Catalog(ctx context.Context) (Index, error) {
	body, err := c.get(ctx, c.catalog)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	var raw rawCatalog
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCatalogUnavailable, err)
	}

	index := make(Index, len(raw.Files))
	for _, f := range raw.Files {
		typ := normalizeExtension(f.Type)
		if typ == "" {
			continue
		}
		index[typ] = Entry{URL: c.entryURL(typ, f), Package: f.Package}
	}
	return index, nil
}

// Download fetches a template body.
func (c Client) Download(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}

func (c Client) entryURL(typ string, f rawEntry) string {
	url := strings.TrimSpace(f.URL)
	if url == "" {
		url = c.base + "files/blank." + typ
		if f.Package {
			url += ".zip"
		}
	}
	if !hasScheme(url) {
		url = c.base + strings.TrimLeft(url, "/")
	}
	return url
}

func (c Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.http == nil {
		return nil, errNilHTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, res.Status)
	}
	limit := c.limit
	if limit <= 0 {
		limit = maxDownload
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("read %s: %w (%d bytes)", url, ErrTooLarge, limit)
	}
	return body, nil
}

func hasScheme(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
