package blank

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structa/internal/infra/archive"
	fsinfra "structa/internal/infra/fs"
	"structa/internal/logging"
)

const testBase = "https://blanks.test/main/"

type stubTransport struct {
	mu        sync.Mutex
	responses map[string][]byte
	fail      bool
	calls     map[string]int
}

func newStubTransport(responses map[string][]byte) *stubTransport {
	return &stubTransport{responses: responses, calls: map[string]int{}}
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := req.URL.String()
	s.calls[url]++
	if s.fail {
		return nil, errors.New("network unreachable")
	}
	body, ok := s.responses[url]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (s *stubTransport) count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func catalogURL() string {
	return testBase + "files/files.json"
}

func newTestResolver(t *testing.T, transport *stubTransport, ttl time.Duration) (*Resolver, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "BlankFiles")
	client := NewClient(&http.Client{Transport: transport}).
		WithCatalogURL(catalogURL()).
		WithBaseURL(testBase)
	r, err := NewResolver(fsinfra.OSFS{}, client, archive.ZipExtractor{}, dir, ttl, logging.Logger{})
	require.NoError(t, err)
	return r, dir
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestCatalogNormalizesEntries(t *testing.T) {
	transport := newStubTransport(map[string][]byte{
		catalogURL(): []byte(`{"files":[
			{"type":"DOCX"},
			{"type":"key","package":true},
			{"type":"psd","url":"files/custom.psd"},
			{"type":"txt","url":"https://elsewhere.test/blank.txt"},
			{"type":""}
		]}`),
	})
	client := NewClient(&http.Client{Transport: transport}).
		WithCatalogURL(catalogURL()).
		WithBaseURL("https://blanks.test/main")

	index, err := client.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Index{
		"docx": {URL: testBase + "files/blank.docx"},
		"key":  {URL: testBase + "files/blank.key.zip", Package: true},
		"psd":  {URL: testBase + "files/custom.psd"},
		"txt":  {URL: "https://elsewhere.test/blank.txt"},
	}, index)
}

func TestCatalogRejectsBadStatusAndBody(t *testing.T) {
	client := NewClient(&http.Client{Transport: newStubTransport(nil)}).WithCatalogURL(catalogURL())
	_, err := client.Catalog(context.Background())
	require.ErrorIs(t, err, ErrCatalogUnavailable)

	transport := newStubTransport(map[string][]byte{catalogURL(): []byte("<html>")})
	client = NewClient(&http.Client{Transport: transport}).WithCatalogURL(catalogURL())
	_, err = client.Catalog(context.Background())
	require.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestDownloadRejectsOversizedBody(t *testing.T) {
	url := testBase + "files/blank.bin"
	transport := newStubTransport(map[string][]byte{url: []byte("0123456789")})
	client := NewClient(&http.Client{Transport: transport})

	client.limit = 10
	data, err := client.Download(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	client.limit = 9
	_, err = client.Download(context.Background(), url)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestFunctionalBlankSkipsOversizedTemplate(t *testing.T) {
	transport := newStubTransport(map[string][]byte{
		catalogURL():                 []byte(`{"files":[{"type":"bin"}]}`),
		testBase + "files/blank.bin": bytes.Repeat([]byte("x"), 64),
	})
	r, dir := newTestResolver(t, transport, time.Hour)
	r.Client.limit = 40

	_, ok := r.FunctionalBlank(context.Background(), "bin")
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(dir, "blank.bin"))
}

func TestFunctionalBlankPrefersLocalFile(t *testing.T) {
	transport := newStubTransport(nil)
	r, dir := newTestResolver(t, transport, DefaultCatalogTTL)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.docx"), []byte("local"), 0o644))

	data, ok := r.FunctionalBlank(context.Background(), ".DOCX")
	require.True(t, ok)
	assert.Equal(t, "local", string(data))
	assert.Zero(t, transport.count(catalogURL()))
}

func TestFunctionalBlankDownloadsAndCaches(t *testing.T) {
	transport := newStubTransport(map[string][]byte{
		catalogURL():                  []byte(`{"files":[{"type":"docx"}]}`),
		testBase + "files/blank.docx": []byte("remote"),
	})
	r, dir := newTestResolver(t, transport, DefaultCatalogTTL)

	data, ok := r.FunctionalBlank(context.Background(), "docx")
	require.True(t, ok)
	assert.Equal(t, "remote", string(data))

	cached, err := os.ReadFile(filepath.Join(dir, "blank.docx"))
	require.NoError(t, err)
	assert.Equal(t, "remote", string(cached))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must be renamed away")

	data, ok = r.FunctionalBlank(context.Background(), "docx")
	require.True(t, ok)
	assert.Equal(t, "remote", string(data))
	assert.Equal(t, 1, transport.count(testBase+"files/blank.docx"))
}

func TestFunctionalBlankUnknownExtension(t *testing.T) {
	transport := newStubTransport(map[string][]byte{
		catalogURL(): []byte(`{"files":[{"type":"docx"}]}`),
	})
	r, _ := newTestResolver(t, transport, DefaultCatalogTTL)

	data, ok := r.FunctionalBlank(context.Background(), "xyz")
	assert.False(t, ok)
	assert.Nil(t, data)

	_, ok = r.FunctionalBlank(context.Background(), "")
	assert.False(t, ok)
}

func TestFunctionalBlankUnreachableCatalog(t *testing.T) {
	transport := newStubTransport(nil)
	transport.fail = true
	r, dir := newTestResolver(t, transport, DefaultCatalogTTL)

	data, ok := r.FunctionalBlank(context.Background(), "docx")
	assert.False(t, ok)
	assert.Nil(t, data)
	assert.NoDirExists(t, dir)
}

func TestFunctionalBlankDownloadFailure(t *testing.T) {
	transport := newStubTransport(map[string][]byte{
		catalogURL(): []byte(`{"files":[{"type":"docx"}]}`),
	})
	r, _ := newTestResolver(t, transport, DefaultCatalogTTL)

	_, ok := r.FunctionalBlank(context.Background(), "docx")
	assert.False(t, ok)
}

func TestFunctionalBlankExtractsPackage(t *testing.T) {
	pkg := zipBytes(t, map[string]string{
		"blank.key/Index.zip":        "index",
		"__MACOSX/blank.key/._Index": "meta",
	})
	transport := newStubTransport(map[string][]byte{
		catalogURL():                     []byte(`{"files":[{"type":"key","package":true}]}`),
		testBase + "files/blank.key.zip": pkg,
	})
	r, dir := newTestResolver(t, transport, DefaultCatalogTTL)

	data, ok := r.FunctionalBlank(context.Background(), "key")
	require.True(t, ok)
	assert.Equal(t, pkg, data)

	assert.FileExists(t, filepath.Join(dir, "blank.key", "Index.zip"))
	assert.NoDirExists(t, filepath.Join(dir, macOSMetadata))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "temp_")
	}
}

func TestResolverLiteralInitializesCaches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.txt"), []byte("local"), 0o644))

	r := &Resolver{FS: fsinfra.OSFS{}, CacheDir: dir}
	data, ok := r.FunctionalBlank(context.Background(), "txt")
	require.True(t, ok)
	assert.Equal(t, "local", string(data))

	_, ok = r.FunctionalBlank(context.Background(), "docx")
	assert.False(t, ok)
	require.NoError(t, r.Clear())

	_, ok = (&Resolver{}).FunctionalBlank(context.Background(), "txt")
	assert.False(t, ok)
}

func TestCatalogCacheHonorsTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCatalogCache(time.Hour)
	cache.Now = func() time.Time { return now }

	calls := 0
	fetch := func(context.Context) (Index, error) {
		calls++
		return Index{"txt": {URL: "u"}}, nil
	}

	for i := 0; i < 3; i++ {
		_, err := cache.Get(context.Background(), fetch)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Hour)
	_, err := cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	cache.Invalidate()
	_, err = cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCatalogCacheZeroTTLAlwaysRefetches(t *testing.T) {
	cache := NewCatalogCache(0)
	calls := 0
	fetch := func(context.Context) (Index, error) {
		calls++
		return Index{}, nil
	}
	_, _ = cache.Get(context.Background(), fetch)
	_, _ = cache.Get(context.Background(), fetch)
	assert.Equal(t, 2, calls)
}

func TestCatalogCacheKeepsPreviousIndexOnFailure(t *testing.T) {
	cache := NewCatalogCache(0)
	_, err := cache.Get(context.Background(), func(context.Context) (Index, error) {
		return Index{"txt": {URL: "u"}}, nil
	})
	require.NoError(t, err)

	index, err := cache.Get(context.Background(), func(context.Context) (Index, error) {
		return nil, ErrCatalogUnavailable
	})
	require.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Contains(t, index, "txt")
}

func TestClearRemovesCachedTemplates(t *testing.T) {
	transport := newStubTransport(map[string][]byte{
		catalogURL():                  []byte(`{"files":[{"type":"docx"}]}`),
		testBase + "files/blank.docx": []byte("remote"),
	})
	r, dir := newTestResolver(t, transport, DefaultCatalogTTL)
	_, ok := r.FunctionalBlank(context.Background(), "docx")
	require.True(t, ok)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	require.NoError(t, r.Clear())
	assert.NoFileExists(t, filepath.Join(dir, "blank.docx"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))

	_, ok = r.FunctionalBlank(context.Background(), "docx")
	require.True(t, ok)
	assert.Equal(t, 2, transport.count(catalogURL()))
}
