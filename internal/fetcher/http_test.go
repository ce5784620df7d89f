package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	})
}

func TestDownloadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mining-intel/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("report body"))
	}))
	defer srv.Close()

	body, err := newTestFetcher().Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "report body", string(data))
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestFetcher().Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadFailsAfterRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxRetries: 2})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
}

func TestDownloadDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchDocumentSniffsPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Hosts often mislabel PDFs; the magic bytes decide.
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("%PDF-1.7 fake pdf payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	doc, err := newTestFetcher().FetchDocument(context.Background(), srv.URL, dir)
	require.NoError(t, err)

	assert.Equal(t, "pdf", doc.Kind)
	assert.Equal(t, srv.URL, doc.URL)
	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake pdf payload", string(data))
	assert.Equal(t, int64(len(data)), doc.Size)
}

func TestFetchDocumentDefaultsToHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>filing</body></html>"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	doc, err := newTestFetcher().FetchDocument(context.Background(), srv.URL, dir)
	require.NoError(t, err)

	assert.Equal(t, "html", doc.Kind)
	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>filing</body></html>", string(data))
}

func TestFetchDocumentTinyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	doc, err := newTestFetcher().FetchDocument(context.Background(), srv.URL, dir)
	require.NoError(t, err)
	assert.Equal(t, "html", doc.Kind)
	assert.Equal(t, int64(2), doc.Size)
}

func TestAdaptiveLimiterAdjustsRate(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 10)
	assert.Equal(t, rate.Limit(10), lim.Limit())

	lim.OnRateLimit()
	assert.Equal(t, rate.Limit(5), lim.Limit())

	lim.OnRateLimit()
	lim.OnRateLimit()
	assert.Equal(t, rate.Limit(2.5), lim.Limit(), "rate floors at a quarter of initial")

	for range 20 {
		lim.OnSuccess()
	}
	assert.Equal(t, rate.Limit(20), lim.Limit(), "rate caps at double initial")
}

func TestGuessKindFromURL(t *testing.T) {
	assert.Equal(t, "pdf", GuessKindFromURL("https://minedocs.com/23/report.PDF"))
	assert.Equal(t, "pdf", GuessKindFromURL("https://www.sedarplus.ca/filings/technical-report.pdf"))
	assert.Equal(t, "html", GuessKindFromURL("https://www.sec.gov/Archives/edgar/data/filing.htm"))
	assert.Equal(t, "html", GuessKindFromURL("https://example.com/press-release"))
	assert.Equal(t, "html", GuessKindFromURL("://bad"))
}

func TestLimiterForUnknownHostGetsDefault(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{RateLimiters: DefaultRateLimiters()})
	lim := f.limiterFor("https://unknown.example.com/doc.pdf")
	assert.Equal(t, rate.Limit(20), lim.Limit())

	lim = f.limiterFor("https://www.sedarplus.ca/doc.pdf")
	assert.Equal(t, rate.Limit(2), lim.Limit())
}

func TestLimiterForUnknownHostsShareOneLimiter(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})

	a := f.limiterFor("https://unknown-a.example.com/doc.pdf")
	b := f.limiterFor("https://unknown-b.example.com/doc.pdf")
	assert.Same(t, a, b, "unknown hosts must draw from one shared limiter")
	assert.Same(t, a, f.limiterFor("://bad"))
}

func TestNewHTTPFetcherWiresDefaultLimiters(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})

	lim := f.limiterFor("https://www.sedarplus.ca/doc.pdf")
	assert.Equal(t, rate.Limit(2), lim.Limit())

	adaptive := f.adaptiveLimiterFor("https://www.sec.gov/Archives/doc.pdf")
	require.NotNil(t, adaptive)
	assert.Equal(t, rate.Limit(10), adaptive.Limit())
}
