package fetcher

import (
	"context"
	"io"
)

// Document is a downloaded source document on local disk.
type Document struct {
	URL  string
	Path string
	Kind string // "pdf" or "html"
	Size int64
}

// Fetcher defines the interface for downloading remote documents.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// FetchDocument downloads the URL into destDir, sniffs whether the
	// payload is a PDF or HTML, and returns the local document.
	FetchDocument(ctx context.Context, url string, destDir string) (*Document, error)
}
