// Package ocr extracts plain text from downloaded source documents. PDFs go
// through a provider (local pdftotext or the Mistral OCR API); HTML filings
// are stripped of markup locally.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"
)

// Result is the extracted text of one document.
type Result struct {
	Text  string
	Pages int
}

// Provider extracts text from PDF files.
type Provider interface {
	ExtractText(ctx context.Context, pdfPath string) (*Result, error)
}

// Options selects and configures the OCR provider.
type Options struct {
	Provider      string
	PdfToTextPath string
	MistralAPIKey string
	MistralModel  string
}

// NewProvider creates a Provider based on opts. An empty provider name means
// local pdftotext.
func NewProvider(opts Options) (Provider, error) {
	switch opts.Provider {
	case "local", "":
		return NewPdfToText(opts.PdfToTextPath), nil
	case "mistral":
		if opts.MistralAPIKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(opts.MistralAPIKey, opts.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", opts.Provider)
	}
}
