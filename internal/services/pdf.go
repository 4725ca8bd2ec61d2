package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"VDP-SVG/internal/export"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
)

const pageTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>@page { margin: 0 } html, body { margin: 0; padding: 0 }</style></head>
<body>%s</body></html>`

// PDFService converts bound SVG documents with Gotenberg's Chromium route
// and merges the pages with its PDF engines.
type PDFService struct {
	client     *gotenberg.Client
	timeout    time.Duration
	maxRetries int
}

var _ export.PDFConverter = (*PDFService)(nil)

func NewPDFService(gotenbergURL string, timeout time.Duration) (*PDFService, error) {
	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:     client,
		timeout:    timeout,
		maxRetries: 3,
	}, nil
}

// SVGToPDF renders svg on a single borderless page.
func (s *PDFService) SVGToPDF(ctx context.Context, svg string) ([]byte, error) {
	html := fmt.Sprintf(pageTemplate, stripXMLDeclaration(svg))

	return s.withRetry(ctx, "svg conversion", func(ctx context.Context) ([]byte, error) {
		index, err := document.FromReader("index.html", strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to create document from reader: %w", err)
		}
		req := gotenberg.NewHTMLRequest(index)
		return readResponse(s.client.Send(ctx, req))
	})
}

// Merge joins pdfs into one document in the given order.
func (s *PDFService) Merge(ctx context.Context, pdfs [][]byte) ([]byte, error) {
	return s.withRetry(ctx, "pdf merge", func(ctx context.Context) ([]byte, error) {
		docs := make([]document.Document, 0, len(pdfs))
		for i, pdf := range pdfs {
			// Gotenberg merges in alphanumeric filename order
			doc, err := document.FromReader(fmt.Sprintf("%05d.pdf", i+1), bytes.NewReader(pdf))
			if err != nil {
				return nil, fmt.Errorf("failed to create document from reader: %w", err)
			}
			docs = append(docs, doc)
		}
		req := gotenberg.NewMergeRequest(docs...)
		return readResponse(s.client.Send(ctx, req))
	})
}

// withRetry runs attempt up to maxRetries times. Each attempt builds its
// own request since document readers are consumed by a send.
func (s *PDFService) withRetry(ctx context.Context, what string, attempt func(context.Context) ([]byte, error)) ([]byte, error) {
	var lastErr error

	for n := 1; n <= s.maxRetries; n++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		body, err := attempt(attemptCtx)
		cancel()
		if err == nil {
			return body, nil
		}

		lastErr = err
		log.Printf("[WARN] %s attempt %d/%d failed: %v", what, n, s.maxRetries, err)

		if n < s.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(n) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed %s after %d attempts: %w", what, s.maxRetries, lastErr)
}

func readResponse(resp *http.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func stripXMLDeclaration(svg string) string {
	svg = strings.TrimSpace(svg)
	if strings.HasPrefix(svg, "<?xml") {
		if end := strings.Index(svg, "?>"); end >= 0 {
			return strings.TrimSpace(svg[end+2:])
		}
	}
	return svg
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
