// Package extraction talks to the external document-extraction service that reads
// invoices and delivery notes into line items.
package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gudang-app/gudang/internal/platform/httpx"
	"github.com/gudang-app/gudang/internal/reconcile"
)

// Instructions is sent with every document so the service answers with items only.
const Instructions = `Extract every line item as a JSON array of objects with the keys ` +
	`"code", "name", "qty", "unit", "expiryDate" (YYYY-MM-DD) and "price". ` +
	`Use null for values that are not printed. Answer with JSON only.`

const maxResponseBytes = 8 << 20

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Client wraps interactions with the extraction API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new client. A zero timeout falls back to 60 seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks if the remote service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: extraction returned status %d", httpx.ErrUpstream, resp.StatusCode)
	}
	return nil
}

// Extract uploads a document and returns the service's raw answer.
func (c *Client) Extract(ctx context.Context, filename, contentType string, document io.Reader) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("instructions", Instructions); err != nil {
		return nil, err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, document); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/v1/extract", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: extraction failed with status %d", httpx.ErrUpstream, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// Source is one uploaded document usable as a reconcile.ItemSource.
type Source struct {
	client      *Client
	filename    string
	contentType string
	document    io.Reader
}

func (s Source) ReadItems(ctx context.Context) ([]reconcile.ExtractedItem, error) {
	raw, err := s.client.Extract(ctx, s.filename, s.contentType, s.document)
	if err != nil {
		return nil, err
	}
	return reconcile.ParseExtraction(raw)
}

// Opener adapts the client to the import handler.
func (c *Client) Opener() reconcile.ExtractionOpener {
	return func(filename, contentType string, body io.Reader) reconcile.ItemSource {
		return Source{client: c, filename: filename, contentType: contentType, document: body}
	}
}
