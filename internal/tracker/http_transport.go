package tracker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tbourn/go-blog-analytics/internal/geo"
)

// HTTPTransport posts payloads as JSON to an ingestion endpoint.
type HTTPTransport struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPTransport returns a transport with a short client timeout.
func NewHTTPTransport(endpoint string) *HTTPTransport {
	return &HTTPTransport{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Send posts p. The event id travels as the Idempotency-Key header and edge
// geo headers from p.Header are forwarded so the receiver can geolocate the
// original visitor. Any non-2xx response is an error.
func (h *HTTPTransport) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.ID != "" {
		req.Header.Set("Idempotency-Key", p.ID)
	}
	for _, k := range geo.Headers {
		if v := p.Header.Get(k); v != "" {
			req.Header.Set(k, v)
		}
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ingest responded %d", resp.StatusCode)
	}
	return nil
}
