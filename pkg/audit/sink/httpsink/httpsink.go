// Package httpsink delivers audit events to a remote audit service over
// HTTP. This is the delivery path used when the server posts directly to the
// central audit record service instead of going through Kafka.
package httpsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"studygate/pkg/audit"
)

// Sink posts events as JSON to the audit service endpoint.
type Sink struct {
	client   *http.Client
	endpoint string
}

// Option configures the sink.
type Option func(*Sink)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sink) {
		s.client = client
	}
}

// New creates a sink that posts events to the given endpoint.
func New(endpoint string, opts ...Option) *Sink {
	s := &Sink{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver posts a single event. Any non-2xx response is an error so the
// channel worker retries the attempt.
func (s *Sink) Deliver(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", event.CorrelationID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post audit event: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("audit service returned %d", resp.StatusCode)
	}
	return nil
}
