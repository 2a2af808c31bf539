// Package authserver is the outbound client for the OAuth service that owns
// user credentials. Registration here must succeed before a local account
// record is created.
package authserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	dErrors "studygate/pkg/domain-errors"
)

//go:generate mockgen -source=client.go -destination=mocks/client-mocks.go -package=mocks Client

// Registration is the auth server's answer to a successful credential
// registration.
type Registration struct {
	UserID string `json:"userId"`
}

// Client registers credentials with the auth server.
type Client interface {
	RegisterUser(ctx context.Context, email, password string) (*Registration, error)
}

// HTTPClient talks to the auth server over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type registerPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type upstreamError struct {
	ErrorDescription string `json:"error_description"`
}

// RegisterUser creates credentials for the user. A 4xx from the auth server
// means the registration was rejected (policy violation, duplicate); any
// other failure is an upstream availability problem.
func (c *HTTPClient) RegisterUser(ctx context.Context, email, password string) (*Registration, error) {
	body, err := json.Marshal(registerPayload{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("marshal register payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "auth server unreachable")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		var reg Registration
		if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode auth server response")
		}
		if reg.UserID == "" {
			return nil, dErrors.New(dErrors.CodeInternal, "auth server returned no user id")
		}
		return &reg, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var upstream upstreamError
		_ = json.NewDecoder(resp.Body).Decode(&upstream)
		msg := upstream.ErrorDescription
		if msg == "" {
			msg = "auth server rejected the registration"
		}
		return nil, dErrors.New(dErrors.CodeInvalidInput, msg)
	default:
		return nil, dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("auth server returned %d", resp.StatusCode))
	}
}
