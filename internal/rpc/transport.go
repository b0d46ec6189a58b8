package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Transport invokes a remote function and resolves to one outcome. It does not
// retry and does not multiplex calls.
type Transport interface {
	Call(ctx context.Context, function string, params ...any) (json.RawMessage, error)
}

// HTTPTransport posts envelopes to an execution endpoint.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// HTTPOptions configures NewHTTPTransport. A zero Timeout means no client timeout.
type HTTPOptions struct {
	Token   string
	Timeout time.Duration
	Client  *http.Client
}

// NewHTTPTransport returns a transport for endpoint. When Token is set every
// request carries it as an OAuth2 bearer token.
func NewHTTPTransport(endpoint string, opts HTTPOptions) (*HTTPTransport, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}))
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	return &HTTPTransport{endpoint: endpoint, client: client}, nil
}

func (t *HTTPTransport) Call(ctx context.Context, function string, params ...any) (json.RawMessage, error) {
	req, err := NewRequest(function, params...)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, function, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}
	// error envelopes may arrive with a non-2xx status; prefer the body when it decodes
	if resp.StatusCode >= 300 {
		var env Response
		if json.Unmarshal(data, &env) == nil && env.Error != nil {
			return env.Outcome()
		}
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrTransport, function, resp.StatusCode)
	}
	return DecodeResponse(data)
}
