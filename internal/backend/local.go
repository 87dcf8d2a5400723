package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/schema"
)

// DefaultLocalEndpoint is the fixed loopback generation endpoint.
const DefaultLocalEndpoint = "http://127.0.0.1:11434"

const localTimeout = 20 * time.Second

// Local talks to the loopback generation backend.
type Local struct {
	endpoint string
	http     *http.Client
}

type localRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type localResponse struct {
	Response string `json:"response"`
}

// NewLocal constructs the local backend client.
func NewLocal(endpoint string) *Local {
	if endpoint == "" {
		endpoint = DefaultLocalEndpoint
	}
	return &Local{
		endpoint: endpoint,
		http:     &http.Client{Timeout: localTimeout},
	}
}

// Complete performs one non-streaming generation call.
func (c *Local) Complete(ctx context.Context, req core.CompleteRequest) (string, error) {
	return complete(ctx, schema.RouteLocal, func(ctx context.Context) (string, error) {
		return c.attempt(ctx, req)
	})
}

func (c *Local) attempt(ctx context.Context, req core.CompleteRequest) (string, error) {
	endpoint := c.endpoint
	if req.Endpoint != "" {
		endpoint = req.Endpoint
	}
	payload, err := json.Marshal(localRequest{
		Model:  string(req.Model),
		Prompt: req.Prompt,
		Stream: false,
	})
	if err != nil {
		return "", err
	}
	url := strings.TrimRight(endpoint, "/") + "/api/generate"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(request)
	if err != nil {
		return "", fmt.Errorf("local request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return "", &schema.BackendError{
			Route:     schema.RouteLocal,
			Status:    resp.StatusCode,
			Transient: transientStatus(resp.StatusCode),
			Message:   readErrBody(resp.Body),
		}
	}

	var parsed localResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// Parse misses degrade to an empty response rather than failing.
		return "", nil
	}
	return parsed.Response, nil
}
