package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/schema"
)

// DefaultCloudEndpoint is used when no chat completion endpoint is configured.
const DefaultCloudEndpoint = "https://api.openai.com/v1/chat/completions"

const (
	cloudTimeout     = 30 * time.Second
	cloudTemperature = 0.7
	cloudSystemRole  = "You are a terminal assistant. Answer concisely."
)

// Cloud talks to a hosted chat completion backend.
type Cloud struct {
	endpoint string
	http     *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewCloud constructs the cloud backend client.
func NewCloud(endpoint string) *Cloud {
	if endpoint == "" {
		endpoint = DefaultCloudEndpoint
	}
	return &Cloud{
		endpoint: endpoint,
		http:     &http.Client{Timeout: cloudTimeout},
	}
}

// Complete performs one chat completion call. A missing credential fails
// before any network traffic.
func (c *Cloud) Complete(ctx context.Context, req core.CompleteRequest) (string, error) {
	if req.Credential == "" {
		return "", schema.ErrMissingCredential
	}
	return complete(ctx, schema.RouteCloud, func(ctx context.Context) (string, error) {
		return c.attempt(ctx, req)
	})
}

func (c *Cloud) attempt(ctx context.Context, req core.CompleteRequest) (string, error) {
	endpoint := c.endpoint
	if req.Endpoint != "" {
		endpoint = req.Endpoint
	}
	payload, err := json.Marshal(chatRequest{
		Model: string(req.Model),
		Messages: []chatMessage{
			{Role: "system", Content: cloudSystemRole},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: cloudTemperature,
	})
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+req.Credential)

	resp, err := c.http.Do(request)
	if err != nil {
		return "", fmt.Errorf("cloud request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return "", &schema.BackendError{
			Route:     schema.RouteCloud,
			Status:    resp.StatusCode,
			Transient: transientStatus(resp.StatusCode),
			Message:   readErrBody(resp.Body),
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", nil
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
