package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/weprint/agent/internal/model"
)

// CloudClient pushes enriched status snapshots upstream and carries back
// any command the cloud wants executed. Delivery is best-effort: a failed
// push is the caller's problem to log, nothing is retried or queued.
type CloudClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

type receiveStatusResponse struct {
	Command *model.RelayCommand `json:"command"`
}

func NewCloudClient(appURL, token string) *CloudClient {
	return &CloudClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    normalizeAppURL(appURL),
		token:      token,
	}
}

// PushStatus posts the snapshot to /receive_status. A nil command in the
// response means the cloud had nothing for us this round.
func (c *CloudClient) PushStatus(ctx context.Context, status *model.RelayStatus) (*model.RelayCommand, error) {
	raw, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/receive_status", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	log.Printf("[Cloud] → POST %s", req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnreachable, resp.StatusCode, string(body))
	}

	if len(body) == 0 {
		return nil, nil
	}
	var parsed receiveStatusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return parsed.Command, nil
}

// normalizeAppURL tolerates a configured endpoint with or without a scheme.
func normalizeAppURL(appURL string) string {
	u := strings.TrimRight(appURL, "/")
	if u != "" && !strings.Contains(u, "://") {
		u = "http://" + u
	}
	return u
}
