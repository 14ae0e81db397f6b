package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/weprint/agent/internal/model"
)

// OctoPrintClient drives a printer through the OctoPrint REST API. The API
// key is optional: an open OctoPrint instance accepts requests without one.
type OctoPrintClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// octoprintJobResponse mirrors GET /api/job. OctoPrint has no temperature
// data on this endpoint, so those snapshot fields stay absent.
type octoprintJobResponse struct {
	State *struct {
		Text *string `json:"text"`
	} `json:"state"`
	Job *struct {
		File *struct {
			Name *string `json:"name"`
		} `json:"file"`
	} `json:"job"`
	Progress *struct {
		Completion *float64 `json:"completion"`
	} `json:"progress"`
}

func NewOctoPrintClient(baseURL, apiKey string) *OctoPrintClient {
	return &OctoPrintClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (c *OctoPrintClient) Kind() model.BackendKind { return model.BackendOctoPrint }

func (c *OctoPrintClient) Status(ctx context.Context) (*model.StatusSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/job", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	log.Printf("[OctoPrint] → GET %s", req.URL.String())
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

	var parsed octoprintJobResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	snap := &model.StatusSnapshot{State: model.StateUnknown}
	if parsed.State != nil && parsed.State.Text != nil {
		snap.State = model.NormalizeState(*parsed.State.Text)
	}
	if parsed.Job != nil && parsed.Job.File != nil && parsed.Job.File.Name != nil && *parsed.Job.File.Name != "" {
		snap.Filename = parsed.Job.File.Name
	}
	if parsed.Progress != nil && parsed.Progress.Completion != nil {
		// already percent
		snap.Progress = parsed.Progress.Completion
	}
	return snap, nil
}

// Upload posts the file to local storage. OctoPrint remembers it as the
// currently selected file, which is what StartPrint relies on.
func (c *OctoPrintClient) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	basename := filepath.Base(filename)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", basename)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read upload source: %w", err)
	}
	if err := writer.WriteField("select", "true"); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/local", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setHeaders(req)

	log.Printf("[OctoPrint] → POST %s (%s)", req.URL.String(), basename)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadRejected, resp.StatusCode, string(respBody))
	}
	return basename, nil
}

// StartPrint issues the job start command. The basename is unused on the
// wire: OctoPrint prints the file selected during upload.
func (c *OctoPrintClient) StartPrint(ctx context.Context, basename string) error {
	_ = basename
	return c.postCommand(ctx, "start", ErrStartRejected)
}

func (c *OctoPrintClient) CancelPrint(ctx context.Context) error {
	return c.postCommand(ctx, "cancel", ErrCancelRejected)
}

func (c *OctoPrintClient) postCommand(ctx context.Context, command string, reject error) error {
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	raw, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/job", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	log.Printf("[OctoPrint] → POST %s (%s)", req.URL.String(), command)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", reject, resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *OctoPrintClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}
