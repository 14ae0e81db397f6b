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

// MoonrakerClient drives a Klipper printer through the Moonraker HTTP API.
type MoonrakerClient struct {
	httpClient *http.Client
	baseURL    string
}

// moonrakerQueryResponse mirrors the combined objects query. Every leaf is
// a pointer so telemetry the firmware did not report stays absent.
type moonrakerQueryResponse struct {
	Result struct {
		Status struct {
			PrintStats *struct {
				State    *string `json:"state"`
				Filename *string `json:"filename"`
			} `json:"print_stats"`
			DisplayStatus *struct {
				Progress *float64 `json:"progress"`
			} `json:"display_status"`
			HeaterBed *struct {
				Temperature *float64 `json:"temperature"`
			} `json:"heater_bed"`
			Extruder *struct {
				Temperature *float64 `json:"temperature"`
			} `json:"extruder"`
		} `json:"status"`
	} `json:"result"`
}

func NewMoonrakerClient(baseURL string) *MoonrakerClient {
	return &MoonrakerClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

func (c *MoonrakerClient) Kind() model.BackendKind { return model.BackendMoonraker }

// Status queries print_stats, display_status and both heaters in one call.
func (c *MoonrakerClient) Status(ctx context.Context) (*model.StatusSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	url := c.baseURL + "/printer/objects/query?print_stats&display_status&heater_bed&extruder"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var parsed moonrakerQueryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	snap := &model.StatusSnapshot{State: model.StateUnknown}
	status := parsed.Result.Status
	if ps := status.PrintStats; ps != nil {
		if ps.State != nil {
			snap.State = model.NormalizeState(*ps.State)
		}
		if ps.Filename != nil && *ps.Filename != "" {
			snap.Filename = ps.Filename
		}
	}
	if ds := status.DisplayStatus; ds != nil && ds.Progress != nil {
		// Moonraker reports 0..1, the wire format wants percent.
		pct := *ds.Progress * 100
		snap.Progress = &pct
	}
	if hb := status.HeaterBed; hb != nil && hb.Temperature != nil {
		snap.BedTemperature = hb.Temperature
	}
	if ex := status.Extruder; ex != nil && ex.Temperature != nil {
		snap.NozzleTemperature = ex.Temperature
	}
	return snap, nil
}

// Upload sends the file as multipart form data into the gcodes directory.
func (c *MoonrakerClient) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
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
	if err := writer.WriteField("path", RemoteUploadPath); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/server/files/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("[Moonraker] → POST %s (%s)", req.URL.String(), basename)
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

// StartPrint names the uploaded file explicitly, prefixed with the remote
// upload directory.
func (c *MoonrakerClient) StartPrint(ctx context.Context, basename string) error {
	payload := map[string]string{
		"filename": RemoteUploadPath + "/" + basename,
	}
	return c.postJSON(ctx, "/printer/print/start", payload, ErrStartRejected)
}

// CancelPrint takes no body.
func (c *MoonrakerClient) CancelPrint(ctx context.Context) error {
	return c.postJSON(ctx, "/printer/print/cancel", nil, ErrCancelRejected)
}

func (c *MoonrakerClient) postJSON(ctx context.Context, endpoint string, payload any, reject error) error {
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Printf("[Moonraker] → POST %s", req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", reject, resp.StatusCode, string(respBody))
	}
	return nil
}

// do executes a read request and returns the body, folding transport errors
// and non-success codes into ErrUnreachable.
func (c *MoonrakerClient) do(req *http.Request) ([]byte, error) {
	log.Printf("[Moonraker] → %s %s", req.Method, req.URL.String())
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
	return body, nil
}
