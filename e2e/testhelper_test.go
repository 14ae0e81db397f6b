package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/weprint/agent/internal/client"
	"github.com/weprint/agent/internal/handler"
	"github.com/weprint/agent/internal/middleware"
	"github.com/weprint/agent/internal/model"
	"github.com/weprint/agent/internal/service"
)

const testToken = "test-token-for-e2e"

// fakePrinter is an in-memory PrinterBackend. It flips to printing once a
// job starts, which is what the 409 scenarios rely on.
type fakePrinter struct {
	mu        sync.Mutex
	printing  bool
	statusErr error
	uploads   int
	starts    int
	lastFile  string
}

func (f *fakePrinter) Status(ctx context.Context) (*model.StatusSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	state := model.StateIdle
	if f.printing {
		state = model.StatePrinting
	}
	snap := &model.StatusSnapshot{State: state}
	if f.printing {
		snap.Filename = &f.lastFile
	}
	return snap, nil
}

func (f *fakePrinter) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return filepath.Base(filename), nil
}

func (f *fakePrinter) StartPrint(ctx context.Context, basename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.printing = true
	f.lastFile = basename
	return nil
}

func (f *fakePrinter) CancelPrint(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.printing = false
	return nil
}

func (f *fakePrinter) Kind() model.BackendKind { return model.BackendMoonraker }

type testApp struct {
	app     *fiber.App
	printer *fakePrinter
	dir     string
}

// setupApp builds the same route tree as main.go around a fake printer.
// The slicer stays un-resolved; e2e scenarios use gcode sources only.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	dir := t.TempDir()
	printer := &fakePrinter{}

	slicer := service.NewSlicerService(nil, filepath.Join(dir, "my_config.ini"), dir, time.Minute, nil)
	printService := service.NewPrintService(printer, slicer)
	commandService := service.NewCommandService(printService, client.NewDownloader(dir))

	validate := validator.New()
	statusHandler := handler.NewStatusHandler(printService)
	printHandler := handler.NewPrintHandler(printService, validate)
	commandHandler := handler.NewCommandHandler(commandService, validate)

	app := fiber.New()
	auth := middleware.RequireToken(testToken)
	app.Get("/status", auth, statusHandler.Get)
	app.Post("/print", auth, printHandler.Print)
	app.Post("/stop", auth, printHandler.Stop)
	app.Post("/remote_command", auth, commandHandler.Execute)

	return &testApp{app: app, printer: printer, dir: dir}
}

// jsonRequest builds an authenticated JSON request. A nil body sends no
// payload.
func jsonRequest(t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}
