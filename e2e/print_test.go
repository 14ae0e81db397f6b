package e2e

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func writeGCode(t *testing.T, ta *testApp, name string) string {
	t.Helper()
	path := filepath.Join(ta.dir, name)
	if err := os.WriteFile(path, []byte("G28\nG1 X10 Y10\n"), 0o644); err != nil {
		t.Fatalf("failed to write gcode file: %v", err)
	}
	return path
}

func TestPrint_Success(t *testing.T) {
	ta := setupApp(t)
	path := writeGCode(t, ta, "cube.gcode")

	resp, err := ta.app.Test(jsonRequest(t, http.MethodPost, "/print",
		map[string]string{"file_path": path}, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["success"] != true {
		t.Error("expected success true")
	}
	if result["filename"] != "cube.gcode" {
		t.Errorf("expected filename cube.gcode, got %v", result["filename"])
	}
}

func TestPrint_RepeatWhilePrinting(t *testing.T) {
	ta := setupApp(t)
	path := writeGCode(t, ta, "cube.gcode")
	body := map[string]string{"file_path": path}

	resp, err := ta.app.Test(jsonRequest(t, http.MethodPost, "/print", body, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	// the fake printer now reports printing; the same call must conflict
	resp, err = ta.app.Test(jsonRequest(t, http.MethodPost, "/print", body, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)

	if ta.printer.starts != 1 {
		t.Errorf("expected exactly 1 start, got %d", ta.printer.starts)
	}
}

func TestPrint_MissingField(t *testing.T) {
	ta := setupApp(t)

	resp, err := ta.app.Test(jsonRequest(t, http.MethodPost, "/print",
		map[string]string{}, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestPrint_SourceMissing(t *testing.T) {
	ta := setupApp(t)

	resp, err := ta.app.Test(jsonRequest(t, http.MethodPost, "/print",
		map[string]string{"file_path": "/no/such/cube.gcode"}, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	if ta.printer.uploads != 0 {
		t.Errorf("expected no uploads for a missing source, got %d", ta.printer.uploads)
	}
}

func TestStop_NothingToCancel(t *testing.T) {
	ta := setupApp(t)

	resp, err := ta.app.Test(jsonRequest(t, http.MethodPost, "/stop", nil, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
}

func TestStop_WhilePrinting(t *testing.T) {
	ta := setupApp(t)
	path := writeGCode(t, ta, "cube.gcode")

	resp, err := ta.app.Test(jsonRequest(t, http.MethodPost, "/print",
		map[string]string{"file_path": path}, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	resp, err = ta.app.Test(jsonRequest(t, http.MethodPost, "/stop", nil, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	// the printer is idle again
	resp, err = ta.app.Test(jsonRequest(t, http.MethodGet, "/status", nil, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	result := parseJSON(t, resp)
	if result["printer_status"] != "idle" {
		t.Errorf("expected idle after cancel, got %v", result["printer_status"])
	}
}
