package e2e

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatus_Idle(t *testing.T) {
	ta := setupApp(t)

	resp, err := ta.app.Test(jsonRequest(t, http.MethodGet, "/status", nil, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["printer_status"] != "idle" {
		t.Errorf("expected printer_status idle, got %v", result["printer_status"])
	}
	// absent telemetry must stay absent, not zeroed
	for _, key := range []string{"filename", "progress", "bed_temperature", "nozzle_temperature"} {
		if _, present := result[key]; present {
			t.Errorf("expected %s to be omitted for an idle fake printer", key)
		}
	}
}

func TestStatus_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := ta.app.Test(jsonRequest(t, http.MethodGet, "/status", nil, ""), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestStatus_WrongToken(t *testing.T) {
	ta := setupApp(t)

	resp, err := ta.app.Test(jsonRequest(t, http.MethodGet, "/status", nil, "wrong"), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestStatus_PrinterUnreachable(t *testing.T) {
	ta := setupApp(t)
	ta.printer.statusErr = errors.New("connection refused")

	resp, err := ta.app.Test(jsonRequest(t, http.MethodGet, "/status", nil, testToken), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusInternalServerError)
}
