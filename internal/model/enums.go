package model

import (
	"path/filepath"
	"strings"
)

// PrinterState is the normalized job state reported by any backend.
type PrinterState string

const (
	StateIdle      PrinterState = "idle"
	StatePrinting  PrinterState = "printing"
	StateComplete  PrinterState = "complete"
	StateCancelled PrinterState = "cancelled"
	StateError     PrinterState = "error"
	StateUnknown   PrinterState = "unknown"
)

// NormalizeState maps a raw backend state string (Moonraker print_stats.state
// or OctoPrint state.text) onto the shared PrinterState enum. Paused jobs
// count as printing: the printer is busy and a new job must not start.
func NormalizeState(raw string) PrinterState {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StateUnknown
	case strings.Contains(s, "printing"), strings.Contains(s, "paus"),
		strings.Contains(s, "resuming"):
		return StatePrinting
	case strings.Contains(s, "cancel"):
		return StateCancelled
	case strings.Contains(s, "complete"), strings.Contains(s, "finish"):
		return StateComplete
	case strings.Contains(s, "error"), strings.Contains(s, "offline"):
		return StateError
	case s == "standby", s == "ready", strings.Contains(s, "operational"), s == "idle":
		return StateIdle
	default:
		return StateUnknown
	}
}

// BackendKind identifies which printer-control protocol an endpoint speaks.
type BackendKind string

const (
	BackendMoonraker BackendKind = "moonraker"
	BackendOctoPrint BackendKind = "octoprint"
)

var ValidBackendKinds = []BackendKind{BackendMoonraker, BackendOctoPrint}

// SourceKind distinguishes ready-to-print machine code from models that
// still need slicing.
type SourceKind string

const (
	SourceGCode SourceKind = "gcode"
	SourceModel SourceKind = "model"
)

// SourceKindForPath classifies a file by extension. Only .stl files go
// through the slicer; everything else is treated as machine code.
func SourceKindForPath(path string) SourceKind {
	if strings.EqualFold(filepath.Ext(path), ".stl") {
		return SourceModel
	}
	return SourceGCode
}

// CommandKind is the action requested by a remote command payload.
type CommandKind string

const (
	CommandStopPrint CommandKind = "stop_print"
	CommandPrint     CommandKind = "print"
)
