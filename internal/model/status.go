package model

// StatusSnapshot is a point-in-time read of the printer, produced fresh on
// every query. Telemetry a backend cannot supply stays nil and is omitted
// from the JSON rather than defaulted to zero.
type StatusSnapshot struct {
	State             PrinterState `json:"printer_status"`
	Filename          *string      `json:"filename,omitempty"`
	Progress          *float64     `json:"progress,omitempty"` // percent, 0-100
	BedTemperature    *float64     `json:"bed_temperature,omitempty"`
	NozzleTemperature *float64     `json:"nozzle_temperature,omitempty"`
}

// IsPrinting reports whether a new job must be rejected.
func (s *StatusSnapshot) IsPrinting() bool {
	return s != nil && s.State == StatePrinting
}

// RelayStatus is the snapshot enriched with identity fields, as pushed to
// the cloud endpoint each relay iteration.
type RelayStatus struct {
	StatusSnapshot
	User        string `json:"user"`
	UserToken   string `json:"user_token"`
	PrinterName string `json:"printer_name"`
}
