package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/weprint/agent/internal/model"
)

// Transport and backend fault classes. Callers branch with errors.Is; the
// adapter never retries on its own.
var (
	ErrUnreachable       = errors.New("printer unreachable")
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrUploadRejected    = errors.New("upload rejected by printer")
	ErrStartRejected     = errors.New("start rejected by printer")
	ErrCancelRejected    = errors.New("cancel rejected by printer")
)

// Default ports for the two supported protocols.
const (
	MoonrakerPort = 7125
	OctoPrintPort = 5000
)

// Per-operation network timeouts. Uploads move whole gcode files and get
// the long one.
const (
	statusTimeout = 10 * time.Second
	uploadTimeout = 30 * time.Second
	actionTimeout = 10 * time.Second
)

// RemoteUploadPath is the directory convention Moonraker files land in.
const RemoteUploadPath = "gcodes"

// PrinterBackend unifies the two printer-control protocols behind one
// interface, selected once at discovery time. No call site branches on
// backend kind after construction.
type PrinterBackend interface {
	// Status issues the protocol-appropriate read and normalizes the
	// result. Missing telemetry surfaces as absent, never as zero.
	Status(ctx context.Context) (*model.StatusSnapshot, error)

	// Upload transfers the file to the printer's storage and returns the
	// remote basename later calls reference.
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)

	// StartPrint begins the job. Moonraker names the target file;
	// OctoPrint starts whatever was just uploaded.
	StartPrint(ctx context.Context, basename string) error

	// CancelPrint aborts the running job. It does not check whether
	// anything is printing; callers consult Status first if they need
	// that distinction.
	CancelPrint(ctx context.Context) error

	Kind() model.BackendKind
}

// NewPrinterBackend builds the concrete client for an endpoint.
func NewPrinterBackend(ep model.PrinterEndpoint) (PrinterBackend, error) {
	switch ep.Kind {
	case model.BackendMoonraker:
		return NewMoonrakerClient(baseURL(ep.Address, MoonrakerPort)), nil
	case model.BackendOctoPrint:
		return NewOctoPrintClient(baseURL(ep.Address, OctoPrintPort), ep.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", ep.Kind)
	}
}

// baseURL turns a bare host into the protocol's default base URL. Addresses
// that already carry a scheme (and port) are used verbatim, which is what
// tests rely on to point a client at a local fake.
func baseURL(address string, defaultPort int) string {
	if strings.Contains(address, "://") {
		return strings.TrimRight(address, "/")
	}
	return fmt.Sprintf("http://%s:%d", address, defaultPort)
}
