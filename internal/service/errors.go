package service

import "errors"

// Expected, recoverable outcomes and pipeline faults. Handlers map these to
// distinct HTTP codes so callers can tell "busy by design" from a fault.
var (
	ErrAlreadyPrinting    = errors.New("printer is already printing")
	ErrNothingToCancel    = errors.New("no print in progress to cancel")
	ErrSourceMissing      = errors.New("source file does not exist")
	ErrConfigMissing      = errors.New("slicer config file does not exist")
	ErrSliceToolMissing   = errors.New("slicer is not installed")
	ErrSliceFailed        = errors.New("slicing failed")
	ErrBadPayload         = errors.New("missing or invalid command payload")
	ErrUnsupportedCommand = errors.New("unsupported command")
)
