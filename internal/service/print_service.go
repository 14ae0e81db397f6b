package service

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/weprint/agent/internal/client"
	"github.com/weprint/agent/internal/model"
)

// ModelSlicer is the slicing pipeline as the print service sees it.
type ModelSlicer interface {
	Slice(ctx context.Context, modelPath, configPath string) (string, error)
}

// PrintService owns the job lifecycle against one printer. It guards the
// slice → upload → start sequence with a single lock so that two
// near-simultaneous submissions cannot both pass the "not printing" check
// and both start a job.
type PrintService struct {
	backend client.PrinterBackend
	slicer  ModelSlicer

	submitLock chan struct{} // single-slot semaphore around SubmitJob
}

func NewPrintService(backend client.PrinterBackend, slicer ModelSlicer) *PrintService {
	return &PrintService{
		backend:    backend,
		slicer:     slicer,
		submitLock: make(chan struct{}, 1),
	}
}

// Status reads a fresh snapshot from the printer. Both the /status handler
// and the relay loop go through here.
func (s *PrintService) Status(ctx context.Context) (*model.StatusSnapshot, error) {
	return s.backend.Status(ctx)
}

// SubmitJob runs the full job-initiation sequence under the submit lock:
//
//  1. reject if the source file does not exist
//  2. reject if the printer is already printing
//  3. slice if the source is a model
//  4. upload the machine-code artifact
//  5. start the print
//
// It returns the remote basename the printer knows the job by.
func (s *PrintService) SubmitJob(ctx context.Context, req model.JobRequest) (string, error) {
	select {
	case s.submitLock <- struct{}{}:
		defer func() { <-s.submitLock }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if _, err := os.Stat(req.SourcePath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrSourceMissing, req.SourcePath)
	}

	snap, err := s.backend.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to check printer status: %w", err)
	}
	if snap.IsPrinting() {
		return "", ErrAlreadyPrinting
	}

	sourcePath := req.SourcePath
	if req.SourceKind == model.SourceModel {
		gcodePath, err := s.slicer.Slice(ctx, req.SourcePath, req.SliceConfigPath)
		if err != nil {
			return "", err
		}
		sourcePath = gcodePath
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrSourceMissing, sourcePath)
	}
	defer f.Close()

	basename, err := s.backend.Upload(ctx, f, sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	if err := s.backend.StartPrint(ctx, basename); err != nil {
		return "", fmt.Errorf("failed to start print: %w", err)
	}

	log.Printf("[Print] started %s", basename)
	return basename, nil
}

// StopPrint cancels the running job. A printer with nothing running yields
// ErrNothingToCancel rather than a backend round-trip failure.
func (s *PrintService) StopPrint(ctx context.Context) error {
	snap, err := s.backend.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to check printer status: %w", err)
	}
	if !snap.IsPrinting() {
		return ErrNothingToCancel
	}

	if err := s.backend.CancelPrint(ctx); err != nil {
		return fmt.Errorf("failed to cancel print: %w", err)
	}
	log.Printf("[Print] cancelled current job")
	return nil
}
