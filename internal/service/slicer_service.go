package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ToolInstaller attempts to make the slicer binary available on this host.
// The real implementation shells out to a platform package manager; tests
// substitute a fake.
type ToolInstaller interface {
	Install() error
}

// SlicerService turns a model file into machine code by invoking an
// external slicer. Tool discovery happens lazily on first use; if the tool
// cannot be found even after one install attempt, the pipeline stays
// degraded for the process lifetime and Model-kind jobs fail fast.
type SlicerService struct {
	candidates    []string
	defaultConfig string
	outputDir     string
	timeout       time.Duration
	installer     ToolInstaller

	mu       sync.Mutex
	resolved string
	degraded bool

	// seams for tests
	lookPath func(string) (string, error)
	runSlice func(ctx context.Context, name string, args ...string) error
}

// DefaultSlicerCandidates are the binary names PrusaSlicer installs under,
// in probe order.
var DefaultSlicerCandidates = []string{"prusa-slicer", "PrusaSlicer", "prusa-slicer-console"}

func NewSlicerService(candidates []string, defaultConfig, outputDir string, timeout time.Duration, installer ToolInstaller) *SlicerService {
	if len(candidates) == 0 {
		candidates = DefaultSlicerCandidates
	}
	if outputDir == "" {
		outputDir = "."
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &SlicerService{
		candidates:    candidates,
		defaultConfig: defaultConfig,
		outputDir:     outputDir,
		timeout:       timeout,
		installer:     installer,
		lookPath:      exec.LookPath,
		runSlice:      runSliceCmd,
	}
}

// DefaultConfig returns the config file used when a request names none.
func (s *SlicerService) DefaultConfig() string { return s.defaultConfig }

// Available reports whether the slicer can currently be used, resolving the
// binary (and attempting an install) if that has not happened yet.
func (s *SlicerService) Available() bool {
	_, err := s.ensureTool()
	return err == nil
}

// Slice converts modelPath into a gcode file named after the model's base
// name. An empty configPath selects the configured default.
func (s *SlicerService) Slice(ctx context.Context, modelPath, configPath string) (string, error) {
	cfg := configPath
	if cfg == "" {
		cfg = s.defaultConfig
	}
	if _, err := os.Stat(cfg); err != nil {
		return "", fmt.Errorf("%w: %s", ErrConfigMissing, cfg)
	}

	tool, err := s.ensureTool()
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
	output := filepath.Join(s.outputDir, base+".gcode")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.Printf("[Slicer] slicing %s into %s using %s", modelPath, output, cfg)
	if err := s.runSlice(ctx, tool, "--slice", "--load", cfg, "--output", output, modelPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSliceFailed, err)
	}
	if _, err := os.Stat(output); err != nil {
		return "", fmt.Errorf("%w: expected output %s was not produced", ErrSliceFailed, output)
	}
	log.Printf("[Slicer] sliced successfully: %s", output)
	return output, nil
}

// ensureTool resolves the slicer binary once. A failed resolve after the
// single install attempt marks the pipeline degraded permanently.
func (s *SlicerService) ensureTool() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved != "" {
		return s.resolved, nil
	}
	if s.degraded {
		return "", ErrSliceToolMissing
	}

	if tool := s.find(); tool != "" {
		s.resolved = tool
		return tool, nil
	}

	if s.installer != nil {
		log.Printf("[Slicer] slicer not found, attempting install")
		if err := s.installer.Install(); err != nil {
			log.Printf("[Slicer] install attempt failed: %v", err)
		} else if tool := s.find(); tool != "" {
			log.Printf("[Slicer] installed and found slicer: %s", tool)
			s.resolved = tool
			return tool, nil
		}
	}

	log.Printf("[Slicer] no slicer available, model jobs disabled")
	s.degraded = true
	return "", ErrSliceToolMissing
}

func (s *SlicerService) find() string {
	for _, candidate := range s.candidates {
		if p, err := s.lookPath(candidate); err == nil {
			return p
		}
	}
	return ""
}

func runSliceCmd(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
