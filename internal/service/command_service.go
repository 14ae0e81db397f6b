package service

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/weprint/agent/internal/model"
)

// Fetcher downloads a remote artifact reference to local disk.
type Fetcher interface {
	Fetch(ctx context.Context, url, filename string) (string, error)
}

// JobSubmitter is the slice of PrintService the command dispatcher needs.
type JobSubmitter interface {
	SubmitJob(ctx context.Context, req model.JobRequest) (string, error)
	StopPrint(ctx context.Context) error
}

// CommandService interprets remote command payloads. The /remote_command
// handler and the relay loop both dispatch through here, so every path into
// a print goes through the same job guard.
type CommandService struct {
	prints     JobSubmitter
	downloader Fetcher
}

func NewCommandService(prints JobSubmitter, downloader Fetcher) *CommandService {
	return &CommandService{
		prints:     prints,
		downloader: downloader,
	}
}

// Dispatch executes one command and returns the remote filename for print
// commands (empty for stop).
func (s *CommandService) Dispatch(ctx context.Context, cmd *model.RelayCommand) (string, error) {
	if cmd == nil || cmd.Command == "" {
		return "", ErrBadPayload
	}

	switch cmd.Command {
	case model.CommandStopPrint:
		return "", s.prints.StopPrint(ctx)
	case model.CommandPrint:
		return s.dispatchPrint(ctx, cmd)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Command)
	}
}

func (s *CommandService) dispatchPrint(ctx context.Context, cmd *model.RelayCommand) (string, error) {
	var req model.JobRequest

	switch {
	case cmd.STLPath != "":
		name := cmd.STLFile
		if name == "" {
			name = "file.stl"
		}
		local, err := s.downloader.Fetch(ctx, cmd.STLPath, name)
		if err != nil {
			return "", fmt.Errorf("failed to download model: %w", err)
		}
		req = model.JobRequest{
			SourcePath:      local,
			SourceKind:      model.SourceModel,
			SliceConfigPath: s.resolveConfig(cmd.IniFile),
		}
	case cmd.GCodePath != "":
		name := cmd.GCodeFile
		if name == "" {
			name = "file.gcode"
		}
		local, err := s.downloader.Fetch(ctx, cmd.GCodePath, name)
		if err != nil {
			return "", fmt.Errorf("failed to download gcode: %w", err)
		}
		req = model.JobRequest{
			SourcePath: local,
			SourceKind: model.SourceGCode,
		}
	default:
		return "", fmt.Errorf("%w: print command needs stl_path or gcode_path", ErrBadPayload)
	}

	return s.prints.SubmitJob(ctx, req)
}

// resolveConfig keeps a missing referenced config from failing the whole
// command: it falls back to the pipeline default, as the cloud side often
// names configs that only exist on other installs.
func (s *CommandService) resolveConfig(iniFile string) string {
	if iniFile == "" {
		return ""
	}
	if _, err := os.Stat(iniFile); err != nil {
		log.Printf("[Command] config %s not found, using default", iniFile)
		return ""
	}
	return iniFile
}
