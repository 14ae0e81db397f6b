package service

import (
	"fmt"
	"os/exec"
	"runtime"
)

// PlatformInstaller is the real ToolInstaller: a best-effort shell-out to
// the platform package manager, mirroring how the agent is provisioned on
// user machines.
type PlatformInstaller struct{}

func (PlatformInstaller) Install() error {
	switch runtime.GOOS {
	case "linux":
		if err := exec.Command("sudo", "apt", "update").Run(); err != nil {
			return fmt.Errorf("apt update failed: %w", err)
		}
		if err := exec.Command("sudo", "apt", "install", "-y", "prusa-slicer").Run(); err != nil {
			return fmt.Errorf("apt install failed: %w", err)
		}
		return nil
	case "darwin":
		if err := exec.Command("brew", "install", "--cask", "prusaslicer").Run(); err != nil {
			return fmt.Errorf("brew install failed: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("no automatic slicer install on %s, please install PrusaSlicer manually", runtime.GOOS)
	}
}
