package mouseemul

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

const daemonEnv = "MOUSE_EMUL_DAEMONIZED"

func isDaemonChild() bool {
	return os.Getenv(daemonEnv) != ""
}

// daemonCommand builds the background copy. It keeps the working directory
// so relative device and config paths resolve as they did in the parent.
func daemonCommand(exe string, args []string) *exec.Cmd {
	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), daemonEnv+"=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd
}

// daemonize starts a detached copy of the process in a new session with the
// same arguments. Standard output and error stay attached.
func daemonize(args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	cmd := daemonCommand(exe, args)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start background process: %w", err)
	}

	inputLogger.Info().Int("pid", cmd.Process.Pid).Msg("running in background")
	return cmd.Process.Release()
}
