package anvil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/trebuchet-org/deltasim/internal/domain/config"
)

// Process is a running fork node. Wait is called exactly once, by the
// goroutine supervising the process.
type Process interface {
	Pid() int
	Signal(sig os.Signal) error
	Kill() error
	Wait() error
}

// LaunchSpec describes one fork process to start
type LaunchSpec struct {
	NetworkID string
	ForkURL   string
	Host      string
	Port      int
}

// Launcher starts fork processes
type Launcher interface {
	Launch(spec LaunchSpec) (Process, error)
}

// ExecLauncher starts anvil binaries as child processes
type ExecLauncher struct {
	path   string
	logDir string
	log    *slog.Logger
}

// NewExecLauncher creates a launcher for the configured anvil binary
func NewExecLauncher(cfg *config.RuntimeConfig, log *slog.Logger) *ExecLauncher {
	path := cfg.Fork.AnvilPath
	if path == "" {
		path = "anvil"
	}
	return &ExecLauncher{
		path:   path,
		logDir: cfg.Fork.LogDir,
		log:    log.With("component", "ExecLauncher"),
	}
}

// Launch starts anvil forking spec.ForkURL on spec.Host:spec.Port
func (l *ExecLauncher) Launch(spec LaunchSpec) (Process, error) {
	cmd := exec.Command(l.path, buildAnvilArgs(spec)...)

	logFile, err := l.openLogFile(spec)
	if err != nil {
		return nil, err
	}
	if logFile != nil {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	} else {
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("failed to start anvil: %w", err)
	}

	l.log.Debug("Started anvil", "network", spec.NetworkID, "port", spec.Port, "pid", cmd.Process.Pid)

	return &execProcess{cmd: cmd, logFile: logFile}, nil
}

func (l *ExecLauncher) openLogFile(spec LaunchSpec) (*os.File, error) {
	if l.logDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(l.logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := fmt.Sprintf("deltasim-fork-%s-%d.log", spec.NetworkID, spec.Port)
	f, err := os.Create(filepath.Join(l.logDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return f, nil
}

// buildAnvilArgs constructs the anvil command line for a fork
func buildAnvilArgs(spec LaunchSpec) []string {
	host := spec.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return []string{
		"--port", strconv.Itoa(spec.Port),
		"--host", host,
		"--fork-url", spec.ForkURL,
	}
}

type execProcess struct {
	cmd     *exec.Cmd
	logFile *os.File
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *execProcess) Wait() error {
	err := p.cmd.Wait()
	if p.logFile != nil {
		p.logFile.Close()
	}
	return err
}
