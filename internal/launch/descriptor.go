// Package launch starts and stops the packaged application, either inline
// through a registered entry point or as a forked java process.
package launch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

type Command string

const (
	CommandRun   Command = "run"
	CommandStart Command = "start"
	CommandStop  Command = "stop"
)

const (
	DefaultLauncher        = "io.vertx.core.Launcher"
	DefaultRedeployPattern = "src/**/*.java"

	ArgLauncherClass = "--launcher-class"
	ArgRedeploy      = "--redeploy"
	ArgConf          = "-conf"
)

var (
	ErrInvalidCommand = errors.New("invalid launch command")
	ErrMissingPID     = errors.New("stop requires a process id")
)

// Descriptor is the resolved description of one launch.
type Descriptor struct {
	Launcher        string
	ApplicationUnit string
	Command         Command

	Redeploy bool
	// RedeployPatterns are glob patterns of files that trigger a redeploy.
	// An empty list selects DefaultRedeployPattern.
	RedeployPatterns []string

	ConfigPath string
	// ExtraArgs follow the launcher options, they are not passed to stop.
	ExtraArgs []string
	WorkDir   string
	// BaseDir anchors the default redeploy pattern.
	BaseDir string
	Forked  bool
}

func (d Descriptor) launcher() string {
	if d.Launcher == "" {
		return DefaultLauncher
	}
	return d.Launcher
}

func (d Descriptor) command() Command {
	if d.Command == "" {
		return CommandRun
	}
	return d.Command
}

// Args returns the arguments handed to the launcher. pid is only used by the
// stop command, where it is required.
func (d Descriptor) Args(pid string) ([]string, error) {
	cmd := d.command()
	switch cmd {
	case CommandRun, CommandStart, CommandStop:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCommand, cmd)
	}

	args := []string{string(cmd)}
	if cmd != CommandStop && d.ApplicationUnit != "" {
		args = append(args, d.ApplicationUnit)
	}
	args = append(args, ArgLauncherClass, d.launcher())

	if d.Redeploy && cmd == CommandRun {
		patterns, err := d.redeployPatterns()
		if err != nil {
			return nil, err
		}
		args = append(args, ArgRedeploy+"="+strings.Join(patterns, ","))
	}

	if d.ConfigPath != "" && cmd != CommandStop {
		args = append(args, ArgConf, d.ConfigPath)
	}
	if cmd != CommandStop {
		args = append(args, d.ExtraArgs...)
	}

	if cmd == CommandStop {
		if pid == "" {
			return nil, ErrMissingPID
		}
		args = append(args, pid)
	}
	return args, nil
}

func (d Descriptor) redeployPatterns() ([]string, error) {
	if len(d.RedeployPatterns) == 0 {
		pattern := DefaultRedeployPattern
		if d.BaseDir != "" {
			pattern = filepath.ToSlash(filepath.Join(d.BaseDir, filepath.FromSlash(pattern)))
		}
		return []string{pattern}, nil
	}
	for _, p := range d.RedeployPatterns {
		if _, err := glob.Compile(p, '/'); err != nil {
			return nil, fmt.Errorf("invalid redeploy pattern %q: %w", p, err)
		}
	}
	return d.RedeployPatterns, nil
}
