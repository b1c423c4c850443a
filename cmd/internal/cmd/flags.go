package cmd

import (
	"time"
)

const (
	// ProjectFlag Flag to specify the project descriptor.
	ProjectFlag = "project"
	// ProjectFlagDefault Default project descriptor, looked up in the working directory.
	ProjectFlagDefault = "vxpack.yaml"
	// WorkingDirectoryFlag Flag to specify a custom working directory that relative paths on the command line are resolved against.
	WorkingDirectoryFlag = "working-directory"
	// OutputFlag Flag to specify the output format of a command.
	OutputFlag = "output"
	// OutputDirFlag Flag to override the directory receiving the fat archive.
	OutputDirFlag = "output-dir"
	// RelocateFlag Flag to specify how service registries are merged after assembly.
	RelocateFlag = "relocate"
	// ForkFlag Flag to run the application as a forked java process instead of inline.
	ForkFlag = "fork"
	// RedeployFlag Flag to enable redeploy on source changes.
	RedeployFlag = "redeploy"
	// RedeployPatternFlag Flag to add a glob pattern of files that trigger a redeploy.
	RedeployPatternFlag = "redeploy-pattern"
	// ConfFlag Flag to specify the application configuration passed as -conf.
	ConfFlag = "conf"
	// JavaFlag Flag to specify the java executable.
	JavaFlag = "java"
	// ReadinessFlag Flag to specify how long a forked process has to stay up to count as started.
	ReadinessFlag = "readiness"
	// TimeoutFlag Flag to specify how long stop waits for the process to exit.
	TimeoutFlag = "timeout"
	// TimeoutFlagDefault Default stop timeout.
	TimeoutFlagDefault = 10 * time.Second
	// UseLauncherFlag Flag to ask the launcher to stop the process before signalling it.
	UseLauncherFlag = "use-launcher"
)
