package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/vxpack/cmd/dependencies"
	vxcmd "ocm.software/open-component-model/vxpack/cmd/internal/cmd"
	"ocm.software/open-component-model/vxpack/cmd/pack"
	"ocm.software/open-component-model/vxpack/cmd/run"
	"ocm.software/open-component-model/vxpack/cmd/setup/hooks"
	"ocm.software/open-component-model/vxpack/cmd/start"
	"ocm.software/open-component-model/vxpack/cmd/stop"
	"ocm.software/open-component-model/vxpack/cmd/version"
	"ocm.software/open-component-model/vxpack/internal/flags/log"
	"ocm.software/open-component-model/vxpack/internal/launch"
)

// Execute runs the command tree and exits with the exit code of a forked
// application, or 1 on any other error. It is called by main.main().
func Execute() {
	err := New().Execute()
	if err == nil {
		return
	}
	var exitErr *launch.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		os.Exit(exitErr.Code)
	}
	os.Exit(1)
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vxpack [sub-command]",
		Short: "Package and run Vert.x applications",
		Long: `vxpack assembles a Vert.x application and its dependencies into a single
  executable fat archive and manages the lifecycle of the running application:
  run in the foreground, start in the background, redeploy on change and stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: hooks.PreRunE,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().StringP(vxcmd.ProjectFlag, "p", vxcmd.ProjectFlagDefault, `Project descriptor to load.`)
	cmd.PersistentFlags().String(vxcmd.WorkingDirectoryFlag, "", `Specify a custom working directory that the project descriptor and relative paths are resolved against.`)
	log.RegisterLoggingFlags(cmd.PersistentFlags())
	cmd.AddCommand(pack.New())
	cmd.AddCommand(run.New())
	cmd.AddCommand(start.New())
	cmd.AddCommand(stop.New())
	cmd.AddCommand(dependencies.New())
	cmd.AddCommand(version.New())
	return cmd
}
