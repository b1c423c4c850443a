package stop

import (
	"fmt"

	"github.com/spf13/cobra"

	vxcmd "ocm.software/open-component-model/vxpack/cmd/internal/cmd"
	"ocm.software/open-component-model/vxpack/cmd/internal/pipeline"
	vxctx "ocm.software/open-component-model/vxpack/internal/context"
	"ocm.software/open-component-model/vxpack/internal/launch"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop an application started with \"vxpack start\".",
		Args:  cobra.NoArgs,
		Long: fmt.Sprintf(`Stop the process recorded in %s of the work directory. The process is
terminated and given --timeout to exit, after that it is killed and stop
fails. Without a project descriptor the working directory is used as work
directory.`, launch.PIDFileName),
		RunE:              StopApplication,
		DisableAutoGenTag: true,
	}

	cmd.Flags().Duration(vxcmd.TimeoutFlag, vxcmd.TimeoutFlagDefault, "time to wait for the process to exit before it is killed")
	cmd.Flags().Bool(vxcmd.UseLauncherFlag, false, "run \"<launcher> stop <pid>\" before signalling the process")
	cmd.Flags().String(vxcmd.JavaFlag, "", "java executable used with --use-launcher")
	return cmd
}

func StopApplication(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	vc := vxctx.FromContext(ctx)

	timeout, err := cmd.Flags().GetDuration(vxcmd.TimeoutFlag)
	if err != nil {
		return err
	}
	useLauncher, err := cmd.Flags().GetBool(vxcmd.UseLauncherFlag)
	if err != nil {
		return err
	}

	workDir := vc.WorkingDirectory()
	var opts []launch.StopOption
	if p := vc.Project(); p != nil {
		workDir = p.WorkDir()
		if useLauncher {
			java, err := cmd.Flags().GetString(vxcmd.JavaFlag)
			if err != nil {
				return err
			}
			plan, err := pipeline.Resolve(ctx, p)
			if err != nil {
				return err
			}
			desc, err := pipeline.Descriptor(ctx, p, pipeline.LaunchOptions{Command: launch.CommandStop, Forked: true})
			if err != nil {
				return err
			}
			opts = append(opts, launch.WithLauncher(desc, pipeline.ResolutionContext(p, plan),
				launch.WithJava(pipeline.Java(p, java)),
				launch.WithOutput(cmd.ErrOrStderr()),
			))
		}
	} else if useLauncher {
		return fmt.Errorf("--%s: %w", vxcmd.UseLauncherFlag, vxctx.ErrNoProject)
	}

	if err := launch.Stop(ctx, workDir, timeout, opts...); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "stopped")
	return err
}
