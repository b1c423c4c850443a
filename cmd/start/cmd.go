package start

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
		Use:   "start",
		Short: "Start the application in the background.",
		Args:  cobra.NoArgs,
		Long: fmt.Sprintf(`Start the application as a detached java process and return once it is
up. The process id is written to %s in the work directory, where
"vxpack stop" picks it up. Output of the process goes to %s.`, launch.PIDFileName, launch.DetachedLogFileName),
		RunE:              StartApplication,
		DisableAutoGenTag: true,
	}

	vxcmd.RegisterLaunchFlags(cmd)
	return cmd
}

func StartApplication(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, err := vxctx.FromContext(ctx).RequireProject()
	if err != nil {
		return err
	}
	opts, err := vxcmd.GetLaunchOptions(cmd, launch.CommandStart, true)
	if err != nil {
		return err
	}
	runnerOpts, err := vxcmd.GetRunnerOptions(cmd)
	if err != nil {
		return err
	}

	plan, err := pipeline.Resolve(ctx, p)
	if err != nil {
		return err
	}
	desc, err := pipeline.Descriptor(ctx, p, opts)
	if err != nil {
		return err
	}

	runner := launch.NewRunner(desc, pipeline.ResolutionContext(p, plan), append(runnerOpts, launch.WithDetached(true))...)
	if err := runner.Start(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "started process %d\n", runner.Pid())
	return err
}
