package run

import (
	"github.com/spf13/cobra"

	vxcmd "ocm.software/open-component-model/vxpack/cmd/internal/cmd"
	"ocm.software/open-component-model/vxpack/cmd/internal/pipeline"
	vxctx "ocm.software/open-component-model/vxpack/internal/context"
	"ocm.software/open-component-model/vxpack/internal/launch"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the application in the foreground.",
		Args:  cobra.NoArgs,
		Long: `Run the application with its launcher until it exits. By default a java
process is forked with the classes, resources and resolved dependencies on the
classpath. SIGINT and SIGTERM stop the process gracefully and the exit code of
the process becomes the exit code of vxpack.

With --fork=false the launcher is looked up in the registry of inline entry
points of this binary instead.`,
		Example: `  # Run with redeploy of changed java sources
  vxpack run --redeploy

  # Watch resources as well
  vxpack run --redeploy --redeploy-pattern 'src/**/*.java' --redeploy-pattern 'src/main/resources/**'`,
		RunE:              RunApplication,
		DisableAutoGenTag: true,
	}

	cmd.Flags().Bool(vxcmd.ForkFlag, true, "run the launcher in a forked java process")
	vxcmd.RegisterLaunchFlags(cmd)
	return cmd
}

func RunApplication(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, err := vxctx.FromContext(ctx).RequireProject()
	if err != nil {
		return err
	}
	forked, err := cmd.Flags().GetBool(vxcmd.ForkFlag)
	if err != nil {
		return err
	}
	opts, err := vxcmd.GetLaunchOptions(cmd, launch.CommandRun, forked)
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
	rc := pipeline.ResolutionContext(p, plan)
	desc, err := pipeline.Descriptor(ctx, p, opts)
	if err != nil {
		return err
	}

	if !desc.Forked {
		return launch.RunInline(ctx, desc, rc)
	}
	runner := launch.NewRunner(desc, rc, append(runnerOpts, launch.WithOutput(cmd.OutOrStdout()))...)
	return runner.Run(ctx)
}
