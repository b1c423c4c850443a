package cmd

import (
	"github.com/spf13/cobra"

	"ocm.software/open-component-model/vxpack/cmd/internal/pipeline"
	vxctx "ocm.software/open-component-model/vxpack/internal/context"
	"ocm.software/open-component-model/vxpack/internal/flags/file"
	"ocm.software/open-component-model/vxpack/internal/launch"
)

// RegisterLaunchFlags adds the flags shared by run and start.
func RegisterLaunchFlags(cmd *cobra.Command) {
	cmd.Flags().Bool(RedeployFlag, false, "redeploy the application when sources change, overrides redeploy.enabled")
	cmd.Flags().StringArray(RedeployPatternFlag, nil, "glob pattern of files that trigger a redeploy, may be repeated (default src/**/*.java)")
	file.Var(cmd.Flags(), ConfFlag, "", "application configuration passed as -conf (default src/main/conf/application.json or the first file in src/main/conf)")
	cmd.Flags().String(JavaFlag, "", "java executable (default $JAVA_HOME/bin/java or java from PATH)")
	cmd.Flags().Duration(ReadinessFlag, launch.DefaultReadiness, "time a forked process has to stay up to count as started")
}

// GetRunnerOptions reads the forked process flags registered by
// RegisterLaunchFlags.
func GetRunnerOptions(cmd *cobra.Command) ([]launch.Option, error) {
	java, err := cmd.Flags().GetString(JavaFlag)
	if err != nil {
		return nil, err
	}
	java = pipeline.Java(vxctx.FromContext(cmd.Context()).Project(), java)
	readiness, err := cmd.Flags().GetDuration(ReadinessFlag)
	if err != nil {
		return nil, err
	}
	return []launch.Option{launch.WithJava(java), launch.WithReadiness(readiness)}, nil
}

// GetLaunchOptions reads the flags registered by RegisterLaunchFlags.
func GetLaunchOptions(cmd *cobra.Command, command launch.Command, forked bool) (pipeline.LaunchOptions, error) {
	opts := pipeline.LaunchOptions{Command: command, Forked: forked}

	if cmd.Flags().Changed(RedeployFlag) {
		redeploy, err := cmd.Flags().GetBool(RedeployFlag)
		if err != nil {
			return opts, err
		}
		opts.Redeploy = &redeploy
	}
	patterns, err := cmd.Flags().GetStringArray(RedeployPatternFlag)
	if err != nil {
		return opts, err
	}
	opts.RedeployPatterns = patterns

	conf, err := file.Get(cmd.Flags(), ConfFlag)
	if err != nil {
		return opts, err
	}
	opts.Conf = vxctx.FromContext(cmd.Context()).Path(conf.String())
	return opts, nil
}
