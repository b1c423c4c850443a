package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	vxcmd "ocm.software/open-component-model/vxpack/cmd/internal/cmd"
	vxctx "ocm.software/open-component-model/vxpack/internal/context"
	"ocm.software/open-component-model/vxpack/internal/flags/log"
	logv1 "ocm.software/open-component-model/vxpack/internal/flags/log/config/v1"
	"ocm.software/open-component-model/vxpack/internal/project"
)

func loadFlagFromCommand(cmd *cobra.Command, flagName string) (string, error) {
	var (
		value string
		err   error
	)
	if flag := cmd.Flags().Lookup(flagName); flag != nil && flag.Changed {
		value, err = cmd.Flags().GetString(flagName)
		if err != nil {
			slog.DebugContext(cmd.Context(), "could not read flag value",
				slog.String("flag", flagName),
				slog.String("error", err.Error()))
		}
	}

	return value, err
}

// PreRunE loads the project descriptor, sets up logging and registers the
// invocation context for all commands.
func PreRunE(cmd *cobra.Command, _ []string) error {
	workingDirectory, _ := loadFlagFromCommand(cmd, vxcmd.WorkingDirectoryFlag)

	proj, err := loadProject(cmd, workingDirectory)
	if err != nil {
		return err
	}

	var logCfg *logv1.Config
	if proj != nil {
		logCfg = proj.Logging
	}
	// cli flags take precedence over the descriptor
	logger, err := log.GetBaseLogger(cmd, logCfg)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)
	cmd.SetContext(slogcontext.NewCtx(cmd.Context(), logger))

	if proj != nil {
		logger.DebugContext(cmd.Context(), "loaded project descriptor", "name", proj.Name, "baseDir", proj.BaseDir)
	}
	vxctx.Register(cmd, vxctx.New(proj, workingDirectory))

	if parent := cmd.Parent(); parent != nil {
		cmd.SetOut(parent.OutOrStdout())
		cmd.SetErr(parent.ErrOrStderr())
	}

	return nil
}

// loadProject reads the descriptor named by the project flag. A missing
// default descriptor is not an error, commands that need one fail later.
func loadProject(cmd *cobra.Command, workingDirectory string) (*project.Project, error) {
	flag := cmd.Flags().Lookup(vxcmd.ProjectFlag)
	if flag == nil {
		return nil, nil
	}
	path := flag.Value.String()
	if !filepath.IsAbs(path) && workingDirectory != "" {
		path = filepath.Join(workingDirectory, path)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !flag.Changed {
		return nil, nil
	}
	proj, err := project.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load project %s: %w", path, err)
	}
	return proj, nil
}
