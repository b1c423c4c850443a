// Package log wires the logging flags into a slog logger.
package log

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ocm.software/open-component-model/vxpack/internal/flags/enum"
	v1 "ocm.software/open-component-model/vxpack/internal/flags/log/config/v1"
	"ocm.software/open-component-model/vxpack/internal/flags/log/filter"
)

const (
	LevelFlag  = "loglevel"
	FormatFlag = "logformat"
	FilterFlag = "log-filter"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

func RegisterLoggingFlags(flags *pflag.FlagSet) {
	enum.Var(flags, LevelFlag, []string{
		"warn",
		"debug",
		"info",
		"error",
	}, "set the log level")
	flags.StringP(FormatFlag, "f", FormatText, "set the log format (text, json)")
	flags.StringSlice(FilterFlag, nil, "set the log level of a single realm as realm=level, e.g. resolver=debug")
}

// GetBaseLogger builds the logger for cmd. Flags take precedence over cfg,
// which may be nil.
func GetBaseLogger(cmd *cobra.Command, cfg *v1.Config) (*slog.Logger, error) {
	logLevel, err := GetLoggerLevel(cmd, cfg)
	if err != nil {
		return nil, err
	}

	format := cmd.Flag(FormatFlag).Value.String()
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: logLevel,
		})
	case FormatText:
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: logLevel,
		})
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	levels, err := filter.LevelsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw, err := cmd.Flags().GetStringSlice(FilterFlag)
	if err != nil {
		return nil, err
	}
	fromFlags, err := filter.LevelsFromStrings(raw...)
	if err != nil {
		return nil, err
	}
	maps.Copy(levels, fromFlags)
	if len(levels) > 0 {
		handler = filter.New(handler, filter.LoggingKeyRealm, levels)
	}

	return slog.New(handler), nil
}

// GetLoggerLevel returns the --loglevel value, or the configured default level
// if the flag was not set.
func GetLoggerLevel(cmd *cobra.Command, cfg *v1.Config) (slog.Level, error) {
	logLevel, err := enum.Get(cmd.Flags(), LevelFlag)
	if err != nil {
		return slog.LevelWarn, err
	}
	if !cmd.Flags().Changed(LevelFlag) && cfg != nil && cfg.DefaultLevel != "" {
		logLevel = cfg.DefaultLevel
	}
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", logLevel)
	}
	return level, nil
}
