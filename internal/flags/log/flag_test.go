package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	v1 "ocm.software/open-component-model/vxpack/internal/flags/log/config/v1"
)

func newCmd(out *bytes.Buffer, args ...string) (*cobra.Command, error) {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterLoggingFlags(cmd.PersistentFlags())
	cmd.SetErr(out)
	cmd.SetArgs(args)
	return cmd, cmd.Execute()
}

func TestGetLoggerLevel(t *testing.T) {
	tests := []struct {
		name string
		args []string
		cfg  *v1.Config
		want slog.Level
	}{
		{name: "default", want: slog.LevelWarn},
		{name: "flag", args: []string{"--loglevel", "debug"}, want: slog.LevelDebug},
		{name: "config default", cfg: &v1.Config{DefaultLevel: "info"}, want: slog.LevelInfo},
		{name: "flag wins over config", args: []string{"--loglevel", "error"}, cfg: &v1.Config{DefaultLevel: "info"}, want: slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			cmd, err := newCmd(&bytes.Buffer{}, tt.args...)
			r.NoError(err)
			level, err := GetLoggerLevel(cmd, tt.cfg)
			r.NoError(err)
			r.Equal(tt.want, level)
		})
	}
}

func TestGetBaseLogger(t *testing.T) {
	r := require.New(t)
	var out bytes.Buffer
	cmd, err := newCmd(&out, "--loglevel", "info", "-f", "json", "--log-filter", "resolver=debug")
	r.NoError(err)

	logger, err := GetBaseLogger(cmd, &v1.Config{Rules: []v1.Rule{
		{Level: "error", Conditions: []v1.Condition{{Realm: "resolver"}, {Realm: "archive"}}},
	}})
	r.NoError(err)

	logger.With("realm", "resolver").DebugContext(context.Background(), "resolver debug")
	logger.With("realm", "archive").WarnContext(context.Background(), "archive warn")
	logger.InfoContext(context.Background(), "plain info")

	logs := out.String()
	r.Contains(logs, `"msg":"resolver debug"`)
	r.Contains(logs, `"msg":"plain info"`)
	r.NotContains(logs, "archive warn")
}

func TestInvalidFlags(t *testing.T) {
	r := require.New(t)
	_, err := newCmd(&bytes.Buffer{}, "--loglevel", "loud")
	r.Error(err)

	cmd, err := newCmd(&bytes.Buffer{}, "-f", "xml")
	r.NoError(err)
	_, err = GetBaseLogger(cmd, nil)
	r.ErrorContains(err, "invalid log format")

	cmd, err = newCmd(&bytes.Buffer{}, "--log-filter", "resolver")
	r.NoError(err)
	_, err = GetBaseLogger(cmd, nil)
	r.Error(err)
}
