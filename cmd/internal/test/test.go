// Package test runs the vxpack command tree in-process for command tests.
package test

import (
	"io"
	"testing"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/vxpack/cmd"
)

type options struct {
	args   []string
	out    io.Writer
	errOut io.Writer
}

type Option func(*options)

func WithArgs(args ...string) Option {
	return func(o *options) {
		o.args = append(o.args, args...)
	}
}

func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithErrorOutput receives the logs, which are JSON formatted unless args
// say otherwise.
func WithErrorOutput(w io.Writer) Option {
	return func(o *options) {
		o.errOut = w
	}
}

// VXPack executes the root command with the given options and returns it
// for further inspection.
func VXPack(t *testing.T, opts ...Option) (*cobra.Command, error) {
	t.Helper()
	o := &options{out: io.Discard, errOut: io.Discard}
	for _, opt := range opts {
		opt(o)
	}

	root := cmd.New()
	root.SetArgs(append([]string{"--logformat", "json"}, o.args...))
	root.SetOut(o.out)
	root.SetErr(o.errOut)
	return root, root.ExecuteContext(t.Context())
}
