// Package enum provides a string flag restricted to a fixed set of values.
// The first option is the default.
package enum

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"ocm.software/open-component-model/vxpack/internal/flags"
)

const Type = "enum"

type Flag struct {
	value   string
	options []string
}

func (f *Flag) String() string {
	return f.value
}

func (f *Flag) Set(s string) error {
	if !slices.Contains(f.options, s) {
		return fmt.Errorf("must be one of %s", strings.Join(f.options, ", "))
	}
	f.value = s
	return nil
}

func (f *Flag) Type() string {
	return Type
}

func (f *Flag) Options() []string {
	return slices.Clone(f.options)
}

func newFlag(options []string) *Flag {
	if len(options) == 0 {
		panic("enum flag needs at least one option")
	}
	return &Flag{value: options[0], options: slices.Clone(options)}
}

func usage(options []string, usage string) string {
	return fmt.Sprintf("%s (one of %s)", usage, strings.Join(options, ", "))
}

func Var(f *pflag.FlagSet, name string, options []string, use string) {
	f.Var(newFlag(options), name, usage(options, use))
}

func VarP(f *pflag.FlagSet, name, shorthand string, options []string, use string) {
	f.VarP(newFlag(options), name, shorthand, usage(options, use))
}

func Get(f *pflag.FlagSet, name string) (string, error) {
	return flags.Get(f, name, Type, func(sval string) (string, error) {
		return sval, nil
	})
}
