// Package file provides a path flag that records whether the path exists and
// refuses directories.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const Type = "path"

type Flag struct {
	path   string
	exists bool
}

func (f *Flag) String() string {
	return f.path
}

// Exists reports whether the path named an existing regular file when it was set.
func (f *Flag) Exists() bool {
	return f.exists
}

func (f *Flag) Set(s string) error {
	f.path = s
	f.exists = false
	info, err := os.Stat(s)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("unable to stat path %q: %w", s, err)
	case info.IsDir():
		return fmt.Errorf("path %q is a directory", s)
	case !info.Mode().IsRegular():
		return fmt.Errorf("path %q is not a regular file", s)
	}
	f.exists = true
	return nil
}

func (f *Flag) Type() string {
	return Type
}

func newFlag(value string) *Flag {
	flag := &Flag{path: strings.Clone(value)}
	if info, err := os.Stat(value); err == nil && info.Mode().IsRegular() {
		flag.exists = true
	}
	return flag
}

func Var(f *pflag.FlagSet, name string, value string, usage string) {
	f.Var(newFlag(value), name, usage)
}

func VarP(f *pflag.FlagSet, name, shorthand string, value string, usage string) {
	f.VarP(newFlag(value), name, shorthand, usage)
}

func Get(f *pflag.FlagSet, name string) (*Flag, error) {
	flag := f.Lookup(name)
	if flag == nil {
		return nil, fmt.Errorf("flag accessed but not defined: %s", name)
	}
	val, ok := flag.Value.(*Flag)
	if !ok {
		return nil, fmt.Errorf("flag %s is not of type %s", name, Type)
	}
	return val, nil
}
