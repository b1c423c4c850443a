// Package context carries the loaded project and the working directory of a
// command invocation through context.Context.
package context

import (
	"context"
	"errors"
	"path/filepath"

	"ocm.software/open-component-model/vxpack/internal/project"
)

var ErrNoProject = errors.New("no project descriptor loaded")

type Context struct {
	project          *project.Project
	workingDirectory string
}

type contextKey struct{}

func WithProject(ctx context.Context, p *project.Project) context.Context {
	c := FromContext(ctx).clone()
	c.project = p
	return context.WithValue(ctx, contextKey{}, c)
}

func WithWorkingDirectory(ctx context.Context, dir string) context.Context {
	c := FromContext(ctx).clone()
	c.workingDirectory = dir
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the invocation context, or nil if there is none.
func FromContext(ctx context.Context) *Context {
	c, _ := ctx.Value(contextKey{}).(*Context)
	return c
}

// Holder is anything that owns a replaceable context, such as a
// *cobra.Command.
type Holder interface {
	Context() context.Context
	SetContext(ctx context.Context)
}

// Register stores c in the context of h.
func Register(h Holder, c *Context) {
	h.SetContext(context.WithValue(h.Context(), contextKey{}, c))
}

func New(p *project.Project, workingDirectory string) *Context {
	return &Context{project: p, workingDirectory: workingDirectory}
}

func (c *Context) clone() *Context {
	if c == nil {
		return &Context{}
	}
	cp := *c
	return &cp
}

func (c *Context) Project() *project.Project {
	if c == nil {
		return nil
	}
	return c.project
}

// RequireProject fails with ErrNoProject if no descriptor was loaded.
func (c *Context) RequireProject() (*project.Project, error) {
	if p := c.Project(); p != nil {
		return p, nil
	}
	return nil, ErrNoProject
}

// WorkingDirectory anchors relative paths given on the command line. It is
// the current directory unless set.
func (c *Context) WorkingDirectory() string {
	if c == nil || c.workingDirectory == "" {
		return "."
	}
	return c.workingDirectory
}

// Path resolves a command line path against WorkingDirectory and returns it
// absolute, so it stays valid wherever the child process is started.
func (c *Context) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	joined := filepath.Join(c.WorkingDirectory(), p)
	if abs, err := filepath.Abs(joined); err == nil {
		return abs
	}
	return joined
}
