package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/dag"

	"ocm.software/open-component-model/vxpack/internal/coordinate"
)

// ProjectVertex is the id of the vertex representing the project itself in
// the dependency graph.
const ProjectVertex = "<project>"

// Plan is the ordered outcome of resolving a project's dependency tree.
// Direct holds the packaged direct dependencies in declared order, Transitive
// everything they pull in, breadth first in declared order and without
// anything that is already a direct dependency.
type Plan struct {
	Direct     []Artifact
	Transitive []Artifact

	graph *dag.DirectedAcyclicGraph[string]
}

// Plan builds the dependency graph for deps, rejects cycles and resolves
// every vertex.
func (r *Resolver) Plan(ctx context.Context, deps []coordinate.Dependency) (*Plan, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "resolver"))

	graph := dag.NewDirectedAcyclicGraph[string]()
	if err := graph.AddVertex(ProjectVertex); err != nil {
		return nil, err
	}

	addVertex := func(c coordinate.Coordinate) error {
		if err := graph.AddVertex(c.String(), map[string]any{"coordinate": c}); err != nil && !errors.Is(err, dag.ErrAlreadyExists) {
			return err
		}
		return nil
	}

	type edge struct {
		from string
		dep  coordinate.Dependency
	}

	var direct, transitive []coordinate.Dependency
	directSet := map[coordinate.Coordinate]struct{}{}
	var queue []edge

	for _, dep := range deps {
		if !dep.Scope.Packaged() {
			logger.DebugContext(ctx, "excluding dependency by scope", "dependency", dep.String())
			continue
		}
		dep.Coordinate = dep.Coordinate.Normalize()
		if err := addVertex(dep.Coordinate); err != nil {
			return nil, err
		}
		if err := graph.AddEdge(ProjectVertex, dep.Coordinate.String()); err != nil {
			return nil, fmt.Errorf("invalid dependency graph: %w", err)
		}
		if _, ok := directSet[dep.Coordinate]; ok {
			continue
		}
		directSet[dep.Coordinate] = struct{}{}
		direct = append(direct, dep)
		queue = append(queue, edge{from: dep.Coordinate.String(), dep: dep})
	}

	visited := map[coordinate.Coordinate]struct{}{}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range current.dep.Transitive {
			if !child.Scope.Packaged() || child.Optional {
				logger.DebugContext(ctx, "excluding transitive dependency", "dependency", child.String(), "via", current.from)
				continue
			}
			child.Coordinate = child.Coordinate.Normalize()
			if err := addVertex(child.Coordinate); err != nil {
				return nil, err
			}
			if err := graph.AddEdge(current.from, child.Coordinate.String()); err != nil {
				return nil, fmt.Errorf("invalid dependency graph: %w", err)
			}
			if _, ok := visited[child.Coordinate]; ok {
				continue
			}
			visited[child.Coordinate] = struct{}{}
			if _, isDirect := directSet[child.Coordinate]; !isDirect {
				transitive = append(transitive, child)
			}
			queue = append(queue, edge{from: child.Coordinate.String(), dep: child})
		}
	}

	resolved := r.Resolve(ctx, append(append([]coordinate.Dependency{}, direct...), transitive...))

	plan := &Plan{graph: graph}
	for _, dep := range direct {
		plan.Direct = append(plan.Direct, resolved[dep.Coordinate])
	}
	for _, dep := range transitive {
		plan.Transitive = append(plan.Transitive, resolved[dep.Coordinate])
	}
	return plan, nil
}

// Paths returns the files of all present artifacts, direct ones first.
func (p *Plan) Paths() (direct, transitive []string) {
	return presentPaths(p.Direct), presentPaths(p.Transitive)
}

// Artifacts returns direct then transitive artifacts.
func (p *Plan) Artifacts() []Artifact {
	all := make([]Artifact, 0, len(p.Direct)+len(p.Transitive))
	all = append(all, p.Direct...)
	return append(all, p.Transitive...)
}

// Absent returns every artifact that could not be resolved.
func (p *Plan) Absent() []Artifact {
	var absent []Artifact
	for _, a := range p.Artifacts() {
		if !a.Present() {
			absent = append(absent, a)
		}
	}
	return absent
}

// Dependents reports how many vertices, the project included, depend on c.
func (p *Plan) Dependents(c coordinate.Coordinate) int {
	if p.graph == nil {
		return 0
	}
	n, _ := p.graph.GetInDegree(c.Normalize().String())
	return n
}

func presentPaths(artifacts []Artifact) []string {
	var paths []string
	for _, a := range artifacts {
		if a.Present() {
			paths = append(paths, a.Path)
		}
	}
	return paths
}
