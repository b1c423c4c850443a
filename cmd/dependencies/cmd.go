package dependencies

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	vxcmd "ocm.software/open-component-model/vxpack/cmd/internal/cmd"
	"ocm.software/open-component-model/vxpack/cmd/internal/pipeline"
	vxctx "ocm.software/open-component-model/vxpack/internal/context"
	"ocm.software/open-component-model/vxpack/internal/flags/enum"
	"ocm.software/open-component-model/vxpack/internal/render"
	"ocm.software/open-component-model/vxpack/internal/resolver"
)

const (
	KindDirect     = "direct"
	KindTransitive = "transitive"
)

// Dependency is one row of the dependency listing.
type Dependency struct {
	Coordinate string `json:"coordinate"`
	Kind       string `json:"kind"`
	Path       string `json:"path,omitempty"`
	Error      string `json:"error,omitempty"`
	Dependents int    `json:"dependents"`
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dependencies",
		Aliases: []string{"deps"},
		Short:   "List the resolved dependencies that go into the fat archive.",
		Args:    cobra.NoArgs,
		Long: `List direct dependencies in declaration order followed by transitive
dependencies in breadth first order, as they are imported into the fat
archive. Only compile and runtime scoped, non optional dependencies are
listed. Dependencies missing from the repository are shown without a path.`,
		RunE:              ListDependencies,
		DisableAutoGenTag: true,
	}

	enum.VarP(cmd.Flags(), vxcmd.OutputFlag, "o", render.OutputFormats(), "output format of the dependency list")
	return cmd
}

func ListDependencies(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, err := vxctx.FromContext(ctx).RequireProject()
	if err != nil {
		return err
	}
	output, err := enum.Get(cmd.Flags(), vxcmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}

	plan, err := pipeline.Resolve(ctx, p)
	if err != nil {
		return err
	}
	return render.Items(cmd.OutOrStdout(), output, FromPlan(plan), render.Table[Dependency]{
		Header: table.Row{"Coordinate", "Kind", "Dependents", "Path"},
		Row: func(d Dependency) table.Row {
			path := d.Path
			if path == "" {
				path = "<absent>"
			}
			return table.Row{d.Coordinate, d.Kind, d.Dependents, path}
		},
		Merge: []int{2},
	})
}

func FromPlan(plan *resolver.Plan) []Dependency {
	deps := make([]Dependency, 0, len(plan.Direct)+len(plan.Transitive))
	add := func(kind string, artifacts []resolver.Artifact) {
		for _, a := range artifacts {
			d := Dependency{
				Coordinate: a.Coordinate.String(),
				Kind:       kind,
				Path:       a.Path,
				Dependents: plan.Dependents(a.Coordinate),
			}
			if a.Err != nil {
				d.Error = a.Err.Error()
			}
			deps = append(deps, d)
		}
	}
	add(KindDirect, plan.Direct)
	add(KindTransitive, plan.Transitive)
	return deps
}
