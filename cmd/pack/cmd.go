package pack

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	vxcmd "ocm.software/open-component-model/vxpack/cmd/internal/cmd"
	"ocm.software/open-component-model/vxpack/cmd/internal/pipeline"
	"ocm.software/open-component-model/vxpack/internal/archive"
	vxctx "ocm.software/open-component-model/vxpack/internal/context"
	"ocm.software/open-component-model/vxpack/internal/flags/enum"
	"ocm.software/open-component-model/vxpack/internal/render"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "package",
		Aliases: []string{"pkg"},
		Short:   "Assemble the fat archive of the project.",
		Args:    cobra.NoArgs,
		Long: `Assemble the primary artifact and all resolved compile and runtime
dependencies into {output-dir}/{finalName}-fat.jar. Entries of later
dependencies replace entries of earlier ones at the same path. With
relocation "combine" the service registries under META-INF/services of all
inputs are merged afterwards.

If the primary artifact does not exist it is packed from the classes and
resource directories first.`,
		Example: `  # Package the project in the current directory
  vxpack package

  # Merge service registries and print the result as json
  vxpack package --relocate combine -o json`,
		RunE:              PackageProject,
		DisableAutoGenTag: true,
	}

	enum.VarP(cmd.Flags(), vxcmd.OutputFlag, "o", render.OutputFormats(), "output format of the packaging result")
	cmd.Flags().String(vxcmd.OutputDirFlag, "", "directory receiving the fat archive, overrides build.outputDir")
	cmd.Flags().String(vxcmd.RelocateFlag, "", fmt.Sprintf("service registry relocation, overrides build.relocation (%s)", archive.RelocationCombine))
	return cmd
}

func PackageProject(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	vc := vxctx.FromContext(ctx)
	p, err := vc.RequireProject()
	if err != nil {
		return err
	}

	output, err := enum.Get(cmd.Flags(), vxcmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	outputDir, err := cmd.Flags().GetString(vxcmd.OutputDirFlag)
	if err != nil {
		return err
	}
	relocation, err := cmd.Flags().GetString(vxcmd.RelocateFlag)
	if err != nil {
		return err
	}

	plan, err := pipeline.Resolve(ctx, p)
	if err != nil {
		return err
	}
	res, err := pipeline.Package(ctx, p, plan, vc.Path(outputDir), relocation)
	if err != nil {
		return err
	}

	return render.Items(cmd.OutOrStdout(), output, []archive.AssembleResult{*res}, render.Table[archive.AssembleResult]{
		Header: table.Row{"Path", "Entries", "Digest"},
		Row: func(r archive.AssembleResult) table.Row {
			return table.Row{r.Path, r.Entries, r.Digest.String()}
		},
	})
}
