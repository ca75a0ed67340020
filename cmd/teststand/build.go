package main

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"teststand/internal/assembly"
	"teststand/internal/config"
	"teststand/internal/gdml"
	"teststand/internal/macro"
	"teststand/internal/metadata"
	"teststand/internal/scene"
)

func buildCmd() *cobra.Command {
	var hitFile string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble the test stand and write GDML, detector macro and scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(hitFile)
		},
	}
	cmd.Flags().StringVar(&hitFile, "hits", "output.lh5", "Hit file the viewer scene overlays")
	return cmd
}

func assembleProject(cfg *config.ProjectConfig) (*assembly.Stand, error) {
	meta, err := metadata.ParseFile(cfg.Detector.Metadata)
	if err != nil {
		return nil, err
	}
	return assembly.Build(meta, cfg, assembly.Options{Log: config.NamedLogger("build")})
}

func runBuild(hitFile string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	stand, err := assembleProject(cfg)
	if err != nil {
		return err
	}

	out := cfg.Output
	if err := gdml.WriteFile(out.GDML, stand.Registry); err != nil {
		return err
	}
	if err := macro.WriteFile(out.Macro, stand.Registry); err != nil {
		return err
	}
	if out.Scene != "" {
		stp := path.Dir(cfg.Analysis.Table)
		s := scene.Default(hitFile, cfg.Layout.World.Size*0.6, path.Join(stp, "vertices"), cfg.Analysis.Table)
		if err := scene.WriteFile(out.Scene, s); err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stdout, "Build complete.")
	fmt.Fprintf(os.Stdout, "  Detector top:   %g mm\n", stand.DetectorTop)
	fmt.Fprintf(os.Stdout, "  Holder at z:    %g mm\n", stand.HolderZ)
	fmt.Fprintf(os.Stdout, "  Source at z:    %g mm\n", stand.SourceZ)
	fmt.Fprintf(os.Stdout, "  GDML:           %s\n", out.GDML)
	fmt.Fprintf(os.Stdout, "  Detector macro: %s\n", out.Macro)
	if out.Scene != "" {
		fmt.Fprintf(os.Stdout, "  Scene:          %s\n", out.Scene)
	}
	if len(stand.Report.Issues) > 0 {
		fmt.Fprintf(os.Stdout, "\nWarnings (%d):\n", len(stand.Report.Issues))
		printIssues(os.Stdout, stand.Report.Issues)
	}
	return nil
}
