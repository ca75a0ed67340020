package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"teststand/internal/gdml"
	"teststand/internal/geometry"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file.gdml]",
		Short: "Print the volume tree and active detectors of a GDML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reg *geometry.Registry
			if len(args) == 1 {
				var err error
				if reg, err = gdml.ReadFile(args[0]); err != nil {
					return err
				}
			} else {
				cfg, err := loadProject()
				if err != nil {
					return err
				}
				stand, err := assembleProject(cfg)
				if err != nil {
					return err
				}
				reg = stand.Registry
			}
			return printTree(reg)
		},
	}
	return cmd
}

func printTree(reg *geometry.Registry) error {
	world, ok := reg.World()
	if !ok {
		return fmt.Errorf("geometry has no world volume")
	}
	lv, _ := reg.Logical(world)
	fmt.Fprintf(os.Stdout, "%s [%s]\n", lv.Name, lv.Material)

	err := reg.Walk(func(pv geometry.PhysicalVolume, depth int) error {
		child, _ := reg.Logical(pv.Logical)
		box, err := reg.PlacedExtent(pv.ID)
		if err != nil {
			return err
		}
		pos := pv.Transform.PositionMM()
		fmt.Fprintf(os.Stdout, "%s%s -> %s [%s] at (%g, %g, %g) mm, z in [%g, %g]\n",
			strings.Repeat("  ", depth+1), pv.Name, child.Name, child.Material,
			pos.X, pos.Y, pos.Z, box.Min.Z, box.Max.Z)
		return nil
	})
	if err != nil {
		return err
	}

	active := reg.ActiveDetectors()
	if len(active) == 0 {
		fmt.Fprintln(os.Stdout, "\nNo active detectors.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "\nActive detectors (%d):\n", len(active))
	for _, det := range active {
		fmt.Fprintf(os.Stdout, "  - %d %s (%s)\n", det.Info.UID, det.Name, det.Info.Scheme)
	}
	return nil
}
