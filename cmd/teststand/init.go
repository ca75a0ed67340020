package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"teststand/internal/config"
)

// referenceDetector is the BEGe crystal of the reference stand.
const referenceDetector = `name: teststand_hpge
type: bege
production:
  enrichment: 0.0775
  mass_in_g: 450
geometry:
  height_in_mm: 30
  radius_in_mm: 30
  groove:
    depth_in_mm: 2.0
    radius_in_mm:
      outer: 10.5
      inner: 7.5
  pp_contact:
    radius_in_mm: 7.5
    depth_in_mm: 0
  taper:
    top:
      angle_in_deg: 0.0
      height_in_mm: 0.0
    bottom:
      angle_in_deg: 0.0
      height_in_mm: 0.0
`

func initCmd() *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new test-stand project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	return cmd
}

func runInit(projectName string) error {
	cfg := config.Default(projectName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(cfg.Detector.Metadata); err == nil {
		return fmt.Errorf("%s already exists", cfg.Detector.Metadata)
	}

	contents, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", configPath, err)
	}
	if err := os.WriteFile(configPath, contents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(cfg.Detector.Metadata, []byte(referenceDetector), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Detector.Metadata, err)
	}

	fmt.Fprintf(os.Stdout, "Wrote %s and %s.\n", configPath, cfg.Detector.Metadata)
	return nil
}
