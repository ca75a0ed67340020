package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"teststand/internal/gdml"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

// buildVersion falls back to the module version recorded by go install.
func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print teststand version and the GDML schema it writes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(buildVersion())
			cmd.Printf("gdml schema: %s\n", gdml.SchemaLocation)
		},
	}
}
