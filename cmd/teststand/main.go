package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"teststand/internal/config"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "teststand",
		Short: "Build germanium detector test-stand geometries and analyse their hits",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				config.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	root.Version = buildVersion()
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "Project configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.AddCommand(initCmd())
	root.AddCommand(buildCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
