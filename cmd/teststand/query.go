package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the hit database from the CLI",
	}
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(queryHitsCmd())
	cmd.AddCommand(queryTablesCmd())
	return cmd
}
