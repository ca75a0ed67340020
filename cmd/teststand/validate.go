package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"teststand/internal/gdml"
	"teststand/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file.gdml]",
		Short: "Check a GDML file, or the project's assembled stand, for structural problems",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	var report *validate.Report
	if len(args) == 1 {
		reg, err := gdml.ReadFile(args[0])
		if err != nil {
			return err
		}
		report = validate.Run(reg)
	} else {
		cfg, err := loadProject()
		if err != nil {
			return err
		}
		stand, err := assembleProject(cfg)
		if err != nil {
			return err
		}
		report = stand.Report
	}

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Volume
		if location == "" {
			location = "(tree)"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
