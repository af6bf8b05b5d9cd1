package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/midnight-magnolia/magnolia/internal/blueprint"
	"github.com/midnight-magnolia/magnolia/internal/config"
	"github.com/midnight-magnolia/magnolia/internal/report"
	"github.com/midnight-magnolia/magnolia/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	scaffoldName    string
	scaffoldAccount string
	scaffoldJSON    bool
)

func init() {
	scaffoldCmd.Flags().StringVar(&scaffoldName, "name", "", "Project name (default: config project_name)")
	scaffoldCmd.Flags().StringVar(&scaffoldAccount, "account", "", "GitHub account for the origin remote (default: $GITHUB_USERNAME)")
	scaffoldCmd.Flags().BoolVar(&scaffoldJSON, "json", false, "Print the step report as JSON instead of status lines")
	rootCmd.AddCommand(scaffoldCmd)
}

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Set up the project directory, git repository and starter files",
	Long: `Bring the project directory up to the full layout: directories, a git
repository with its origin remote and main/staging/development branches,
package.json, wix.config.json, the deployment script, the Wix adapter
component and README.md.

Every step skips artifacts that already exist, so re-running is safe and
finishes whatever an interrupted run left undone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Current()
		opts := scaffold.Options{
			Dir:         projectDir,
			ProjectName: firstNonEmpty(scaffoldName, settings.ProjectName),
			Account:     firstNonEmpty(scaffoldAccount, settings.GitHubUsername, config.PlaceholderAccount),
			DisplayName: settings.DisplayName,
		}

		bp, err := blueprint.Load()
		if err != nil {
			return err
		}

		var out *report.Printer
		if !scaffoldJSON {
			out = report.NewPrinter(cmd.OutOrStdout())
		}
		rep, runErr := scaffold.New(opts, bp, out).Run()

		if scaffoldJSON {
			if err := writeReportJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), rep.Summary())
		}
		if runErr != nil {
			return fmt.Errorf("scaffolding %s: %w", opts.Dir, runErr)
		}
		return nil
	},
}

func writeReportJSON(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
