package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var doctorJSON bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Print the check report as JSON")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the project is ready to deploy",
	Long: `Run the deployment preconditions without changing anything: the deployment
configuration is read and validated, and the Wix CLI is probed for its version
and login session. Nothing is installed, built or published.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if doctorJSON {
			// Progress lines would corrupt the JSON document.
			out = io.Discard
		}
		d, err := newDeployer(cmd, out)
		if err != nil {
			return err
		}

		rep, checkErr := d.Doctor(cmd.Context())
		if doctorJSON {
			if err := writeReportJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
		}
		if checkErr != nil {
			return fmt.Errorf("%d check(s) failed", len(rep.Failed()))
		}
		if !doctorJSON {
			fmt.Fprintln(cmd.OutOrStdout(), "All checks passed.")
		}
		return nil
	},
}
