package cli

import (
	"io"
	"os"

	"github.com/midnight-magnolia/magnolia/internal/branding"
	"github.com/midnight-magnolia/magnolia/internal/config"
	"github.com/midnight-magnolia/magnolia/internal/deploy"
	"github.com/midnight-magnolia/magnolia/internal/exec"
	"github.com/midnight-magnolia/magnolia/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deployCmd)
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build the project and publish it to " + branding.Hosting(),
	Long: `Read wix.config.json, make sure the Wix CLI is installed and logged in,
run the build and publish the result to the configured site.

Each gate runs once, in order; the first failure stops the deployment. Fix
the reported problem and run deploy again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeployer(cmd, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return d.Run(cmd.Context())
	},
}

// newDeployer builds a Deployer from the resolved settings, printing progress
// to out.
func newDeployer(cmd *cobra.Command, out io.Writer) (*deploy.Deployer, error) {
	settings := config.Current()
	return deploy.New(deploy.Options{
		Dir:           projectDir,
		CLI:           settings.DeployCLI,
		Install:       settings.DeployInstall,
		Build:         settings.DeployBuild,
		MinCLIVersion: settings.MinCLIVersion,
		Stdin:         os.Stdin,
		Stdout:        cmd.OutOrStdout(),
		Stderr:        cmd.ErrOrStderr(),
	}, exec.NewRealRunner(), report.NewPrinter(out))
}
