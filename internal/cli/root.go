package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/midnight-magnolia/magnolia/internal/branding"
	"github.com/midnight-magnolia/magnolia/internal/config"
	"github.com/midnight-magnolia/magnolia/internal/report"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	projectDir string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&projectDir, "dir", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` project tooling: scaffold a new site repository and deploy it to ` +
		branding.Hosting() + `.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(cmd.ErrOrStderr(), verbose)

		dir, err := resolveDir(projectDir)
		if err != nil {
			return err
		}
		projectDir = dir
		if err := config.Load(dir); err != nil {
			return err
		}
		slog.Debug("resolved project", "dir", dir, "config", config.FilePath())
		return nil
	},
}

// Execute runs the root command with build info injected via ldflags. A
// returned error has already been printed.
func Execute(ctx context.Context, version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stderr := rootCmd.ErrOrStderr()
		fmt.Fprintln(stderr, report.NewFormatter(stderr).Format(report.LevelError, err.Error()))
	}
	return err
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving --dir %s: %w", dir, err)
	}
	return abs, nil
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    termenv.NewOutput(w).EnvColorProfile() == termenv.Ascii,
	})))
}
