package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/shlex"
	"github.com/midnight-magnolia/magnolia/internal/branding"
	"github.com/midnight-magnolia/magnolia/internal/exec"
	"github.com/midnight-magnolia/magnolia/internal/manifest"
	"github.com/midnight-magnolia/magnolia/internal/report"
)

var versionPattern = regexp.MustCompile(`v?\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?`)

// Options configures a Deployer. Commands are shell-style strings, e.g.
// "npx @wix/cli"; they are split into words, not run through a shell.
type Options struct {
	Dir           string // project root
	CLI           string // hosting CLI invocation
	Install       string // installs the hosting CLI
	Build         string // builds the project
	MinCLIVersion string // semver constraint on the CLI version, optional

	// Interactive steps (install, login, build, publish) are attached to
	// these streams. Nil streams are left detached.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Deployer runs the deployment gates for one project.
type Deployer struct {
	opts       Options
	runner     exec.CommandRunner
	out        *report.Printer
	cli        []string
	install    []string
	build      []string
	constraint *semver.Constraints
}

// New validates opts and returns a Deployer that runs commands through runner
// and prints progress through out. A nil out runs silently.
func New(opts Options, runner exec.CommandRunner, out *report.Printer) (*Deployer, error) {
	d := &Deployer{opts: opts, runner: runner, out: out}

	var err error
	if d.cli, err = splitCommand("deploy.cli", opts.CLI); err != nil {
		return nil, err
	}
	if d.install, err = splitCommand("deploy.install", opts.Install); err != nil {
		return nil, err
	}
	if d.build, err = splitCommand("deploy.build", opts.Build); err != nil {
		return nil, err
	}
	if c := strings.TrimSpace(opts.MinCLIVersion); c != "" {
		if d.constraint, err = semver.NewConstraint(c); err != nil {
			return nil, fmt.Errorf("deploy.min_cli_version %q: %w", c, err)
		}
	}
	return d, nil
}

func splitCommand(key, cmd string) ([]string, error) {
	words, err := shlex.Split(cmd)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", key, cmd, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%s is empty", key)
	}
	return words, nil
}

// ConfigPath is the deployment configuration file the Deployer reads.
func (d *Deployer) ConfigPath() string {
	return filepath.Join(d.opts.Dir, manifest.DeployConfigFile)
}

// Run executes every gate in order and stops at the first failure.
func (d *Deployer) Run(ctx context.Context) error {
	d.out.Banner(branding.DisplayName() + " " + branding.Hosting() + " Deployment")

	cfg, err := d.LoadConfig()
	if err != nil {
		return err
	}
	if _, err := d.EnsureTool(ctx); err != nil {
		return err
	}
	if err := d.EnsureAuth(ctx); err != nil {
		return err
	}
	if err := d.Build(ctx); err != nil {
		return err
	}
	if err := d.Publish(ctx, cfg.SiteID); err != nil {
		return err
	}

	d.out.Banner(
		branding.DisplayName()+" Deployed Successfully",
		"",
		"Visit your "+branding.Hosting()+" site to see the changes",
		"Site ID: "+cfg.SiteID,
	)
	return nil
}

// LoadConfig reads the deployment configuration and checks it is usable: it
// must exist, parse, carry a real siteId and satisfy the schema.
func (d *Deployer) LoadConfig() (*manifest.DeploymentConfig, error) {
	d.out.Section("Reading " + manifest.DeployConfigFile)
	cfg, err := d.readConfig()
	if err != nil {
		d.out.Line(report.LevelError, "%v", err)
		return nil, err
	}
	d.out.Line(report.LevelSuccess, "Site ID: %s", cfg.SiteID)
	return cfg, nil
}

func (d *Deployer) readConfig() (*manifest.DeploymentConfig, error) {
	path := d.ConfigPath()
	cfg, raw, err := manifest.ReadDeploymentConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run %s scaffold first)", ErrConfigNotFound, path, branding.CLIName())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	if !cfg.HasSiteID() {
		return nil, fmt.Errorf("%w: set \"siteId\" in %s (currently %q)", ErrSiteIDMissing, manifest.DeployConfigFile, cfg.SiteID)
	}

	result, err := manifest.ValidateDeploymentConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrConfigInvalid, result.Error())
	}
	return cfg, nil
}

// EnsureTool checks the hosting CLI responds to --version, installing it
// once if it does not. It returns the reported version when known.
func (d *Deployer) EnsureTool(ctx context.Context) (string, error) {
	d.out.Section("Checking " + branding.Hosting() + " CLI installation")

	version, probeErr := d.probeVersion(ctx)
	if probeErr != nil {
		slog.Debug("CLI probe failed", "error", probeErr)
		d.out.Line(report.LevelWarn, "%s CLI not found, installing", branding.Hosting())

		res, err := d.runAttached(ctx, d.install)
		if err != nil {
			return "", d.fail(fmt.Errorf("%w: %s: %v", ErrToolUnavailable, strings.Join(d.install, " "), err))
		}
		if !res.OK() {
			return "", d.fail(fmt.Errorf("%w: %s exited %d: %s", ErrToolUnavailable, strings.Join(d.install, " "), res.ExitCode, res.Output()))
		}
		d.out.Line(report.LevelSuccess, "%s CLI installed", branding.Hosting())

		if d.constraint == nil {
			return "", nil
		}
		// The version gate needs a number; ask the freshly installed CLI.
		if version, err = d.probeVersion(ctx); err != nil {
			return "", d.fail(fmt.Errorf("%w: %v", ErrToolUnavailable, err))
		}
	} else {
		d.out.Line(report.LevelSuccess, "%s CLI is installed (%s)", branding.Hosting(), version)
	}

	if d.constraint != nil {
		if err := d.checkVersion(version); err != nil {
			return version, d.fail(err)
		}
	}
	return version, nil
}

func (d *Deployer) probeVersion(ctx context.Context) (string, error) {
	res, err := d.run(ctx, d.cli, exec.RunOpts{Dir: d.opts.Dir}, "--version")
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("%s --version exited %d: %s", strings.Join(d.cli, " "), res.ExitCode, res.Output())
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (d *Deployer) checkVersion(output string) error {
	raw := versionPattern.FindString(output)
	if raw == "" {
		return fmt.Errorf("%w: cannot read a version from %q", ErrToolUnavailable, output)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrToolUnavailable, raw, err)
	}
	if ok, errs := d.constraint.Validate(v); !ok {
		return fmt.Errorf("%w: version %s does not satisfy %q: %v", ErrToolUnavailable, v, d.opts.MinCLIVersion, errors.Join(errs...))
	}
	return nil
}

// EnsureAuth checks the CLI session, running an interactive login once if
// there is none.
func (d *Deployer) EnsureAuth(ctx context.Context) error {
	d.out.Section("Checking " + branding.Hosting() + " authentication")

	authed, err := d.probeAuth(ctx)
	if err != nil {
		return d.fail(fmt.Errorf("%w: %v", ErrNotAuthenticated, err))
	}
	if authed {
		d.out.Line(report.LevelSuccess, "Already authenticated with %s", branding.Hosting())
		return nil
	}

	d.out.Line(report.LevelInfo, "Authenticating with %s", branding.Hosting())
	res, err := d.runAttached(ctx, d.cli, "auth", "login")
	if err != nil {
		return d.fail(fmt.Errorf("%w: %v", ErrNotAuthenticated, err))
	}
	if !res.OK() {
		return d.fail(fmt.Errorf("%w: login exited %d: %s", ErrNotAuthenticated, res.ExitCode, res.Output()))
	}
	d.out.Line(report.LevelSuccess, "Authenticated with %s", branding.Hosting())
	return nil
}

func (d *Deployer) probeAuth(ctx context.Context) (bool, error) {
	res, err := d.run(ctx, d.cli, exec.RunOpts{Dir: d.opts.Dir}, "auth", "status")
	if err != nil {
		return false, err
	}
	return res.OK(), nil
}

// Build runs the project's build command.
func (d *Deployer) Build(ctx context.Context) error {
	d.out.Section("Building project")
	res, err := d.runAttached(ctx, d.build)
	if err != nil {
		return d.fail(fmt.Errorf("%w: %v", ErrBuildFailed, err))
	}
	if !res.OK() {
		return d.fail(fmt.Errorf("%w: %s exited %d: %s", ErrBuildFailed, strings.Join(d.build, " "), res.ExitCode, res.Output()))
	}
	d.out.Line(report.LevelSuccess, "Build completed")
	return nil
}

// Publish deploys the built site to siteID.
func (d *Deployer) Publish(ctx context.Context, siteID string) error {
	d.out.Section("Deploying to " + branding.Hosting())
	res, err := d.runAttached(ctx, d.cli, "deploy", "--site-id="+siteID)
	if err != nil {
		return d.fail(fmt.Errorf("%w: %v", ErrPublishFailed, err))
	}
	if !res.OK() {
		return d.fail(fmt.Errorf("%w: deploy exited %d: %s", ErrPublishFailed, res.ExitCode, res.Output()))
	}
	d.out.Line(report.LevelSuccess, "Deployment to %s completed", branding.Hosting())
	return nil
}

// Doctor runs the read-only checks: configuration, CLI presence and CLI
// session. Nothing is installed, logged in, built or published. Every check
// runs; the returned error joins all failures.
func (d *Deployer) Doctor(ctx context.Context) (*report.Report, error) {
	rec := report.NewRecorder(d.out)
	var errs []error

	rec.Section("Configuration")
	if cfg, err := d.readConfig(); err != nil {
		rec.Failed("config", manifest.DeployConfigFile, err)
		errs = append(errs, err)
	} else {
		rec.Passed("config", manifest.DeployConfigFile, "site "+cfg.SiteID)
	}

	rec.Section(branding.Hosting() + " CLI")
	tool := strings.Join(d.cli, " ")
	version, err := d.probeVersion(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	} else if d.constraint != nil {
		err = d.checkVersion(version)
	}
	if err != nil {
		rec.Failed("tool", tool, err)
		return rec.Report(), errors.Join(append(errs, err)...)
	}
	rec.Passed("tool", tool, version)

	authed, err := d.probeAuth(ctx)
	if err == nil && !authed {
		err = errors.New("no active session")
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		rec.Failed("auth", branding.Hosting()+" session", err)
		errs = append(errs, err)
	} else {
		rec.Passed("auth", branding.Hosting()+" session", "authenticated")
	}

	return rec.Report(), errors.Join(errs...)
}

func (d *Deployer) fail(err error) error {
	d.out.Line(report.LevelError, "%v", err)
	return err
}

// runAttached runs argv plus args with the caller's streams attached.
func (d *Deployer) runAttached(ctx context.Context, argv []string, args ...string) (exec.CmdResult, error) {
	return d.run(ctx, argv, exec.RunOpts{
		Dir:    d.opts.Dir,
		Stdin:  d.opts.Stdin,
		Stdout: d.opts.Stdout,
		Stderr: d.opts.Stderr,
	}, args...)
}

func (d *Deployer) run(ctx context.Context, argv []string, opts exec.RunOpts, args ...string) (exec.CmdResult, error) {
	full := append(append([]string(nil), argv[1:]...), args...)
	return d.runner.Run(ctx, argv[0], full, opts)
}
