package deploy

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/midnight-magnolia/magnolia/internal/exec"
	"github.com/midnight-magnolia/magnolia/internal/manifest"
	"github.com/midnight-magnolia/magnolia/internal/report"
)

// fakeRunner records every invocation and answers from a table keyed by the
// full command line. Unknown commands exit 0 with no output.
type fakeRunner struct {
	responses map[string][]response
	calls     []string
}

type response struct {
	result exec.CmdResult
	err    error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string][]response{}}
}

// on queues responses for cmd; the last one repeats once the queue drains.
func (f *fakeRunner) on(cmd string, rs ...response) {
	f.responses[cmd] = append(f.responses[cmd], rs...)
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, _ exec.RunOpts) (exec.CmdResult, error) {
	cmd := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, cmd)
	queue := f.responses[cmd]
	if len(queue) == 0 {
		return exec.CmdResult{}, nil
	}
	r := queue[0]
	if len(queue) > 1 {
		f.responses[cmd] = queue[1:]
	}
	return r.result, r.err
}

func exit(code int, stdout, stderr string) response {
	return response{result: exec.CmdResult{ExitCode: code, Stdout: stdout, Stderr: stderr}}
}

const validConfig = `{
  "name": "Midnight Magnolia",
  "siteId": "abc-123",
  "components": {
    "app": { "path": "./app/page.tsx", "name": "Midnight Magnolia" }
  },
  "styles": { "main": "./styles/globals.css" },
  "assets": { "directory": "./public" },
  "deployment": { "target": "wix", "apiKey": "your-wix-api-key" }
}
`

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, manifest.DeployConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newDeployer(t *testing.T, dir string, runner exec.CommandRunner, mutate ...func(*Options)) (*Deployer, *bytes.Buffer) {
	t.Helper()
	opts := Options{
		Dir:     dir,
		CLI:     "npx @wix/cli",
		Install: "npm install -g @wix/cli",
		Build:   "npm run build",
	}
	for _, m := range mutate {
		m(&opts)
	}
	var out bytes.Buffer
	d, err := New(opts, runner, report.NewPlainPrinter(&out))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return d, &out
}

func TestRun_Success(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig)
	runner := newFakeRunner()
	runner.on("npx @wix/cli --version", exit(0, "1.4.2\n", ""))

	d, out := newDeployer(t, dir, runner)
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{
		"npx @wix/cli --version",
		"npx @wix/cli auth status",
		"npm run build",
		"npx @wix/cli deploy --site-id=abc-123",
	}
	if diff := cmp.Diff(want, runner.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "Site ID: abc-123") {
		t.Errorf("success banner should echo the site id:\n%s", out.String())
	}
}

func TestRun_Silent(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig)
	runner := newFakeRunner()
	runner.on("npx @wix/cli --version", exit(0, "1.4.2\n", ""))

	d, err := New(Options{Dir: dir, CLI: "npx @wix/cli", Install: "npm install -g @wix/cli", Build: "npm run build"}, runner, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(runner.calls) != 4 {
		t.Errorf("calls = %v, want all four gates", runner.calls)
	}
}

func TestRun_MissingConfigRunsNothing(t *testing.T) {
	runner := newFakeRunner()
	d, _ := newDeployer(t, t.TempDir(), runner)

	err := d.Run(context.Background())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Run() error = %v, want ErrConfigNotFound", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("no command should run, got %v", runner.calls)
	}
}

func TestRun_SiteIDMissing(t *testing.T) {
	tests := []struct {
		name   string
		siteID string
	}{
		{"empty", `""`},
		{"blank", `"   "`},
		{"placeholder", `"your-wix-site-id"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, strings.Replace(validConfig, `"abc-123"`, tt.siteID, 1))
			runner := newFakeRunner()
			d, _ := newDeployer(t, dir, runner)

			err := d.Run(context.Background())
			if !errors.Is(err, ErrSiteIDMissing) {
				t.Fatalf("Run() error = %v, want ErrSiteIDMissing", err)
			}
			if !strings.Contains(err.Error(), "siteId") {
				t.Errorf("diagnostic should name the field: %v", err)
			}
			if len(runner.calls) != 0 {
				t.Errorf("no command should run, got %v", runner.calls)
			}
		})
	}
}

func TestRun_SiteIDAbsent(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, strings.Replace(validConfig, `"siteId": "abc-123",`, "", 1))
	d, _ := newDeployer(t, dir, newFakeRunner())

	err := d.Run(context.Background())
	if !errors.Is(err, ErrSiteIDMissing) {
		t.Fatalf("Run() error = %v, want ErrSiteIDMissing", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{nope"},
		{"wrong target", strings.Replace(validConfig, `"target": "wix"`, `"target": "netlify"`, 1)},
		{"no components", strings.Replace(validConfig, `"components": {
    "app": { "path": "./app/page.tsx", "name": "Midnight Magnolia" }
  },`, "", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			runner := newFakeRunner()
			d, _ := newDeployer(t, dir, runner)

			err := d.Run(context.Background())
			if !errors.Is(err, ErrConfigInvalid) {
				t.Fatalf("Run() error = %v, want ErrConfigInvalid", err)
			}
			if len(runner.calls) != 0 {
				t.Errorf("no command should run, got %v", runner.calls)
			}
		})
	}
}

func TestEnsureTool_InstallFallback(t *testing.T) {
	runner := newFakeRunner()
	runner.on("npx @wix/cli --version", exit(127, "", "not found"))
	d, _ := newDeployer(t, t.TempDir(), runner)

	if _, err := d.EnsureTool(context.Background()); err != nil {
		t.Fatalf("EnsureTool() error: %v", err)
	}
	want := []string{"npx @wix/cli --version", "npm install -g @wix/cli"}
	if diff := cmp.Diff(want, runner.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsureTool_BinaryMissingThenInstallFails(t *testing.T) {
	runner := newFakeRunner()
	runner.on("npx @wix/cli --version", response{err: errors.New("executable file not found")})
	runner.on("npm install -g @wix/cli", exit(1, "", "EACCES: permission denied"))
	d, _ := newDeployer(t, t.TempDir(), runner)

	_, err := d.EnsureTool(context.Background())
	if !errors.Is(err, ErrToolUnavailable) {
		t.Fatalf("EnsureTool() error = %v, want ErrToolUnavailable", err)
	}
	if !strings.Contains(err.Error(), "EACCES: permission denied") {
		t.Errorf("installer output should be surfaced: %v", err)
	}
}

func TestEnsureTool_VersionConstraint(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{"satisfied", "Wix CLI v1.4.2\n", false},
		{"too old", "0.9.1\n", true},
		{"unparseable", "unknown\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.on("npx @wix/cli --version", exit(0, tt.output, ""))
			d, _ := newDeployer(t, t.TempDir(), runner, func(o *Options) { o.MinCLIVersion = ">= 1.0.0" })

			_, err := d.EnsureTool(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrToolUnavailable) {
					t.Errorf("EnsureTool() error = %v, want ErrToolUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Errorf("EnsureTool() error: %v", err)
			}
		})
	}
}

func TestEnsureTool_ReprobesAfterInstallWhenConstrained(t *testing.T) {
	runner := newFakeRunner()
	runner.on("npx @wix/cli --version", exit(1, "", "missing"), exit(0, "2.0.0\n", ""))
	d, _ := newDeployer(t, t.TempDir(), runner, func(o *Options) { o.MinCLIVersion = "^2" })

	version, err := d.EnsureTool(context.Background())
	if err != nil {
		t.Fatalf("EnsureTool() error: %v", err)
	}
	if version != "2.0.0" {
		t.Errorf("version = %q, want 2.0.0", version)
	}
	want := []string{"npx @wix/cli --version", "npm install -g @wix/cli", "npx @wix/cli --version"}
	if diff := cmp.Diff(want, runner.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsureAuth(t *testing.T) {
	tests := []struct {
		name      string
		status    response
		login     response
		wantCalls []string
		wantErr   bool
	}{
		{
			name:      "already authenticated",
			status:    exit(0, "Logged in", ""),
			wantCalls: []string{"npx @wix/cli auth status"},
		},
		{
			name:      "login succeeds",
			status:    exit(1, "", "not logged in"),
			login:     exit(0, "", ""),
			wantCalls: []string{"npx @wix/cli auth status", "npx @wix/cli auth login"},
		},
		{
			name:      "login fails",
			status:    exit(1, "", "not logged in"),
			login:     exit(1, "", "browser closed"),
			wantCalls: []string{"npx @wix/cli auth status", "npx @wix/cli auth login"},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.on("npx @wix/cli auth status", tt.status)
			runner.on("npx @wix/cli auth login", tt.login)
			d, _ := newDeployer(t, t.TempDir(), runner)

			err := d.EnsureAuth(context.Background())
			if tt.wantErr != (err != nil) {
				t.Fatalf("EnsureAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrNotAuthenticated) {
				t.Errorf("error = %v, want ErrNotAuthenticated", err)
			}
			if diff := cmp.Diff(tt.wantCalls, runner.calls); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_BuildFailureStopsBeforePublish(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig)
	runner := newFakeRunner()
	runner.on("npm run build", exit(2, "", "Type error: x is not assignable"))
	d, _ := newDeployer(t, dir, runner)

	err := d.Run(context.Background())
	if !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("Run() error = %v, want ErrBuildFailed", err)
	}
	if !strings.Contains(err.Error(), "Type error: x is not assignable") {
		t.Errorf("build stderr should be surfaced verbatim: %v", err)
	}
	for _, call := range runner.calls {
		if strings.Contains(call, " deploy ") {
			t.Errorf("publish must not run after a failed build: %v", runner.calls)
		}
	}
}

func TestRun_PublishFailure(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig)
	runner := newFakeRunner()
	runner.on("npx @wix/cli deploy --site-id=abc-123", exit(1, "", "site not found"))
	d, out := newDeployer(t, dir, runner)

	err := d.Run(context.Background())
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("Run() error = %v, want ErrPublishFailed", err)
	}
	if strings.Contains(out.String(), "Deployed Successfully") {
		t.Error("success banner printed after a failed publish")
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig)
	runner := newFakeRunner()
	runner.on("npm run build", response{err: context.Canceled})
	d, _ := newDeployer(t, dir, runner)

	err := d.Run(context.Background())
	if !errors.Is(err, ErrBuildFailed) || !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestDoctor(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig)
	runner := newFakeRunner()
	runner.on("npx @wix/cli --version", exit(0, "1.4.2\n", ""))
	runner.on("npx @wix/cli auth status", exit(1, "", ""))
	d, _ := newDeployer(t, dir, runner)

	rep, err := d.Doctor(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Doctor() error = %v, want ErrNotAuthenticated", err)
	}
	if errors.Is(err, ErrConfigNotFound) {
		t.Error("config is present and should pass")
	}

	want := []report.Status{report.StatusPassed, report.StatusPassed, report.StatusFailed}
	var got []report.Status
	for _, r := range rep.Results {
		got = append(got, r.Status)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}

	// Read-only: no install, login, build or publish.
	wantCalls := []string{"npx @wix/cli --version", "npx @wix/cli auth status"}
	if diff := cmp.Diff(wantCalls, runner.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestDoctor_ReportsEverything(t *testing.T) {
	runner := newFakeRunner()
	runner.on("npx @wix/cli --version", exit(127, "", "not found"))
	d, _ := newDeployer(t, t.TempDir(), runner)

	rep, err := d.Doctor(context.Background())
	if !errors.Is(err, ErrConfigNotFound) || !errors.Is(err, ErrToolUnavailable) {
		t.Fatalf("Doctor() error = %v, want both config and tool failures", err)
	}
	if len(rep.Failed()) != 2 {
		t.Errorf("failed results = %+v", rep.Failed())
	}
	for _, call := range runner.calls {
		if strings.HasPrefix(call, "npm install") {
			t.Error("doctor must not install anything")
		}
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	base := Options{CLI: "wix", Install: "npm i -g @wix/cli", Build: "npm run build"}
	tests := []struct {
		name   string
		mutate func(*Options)
		want   string
	}{
		{"empty cli", func(o *Options) { o.CLI = "  " }, "deploy.cli"},
		{"unterminated quote", func(o *Options) { o.Build = `npm run "build` }, "deploy.build"},
		{"bad constraint", func(o *Options) { o.MinCLIVersion = "banana" }, "deploy.min_cli_version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.mutate(&opts)
			_, err := New(opts, newFakeRunner(), report.NewPlainPrinter(&bytes.Buffer{}))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestNew_QuotedCommand(t *testing.T) {
	runner := newFakeRunner()
	d, _ := newDeployer(t, t.TempDir(), runner, func(o *Options) { o.Build = `sh -c "npm run build && npm run export"` })
	if err := d.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if runner.calls[0] != "sh -c npm run build && npm run export" {
		t.Errorf("call = %q", runner.calls[0])
	}
}
