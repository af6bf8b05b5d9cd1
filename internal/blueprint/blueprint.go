package blueprint

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/semver/v3"
	"github.com/midnight-magnolia/magnolia/internal/branding"
	"github.com/midnight-magnolia/magnolia/internal/manifest"
	"go.yaml.in/yaml/v3"
)

// SupportedVersion is the blueprint.yaml schema version this build understands.
const SupportedVersion = 1

//go:embed blueprint.yaml templates
var blueprintFS embed.FS

var branchPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// Blueprint is the versioned description of a scaffolded project.
type Blueprint struct {
	Version       int                       `yaml:"version"`
	Directories   []string                  `yaml:"directories"`
	Branches      []Branch                  `yaml:"branches"`
	DefaultBranch string                    `yaml:"default_branch"`
	Remote        string                    `yaml:"remote"`
	GitIgnore     string                    `yaml:"gitignore"`
	Package       manifest.ProjectConfig    `yaml:"package"`
	Deployment    manifest.DeploymentConfig `yaml:"deployment"`
	Files         []File                    `yaml:"files"`

	templates fs.FS
}

// Branch is a long-lived branch every scaffolded repository carries.
type Branch struct {
	Name    string `yaml:"name"`
	Purpose string `yaml:"purpose"`
}

// File is a text artifact rendered from a template.
type File struct {
	Step       string `yaml:"step"`
	Path       string `yaml:"path"`
	Template   string `yaml:"template"`
	Executable bool   `yaml:"executable"`
}

// Load parses and validates the blueprint embedded in the binary.
func Load() (*Blueprint, error) {
	raw, err := blueprintFS.ReadFile("blueprint.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded blueprint: %w", err)
	}
	templates, err := fs.Sub(blueprintFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("opening embedded templates: %w", err)
	}
	return Parse(raw, templates)
}

// Parse decodes blueprint YAML whose templates live in templates, then
// validates it.
func Parse(raw []byte, templates fs.FS) (*Blueprint, error) {
	var b Blueprint
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parsing blueprint: %w", err)
	}
	b.templates = templates
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the blueprint for internal consistency.
func (b *Blueprint) Validate() error {
	if b.Version != SupportedVersion {
		return fmt.Errorf("blueprint version %d is not supported (want %d)", b.Version, SupportedVersion)
	}

	if len(b.Directories) == 0 {
		return fmt.Errorf("blueprint lists no directories")
	}
	for _, dir := range b.Directories {
		if err := checkRelative(dir); err != nil {
			return fmt.Errorf("directory %q: %w", dir, err)
		}
	}

	if b.Remote == "" {
		return fmt.Errorf("blueprint names no remote")
	}
	seen := make(map[string]bool)
	for _, br := range b.Branches {
		if !branchPattern.MatchString(br.Name) || strings.Contains(br.Name, "..") {
			return fmt.Errorf("invalid branch name %q", br.Name)
		}
		if seen[br.Name] {
			return fmt.Errorf("branch %q listed twice", br.Name)
		}
		seen[br.Name] = true
	}
	if !seen[b.DefaultBranch] {
		return fmt.Errorf("default branch %q is not in the branch set", b.DefaultBranch)
	}

	if _, err := semver.NewVersion(b.Package.Version); err != nil {
		return fmt.Errorf("package version %q: %w", b.Package.Version, err)
	}
	if err := checkRanges("dependencies", b.Package.Dependencies); err != nil {
		return err
	}
	if err := checkRanges("devDependencies", b.Package.DevDependencies); err != nil {
		return err
	}
	if _, ok := b.Package.Scripts.Get("dev"); !ok {
		return fmt.Errorf("package scripts must define \"dev\"")
	}

	if b.Deployment.Deployment.Target == "" {
		return fmt.Errorf("deployment target is empty")
	}

	for _, f := range b.Files {
		if f.Step == "" {
			return fmt.Errorf("file %q has no step name", f.Path)
		}
		if err := checkRelative(f.Path); err != nil {
			return fmt.Errorf("file %q: %w", f.Path, err)
		}
		if _, err := fs.Stat(b.templates, f.Template); err != nil {
			return fmt.Errorf("template %q for %s: %w", f.Template, f.Path, err)
		}
	}
	return nil
}

// BranchNames returns the branch set in order.
func (b *Blueprint) BranchNames() []string {
	names := make([]string, len(b.Branches))
	for i, br := range b.Branches {
		names[i] = br.Name
	}
	return names
}

// ProjectConfig returns the dependency manifest for a project called name.
func (b *Blueprint) ProjectConfig(name string) manifest.ProjectConfig {
	cfg := b.Package
	cfg.Name = name
	cfg.Scripts = b.Package.Scripts.Clone()
	cfg.Dependencies = b.Package.Dependencies.Clone()
	cfg.DevDependencies = b.Package.DevDependencies.Clone()
	return cfg
}

// DeploymentConfig returns the deployment configuration for a site shown as
// displayName.
func (b *Blueprint) DeploymentConfig(displayName string) manifest.DeploymentConfig {
	cfg := b.Deployment
	cfg.Name = displayName
	cfg.Components = b.Deployment.Components.Clone()
	return cfg
}

// Render produces the contents of f. Templates ending in .tmpl are executed
// with data; anything else is copied verbatim, since TSX and similar sources
// use braces that clash with Go's template syntax.
func (b *Blueprint) Render(f File, data *Data) ([]byte, error) {
	raw, err := fs.ReadFile(b.templates, f.Template)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", f.Template, err)
	}
	if !strings.HasSuffix(f.Template, ".tmpl") {
		return raw, nil
	}

	tmpl, err := template.New(f.Template).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", f.Template, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", f.Template, err)
	}
	return buf.Bytes(), nil
}

func checkRanges(field string, deps manifest.OrderedMap[string]) error {
	for _, name := range deps.Keys() {
		rng, _ := deps.Get(name)
		if _, err := semver.NewConstraint(rng); err != nil {
			return fmt.Errorf("%s: %s range %q: %w", field, name, rng, err)
		}
	}
	return nil
}

func checkRelative(p string) error {
	if p == "" {
		return fmt.Errorf("empty path")
	}
	if path.IsAbs(p) || path.Clean(p) != p || strings.HasPrefix(p, "..") {
		return fmt.Errorf("must be a clean relative path")
	}
	return nil
}

// Data holds the variables available to text templates.
type Data struct {
	ProjectName      string
	Account          string
	RemoteURL        string
	DisplayName      string
	Tagline          string
	Hosting          string
	CLIName          string
	DeployConfigFile string
	Branches         []Branch
	Palette          []branding.Color
	Typography       []branding.Font
}

// NewData fills template variables for a project owned by account.
func (b *Blueprint) NewData(projectName, account string) *Data {
	return &Data{
		ProjectName:      projectName,
		Account:          account,
		RemoteURL:        RemoteURL(account, projectName),
		DisplayName:      branding.DisplayName(),
		Tagline:          branding.Tagline(),
		Hosting:          branding.Hosting(),
		CLIName:          branding.CLIName(),
		DeployConfigFile: manifest.DeployConfigFile,
		Branches:         append([]Branch(nil), b.Branches...),
		Palette:          branding.Palette(),
		Typography:       branding.Typography(),
	}
}

// RemoteURL is the GitHub HTTPS clone URL for account/project.
func RemoteURL(account, project string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", account, project)
}
