// Package branding provides compile-time identity values for the CLI and the
// site it scaffolds.
//
// Forks edit branding.yaml in this package and rebuild; Go's //go:embed bakes
// it into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

// Color is a named brand colour.
type Color struct {
	Name string `yaml:"name"`
	Hex  string `yaml:"hex"`
}

// Font assigns a typeface to a typographic role.
type Font struct {
	Role string `yaml:"role"`
	Font string `yaml:"font"`
}

type brand struct {
	CLIName     string  `yaml:"cli_name"`
	DisplayName string  `yaml:"display_name"`
	Description string  `yaml:"description"`
	Tagline     string  `yaml:"tagline"`
	HomeDir     string  `yaml:"home_dir"`
	EnvPrefix   string  `yaml:"env_prefix"`
	ProjectName string  `yaml:"project_name"`
	Hosting     string  `yaml:"hosting"`
	Palette     []Color `yaml:"palette"`
	Typography  []Font  `yaml:"typography"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:     "magnolia",
			DisplayName: "Midnight Magnolia",
			Description: "Scaffold and deploy the Midnight Magnolia site",
			HomeDir:     ".magnolia",
			EnvPrefix:   "MAGNOLIA",
			ProjectName: "midnight-magnolia-1",
			Hosting:     "Wix",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "magnolia").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable site name (e.g., "Midnight Magnolia").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short CLI description.
func Description() string { load(); return defaults.Description }

// Tagline returns the one-paragraph project description used in generated docs.
func Tagline() string { load(); return defaults.Tagline }

// HomeDir returns the dot-directory name under $HOME (e.g., ".magnolia").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "MAGNOLIA").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ProjectName returns the default repository name for scaffolded projects.
func ProjectName() string { load(); return defaults.ProjectName }

// Hosting returns the display name of the hosting platform (e.g., "Wix").
func Hosting() string { load(); return defaults.Hosting }

// Palette returns the brand colours in display order.
func Palette() []Color {
	load()
	return append([]Color(nil), defaults.Palette...)
}

// Typography returns the brand typefaces in display order.
func Typography() []Font {
	load()
	return append([]Font(nil), defaults.Typography...)
}

// ColorHex returns the hex value of the named palette colour, or "" if the
// palette has no such colour.
func ColorHex(name string) string {
	load()
	for _, c := range defaults.Palette {
		if strings.EqualFold(c.Name, name) {
			return c.Hex
		}
	}
	return ""
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("home") → "MAGNOLIA_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
