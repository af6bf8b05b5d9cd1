package manifest

import "strings"

// File names at the project root.
const (
	PackageFile      = "package.json"
	DeployConfigFile = "wix.config.json"
)

// Placeholders written by the scaffolder that an operator must replace.
const (
	PlaceholderSiteID = "your-wix-site-id"
	PlaceholderAPIKey = "your-wix-api-key"
)

// ProjectConfig is the dependency manifest (package.json).
type ProjectConfig struct {
	Name            string             `yaml:"name" json:"name"`
	Version         string             `yaml:"version" json:"version"`
	Private         bool               `yaml:"private" json:"private"`
	Scripts         OrderedMap[string] `yaml:"scripts" json:"scripts"`
	Dependencies    OrderedMap[string] `yaml:"dependencies" json:"dependencies"`
	DevDependencies OrderedMap[string] `yaml:"devDependencies" json:"devDependencies"`
}

// DeploymentConfig is the hosting configuration (wix.config.json).
type DeploymentConfig struct {
	Name       string                `yaml:"name" json:"name"`
	SiteID     string                `yaml:"siteId" json:"siteId"`
	Components OrderedMap[Component] `yaml:"components" json:"components"`
	Styles     Styles                `yaml:"styles" json:"styles"`
	Assets     Assets                `yaml:"assets" json:"assets"`
	Deployment Target                `yaml:"deployment" json:"deployment"`
}

// Component maps a logical page to its source file and display name.
type Component struct {
	Path string `yaml:"path" json:"path"`
	Name string `yaml:"name" json:"name"`
}

// Styles names the stylesheet entry points.
type Styles struct {
	Main string `yaml:"main" json:"main"`
}

// Assets names the static asset directory.
type Assets struct {
	Directory string `yaml:"directory" json:"directory"`
}

// Target identifies the hosting platform and its credential.
type Target struct {
	Target string `yaml:"target" json:"target"`
	APIKey string `yaml:"apiKey" json:"apiKey"`
}

// HasSiteID reports whether the site identifier is set to a real value.
func (c *DeploymentConfig) HasSiteID() bool {
	id := strings.TrimSpace(c.SiteID)
	return id != "" && id != PlaceholderSiteID
}
