package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/midnight-magnolia/magnolia/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
	envFile  = ".env"
)

// Config keys.
const (
	KeyProjectName    = "project_name"
	KeyDisplayName    = "display_name"
	KeyGitHubUsername = "github_username"
	KeyDeployCLI      = "deploy.cli"
	KeyDeployInstall  = "deploy.install"
	KeyDeployBuild    = "deploy.build"
	KeyMinCLIVersion  = "deploy.min_cli_version"
)

// PlaceholderAccount stands in for the GitHub account when none is configured.
const PlaceholderAccount = "your-github-username"

// Settings is the resolved configuration for one invocation.
type Settings struct {
	ProjectName    string
	DisplayName    string
	GitHubUsername string
	DeployCLI      string
	DeployInstall  string
	DeployBuild    string
	MinCLIVersion  string
}

func defaults() map[string]string {
	return map[string]string{
		KeyProjectName:    branding.ProjectName(),
		KeyDisplayName:    branding.DisplayName(),
		KeyGitHubUsername: PlaceholderAccount,
		KeyDeployCLI:      "npx @wix/cli",
		KeyDeployInstall:  "npm install -g @wix/cli",
		KeyDeployBuild:    "npm run build",
		KeyMinCLIVersion:  "",
	}
}

// Keys returns every recognised config key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults()))
	for k := range defaults() {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsKey reports whether key is a recognised config key.
func IsKey(key string) bool {
	_, ok := defaults()[key]
	return ok
}

// Dir returns the path to the config directory (~/.magnolia/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.magnolia/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment. When
// projectDir holds a .env file it is loaded first; variables already set in
// the process environment win.
func Load(projectDir string) error {
	if projectDir != "" {
		if err := loadDotEnv(filepath.Join(projectDir, envFile)); err != nil {
			return err
		}
	}

	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for k, v := range defaults() {
		viper.SetDefault(k, v)
	}
	// The account keeps its unprefixed name for compatibility with existing
	// shell profiles.
	if err := viper.BindEnv(KeyGitHubUsername, branding.EnvVar("GITHUB_USERNAME"), "GITHUB_USERNAME"); err != nil {
		return fmt.Errorf("binding %s: %w", KeyGitHubUsername, err)
	}

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading config file %s: %w", FilePath(), err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Current returns the resolved settings.
func Current() Settings {
	return Settings{
		ProjectName:    Get(KeyProjectName),
		DisplayName:    Get(KeyDisplayName),
		GitHubUsername: Get(KeyGitHubUsername),
		DeployCLI:      Get(KeyDeployCLI),
		DeployInstall:  Get(KeyDeployInstall),
		DeployBuild:    Get(KeyDeployBuild),
		MinCLIVersion:  Get(KeyMinCLIVersion),
	}
}

// Set writes a config key-value pair and saves the config file. Only keys
// present in the file are persisted, never defaults or environment values.
func Set(key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	configFile := FilePath()
	file := viper.New()
	file.SetConfigFile(configFile)
	file.SetConfigType(fileType)
	if err := file.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading config file %s: %w", configFile, err)
	}

	file.Set(key, value)
	if err := file.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	viper.Set(key, value)
	return nil
}
