// Package config manages user-level settings stored at ~/.magnolia/config.yaml,
// layered under MAGNOLIA_* environment variables and a project's .env file.
// Settings cover the project and account names used by the scaffolder and
// the external commands the deployer runs.
package config
