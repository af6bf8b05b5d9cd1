// Package scaffold brings a project directory from empty or partial to fully
// scaffolded. It powers the "magnolia scaffold" command: directories, the git
// repository with its remote and branches, package.json, wix.config.json, the
// deployment script, the platform adapter and the README.
//
// Every step checks whether its artifact already exists and leaves existing
// content alone, so re-running is always safe and is the recovery path after
// a partial failure.
package scaffold
