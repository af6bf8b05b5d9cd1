// Package cli defines the Cobra command tree for the magnolia CLI. Each file
// in this package registers one top-level command (scaffold, deploy, doctor,
// config, version) with the root command. Commands resolve settings, then
// delegate to internal packages and only handle flags and output.
package cli
