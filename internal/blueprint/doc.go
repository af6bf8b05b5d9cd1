// Package blueprint holds the project blueprint: the directory layout, branch
// set, ignore rules, manifest defaults and text templates that the scaffolder
// writes. It is embedded in the binary as data (blueprint.yaml plus a
// templates/ directory) and validated on load, so what gets written is
// decoupled from how it is written.
package blueprint
