// Package report formats status lines and aggregates per-step results into a
// run report. Each idempotent step ends in exactly one of created, updated,
// already present or failed for every artifact it owns; the Report makes
// those outcomes inspectable instead of leaving them in terminal output.
package report
