// Package deploy builds a scaffolded project and publishes it through the
// hosting provider's CLI. A deployment is a fixed sequence of gates:
// configuration, tool availability, authentication, build and publish. The
// first gate that fails stops the run; nothing is retried.
//
// All external commands go through exec.CommandRunner, so the gates can be
// exercised in tests without a network, npm or the hosting CLI.
package deploy
