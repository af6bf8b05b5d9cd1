// Package platform smooths over filesystem differences between operating
// systems. Generated scripts need their executable bit on Unix; Windows has
// no such bit and the call is skipped there.
package platform
