//go:build !windows

package main

import "os"

// openTTY opens the controlling terminal for key input when stdin is
// busy carrying data.
func openTTY() (*os.File, error) {
	return os.Open("/dev/tty")
}
