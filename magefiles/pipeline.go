//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// run executes the built CLI with the given arguments.
func run(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Daily runs the full daily cycle: fetch today's briefing and send it.
func Daily() error {
	mg.Deps(Build)
	if err := run("fetch"); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := run("send"); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Fetch builds today's briefing without sending it.
func Fetch() error {
	mg.Deps(Build)
	return run("fetch")
}

// Send delivers the latest stored briefing.
func Send() error {
	mg.Deps(Build)
	return run("send")
}

// Cleanup removes history past the retention window.
func Cleanup() error {
	mg.Deps(Build)
	return run("cleanup")
}
