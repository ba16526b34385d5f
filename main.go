// Package main is the entry point for the regcheck CLI.
package main

import (
	"fmt"
	"os"

	"github.com/zjrosen/regcheck/cmd"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	versionString := fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	cmd.SetVersion(versionString)
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
