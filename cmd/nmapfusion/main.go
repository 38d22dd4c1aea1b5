// Command nmapfusion is the entry point for the scan fusion CLI.
package main

import (
	"github.com/nmapfusion/nmapfusion/cmd/cli"
)

// Build information - set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
