// Package main is the entry point for the skylift CLI.
//
// skylift provisions Google Cloud projects and infrastructure for an
// application environment, deploys the application onto the resulting
// instance over SSH, and verifies that its services come up healthy.
// Infrastructure is created through terraform; project, API, billing
// and IAM management goes through gcloud.
//
// Commands: provision, deploy, destroy, status, doctor.
//
// For detailed usage information, run:
//
//	skylift --help
package main

import (
	"fmt"
	"os"

	"github.com/skylift/skylift/cmd/skylift/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
