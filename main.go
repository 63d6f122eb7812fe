// =============================================================================
// SAP Account Items Updater - Main Entry Point
// =============================================================================
//
// This is the main entry point for the SAP Account Items Updater CLI. It
// initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   items-updater process --message-id <id>  - Process one request message
//   items-updater export [flags]             - Export line items to a file
//   items-updater version                    - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/            : CLI command definitions (Cobra)
//   - internal/       : Core business logic (not for external import)
//   - pkg/            : Shared utilities
//   - notifications/  : Outbound notification body templates
//
// =============================================================================

package main

import (
	"github.com/tomaskral78/sap-items-updater/cmd"
)

// main is the entry point of the application. It calls the Execute function
// from the cmd package, which initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
