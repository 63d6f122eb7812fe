// =============================================================================
// SAP Account Items Updater - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (items-updater)
//   ├── processCmd (items-updater process)
//   ├── exportCmd (items-updater export)
//   └── versionCmd (items-updater version)
//
// The root command owns the global flags (--config, --verbose); command
// specific flags live next to their command.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the application configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging regardless of the configured level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "items-updater",

	Short: "SAP Account Items Updater - Bulk-update line item texts and assignments",

	Long: `SAP Account Items Updater automates bulk maintenance of open and cleared
line items on G/L and customer accounts. It drives an attended SAP GUI
session through a scripting host, so every change goes through the same
screens, checks and authorizations as a manual update.

Key Features:
  - Mail-triggered processing of user-supplied change spreadsheets
  - G/L (FBL3N) and customer (FBL5N) accounts, detected automatically
  - Per-entry audit trail returned to the user as an XLSX report
  - Line item export to file for reconciliation purposes

Example Usage:
  items-updater process --message-id 4f2c1a   # Process one request message
  items-updater export --accounts 40010000 --company-code 0075 --output items.txt
  items-updater version                       # Display the application version`,

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags available to every subcommand.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the application configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Force debug logging regardless of the configured level",
	)
}
