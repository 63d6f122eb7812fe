// =============================================================================
// SAP Account Items Updater - Export Command
// =============================================================================
//
// This file defines the 'export' command, which reads line item data out of
// an account selection into a local text file.
//
// COMMAND USAGE:
//   items-updater export --accounts 40010000,40020000 --company-code 0075 \
//     --output items.txt
//   items-updater export --worklist MONTH_END --account-type gl \
//     --company-code 0075 --from 2026-01-01 --to 2026-01-31 --output items.txt
//
// ACCOUNT SELECTION:
//   Either --accounts (comma-separated identifiers) or --worklist must be
//   given. With explicit accounts the domain is detected from the digit
//   length; a worklist carries no identifiers, so --account-type is
//   required there.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tomaskral78/sap-items-updater/internal/config"
	"github.com/tomaskral78/sap-items-updater/internal/engine"
	"github.com/tomaskral78/sap-items-updater/internal/logging"
	"github.com/tomaskral78/sap-items-updater/internal/profile"
	"github.com/tomaskral78/sap-items-updater/internal/session"
	"github.com/tomaskral78/sap-items-updater/pkg/utils"
)

// inputDateFormat is the date layout accepted by --from and --to.
const inputDateFormat = "2006-01-02"

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// exportAccounts is the comma-separated explicit account list.
	exportAccounts string

	// exportWorklist names a predefined worklist instead of explicit accounts.
	exportWorklist string

	// exportAccountType picks the account domain when a worklist is used.
	// Valid values: "gl", "customer".
	exportAccountType string

	// exportCompanyCode restricts the selection to one company code.
	exportCompanyCode string

	// exportStatus selects which items are loaded: open, cleared or all.
	exportStatus string

	// exportFrom and exportTo bound the posting date range (YYYY-MM-DD).
	exportFrom string
	exportTo   string

	// exportOutput is the destination file for the exported data.
	exportOutput string
)

// =============================================================================
// EXPORT COMMAND DEFINITION
// =============================================================================

// exportCmd represents the 'export' command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export line items of an account selection to a text file",
	Long: `The export command loads the line items of an account selection, switches
the result grid to technical column names and exports it to a local text
file. The export is read back, transcoded to UTF-8 and written to the
--output path.

The posting date range is optional; an omitted boundary leaves that side
open.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the export command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportAccounts, "accounts", "",
		"Comma-separated account identifiers to export")
	exportCmd.Flags().StringVar(&exportWorklist, "worklist", "",
		"Name of a predefined worklist (alternative to --accounts)")
	exportCmd.Flags().StringVar(&exportAccountType, "account-type", "",
		"Account domain for a worklist export: gl or customer")
	exportCmd.Flags().StringVar(&exportCompanyCode, "company-code", "",
		"Four-digit company code (required)")
	exportCmd.Flags().StringVar(&exportStatus, "status", "all",
		"Item status to load: open, cleared or all")
	exportCmd.Flags().StringVar(&exportFrom, "from", "",
		"Lower posting date boundary (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "",
		"Upper posting date boundary (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "",
		"Destination file for the exported data (required)")

	exportCmd.MarkFlagRequired("company-code")
	exportCmd.MarkFlagRequired("output")
}

// =============================================================================
// MAIN EXPORT FUNCTION
// =============================================================================

// runExport drives the complete export sequence.
func runExport() error {
	selection, prof, err := resolveSelection()
	if err != nil {
		return err
	}

	from, err := parseDate(exportFrom)
	if err != nil {
		return fmt.Errorf("invalid --from date: %w", err)
	}
	to, err := parseDate(exportTo)
	if err != nil {
		return fmt.Errorf("invalid --to date: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}
	log, closeLog, err := logging.Setup(afero.NewOsFs(), cfg.Paths.LogDir, level, cfg.Logging.RetainDays)
	if err != nil {
		return err
	}
	defer closeLog()

	temp := utils.NewTempManager(cfg.Paths.TempDir)
	if err := temp.EnsureDir(); err != nil {
		return err
	}

	bridge, err := session.Dial(cfg.SAP.BridgeAddress)
	if err != nil {
		return fmt.Errorf("failed to connect to the scripting host: %w", err)
	}
	defer bridge.Close()

	exporter := engine.NewExporter(bridge, prof, cfg.LayoutFor(prof.Kind), log)
	defer exporter.Close()

	data, err := exporter.ExportLineItems(selection, exportCompanyCode, engine.ItemStatus(exportStatus), from, to, cfg.Paths.TempDir)
	if err != nil {
		return err
	}

	if err := os.WriteFile(exportOutput, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write the output file: %w", err)
	}

	log.Info("export written", "path", exportOutput, "bytes", len(data))
	fmt.Printf("Exported line items written to %s\n", exportOutput)
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// resolveSelection builds the account selection and its domain profile from
// the command flags.
func resolveSelection() (engine.AccountSelection, profile.Profile, error) {
	var zero engine.AccountSelection

	switch {
	case exportWorklist != "" && exportAccounts != "":
		return zero, profile.Profile{}, fmt.Errorf("--accounts and --worklist are mutually exclusive")

	case exportWorklist != "":
		prof, err := worklistProfile(exportAccountType)
		if err != nil {
			return zero, profile.Profile{}, err
		}
		return engine.WorklistSelection(exportWorklist), prof, nil

	case exportAccounts != "":
		accounts := splitAccounts(exportAccounts)
		prof, err := profile.Detect(accounts)
		if err != nil {
			return zero, profile.Profile{}, err
		}
		return engine.ExplicitAccounts(accounts), prof, nil
	}

	return zero, profile.Profile{}, fmt.Errorf("either --accounts or --worklist must be given")
}

// worklistProfile maps the --account-type flag onto a domain profile.
func worklistProfile(accountType string) (profile.Profile, error) {
	switch strings.ToLower(accountType) {
	case "gl":
		return profile.ForKind(profile.GeneralLedger)
	case "customer":
		return profile.ForKind(profile.Customer)
	case "":
		return profile.Profile{}, fmt.Errorf("--account-type is required with --worklist")
	}
	return profile.Profile{}, fmt.Errorf("unknown --account-type %q (use gl or customer)", accountType)
}

// splitAccounts turns the comma-separated flag value into a clean list.
func splitAccounts(value string) []string {
	var accounts []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			accounts = append(accounts, trimmed)
		}
	}
	return accounts
}

// parseDate parses an optional date flag; an empty value yields nil.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(inputDateFormat, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
