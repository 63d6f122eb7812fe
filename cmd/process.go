// =============================================================================
// SAP Account Items Updater - Process Command
// =============================================================================
//
// This file defines the 'process' command, which handles one mail-triggered
// update request end to end.
//
// COMMAND USAGE:
//   items-updater process --message-id <id>
//
// PROCESSING PIPELINE:
//   1. Initialization : configuration, logging, temp directory
//   2. Input          : load the request message, extract the company code,
//                       parse and validate the attached spreadsheet
//   3. Processing     : drive the SAP session through the update sequence
//   4. Reporting      : render the result report and notify the requester
//
// EXIT CODES:
//   0 - request processed, report delivered
//   1 - initialization failed
//   2 - the request input was missing or invalid
//   3 - processing in SAP failed or found nothing to do
//   4 - report generation or delivery failed
//
// Input rejections and expected no-item outcomes are reported back to the
// requesting user; infrastructure failures send a generic error text and
// keep the details in the log.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tomaskral78/sap-items-updater/internal/config"
	"github.com/tomaskral78/sap-items-updater/internal/engine"
	"github.com/tomaskral78/sap-items-updater/internal/logging"
	"github.com/tomaskral78/sap-items-updater/internal/mailbox"
	"github.com/tomaskral78/sap-items-updater/internal/notify"
	"github.com/tomaskral78/sap-items-updater/internal/report"
	"github.com/tomaskral78/sap-items-updater/internal/request"
	"github.com/tomaskral78/sap-items-updater/internal/session"
	"github.com/tomaskral78/sap-items-updater/pkg/utils"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	exitOK         = 0
	exitInit       = 1
	exitInput      = 2
	exitProcessing = 3
	exitReporting  = 4
)

// genericErrorText is sent to the user when the failure is not theirs to
// fix; the actionable detail stays in the log.
const genericErrorText = "An unexpected error occurred during processing. " +
	"Please contact the application administrator."

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// messageID identifies the request message to process.
var messageID string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process one mail-triggered item update request",
	Long: `The process command handles one update request dropped into the requests
directory by the mail gateway. The request message carries the company code
in its body and the change spreadsheet as an attachment.

The account domain (G/L or customer) is detected from the account number
length and the matching line item transaction is driven through the update
sequence. Every spreadsheet entry receives an outcome message, and the
complete audit report is sent back to the requesting user.

On a rejected request the user receives an error notification naming the
problem; on an infrastructure failure the user receives a generic error
text and the details are logged.`,

	Run: func(cmd *cobra.Command, args []string) {
		if code := runProcess(); code != exitOK {
			os.Exit(code)
		}
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(
		&messageID,
		"message-id",
		"",
		"ID of the request message to process (required)",
	)
	processCmd.MarkFlagRequired("message-id")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess drives the complete pipeline and returns the process exit code.
func runProcess() int {
	// =========================================================================
	// STEP 1: INITIALIZATION
	// =========================================================================

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInit
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}

	fs := afero.NewOsFs()
	log, closeLog, err := logging.Setup(fs, cfg.Paths.LogDir, level, cfg.Logging.RetainDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInit
	}
	defer closeLog()

	log.Info("processing started", "message_id", messageID, "system", cfg.SAP.System)

	temp := utils.NewTempManager(cfg.Paths.TempDir)
	if err := temp.EnsureDir(); err != nil {
		log.Error("failed to prepare the temp directory", "error", err)
		return exitInit
	}
	defer func() {
		removed, err := temp.Cleanup()
		if err != nil {
			log.Error("failed to clean the temp directory", "error", err)
			return
		}
		log.Debug("temp directory cleaned", "removed", removed)
	}()

	notifier := notify.New(notify.Settings{
		Send:    cfg.Messages.Notifications.Send,
		Sender:  cfg.Messages.Notifications.Sender,
		Host:    cfg.Messages.Notifications.Host,
		Port:    cfg.Messages.Notifications.Port,
		Subject: cfg.Messages.Notifications.Subject,
	}, cfg.Paths.TemplateDir, log)

	// =========================================================================
	// STEP 2: INPUT ACQUISITION & VALIDATION
	// =========================================================================
	// A missing message cannot be answered; every later rejection is sent
	// back to the sender.

	msg, err := mailbox.Load(fs, cfg.Messages.Requests.Dir, messageID)
	if err != nil {
		log.Error("failed to load the request message", "error", err)
		return exitInput
	}
	log.Info("request message loaded", "sender", msg.Sender, "subject", msg.Subject)

	batch, err := buildBatch(msg)
	if err != nil {
		log.Error("request rejected", "error", err)
		notifyFailure(notifier, log, msg.Sender, err.Error())
		return exitInput
	}
	log.Info("request accepted",
		"company_code", batch.CompanyCode,
		"rows", len(batch.Rows),
		"accounts", len(batch.Accounts),
		"tcode", batch.Profile.TransactionCode,
	)

	// =========================================================================
	// STEP 3: PROCESSING
	// =========================================================================

	bridge, err := session.Dial(cfg.SAP.BridgeAddress)
	if err != nil {
		log.Error("failed to connect to the scripting host", "address", cfg.SAP.BridgeAddress, "error", err)
		notifyFailure(notifier, log, msg.Sender, genericErrorText)
		return exitProcessing
	}
	defer bridge.Close()

	updater := engine.NewUpdater(bridge, batch.Profile, cfg.LayoutFor(batch.Profile.Kind), log)
	defer updater.Close()

	// Update runs touch open items only unless configured otherwise.
	outcomes, err := updater.ModifyItems(
		engine.ExplicitAccounts(batch.Accounts),
		batch.CompanyCode,
		engine.ItemStatus(cfg.Data.ItemStatus),
		batch.Requests,
	)
	if err != nil {
		if errors.Is(err, engine.ErrNoItemsFound) || errors.Is(err, engine.ErrNoMatchingItems) {
			// Expected outcome, not a system failure. The user learns why
			// nothing was changed.
			log.Warn("nothing to process", "reason", err)
			notifyFailure(notifier, log, msg.Sender, err.Error())
			return exitProcessing
		}
		log.Error("processing failed", "state", updater.State(), "error", err)
		notifyFailure(notifier, log, msg.Sender, genericErrorText)
		return exitProcessing
	}
	log.Info("processing finished", "entries", len(outcomes))

	// =========================================================================
	// STEP 4: REPORTING & NOTIFICATION
	// =========================================================================

	request.ApplyOutcomes(batch.Rows, outcomes)

	reportPath := temp.Path(cfg.Data.ReportName)
	if err := report.Write(reportPath, cfg.Data.SheetName, batch.Rows); err != nil {
		log.Error("failed to generate the report", "error", err)
		notifyFailure(notifier, log, msg.Sender, genericErrorText)
		return exitReporting
	}

	if err := notifier.NotifyCompleted(msg.Sender, reportPath); err != nil {
		log.Error("failed to send the completion notification", "error", err)
		return exitReporting
	}

	log.Info("request completed", "message_id", messageID, "recipient", msg.Sender)
	return exitOK
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// buildBatch turns the request message into a validated processing batch.
func buildBatch(msg *mailbox.Message) (*request.Batch, error) {
	companyCode, err := request.ExtractCompanyCode(msg.Body)
	if err != nil {
		return nil, err
	}

	attachment, err := msg.SpreadsheetAttachment()
	if err != nil {
		return nil, err
	}

	rows, err := request.ParseWorkbook(attachment.Content)
	if err != nil {
		return nil, err
	}

	return request.BuildBatch(companyCode, rows)
}

// notifyFailure sends the error notification, logging a delivery failure
// without masking the original problem.
func notifyFailure(notifier *notify.Notifier, log *slog.Logger, recipient, message string) {
	if err := notifier.NotifyError(recipient, message); err != nil {
		log.Error("failed to send the error notification", "error", err)
	}
}
