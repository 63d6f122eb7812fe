// =============================================================================
// SAP Account Items Updater - Configuration Module
// =============================================================================
//
// This module loads and validates the application configuration from a
// single YAML file. The configuration covers four concerns:
//
//   sap:      how to reach the GUI scripting host owning the session
//   messages: the inbound request drop directory and outbound notifications
//   data:     grid layout names per transaction and report file settings
//   paths:    temp, template and log directories
//
// Everything has a sensible default except the scripting host address and,
// when notifications are enabled, the relay settings.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tomaskral78/sap-items-updater/internal/profile"
	"github.com/tomaskral78/sap-items-updater/pkg/utils"
)

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// AppConfig holds the complete application configuration.
// This is loaded from a single config.yaml file.
type AppConfig struct {
	SAP      SAPConfig      `yaml:"sap"`
	Messages MessagesConfig `yaml:"messages"`
	Data     DataConfig     `yaml:"data"`
	Paths    PathsConfig    `yaml:"paths"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SAPConfig addresses the GUI scripting host.
type SAPConfig struct {
	// BridgeAddress is the TCP address (host:port) of the scripting host
	// that owns the live SAP GUI session.
	BridgeAddress string `yaml:"bridge_address"`

	// System is the SAP system identifier, used for log context only.
	System string `yaml:"system"`
}

// MessagesConfig groups the mail-related settings.
type MessagesConfig struct {
	Requests      RequestsConfig      `yaml:"requests"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// RequestsConfig describes where inbound request messages are found.
type RequestsConfig struct {
	// Dir is the directory the mail gateway drops .eml request files into.
	// Default: "./requests"
	Dir string `yaml:"dir"`
}

// NotificationsConfig controls outbound user notifications.
type NotificationsConfig struct {
	// Send enables notifications. When false, notification calls are
	// logged and skipped. Default: false
	Send bool `yaml:"send"`

	// Sender is the notification From address.
	// Required when Send is true.
	Sender string `yaml:"sender"`

	// Host and Port address the SMTP relay.
	// Host is required when Send is true. Default port: 25
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Subject is the fixed notification subject line.
	// Default: "SAP Account Items Updater"
	Subject string `yaml:"subject"`
}

// DataConfig holds data handling parameters.
type DataConfig struct {
	// FBL3NLayout and FBL5NLayout name the line item grid layouts used per
	// transaction. An empty value keeps the user's default layout.
	FBL3NLayout string `yaml:"fbl3n_layout"`
	FBL5NLayout string `yaml:"fbl5n_layout"`

	// ReportName is the file name of the generated result report.
	// Default: "report.xlsx"
	ReportName string `yaml:"report_name"`

	// SheetName is the name of the report sheet.
	// Default: "Results"
	SheetName string `yaml:"sheet_name"`

	// ItemStatus selects which line items an update run loads.
	// Valid values: "open", "cleared", "all"
	// Default: "open"
	ItemStatus string `yaml:"item_status"`
}

// PathsConfig holds the working directories.
type PathsConfig struct {
	// TempDir is where temporary files (reports, grid exports) are created.
	// Default: "./temp"
	TempDir string `yaml:"temp_dir"`

	// TemplateDir contains the notification body templates.
	// Default: "./notifications"
	TemplateDir string `yaml:"template_dir"`

	// LogDir is where dated log files are written.
	// Default: "./logs"
	LogDir string `yaml:"log_dir"`
}

// LoggingConfig controls the logging system.
type LoggingConfig struct {
	// Level controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// RetainDays is how many days of log files to keep.
	// Default: 7
	RetainDays int `yaml:"retain_days"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the application configuration from a YAML file, applies
// defaults and validates the result.
//
// PARAMETERS:
//   - path: the path to the configuration file; must end in .yaml or .yml.
//
// RETURNS:
//   - A pointer to the AppConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func Load(path string) (*AppConfig, error) {
	if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
		return nil, fmt.Errorf("the configuration file is not a YAML file: %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config AppConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *AppConfig) {
	if config.Messages.Requests.Dir == "" {
		config.Messages.Requests.Dir = "./requests"
	}
	if config.Messages.Notifications.Port == 0 {
		config.Messages.Notifications.Port = 25
	}
	if config.Messages.Notifications.Subject == "" {
		config.Messages.Notifications.Subject = "SAP Account Items Updater"
	}
	if config.Data.ReportName == "" {
		config.Data.ReportName = "report.xlsx"
	}
	if config.Data.SheetName == "" {
		config.Data.SheetName = "Results"
	}
	if config.Data.ItemStatus == "" {
		config.Data.ItemStatus = "open"
	}
	if config.Paths.TempDir == "" {
		config.Paths.TempDir = "./temp"
	}
	if config.Paths.TemplateDir == "" {
		config.Paths.TemplateDir = "./notifications"
	}
	if config.Paths.LogDir == "" {
		config.Paths.LogDir = "./logs"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.RetainDays == 0 {
		config.Logging.RetainDays = 7
	}
}

// validate rejects configurations the application cannot run with and
// creates the working directories when missing.
func validate(config *AppConfig) error {
	if config.SAP.BridgeAddress == "" {
		return fmt.Errorf("sap.bridge_address must be set")
	}

	if config.Messages.Notifications.Send {
		if config.Messages.Notifications.Sender == "" {
			return fmt.Errorf("messages.notifications.sender must be set when notifications are enabled")
		}
		if config.Messages.Notifications.Host == "" {
			return fmt.Errorf("messages.notifications.host must be set when notifications are enabled")
		}
	}

	switch config.Data.ItemStatus {
	case "open", "cleared", "all":
	default:
		return fmt.Errorf("data.item_status must be one of open, cleared or all, got %q", config.Data.ItemStatus)
	}

	dirs := []string{
		config.Paths.TempDir,
		config.Paths.LogDir,
		config.Messages.Requests.Dir,
	}

	for _, dir := range dirs {
		if !utils.FileExists(dir) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// LayoutFor returns the configured grid layout for an account domain.
func (c *AppConfig) LayoutFor(kind profile.Kind) string {
	if kind == profile.Customer {
		return c.Data.FBL5NLayout
	}
	return c.Data.FBL3NLayout
}
