// =============================================================================
// SAP Account Items Updater - Logging Setup
// =============================================================================
//
// Configures the application logger: structured text logging to stdout and
// to a dated log file. Log files are named
//
//   YYYY-MM-DD_NNN.log
//
// where NNN is the first free sequence number for the day, so repeated runs
// on the same date never overwrite each other. Files older than the
// configured retention are removed at setup time.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	dateTagFormat = "2006-01-02"
	logExtension  = ".log"
)

// =============================================================================
// SETUP
// =============================================================================

// Setup initializes the application logger. It returns the logger, a
// function closing the underlying log file, and an error if the log file
// cannot be created.
func Setup(fs afero.Fs, dir string, level slog.Level, retainDays int) (*slog.Logger, func() error, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create the log directory: %w", err)
	}

	path, err := compileLogPath(fs, dir)
	if err != nil {
		return nil, nil, err
	}

	file, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open the log file: %w", err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, file), &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)

	removeOldLogs(fs, logger, dir, retainDays)

	return logger, file.Close, nil
}

// ParseLevel maps a configuration string onto a slog level. Unknown values
// fall back to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// =============================================================================
// LOG FILE LIFECYCLE
// =============================================================================

// compileLogPath returns the first unused dated log file path for today.
func compileLogPath(fs afero.Fs, dir string) (string, error) {
	dateTag := time.Now().Format(dateTagFormat)

	for nth := 1; ; nth++ {
		name := fmt.Sprintf("%s_%03d%s", dateTag, nth, logExtension)
		path := filepath.Join(dir, name)

		exists, err := afero.Exists(fs, path)
		if err != nil {
			return "", fmt.Errorf("failed to probe log path %q: %w", path, err)
		}
		if !exists {
			return path, nil
		}
	}
}

// removeOldLogs deletes log files whose date tag is older than the
// retention window. Failures are logged and otherwise ignored.
func removeOldLogs(fs afero.Fs, log *slog.Logger, dir string, retainDays int) {
	if retainDays < 1 {
		retainDays = 1
	}

	paths, err := afero.Glob(fs, filepath.Join(dir, "*"+logExtension))
	if err != nil {
		log.Error("failed to list log files", "error", err)
		return
	}

	threshold := time.Now().AddDate(0, 0, -retainDays)

	for _, path := range paths {
		token, _, found := strings.Cut(filepath.Base(path), "_")
		if !found {
			continue
		}
		logDate, err := time.Parse(dateTagFormat, token)
		if err != nil {
			continue
		}
		if !logDate.Before(threshold) {
			continue
		}

		log.Info("removing obsolete log file", "path", path)
		if err := fs.Remove(path); err != nil {
			log.Error("failed to remove log file", "path", path, "error", err)
		}
	}
}
