// =============================================================================
// SAP Account Items Updater - File Manager Utility
// =============================================================================
//
// This module manages the temporary working directory used during a
// processing run. Reports and grid exports are created there under unique
// names and the whole directory content is swept when the run finishes.
//
// CLEANUP STRATEGY:
//   - Every run writes only into the temp directory
//   - Cleanup removes the files, never the directory itself
//   - A file that cannot be removed is reported but does not fail the run
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// =============================================================================
// TEMP MANAGER
// =============================================================================

// TempManager handles the temporary working directory of a run.
type TempManager struct {
	// Dir is the temporary working directory.
	Dir string
}

// NewTempManager creates a TempManager for the given directory.
func NewTempManager(dir string) *TempManager {
	return &TempManager{Dir: dir}
}

// EnsureDir creates the temporary directory if it does not exist.
//
// RETURNS:
//   - An error if the directory cannot be created.
func (tm *TempManager) EnsureDir() error {
	if err := os.MkdirAll(tm.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", tm.Dir, err)
	}
	return nil
}

// Path returns the path of a named file inside the temporary directory.
func (tm *TempManager) Path(name string) string {
	return filepath.Join(tm.Dir, name)
}

// UniquePath returns a collision-free file path inside the temporary
// directory with the given extension (e.g. ".txt").
func (tm *TempManager) UniquePath(extension string) string {
	return filepath.Join(tm.Dir, uuid.NewString()+extension)
}

// =============================================================================
// CLEANUP
// =============================================================================

// Cleanup removes every file in the temporary directory.
//
// RETURNS:
//   - The number of files removed.
//   - An error if the directory cannot be listed. Individual files that
//     cannot be removed are skipped and do not fail the sweep.
func (tm *TempManager) Cleanup() (int, error) {
	entries, err := os.ReadDir(tm.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list temp directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(tm.Dir, entry.Name())); err != nil {
			continue
		}
		removed++
	}

	return removed, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
