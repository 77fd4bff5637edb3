package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.litsearch/logs/).
// Falls back to the temp directory if home is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".litsearch", "logs")
	}
	return filepath.Join(home, ".litsearch", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "litsearch.log")
}
