package output

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns the path to the log file.
// If CRYPTA_LOG_FILE is set, uses that path.
// Otherwise, uses ~/.crypta/logs/crypta.log
func GetLogFilePath() string {
	if customPath := os.Getenv("CRYPTA_LOG_FILE"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if we can't get home dir
		return "crypta.log"
	}

	return filepath.Join(homeDir, ".crypta", "logs", "crypta.log")
}
