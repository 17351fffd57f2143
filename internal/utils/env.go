package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/kelsos/arango-go/internal/logger"
)

// LoadEnvironment loads environment variables from .env files, first from
// the current directory and then from the directory of the executable.
func LoadEnvironment() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file in current directory: %v", err)
	} else {
		logger.Info("Loaded .env file from current directory")
	}

	execPath, err := os.Executable()
	if err != nil {
		logger.Debug("Could not determine executable path: %v", err)
		return
	}

	envPath := filepath.Join(filepath.Dir(execPath), ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Debug("No .env file next to the executable: %v", err)
	} else {
		logger.Info("Loaded .env file from %s", envPath)
	}
}
