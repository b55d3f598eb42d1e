package util

import (
	"os"
	"strings"

	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file from the working directory if one exists.
// Variables already present in the environment are not overridden.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// GetEnvBool reads a boolean variable. Values other than true or false
// fall back to defaultValue.
func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	value = strings.ToLower(strings.TrimSpace(value))
	if value == "true" || value == "false" {
		return value == "true"
	}

	return defaultValue
}
