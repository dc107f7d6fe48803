package config

import (
	"os"
	"path/filepath"
	"strings"
)

const fallbackVersion = "0.1.0"

// GetVersion returns version from environment variable or the VERSION file
func GetVersion() string {
	// Set by CI/CD
	if envVersion := os.Getenv("APP_VERSION"); envVersion != "" {
		return envVersion
	}
	return getBaseVersion()
}

// getBaseVersion reads the VERSION file from the working directory or one of its parents
func getBaseVersion() string {
	for _, dir := range []string{".", "..", filepath.Join("..", "..")} {
		content, err := os.ReadFile(filepath.Join(dir, "VERSION"))
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(content)); v != "" {
			return v
		}
	}
	return fallbackVersion
}
