package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name       string
		envVersion string
		expected   string
	}{
		{
			name:       "version from environment variable",
			envVersion: "1.2.3",
			expected:   "1.2.3",
		},
		{
			name:       "version from environment with build number",
			envVersion: "2.0.0-beta.1",
			expected:   "2.0.0-beta.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t, "APP_VERSION")
			os.Setenv("APP_VERSION", tt.envVersion)
			if got := GetVersion(); got != tt.expected {
				t.Errorf("GetVersion() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetVersionFromFile(t *testing.T) {
	unsetEnv(t, "APP_VERSION")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "VERSION"), []byte("3.4.5\n"), 0o644); err != nil {
		t.Fatalf("Failed to write VERSION: %v", err)
	}
	chdir(t, dir)

	if got := GetVersion(); got != "3.4.5" {
		t.Errorf("GetVersion() = %q, want %q", got, "3.4.5")
	}
}

func TestGetVersionFallback(t *testing.T) {
	unsetEnv(t, "APP_VERSION")

	// Nested so none of ., .. or ../.. contains a VERSION file.
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	chdir(t, dir)

	if got := GetVersion(); got != fallbackVersion {
		t.Errorf("GetVersion() = %q, want %q", got, fallbackVersion)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}
