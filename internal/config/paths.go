package config

import (
	"os"
	"path/filepath"
)

// ConfigFileEnv names the variable that points at an explicit config file.
const ConfigFileEnv = "FLIGHTOPS_CONFIG"

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// getConfigFilePath returns the path to the config file, or "" when none is found
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	locations := []string{
		"flightops.yaml",
		"config/flightops.yaml",
		"configs/flightops.yaml",
	}
	if dir, err := ExecutableDir(); err == nil {
		locations = append(locations, filepath.Join(dir, "flightops.yaml"))
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}
