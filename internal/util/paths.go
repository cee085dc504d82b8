// Package util holds small helpers shared across packages.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a path by handling:
// - Tilde (~) expansion to user home directory
// - Environment variable expansion ($VAR or ${VAR})
// - Cleaning the final path
//
// Examples:
//   - "~/data" -> "/home/user/data"
//   - "$HOME/data" -> "/home/user/data"
//   - "~/.gridpilot/history.db" -> "/home/user/.gridpilot/history.db"
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		if path == "~" {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[2:])
	}

	path = os.ExpandEnv(path)

	return filepath.Clean(path), nil
}
