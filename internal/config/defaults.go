package config

import (
	"os"
	"path/filepath"
)

// defaultHome returns ~/.jdbridge, falling back to a relative path if the
// home directory cannot be determined (e.g. restricted sandboxes).
func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultHomeDirName
	}
	return filepath.Join(home, DefaultHomeDirName)
}
