package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName    = "fitplate"
	dbFileName    = "fitplate.db"
	widgetDirName = "widgets"
)

func DefaultDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName, dbFileName), nil
}

// DefaultWidgetDir places widget payloads next to the database.
func DefaultWidgetDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), widgetDirName)
}

func EnsureDBDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}
