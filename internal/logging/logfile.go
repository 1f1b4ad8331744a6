package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Log file errors
var (
	ErrEmptyLogDirectory   = errors.New("log directory cannot be empty")
	ErrLogDirectorySymlink = errors.New("log directory is a symbolic link")
)

const (
	logDirPerm  fs.FileMode = 0o750
	logFilePerm fs.FileMode = 0o600
)

// GenerateRunID returns a new run identifier
func GenerateRunID() string {
	return uuid.NewString()
}

// LogFileName builds hostname_timestamp_runID.json
func LogFileName(hostname string, at time.Time, runID string) string {
	if hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s_%s_%s.json", hostname, at.UTC().Format("20060102T150405Z"), runID)
}

// OpenLogFile creates a new run log in dir. The directory is created when
// missing and must not be a symlink. The file must not already exist, so a
// planted symlink at the target path fails the open.
func OpenLogFile(dir, runID string) (*os.File, error) {
	if dir == "" {
		return nil, ErrEmptyLogDirectory
	}
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	info, err := os.Lstat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat log directory %s: %w", dir, err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, fmt.Errorf("%w: %s", ErrLogDirectorySymlink, dir)
	}

	hostname, _ := os.Hostname()
	path := filepath.Join(dir, LogFileName(hostname, time.Now(), runID))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
