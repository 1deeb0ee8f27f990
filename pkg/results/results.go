// Package results manages the per-run artifact tree: the shared file of
// posted reply URLs and the per-category account logs and screenshots.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Category names the per-run subfolder an account artifact lands in.
type Category string

const (
	CategorySuspended    Category = "suspended"
	CategoryLocked       Category = "locked"
	CategoryHardLocked   Category = "hard-locked"
	CategoryLimit        Category = "limit"
	CategoryAutoDetected Category = "auto-detected"
	CategoryLoginIssue   Category = "login-issue"
	CategoryUnexpected   Category = "unexpected"
)

// Store is the artifact sink for one run. Result and account-log writes
// are open-append-close with an internal mutex, so concurrent workers
// never interleave lines.
type Store struct {
	runDir     string
	resultPath string
	mu         sync.Mutex
}

// NewStore creates the timestamped run directory and the shared result
// file under baseDir.
func NewStore(baseDir string, now time.Time) (*Store, error) {
	stamp := now.Format("15-04-05")
	runDir := filepath.Join(baseDir, stamp)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create result directory: %w", err)
	}

	resultPath := filepath.Join(runDir, fmt.Sprintf("result-%s.txt", stamp))
	file, err := os.Create(resultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create result file: %w", err)
	}
	file.Close()

	return &Store{runDir: runDir, resultPath: resultPath}, nil
}

// Dir returns the run directory.
func (s *Store) Dir() string {
	return s.runDir
}

// ResultPath returns the path of the shared result file.
func (s *Store) ResultPath() string {
	return s.resultPath
}

// AppendResult appends one posted-reply URL to the shared result file.
func (s *Store) AppendResult(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLine(s.resultPath, url)
}

// RecordAccount logs an account under a category: one appended accounts
// line plus an optional screenshot. The line carries the password when it
// is known and the bare username otherwise.
func (s *Store) RecordAccount(category Category, username, password string, screenshot []byte) error {
	dir, err := s.categoryDir(category)
	if err != nil {
		return err
	}

	line := username
	if password != "" {
		line = username + ":" + password
	}

	s.mu.Lock()
	err = appendLine(filepath.Join(dir, "accounts.txt"), line)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if screenshot != nil {
		return s.writeScreenshot(dir, username, screenshot)
	}
	return nil
}

// Screenshot stores a diagnostic screenshot under a category without an
// accounts entry.
func (s *Store) Screenshot(category Category, name string, screenshot []byte) error {
	dir, err := s.categoryDir(category)
	if err != nil {
		return err
	}
	return s.writeScreenshot(dir, name, screenshot)
}

func (s *Store) categoryDir(category Category) (string, error) {
	dir := filepath.Join(s.runDir, string(category))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", category, err)
	}
	return dir, nil
}

func (s *Store) writeScreenshot(dir, name string, screenshot []byte) error {
	filename := fmt.Sprintf("%s-%s.png", name, uuid.NewString())
	if err := os.WriteFile(filepath.Join(dir, filename), screenshot, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

func appendLine(path, line string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return nil
}
