// Package support holds the shared state and step definitions for the
// parsesvc CLI's godog feature suite, mirroring the teacher's
// test/integration/cli/support package scaled to this service's much
// smaller CLI surface (one parse command, no model-path flags).
package support

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TestContext holds the state shared across step definitions within one
// scenario.
type TestContext struct {
	WorkingDir string
	TempDir    string

	LastCommand  string
	LastOutput   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	CreatedFiles []string
}

// NewTestContext builds a fresh TestContext rooted at the module directory.
func NewTestContext() (*TestContext, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("support: failed to get working directory: %w", err)
	}

	currentDir := workingDir
	for {
		if _, statErr := os.Stat(filepath.Join(currentDir, "go.mod")); statErr == nil {
			workingDir = currentDir
			break
		}
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}

	tempDir, err := os.MkdirTemp("", "parsesvc-cli-test-*")
	if err != nil {
		return nil, fmt.Errorf("support: failed to create temp directory: %w", err)
	}

	return &TestContext{WorkingDir: workingDir, TempDir: tempDir}, nil
}

// Cleanup removes every file and directory the scenario created.
func (testCtx *TestContext) Cleanup() error {
	var firstErr error
	for _, file := range testCtx.CreatedFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// TrackFile registers a file for cleanup after the scenario runs.
func (testCtx *TestContext) TrackFile(path string) {
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, path)
}

// TempFile returns a path under the scenario's temp directory.
func (testCtx *TestContext) TempFile(name string) string {
	return filepath.Join(testCtx.TempDir, name)
}
