package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFileName is the SQLite database file inside a .briefloop directory.
const DBFileName = "briefloop.db"

// GlobalBriefloopPath returns the path to the global .briefloop directory.
// On Unix: ~/.briefloop
// On Windows: %USERPROFILE%\.briefloop
func GlobalBriefloopPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".briefloop"), nil
}

// LocalBriefloopPath returns the path to the local .briefloop directory
// for the given project root.
func LocalBriefloopPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".briefloop")
}

// EnsureBriefloopDir creates the given .briefloop directory if it doesn't
// exist and writes the default .gitignore.
func EnsureBriefloopDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create .briefloop directory: %w", err)
	}
	return EnsureGitignore(dir)
}

// briefloopGitignore is the default .gitignore content for .briefloop
// directories.
const briefloopGitignore = `# SQLite database files (runtime data, not version controlled)
briefloop.db
briefloop.db-shm
briefloop.db-wal

# Vector index snapshots
questions.hnsw
`

// EnsureGitignore creates a .gitignore in the given .briefloop directory if
// one does not already exist. This prevents accidentally committing database
// files and runtime artifacts to version control.
func EnsureGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		return nil // already exists, respect user customizations
	}
	if err := os.WriteFile(gitignorePath, []byte(briefloopGitignore), 0600); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	return nil
}

// OpenAt opens (creating if needed) the SQLite store inside the given
// .briefloop directory.
func OpenAt(dir string) (*SQLiteStore, error) {
	if err := EnsureBriefloopDir(dir); err != nil {
		return nil, err
	}
	return NewSQLiteStore(filepath.Join(dir, DBFileName))
}
