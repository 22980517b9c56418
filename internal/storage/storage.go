package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoSnapshot is returned when a user has no local snapshot yet.
var ErrNoSnapshot = errors.New("no local snapshot")

// versionLayout is fixed width so file names sort chronologically.
const versionLayout = "20060102T150405.000000000Z"

// SnapshotStore keeps versioned backup snapshots on disk, one directory per user.
type SnapshotStore struct {
	basePath string
}

// NewSnapshotStore creates a new SnapshotStore and ensures the base directory exists.
func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &SnapshotStore{basePath: basePath}, nil
}

// sanitizeUserID makes the user ID safe for a directory name.
func sanitizeUserID(userID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, userID)
}

func (s *SnapshotStore) userDir(userID string) string {
	return filepath.Join(s.basePath, sanitizeUserID(userID))
}

// getVersionedPath returns the full path for a given user and version time.
func (s *SnapshotStore) getVersionedPath(userID string, at time.Time) string {
	return filepath.Join(s.userDir(userID), at.UTC().Format(versionLayout)+".json")
}

// Save stores a snapshot version and returns its path.
func (s *SnapshotStore) Save(userID string, at time.Time, data []byte) (string, error) {
	if err := os.MkdirAll(s.userDir(userID), 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filePath := s.getVersionedPath(userID, at)
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize snapshot file: %w", err)
	}
	return filePath, nil
}

// Exists checks if a specific snapshot version exists.
func (s *SnapshotStore) Exists(userID string, at time.Time) bool {
	_, err := os.Stat(s.getVersionedPath(userID, at))
	return err == nil
}

// Versions lists a user's snapshot files, oldest first.
func (s *SnapshotStore) Versions(userID string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.userDir(userID), "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob snapshot files: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Latest returns the newest snapshot of a user.
func (s *SnapshotStore) Latest(userID string) ([]byte, error) {
	versions, err := s.Versions(userID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNoSnapshot
	}

	data, err := os.ReadFile(versions[len(versions)-1])
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return data, nil
}

// Prune removes all but the newest keep versions of a user and returns how
// many files were deleted.
func (s *SnapshotStore) Prune(userID string, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	versions, err := s.Versions(userID)
	if err != nil {
		return 0, err
	}
	if len(versions) <= keep {
		return 0, nil
	}

	stale := versions[:len(versions)-keep]
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return 0, fmt.Errorf("failed to remove stale file %s: %w", path, err)
		}
	}
	return len(stale), nil
}
