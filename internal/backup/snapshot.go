package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/shopping"
	"nutrition-planner/internal/tracker"
)

// SnapshotVersion is the format written by Export.
const SnapshotVersion = 1

// Snapshot is everything a user owns, serialized as one JSON document.
type Snapshot struct {
	Version    int                `json:"version"`
	UserID     string             `json:"user_id"`
	ExportedAt time.Time          `json:"exported_at"`
	Plans      []planner.MealPlan `json:"plans"`
	Checks     []shopping.Check   `json:"checks"`
	Recipes    []recipe.Recipe    `json:"recipes"`
	tracker.Entries
}

// Decode parses a snapshot and checks it belongs to userID.
func Decode(data []byte, userID string) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Version < 1 || snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.UserID != userID {
		return nil, fmt.Errorf("snapshot belongs to %q, not %q", snap.UserID, userID)
	}
	return &snap, nil
}
