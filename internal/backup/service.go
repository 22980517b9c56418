package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/shopping"
	"nutrition-planner/internal/storage"
	"nutrition-planner/internal/tracker"

	"github.com/rs/zerolog/log"
)

// ErrNoSnapshot is returned by Pull when neither the endpoint nor the local
// store has a snapshot.
var ErrNoSnapshot = storage.ErrNoSnapshot

// Where a snapshot was read from or written to.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// PushResult describes where a snapshot ended up.
type PushResult struct {
	Remote      bool   `json:"remote"`
	LocalPath   string `json:"local_path"`
	RemoteError string `json:"remote_error,omitempty"`
}

// PullResult describes which snapshot was restored.
type PullResult struct {
	Source     string    `json:"source"`
	ExportedAt time.Time `json:"exported_at"`
}

// Service exports and restores user data and moves it to and from the cloud.
type Service struct {
	plans     *planner.PlanRepository
	checks    *shopping.CheckRepository
	recipes   *recipe.Repository
	tracker   *tracker.Repository
	store     *storage.SnapshotStore
	client    Client
	keepLocal int
	now       func() time.Time
}

// NewService creates a backup Service. client may be nil, in which case only
// local snapshots are used.
func NewService(db *sql.DB, store *storage.SnapshotStore, client Client, keepLocal int) *Service {
	return &Service{
		plans:     planner.NewPlanRepository(db),
		checks:    shopping.NewCheckRepository(db),
		recipes:   recipe.NewRepository(db),
		tracker:   tracker.NewRepository(db),
		store:     store,
		client:    client,
		keepLocal: keepLocal,
		now:       time.Now,
	}
}

// Export collects every record owned by userID.
func (s *Service) Export(ctx context.Context, userID string) (*Snapshot, error) {
	plans, err := s.plans.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	checks, err := s.checks.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipes, err := s.recipes.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.tracker.Export(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Version:    SnapshotVersion,
		UserID:     userID,
		ExportedAt: s.now().UTC(),
		Plans:      plans,
		Checks:     checks,
		Recipes:    recipes,
		Entries:    *entries,
	}, nil
}

// Restore writes a snapshot into the database. Records with the same ID are
// overwritten; records absent from the snapshot are kept. A plan whose ID is
// taken by another user on this device is stored under a local ID instead,
// and its checks follow it.
func (s *Service) Restore(ctx context.Context, snap *Snapshot) error {
	planIDs, err := s.restorePlans(ctx, snap)
	if err != nil {
		return err
	}
	for _, rec := range snap.Recipes {
		if err := s.recipes.Save(ctx, snap.UserID, rec); err != nil {
			return err
		}
	}

	checks := make([]shopping.Check, 0, len(snap.Checks))
	for _, c := range snap.Checks {
		id, ok := planIDs[c.PlanID]
		if !ok {
			log.Warn().Int64("plan_id", c.PlanID).Str("user_id", snap.UserID).Msg("skipping check for a plan missing from the snapshot")
			continue
		}
		c.PlanID = id
		checks = append(checks, c)
	}
	if err := s.checks.Import(ctx, checks); err != nil {
		return err
	}
	if err := s.tracker.Import(ctx, snap.Entries); err != nil {
		return err
	}

	log.Info().
		Str("user_id", snap.UserID).
		Int("plans", len(snap.Plans)).
		Int("recipes", len(snap.Recipes)).
		Time("exported_at", snap.ExportedAt).
		Msg("snapshot restored")
	return nil
}

// restorePlans upserts the snapshot plans and maps each snapshot plan ID to
// the ID it now has on this device.
func (s *Service) restorePlans(ctx context.Context, snap *Snapshot) (map[int64]int64, error) {
	owned, err := s.plans.ListByUserID(ctx, snap.UserID)
	if err != nil {
		return nil, err
	}
	// A plan moved to a local ID by an earlier restore is found again by its
	// creation time, so restoring twice does not duplicate it.
	byCreated := make(map[int64]int64, len(owned))
	for _, p := range owned {
		byCreated[p.CreatedAt.UnixNano()] = p.ID
	}

	ids := make(map[int64]int64, len(snap.Plans))
	for i := range snap.Plans {
		plan := &snap.Plans[i]
		plan.UserID = snap.UserID
		snapID := plan.ID

		if snapID != 0 {
			owner, err := s.plans.Owner(ctx, snapID)
			if err != nil && !errors.Is(err, planner.ErrPlanNotFound) {
				return nil, err
			}
			if err == nil && owner != snap.UserID {
				plan.ID = byCreated[plan.CreatedAt.UnixNano()]
				log.Info().
					Int64("plan_id", snapID).
					Str("owner", owner).
					Str("user_id", snap.UserID).
					Msg("plan ID taken by another user, restoring under a local ID")
			}
		}

		if err := s.plans.Upsert(ctx, plan); err != nil {
			return nil, err
		}
		ids[snapID] = plan.ID
	}
	return ids, nil
}

// Push exports userID, keeps a local version and uploads it when an endpoint
// is configured. A failed upload is reported in the result, not as an error.
func (s *Service) Push(ctx context.Context, userID string) (*PushResult, error) {
	snap, err := s.Export(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export user data: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path, err := s.store.Save(userID, snap.ExportedAt, data)
	if err != nil {
		return nil, err
	}
	if removed, err := s.store.Prune(userID, s.keepLocal); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to prune local snapshots")
	} else if removed > 0 {
		log.Debug().Int("removed", removed).Str("user_id", userID).Msg("pruned local snapshots")
	}

	result := &PushResult{LocalPath: path}
	if s.client == nil {
		return result, nil
	}

	if err := s.client.Push(ctx, userID, data); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("cloud backup failed, kept local snapshot")
		result.RemoteError = err.Error()
		return result, nil
	}
	result.Remote = true
	return result, nil
}

// Pull restores the remote snapshot of userID, falling back to the newest
// local snapshot when the endpoint is unavailable or has nothing.
func (s *Service) Pull(ctx context.Context, userID string) (*PullResult, error) {
	if s.client != nil {
		data, err := s.client.Pull(ctx, userID)
		if err == nil {
			return s.restoreBytes(ctx, userID, data, SourceRemote)
		}
		if !errors.Is(err, ErrRemoteNotFound) {
			log.Warn().Err(err).Str("user_id", userID).Msg("cloud restore failed, trying local snapshot")
		}
	}

	data, err := s.store.Latest(userID)
	if err != nil {
		return nil, err
	}
	return s.restoreBytes(ctx, userID, data, SourceLocal)
}

func (s *Service) restoreBytes(ctx context.Context, userID string, data []byte, source string) (*PullResult, error) {
	snap, err := Decode(data, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to restore %s snapshot: %w", source, err)
	}
	return &PullResult{Source: source, ExportedAt: snap.ExportedAt}, nil
}
