package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository stores weight, workout and hydration entries.
type Repository struct {
	db       *sql.DB
	validate *entryValidator
	now      func() time.Time
}

// NewRepository creates a new tracker Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d, validate: newEntryValidator(), now: time.Now}
}

// prepare fills ID, date and creation time when missing.
func (r *Repository) prepare(id, date *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if *date == "" {
		*date = r.now().Format(DateLayout)
	}
	if createdAt.IsZero() {
		*createdAt = r.now().UTC()
	}
}

// AddWeight validates and stores a weight measurement.
func (r *Repository) AddWeight(ctx context.Context, w *Weight) error {
	r.prepare(&w.ID, &w.Date, &w.CreatedAt)
	if err := r.validate.Struct(w); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO weight_entries (id, user_id, date, kg, created_at) VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Date, w.Kg, w.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert weight entry: %w", err)
	}
	return nil
}

// AddWorkout validates and stores a workout.
func (r *Repository) AddWorkout(ctx context.Context, w *Workout) error {
	r.prepare(&w.ID, &w.Date, &w.CreatedAt)
	if err := r.validate.Struct(w); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO workouts (id, user_id, date, kind, minutes, calories, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Date, w.Kind, w.Minutes, w.Calories, w.Notes, w.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}
	return nil
}

// AddHydration validates and stores a hydration entry.
func (r *Repository) AddHydration(ctx context.Context, h *Hydration) error {
	r.prepare(&h.ID, &h.Date, &h.CreatedAt)
	if err := r.validate.Struct(h); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO hydration_entries (id, user_id, date, ml, created_at) VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Date, h.Ml, h.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert hydration entry: %w", err)
	}
	return nil
}

// ListWeights returns the user's weight history, oldest first.
func (r *Repository) ListWeights(ctx context.Context, userID string) ([]Weight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, kg, created_at FROM weight_entries WHERE user_id = ? ORDER BY date, created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weights: %w", err)
	}
	defer rows.Close()

	out := []Weight{}
	for rows.Next() {
		var w Weight
		if err := rows.Scan(&w.ID, &w.UserID, &w.Date, &w.Kg, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weight row: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListWorkouts returns the user's workouts, oldest first.
func (r *Repository) ListWorkouts(ctx context.Context, userID string) ([]Workout, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, kind, minutes, calories, notes, created_at
		 FROM workouts WHERE user_id = ? ORDER BY date, created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	out := []Workout{}
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.Date, &w.Kind, &w.Minutes, &w.Calories, &w.Notes, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout row: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListHydration returns the user's hydration entries, oldest first.
func (r *Repository) ListHydration(ctx context.Context, userID string) ([]Hydration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, ml, created_at FROM hydration_entries WHERE user_id = ? ORDER BY date, created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hydration entries: %w", err)
	}
	defer rows.Close()

	out := []Hydration{}
	for rows.Next() {
		var h Hydration
		if err := rows.Scan(&h.ID, &h.UserID, &h.Date, &h.Ml, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hydration row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// DailySummary totals one calendar day (YYYY-MM-DD) of a user.
func (r *Repository) DailySummary(ctx context.Context, userID, date string) (*Summary, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidEntry)
	}
	s := &Summary{Date: date}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(minutes), 0), COALESCE(SUM(calories), 0)
		 FROM workouts WHERE user_id = ? AND date = ?`,
		userID, date,
	).Scan(&s.Workouts, &s.WorkoutMinutes, &s.WorkoutCalories)
	if err != nil {
		return nil, fmt.Errorf("failed to sum workouts: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ml), 0) FROM hydration_entries WHERE user_id = ? AND date = ?`,
		userID, date,
	).Scan(&s.HydrationMl)
	if err != nil {
		return nil, fmt.Errorf("failed to sum hydration: %w", err)
	}

	var kg float64
	err = r.db.QueryRowContext(ctx,
		`SELECT kg FROM weight_entries WHERE user_id = ? AND date <= ? ORDER BY date DESC, created_at DESC LIMIT 1`,
		userID, date,
	).Scan(&kg)
	switch {
	case err == nil:
		s.WeightKg = &kg
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to get latest weight: %w", err)
	}

	return s, nil
}

// Export returns every entry of a user.
func (r *Repository) Export(ctx context.Context, userID string) (*Entries, error) {
	weights, err := r.ListWeights(ctx, userID)
	if err != nil {
		return nil, err
	}
	workouts, err := r.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	hydration, err := r.ListHydration(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Entries{Weights: weights, Workouts: workouts, Hydration: hydration}, nil
}

// Import writes entries in one transaction. Entries with an existing ID are
// overwritten.
func (r *Repository) Import(ctx context.Context, e Entries) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range e.Weights {
		w := &e.Weights[i]
		r.prepare(&w.ID, &w.Date, &w.CreatedAt)
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO weight_entries (id, user_id, date, kg, created_at) VALUES (?, ?, ?, ?, ?)`,
			w.ID, w.UserID, w.Date, w.Kg, w.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to import weight %s: %w", w.ID, err)
		}
	}
	for i := range e.Workouts {
		w := &e.Workouts[i]
		r.prepare(&w.ID, &w.Date, &w.CreatedAt)
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO workouts (id, user_id, date, kind, minutes, calories, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.UserID, w.Date, w.Kind, w.Minutes, w.Calories, w.Notes, w.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to import workout %s: %w", w.ID, err)
		}
	}
	for i := range e.Hydration {
		h := &e.Hydration[i]
		r.prepare(&h.ID, &h.Date, &h.CreatedAt)
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO hydration_entries (id, user_id, date, ml, created_at) VALUES (?, ?, ?, ?, ?)`,
			h.ID, h.UserID, h.Date, h.Ml, h.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to import hydration %s: %w", h.ID, err)
		}
	}
	return tx.Commit()
}
