package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPlanNotFound is returned when no stored plan matches the lookup.
var ErrPlanNotFound = errors.New("meal plan not found")

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts a new meal plan and sets plan.ID.
func (r *PlanRepository) Save(ctx context.Context, plan *MealPlan) (int64, error) {
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	plan.ID = 0

	data, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, plan_data, created_at) VALUES (?, ?, ?)`,
		plan.UserID, string(data), plan.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meal plan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read meal plan ID: %w", err)
	}
	plan.ID = id
	return id, nil
}

// Upsert writes a plan under its existing ID, replacing any stored version.
func (r *PlanRepository) Upsert(ctx context.Context, plan *MealPlan) error {
	if plan.ID == 0 {
		_, err := r.Save(ctx, plan)
		return err
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meal_plans (id, user_id, plan_data, created_at) VALUES (?, ?, ?, ?)`,
		plan.ID, plan.UserID, string(data), plan.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert meal plan %d: %w", plan.ID, err)
	}
	return nil
}

// Get retrieves a meal plan by ID.
func (r *PlanRepository) Get(ctx context.Context, id int64) (*MealPlan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, plan_data FROM meal_plans WHERE id = ?`, id)
	return scanPlan(row)
}

// Owner returns the user a stored plan belongs to.
func (r *PlanRepository) Owner(ctx context.Context, id int64) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM meal_plans WHERE id = ?`, id).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrPlanNotFound
		}
		return "", fmt.Errorf("failed to get owner of meal plan %d: %w", id, err)
	}
	return userID, nil
}

// Latest retrieves the most recently created plan of a user.
func (r *PlanRepository) Latest(ctx context.Context, userID string) (*MealPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, plan_data FROM meal_plans WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID,
	)
	return scanPlan(row)
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]MealPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plan_data FROM meal_plans WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	plans := []MealPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

// ListByUserID returns every plan of a user, newest first.
func (r *PlanRepository) ListByUserID(ctx context.Context, userID string) ([]MealPlan, error) {
	return r.ListRecentByUserID(ctx, userID, -1)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (*MealPlan, error) {
	var (
		id   int64
		data string
	)
	if err := s.Scan(&id, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to scan meal plan: %w", err)
	}

	var plan MealPlan
	if err := json.Unmarshal([]byte(data), &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan %d: %w", id, err)
	}
	plan.ID = id
	return &plan, nil
}
