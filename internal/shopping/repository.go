package shopping

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Check records that a shopping list row was ticked off for a plan.
type Check struct {
	PlanID    int64     `json:"plan_id"`
	ItemKey   string    `json:"item_key"`
	CheckedAt time.Time `json:"checked_at"`
}

// CheckRepository persists check-off state of shopping list rows. Only checked
// rows are stored; unchecking deletes the row.
type CheckRepository struct {
	db *sql.DB
}

// NewCheckRepository creates a new CheckRepository.
func NewCheckRepository(d *sql.DB) *CheckRepository {
	return &CheckRepository{db: d}
}

// SetChecked marks or unmarks a row of a plan's shopping list.
func (r *CheckRepository) SetChecked(ctx context.Context, planID int64, itemKey string, checked bool) error {
	var err error
	if checked {
		_, err = r.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO shopping_checks (plan_id, item_key, checked_at) VALUES (?, ?, ?)`,
			planID, itemKey, time.Now().UTC(),
		)
	} else {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM shopping_checks WHERE plan_id = ? AND item_key = ?`,
			planID, itemKey,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update check for plan %d: %w", planID, err)
	}
	return nil
}

// Checked returns the checked row keys of a plan.
func (r *CheckRepository) Checked(ctx context.Context, planID int64) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT item_key FROM shopping_checks WHERE plan_id = ?`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get checks for plan %d: %w", planID, err)
	}
	defer rows.Close()

	checked := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan check row: %w", err)
		}
		checked[key] = true
	}
	return checked, rows.Err()
}

// All returns every check belonging to the user's plans.
func (r *CheckRepository) All(ctx context.Context, userID string) ([]Check, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.plan_id, c.item_key, c.checked_at
		FROM shopping_checks c
		JOIN meal_plans p ON p.id = c.plan_id
		WHERE p.user_id = ?
		ORDER BY c.plan_id, c.item_key`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks for user %s: %w", userID, err)
	}
	defer rows.Close()

	checks := []Check{}
	for rows.Next() {
		var c Check
		if err := rows.Scan(&c.PlanID, &c.ItemKey, &c.CheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check row: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// Import writes checks in one transaction, overwriting existing ones.
func (r *CheckRepository) Import(ctx context.Context, checks []Check) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range checks {
		at := c.CheckedAt
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO shopping_checks (plan_id, item_key, checked_at) VALUES (?, ?, ?)`,
			c.PlanID, c.ItemKey, at.UTC(),
		); err != nil {
			return fmt.Errorf("failed to import check for plan %d: %w", c.PlanID, err)
		}
	}
	return tx.Commit()
}
