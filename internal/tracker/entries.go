package tracker

import "time"

// DateLayout is the calendar-day format used for every tracker entry.
const DateLayout = "2006-01-02"

// Weight is a body weight measurement.
type Weight struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	Kg        float64   `json:"kg" validate:"gte=20,lte=400"`
	CreatedAt time.Time `json:"created_at"`
}

// Workout is one training session.
type Workout struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	Kind      string    `json:"kind" validate:"required,max=64"`
	Minutes   int       `json:"minutes" validate:"gte=1,lte=600"`
	Calories  int       `json:"calories" validate:"gte=0,lte=10000"`
	Notes     string    `json:"notes,omitempty" validate:"max=500"`
	CreatedAt time.Time `json:"created_at"`
}

// Hydration is a glass (or bottle) of water.
type Hydration struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	Ml        int       `json:"ml" validate:"gte=1,lte=5000"`
	CreatedAt time.Time `json:"created_at"`
}

// Entries groups every tracker record of a user, as exported in backups.
type Entries struct {
	Weights   []Weight    `json:"weights"`
	Workouts  []Workout   `json:"workouts"`
	Hydration []Hydration `json:"hydration"`
}

// Summary aggregates one day of tracking.
type Summary struct {
	Date            string   `json:"date"`
	WeightKg        *float64 `json:"weight_kg,omitempty"` // latest measurement on or before Date
	Workouts        int      `json:"workouts"`
	WorkoutMinutes  int      `json:"workout_minutes"`
	WorkoutCalories int      `json:"workout_calories"`
	HydrationMl     int      `json:"hydration_ml"`
}
