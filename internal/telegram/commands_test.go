package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkoutArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    workoutArgs
		wantErr bool
	}{
		{name: "KindAndMinutes", args: "run 30", want: workoutArgs{Kind: "run", Minutes: 30}},
		{name: "WithCalories", args: "run 30 320", want: workoutArgs{Kind: "run", Minutes: 30, Calories: 320}},
		{name: "MultiWordKind", args: "strength training 45", want: workoutArgs{Kind: "strength training", Minutes: 45}},
		{name: "NoMinutes", args: "yoga", wantErr: true},
		{name: "NoKind", args: "30", wantErr: true},
		{name: "Empty", args: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWorkoutArgs(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumericArgs(t *testing.T) {
	kg, err := parseFloatArg(" 72,5 ")
	require.NoError(t, err)
	assert.Equal(t, 72.5, kg)

	_, err = parseFloatArg("heavy")
	assert.ErrorIs(t, err, errUsage)
	_, err = parseFloatArg("72 73")
	assert.ErrorIs(t, err, errUsage)

	ml, err := parseIntArg("250")
	require.NoError(t, err)
	assert.Equal(t, 250, ml)

	_, err = parseIntArg("2.5")
	assert.ErrorIs(t, err, errUsage)
}

func TestNextMonday(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), "2026-10-26"}, // Monday
		{time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC), "2026-10-26"}, // Wednesday
		{time.Date(2026, 10, 25, 23, 0, 0, 0, time.UTC), "2026-10-26"}, // Sunday
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextMonday(tt.now).Format("2006-01-02"))
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/soup"))
	assert.True(t, isURL("http://example.com"))
	assert.False(t, isURL("soup with https://example.com"))
}
