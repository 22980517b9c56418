package telegram

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"nutrition-planner/internal/app"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/database"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/recipe"
	"nutrition-planner/internal/shared"
	"nutrition-planner/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	allowedID = int64(11)
	adminID   = int64(99)
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg)
	}
	return tgbotapi.Message{MessageID: len(f.messages)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type MockTextGenerator struct {
	responses []string
	calls     int
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	resp := m.responses[m.calls%len(m.responses)]
	m.calls++
	return llm.ContentResponse{Content: resp, Usage: shared.TokenUsage{PromptTokens: 10, CompletionTokens: 20}}, nil
}

func planJSON(t *testing.T, dinner string) string {
	t.Helper()
	days := make([]planner.DayPlan, planner.PlanDays)
	for i := range days {
		days[i] = planner.DayPlan{Day: i, Dinner: dinner}
	}
	b, err := json.Marshal(map[string]any{
		"recipes": []recipe.Recipe{{ID: dinner, Name: strings.ToUpper(dinner[:1]) + dinner[1:], Calories: 500,
			Ingredients: []recipe.Ingredient{{Item: "riz", Quantity: "100g"}, {Item: "poireau", Quantity: "1"}}}},
		"days": days,
	})
	require.NoError(t, err)
	return string(b)
}

type testBot struct {
	*Bot
	sender *fakeSender
	gen    *MockTextGenerator
}

func newTestBot(t *testing.T, responses ...string) *testBot {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DatabasePath:           filepath.Join(dir, "planner.db"),
		SnapshotDir:            filepath.Join(dir, "snapshots"),
		DefaultCalories:        2000,
		DefaultHousehold:       1,
		TelegramAllowedUserIDs: []int64{allowedID, adminID},
		AdminTelegramID:        adminID,
	}
	db, err := database.NewDB(cfg.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	snapshots, err := storage.NewSnapshotStore(cfg.SnapshotDir)
	require.NoError(t, err)

	if len(responses) == 0 {
		responses = []string{""}
	}
	gen := &MockTextGenerator{responses: responses}
	sender := &fakeSender{}
	a := app.NewApp(cfg, db, gen, snapshots, nil)
	return &testBot{Bot: newBot(sender, cfg, a, NewSessionRepository(db.SQL)), sender: sender, gen: gen}
}

func message(from int64, text string) *tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: from},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return &tgbotapi.Update{Message: msg}
}

func TestBot_IgnoresStrangers(t *testing.T) {
	b := newTestBot(t)
	b.handleUpdate(context.Background(), message(12345, "/help"))
	assert.Empty(t, b.sender.messages)
}

func TestBot_TrackerCommands(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)

	b.handleUpdate(ctx, message(allowedID, "/weight 72,5"))
	assert.Equal(t, "⚖️ Logged 72.5 kg.", b.sender.last(t).Text)

	b.handleUpdate(ctx, message(allowedID, "/weight"))
	assert.Equal(t, "Usage: /weight 72.5", b.sender.last(t).Text)

	b.handleUpdate(ctx, message(allowedID, "/weight 2"))
	assert.Contains(t, b.sender.last(t).Text, "Error logging weight")

	b.handleUpdate(ctx, message(allowedID, "/workout run 30 300"))
	assert.Equal(t, "🏃 Logged run, 30 min.", b.sender.last(t).Text)

	b.handleUpdate(ctx, message(allowedID, "/water 250"))
	summary := b.sender.last(t).Text
	assert.Contains(t, summary, "Water: 250 ml")
	assert.Contains(t, summary, "Workouts: 1 (30 min, 300 kcal)")
	assert.Contains(t, summary, "Weight: 72.5 kg")
}

func TestBot_PlanReviseAndShop(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t, planJSON(t, "curry"), planJSON(t, "salad"))

	b.handleUpdate(ctx, message(allowedID, "/shopping"))
	assert.Contains(t, b.sender.last(t).Text, "no plan yet")

	b.handleUpdate(ctx, message(allowedID, "something warm"))
	planMsg := b.sender.last(t)
	assert.Contains(t, planMsg.Text, "• dinner: Curry")
	keyboard, ok := planMsg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard[0], 2)

	plan, err := b.app.LatestPlan(ctx, strconv.FormatInt(allowedID, 10))
	require.NoError(t, err)
	assert.Equal(t, "shopping|"+strconv.FormatInt(plan.ID, 10), *keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, time.Monday, plan.StartDate.Weekday(), "plans start on a Monday")

	t.Run("Shopping", func(t *testing.T) {
		b.handleUpdate(ctx, message(allowedID, "/shopping"))
		out := b.sender.last(t).Text
		assert.Contains(t, out, "⬜ 1. poireau: 30 piece")
		assert.Contains(t, out, "⬜ 2. riz: 3000 g")

		b.handleUpdate(ctx, message(allowedID, "/check 2"))
		assert.Contains(t, b.sender.last(t).Text, "✅ 2. riz: 3000 g")

		b.handleUpdate(ctx, message(allowedID, "/check 2"))
		assert.Contains(t, b.sender.last(t).Text, "⬜ 2. riz: 3000 g")

		b.handleUpdate(ctx, message(allowedID, "/check 9"))
		assert.Equal(t, "Pick an item between 1 and 2.", b.sender.last(t).Text)
	})

	t.Run("Revise", func(t *testing.T) {
		b.handleUpdate(ctx, message(allowedID, "/revise"))
		assert.Contains(t, b.sender.last(t).Text, "What should change")

		b.handleUpdate(ctx, message(allowedID, "no curry please"))
		assert.Contains(t, b.sender.last(t).Text, "• dinner: Salad")
		assert.Equal(t, 2, b.gen.calls)

		revised, err := b.app.LatestPlan(ctx, strconv.FormatInt(allowedID, 10))
		require.NoError(t, err)
		assert.Equal(t, plan.ID, revised.ID)

		session, err := b.sessions.GetActive(ctx, strconv.FormatInt(allowedID, 10), time.Now())
		require.NoError(t, err)
		assert.Nil(t, session, "the revision session is closed once used")
	})

	t.Run("ShoppingCallback", func(t *testing.T) {
		data := "shopping|" + strconv.FormatInt(plan.ID, 10)
		b.handleUpdate(ctx, &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb1",
			From:    &tgbotapi.User{ID: allowedID},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: allowedID}},
			Data:    data,
		}})
		assert.Contains(t, b.sender.last(t).Text, "🛒 *Shopping List*")
		assert.Equal(t, 1, b.sender.requests)
	})
}

func TestBot_Metrics(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)

	b.handleUpdate(ctx, message(allowedID, "/metrics"))
	assert.Contains(t, b.sender.last(t).Text, "Access Denied")

	b.handleUpdate(ctx, message(adminID, "/metrics"))
	assert.Contains(t, b.sender.last(t).Text, "Usage & Health Report")
}

func TestBot_BackupAndRestore(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)

	b.handleUpdate(ctx, message(allowedID, "/restore"))
	assert.Equal(t, "No backup found.", b.sender.last(t).Text)

	b.handleUpdate(ctx, message(allowedID, "/backup"))
	assert.Contains(t, b.sender.last(t).Text, "saved a local backup")

	b.handleUpdate(ctx, message(allowedID, "/restore"))
	assert.Contains(t, b.sender.last(t).Text, "Restored local backup")
}
