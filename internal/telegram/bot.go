package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"nutrition-planner/internal/app"
	"nutrition-planner/internal/backup"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/tracker"
)

const (
	reviseSessionTTL = 30 * time.Minute
	requestTimeout   = 3 * time.Minute
)

// sender is the part of tgbotapi.BotAPI the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API around the application.
type Bot struct {
	api      sender
	updates  func(c *gin.Context) (*tgbotapi.Update, error)
	app      *app.App
	sessions *SessionRepository
	cfg      *config.Config
	now      func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, sessions *SessionRepository) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("telegram authorized")

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Info().Str("description", resp.Description).Msg("telegram webhook set")

	b := newBot(api, cfg, a, sessions)
	b.updates = func(c *gin.Context) (*tgbotapi.Update, error) {
		return api.HandleUpdate(c.Request)
	}
	return b, nil
}

func newBot(api sender, cfg *config.Config, a *app.App, sessions *SessionRepository) *Bot {
	return &Bot{
		api:      api,
		app:      a,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

// HandleWebhook is the gin handler for Telegram updates. Work happens in the
// background so Telegram gets its 200 right away.
func (b *Bot) HandleWebhook(c *gin.Context) {
	update, err := b.updates(c)
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse telegram update")
		c.Status(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusOK)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		b.handleUpdate(ctx, update)
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.isAllowed(update.CallbackQuery.From) {
			return
		}
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		if !b.isAllowed(update.Message.From) {
			return
		}
		b.processMessage(ctx, update.Message)
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if from.ID == id {
			return true
		}
	}
	log.Warn().Int64("telegram_id", from.ID).Str("username", from.UserName).Msg("unauthorized access attempt")
	return false
}

func userID(from *tgbotapi.User) string {
	return strconv.FormatInt(from.ID, 10)
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	user := userID(msg.From)
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		args := msg.CommandArguments()
		switch msg.Command() {
		case "start", "help":
			b.reply(chatID, helpText)
		case "shopping":
			b.sendShoppingList(ctx, user, chatID)
		case "check":
			b.handleCheck(ctx, user, chatID, args)
		case "revise":
			b.openRevision(ctx, user, chatID)
		case "today":
			b.sendSummary(ctx, user, chatID)
		case "weight":
			b.handleWeight(ctx, user, chatID, args)
		case "water":
			b.handleWater(ctx, user, chatID, args)
		case "workout":
			b.handleWorkout(ctx, user, chatID, args)
		case "backup":
			b.handleBackup(ctx, user, chatID)
		case "restore":
			b.handleRestore(ctx, user, chatID)
		case "metrics":
			b.handleMetrics(ctx, msg.From.ID, chatID)
		default:
			b.reply(chatID, "🤔 Unknown command. Send /help.")
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if isURL(text) {
		b.handleClip(ctx, user, chatID, text)
		return
	}

	session, err := b.sessions.GetActive(ctx, user, b.now())
	if err != nil {
		log.Warn().Err(err).Str("user_id", user).Msg("failed to load session")
	}
	if session != nil && session.SessionType == SessionRevise {
		b.handleRevision(ctx, session, chatID, text)
		return
	}
	b.handlePlan(ctx, user, chatID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send telegram message")
	}
}

func (b *Bot) replyError(chatID int64, action string, err error) {
	log.Error().Err(err).Int64("chat_id", chatID).Msg(action + " failed")
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.reply(chatID, fmt.Sprintf("❌ *Error %s:*\n```\n%s\n```", action, safeErr))
}

func planKeyboard(planID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(planID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Shopping list", "shopping|"+id),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Revise", "revise|"+id),
		),
	)
}

func (b *Bot) sendPlan(chatID int64, plan *planner.MealPlan) {
	msg := tgbotapi.NewMessage(chatID, formatPlan(plan))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = planKeyboard(plan.ID)
	if _, err := b.api.Send(msg); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send plan")
	}
}

func (b *Bot) handlePlan(ctx context.Context, user string, chatID int64, request string) {
	b.reply(chatID, "🧑‍🍳 *Thinking...*\n(Planning your next 30 days)")

	plan, err := b.app.GeneratePlan(ctx, user, request, nextMonday(b.now()))
	if err != nil {
		b.replyError(chatID, "generating plan", err)
		return
	}
	b.sendPlan(chatID, plan)
}

func (b *Bot) openRevision(ctx context.Context, user string, chatID int64) {
	plan, err := b.app.LatestPlan(ctx, user)
	if errors.Is(err, planner.ErrPlanNotFound) {
		b.reply(chatID, "You have no plan yet. Tell me what you would like to eat!")
		return
	}
	if err != nil {
		b.replyError(chatID, "loading plan", err)
		return
	}
	b.startRevision(ctx, user, chatID, plan.ID, plan.Request)
}

func (b *Bot) startRevision(ctx context.Context, user string, chatID int64, planID int64, request string) {
	data := SessionContextData{PlanID: planID, OriginalRequest: request}
	if _, err := b.sessions.Create(ctx, user, SessionRevise, "awaiting_feedback", data, reviseSessionTTL); err != nil {
		b.replyError(chatID, "starting revision", err)
		return
	}
	b.reply(chatID, "✏️ What should change in your plan? (e.g. \"no fish on Mondays\")")
}

func (b *Bot) handleRevision(ctx context.Context, session *Session, chatID int64, feedback string) {
	data, err := session.GetContextData()
	if err != nil {
		b.replyError(chatID, "reading session", err)
		return
	}
	if err := b.sessions.Delete(ctx, session.ID); err != nil {
		log.Warn().Err(err).Int64("session_id", session.ID).Msg("failed to close session")
	}

	b.reply(chatID, "🧑‍🍳 *Revising...*")
	plan, err := b.app.RevisePlan(ctx, data.PlanID, feedback)
	if err != nil {
		b.replyError(chatID, "revising plan", err)
		return
	}
	b.sendPlan(chatID, plan)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback")
	}
	if query.Message == nil {
		return
	}

	action, rawID, ok := strings.Cut(query.Data, "|")
	if !ok {
		return
	}
	planID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return
	}

	user := userID(query.From)
	chatID := query.Message.Chat.ID
	switch action {
	case "shopping":
		list, err := b.app.ShoppingList(ctx, planID)
		if err != nil {
			b.replyError(chatID, "building shopping list", err)
			return
		}
		b.reply(chatID, formatShoppingList(list))
	case "revise":
		plan, err := b.app.Plan(ctx, planID)
		if err != nil {
			b.replyError(chatID, "loading plan", err)
			return
		}
		b.startRevision(ctx, user, chatID, plan.ID, plan.Request)
	}
}

func (b *Bot) sendShoppingList(ctx context.Context, user string, chatID int64) {
	list, err := b.app.LatestShoppingList(ctx, user)
	if errors.Is(err, planner.ErrPlanNotFound) {
		b.reply(chatID, "You have no plan yet. Tell me what you would like to eat!")
		return
	}
	if err != nil {
		b.replyError(chatID, "building shopping list", err)
		return
	}
	b.reply(chatID, formatShoppingList(list))
}

func (b *Bot) handleCheck(ctx context.Context, user string, chatID int64, args string) {
	n, err := parseIntArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /check 3")
		return
	}
	list, err := b.app.LatestShoppingList(ctx, user)
	if err != nil {
		b.replyError(chatID, "building shopping list", err)
		return
	}
	if n < 1 || n > len(list.Entries) {
		b.reply(chatID, fmt.Sprintf("Pick an item between 1 and %d.", len(list.Entries)))
		return
	}

	key := list.Entries[n-1].Key.String()
	checked := !list.Checked[key]
	if err := b.app.ToggleCheck(ctx, list.PlanID, key, checked); err != nil {
		b.replyError(chatID, "updating shopping list", err)
		return
	}
	list.Checked[key] = checked
	b.reply(chatID, formatShoppingList(list))
}

func (b *Bot) handleWeight(ctx context.Context, user string, chatID int64, args string) {
	kg, err := parseFloatArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /weight 72.5")
		return
	}
	w := &tracker.Weight{UserID: user, Date: b.app.Today(), Kg: kg}
	if err := b.app.AddWeight(ctx, w); err != nil {
		b.replyError(chatID, "logging weight", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("⚖️ Logged %s kg.", strconv.FormatFloat(kg, 'f', -1, 64)))
}

func (b *Bot) handleWater(ctx context.Context, user string, chatID int64, args string) {
	ml, err := parseIntArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /water 250")
		return
	}
	if err := b.app.AddHydration(ctx, &tracker.Hydration{UserID: user, Date: b.app.Today(), Ml: ml}); err != nil {
		b.replyError(chatID, "logging water", err)
		return
	}
	b.sendSummary(ctx, user, chatID)
}

func (b *Bot) handleWorkout(ctx context.Context, user string, chatID int64, args string) {
	wa, err := parseWorkoutArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /workout run 30 [kcal]")
		return
	}
	w := &tracker.Workout{UserID: user, Date: b.app.Today(), Kind: wa.Kind, Minutes: wa.Minutes, Calories: wa.Calories}
	if err := b.app.AddWorkout(ctx, w); err != nil {
		b.replyError(chatID, "logging workout", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("🏃 Logged %s, %d min.", esc(wa.Kind), wa.Minutes))
}

func (b *Bot) sendSummary(ctx context.Context, user string, chatID int64) {
	s, err := b.app.DailySummary(ctx, user, "")
	if err != nil {
		b.replyError(chatID, "building summary", err)
		return
	}
	b.reply(chatID, formatSummary(s))
}

func (b *Bot) handleClip(ctx context.Context, user string, chatID int64, url string) {
	b.reply(chatID, "✂️ *Clipping recipe...*")
	rec, err := b.app.ClipRecipe(ctx, user, url)
	if err != nil {
		b.replyError(chatID, "clipping recipe", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ *Recipe Saved!*\n\n*%s* (%d kcal)\n%d ingredients. It will be suggested in your next plans.",
		esc(rec.Name), rec.Calories, len(rec.Ingredients)))
}

func (b *Bot) handleBackup(ctx context.Context, user string, chatID int64) {
	result, err := b.app.PushBackup(ctx, user)
	if err != nil {
		b.replyError(chatID, "backing up", err)
		return
	}
	if result.Remote {
		b.reply(chatID, "☁️ Backed up to the cloud.")
		return
	}
	b.reply(chatID, "💾 Cloud unavailable, saved a local backup.")
}

func (b *Bot) handleRestore(ctx context.Context, user string, chatID int64) {
	result, err := b.app.PullBackup(ctx, user)
	if errors.Is(err, backup.ErrNoSnapshot) {
		b.reply(chatID, "No backup found.")
		return
	}
	if err != nil {
		b.replyError(chatID, "restoring", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("♻️ Restored %s backup from %s.", result.Source, result.ExportedAt.Format("2006-01-02 15:04")))
}

func (b *Bot) handleMetrics(ctx context.Context, fromID, chatID int64) {
	if fromID != b.cfg.AdminTelegramID {
		b.reply(chatID, "⛔ *Access Denied*: Admin only.")
		return
	}
	usage, err := b.app.UsageReport(ctx, 7)
	if err != nil {
		b.replyError(chatID, "fetching metrics", err)
		return
	}
	b.reply(chatID, formatMetrics(usage, b.app.SysHealth()))
}
