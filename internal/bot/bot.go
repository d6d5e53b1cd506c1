package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/langler/internal/level"
	"github.com/example/langler/pkg/models"
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UserStore keeps Telegram users.
type UserStore interface {
	Upsert(ctx context.Context, u models.User) error
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// WordStore keeps vocabulary entries.
type WordStore interface {
	Create(ctx context.Context, text, translation string) (models.Word, error)
	GetByID(ctx context.Context, id int64) (models.Word, error)
}

// Reviewer runs reviews for a user.
type Reviewer interface {
	Record(ctx context.Context, userID, wordID int64, grade models.Grade, now time.Time) (models.Item, error)
	Preview(ctx context.Context, userID, wordID int64, now time.Time) (map[models.Grade]models.Item, error)
	Enroll(ctx context.Context, userID int64, wordIDs []int64, now time.Time) (int, error)
	Queue(ctx context.Context, userID int64, now time.Time, limit int) ([]models.Item, error)
}

// LevelSource returns a user's vocabulary summary.
type LevelSource interface {
	Summary(ctx context.Context, userID int64) (level.Summary, error)
}

// Deps groups the services the bot talks to.
type Deps struct {
	Users   UserStore
	Words   WordStore
	Reviews Reviewer
	Levels  LevelSource
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application
type Bot struct {
	api    API
	deps   Deps
	config *BotConfig
	logger *log.Logger
	now    func() time.Time

	mu          sync.Mutex
	awaitingAdd map[int64]bool
}

// New creates a new bot instance
func New(api API, deps Deps, config *BotConfig, logger *log.Logger) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{
		api:         api,
		deps:        deps,
		config:      config,
		logger:      logger,
		now:         time.Now,
		awaitingAdd: make(map[int64]bool),
	}
}

// Connect authorizes against the Telegram API with token.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	return api, nil
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info("bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// SendReminders implements scheduler.Notifier.
func (b *Bot) SendReminders(userID int64, count int) error {
	// Проверяем, существует ли пользователь
	if _, err := b.deps.Users.GetByID(context.Background(), userID); err != nil {
		return err
	}

	// В личных чатах user ID и chat ID совпадают
	msg := tgbotapi.NewMessage(userID, fmt.Sprintf("У вас %d %s для повторения!", count, pluralWords(count)))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "▶️ Start review", CallbackData: callbackReview}}})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	b.logger.Info("reminder sent", "user", userID, "count", count)
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.logger.Error("update failed", "update", update.UpdateID, "err", err)
	}
}

func (b *Bot) send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setAwaitingAdd(userID int64, v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v {
		b.awaitingAdd[userID] = true
	} else {
		delete(b.awaitingAdd, userID)
	}
}

func (b *Bot) isAwaitingAdd(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingAdd[userID]
}
