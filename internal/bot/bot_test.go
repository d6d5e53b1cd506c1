package bot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/langler/internal/level"
	"github.com/example/langler/pkg/models"
)

var now = time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests int
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeUsers struct{ users map[int64]models.User }

func (f *fakeUsers) Upsert(_ context.Context, u models.User) error { f.users[u.ID] = u; return nil }

func (f *fakeUsers) GetByID(_ context.Context, id int64) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, errors.New("not found")
	}
	return u, nil
}

type fakeWords struct{ words map[int64]models.Word }

func (f *fakeWords) Create(_ context.Context, text, translation string) (models.Word, error) {
	for _, w := range f.words {
		if w.Text == text {
			return w, nil
		}
	}
	w := models.Word{ID: int64(len(f.words) + 1), Text: text, Translation: translation}
	f.words[w.ID] = w
	return w, nil
}

func (f *fakeWords) GetByID(_ context.Context, id int64) (models.Word, error) {
	return f.words[id], nil
}

type fakeReviews struct {
	enrolled []int64
	queue    []models.Item
	recorded []models.Grade
}

func (f *fakeReviews) Record(_ context.Context, userID, wordID int64, g models.Grade, at time.Time) (models.Item, error) {
	f.recorded = append(f.recorded, g)
	due := at.Add(72 * time.Hour)
	f.queue = nil
	return models.Item{UserID: userID, WordID: wordID, Due: &due}, nil
}

func (f *fakeReviews) Preview(_ context.Context, userID, wordID int64, at time.Time) (map[models.Grade]models.Item, error) {
	out := map[models.Grade]models.Item{}
	for g, d := range map[models.Grade]time.Duration{
		models.Again: time.Minute, models.Hard: 6 * time.Minute,
		models.Good: 10 * time.Minute, models.Easy: 4 * 24 * time.Hour,
	} {
		due := at.Add(d)
		out[g] = models.Item{UserID: userID, WordID: wordID, Due: &due}
	}
	return out, nil
}

func (f *fakeReviews) Enroll(_ context.Context, _ int64, ids []int64, _ time.Time) (int, error) {
	added := 0
	for _, id := range ids {
		known := false
		for _, e := range f.enrolled {
			known = known || e == id
		}
		if !known {
			f.enrolled = append(f.enrolled, id)
			added++
		}
	}
	return added, nil
}

func (f *fakeReviews) Queue(context.Context, int64, time.Time, int) ([]models.Item, error) {
	return f.queue, nil
}

type fakeLevels struct{}

func (fakeLevels) Summary(_ context.Context, userID int64) (level.Summary, error) {
	return level.Summary{UserID: userID, Total: 3, Review: 3, EstimatedVocabulary: 2.7, AverageRetrievability: 0.9, Level: "A1"}, nil
}

type harness struct {
	bot     *Bot
	api     *fakeAPI
	users   *fakeUsers
	words   *fakeWords
	reviews *fakeReviews
}

func newHarness() *harness {
	h := &harness{
		api:     &fakeAPI{updates: make(chan tgbotapi.Update)},
		users:   &fakeUsers{users: map[int64]models.User{}},
		words:   &fakeWords{words: map[int64]models.Word{}},
		reviews: &fakeReviews{},
	}
	h.bot = New(h.api, Deps{Users: h.users, Words: h.words, Reviews: h.reviews, Levels: fakeLevels{}}, nil, log.New(io.Discard))
	h.bot.now = func() time.Time { return now }
	return h
}

func command(userID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: userID, FirstName: "Ann", UserName: "ann"},
		Chat:     &tgbotapi.Chat{ID: userID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func text(userID int64, body string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: body, From: &tgbotapi.User{ID: userID}, Chat: &tgbotapi.Chat{ID: userID}}
}

func callback(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{ID: "cb", Data: data, From: &tgbotapi.User{ID: userID}}
}

func TestStartRegistersUser(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.bot.handleMessage(context.Background(), command(7, "/start")))

	u, ok := h.users.users[7]
	require.True(t, ok)
	assert.Equal(t, "ann", u.Username)
	assert.True(t, u.NotificationEnabled)
	assert.Contains(t, h.api.last().Text, "Hi, Ann!")
}

func TestAddWithArguments(t *testing.T) {
	h := newHarness()
	err := h.bot.handleMessage(context.Background(), command(7, "/add apple - яблоко\nwell-known — известный\nbroken"))
	require.NoError(t, err)

	assert.Len(t, h.reviews.enrolled, 2)
	assert.Equal(t, "well-known", h.words.words[2].Text)
	msg := h.api.last().Text
	assert.Contains(t, msg, "Added: 2")
	assert.Contains(t, msg, "Invalid format: broken")
}

func TestAddAwaitsWordList(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	require.NoError(t, h.bot.handleMessage(ctx, command(7, "/add")))
	assert.True(t, h.bot.isAwaitingAdd(7))

	require.NoError(t, h.bot.handleMessage(ctx, text(7, "cat - кошка")))
	assert.False(t, h.bot.isAwaitingAdd(7))
	assert.Len(t, h.reviews.enrolled, 1)

	require.NoError(t, h.bot.handleMessage(ctx, text(7, "cat - кошка")))
	assert.Contains(t, h.api.last().Text, "I don't understand")
}

func TestReviewFlow(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.words.words[5] = models.Word{ID: 5, Text: "river", Translation: "река"}
	h.reviews.queue = []models.Item{{UserID: 7, WordID: 5}}

	require.NoError(t, h.bot.handleMessage(ctx, command(7, "/review")))
	card := h.api.last()
	assert.Equal(t, "📖 river", card.Text)
	kb := card.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.Equal(t, "show:5", *kb.InlineKeyboard[0][0].CallbackData)

	require.NoError(t, h.bot.handleCallback(ctx, callback(7, "show:5")))
	revealed := h.api.last()
	assert.Contains(t, revealed.Text, "river — река")
	kb = revealed.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "❌ Again · 1m", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "😎 Easy · 4d", kb.InlineKeyboard[1][1].Text)
	assert.Equal(t, "grade:5:3", *kb.InlineKeyboard[1][0].CallbackData)

	require.NoError(t, h.bot.handleCallback(ctx, callback(7, "grade:5:3")))
	assert.Equal(t, []models.Grade{models.Good}, h.reviews.recorded)
	assert.Contains(t, h.api.sent[len(h.api.sent)-2].Text, "Next review in 3d")
	assert.Contains(t, h.api.last().Text, "Nothing to review")
	assert.Equal(t, 2, h.api.requests)
}

func TestBadCallbacks(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	assert.Error(t, h.bot.handleCallback(ctx, callback(7, "grade:5:9")))
	assert.Error(t, h.bot.handleCallback(ctx, callback(7, "show:x")))
	assert.Error(t, h.bot.handleCallback(ctx, callback(7, "dance")))
	assert.Empty(t, h.reviews.recorded)
}

func TestLevelCommand(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.bot.handleMessage(context.Background(), command(7, "/level")))
	msg := h.api.last().Text
	assert.Contains(t, msg, "Your level: A1")
	assert.Contains(t, msg, "Average recall: 90%")
}

func TestSendReminders(t *testing.T) {
	h := newHarness()
	assert.Error(t, h.bot.SendReminders(7, 3))

	h.users.users[7] = models.User{ID: 7}
	require.NoError(t, h.bot.SendReminders(7, 3))
	msg := h.api.last()
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Equal(t, "У вас 3 слова для повторения!", msg.Text)
}

func TestStartStopsWithContext(t *testing.T) {
	h := newHarness()
	h.users.users[1] = models.User{ID: 1}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.bot.Start(ctx) }()
	h.api.updates <- tgbotapi.Update{UpdateID: 1, Message: command(1, "/help")}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	assert.True(t, h.api.stopped)
}

func TestParseWordList(t *testing.T) {
	entries, problems := parseWordList("a - b\n\n  c–d \nx\n - y", 0)
	assert.Equal(t, []wordEntry{{"a", "b"}, {"c", "d"}}, entries)
	assert.Len(t, problems, 2)

	entries, problems = parseWordList("a - b\nc - d\ne - f", 2)
	assert.Len(t, entries, 2)
	assert.Equal(t, []string{"only 2 words per message"}, problems)
}

func TestGradeCallbackRoundTrip(t *testing.T) {
	for g := models.Again; g <= models.Easy; g++ {
		id, got, err := parseGradeCallback(gradeCallback(42, g))
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.Equal(t, g, got)
	}
	_, _, err := parseGradeCallback("grade:1")
	assert.Error(t, err)
	_, _, err = parseGradeCallback("show:1:2")
	assert.Error(t, err)
	_, _, err = parseGradeCallback("grade:1:0")
	assert.ErrorIs(t, err, models.ErrInvalidGrade)
}

func TestFormatDelay(t *testing.T) {
	assert.Equal(t, "1m", formatDelay(10*time.Second))
	assert.Equal(t, "10m", formatDelay(10*time.Minute))
	assert.Equal(t, "5h", formatDelay(5*time.Hour))
	assert.Equal(t, "12d", formatDelay(12*24*time.Hour))
}

func TestPluralWords(t *testing.T) {
	cases := map[int]string{1: "слово", 2: "слова", 4: "слова", 5: "слов", 11: "слов", 12: "слов", 21: "слово", 22: "слова", 111: "слов"}
	for n, want := range cases {
		assert.Equal(t, want, pluralWords(n), n)
	}
}
