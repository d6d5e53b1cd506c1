package bot

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/langler/internal/level"
	"github.com/example/langler/pkg/models"
)

const (
	callbackReview = "review"
	callbackLevel  = "level"
	prefixShow     = "show:"
	prefixGrade    = "grade:"
)

const helpText = `Langler helps you keep words in memory 🎓

/add - add words, one "word - translation" per line
/review - review the next due word
/level - show your vocabulary level
/cancel - cancel the current action`

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return createKeyboard([][]MenuButton{
		{{Text: "▶️ Review", CallbackData: callbackReview}, {Text: "📊 Level", CallbackData: callbackLevel}},
	})
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil || m.Chat == nil {
		return nil
	}
	chatID, userID := m.Chat.ID, m.From.ID

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			return b.handleStart(ctx, m)
		case "help":
			menu := mainMenu()
			return b.send(chatID, helpText, &menu)
		case "add":
			if args := strings.TrimSpace(m.CommandArguments()); args != "" {
				return b.addWords(ctx, chatID, userID, args)
			}
			b.setAwaitingAdd(userID, true)
			return b.send(chatID, "📝 Send words, one per line:\n\nword - translation\n\nSend /cancel to stop.", nil)
		case "review":
			return b.sendNextCard(ctx, chatID, userID)
		case "level":
			return b.sendLevel(ctx, chatID, userID)
		case "cancel":
			b.setAwaitingAdd(userID, false)
			return b.send(chatID, "Cancelled.", nil)
		default:
			menu := mainMenu()
			return b.send(chatID, "Unknown command. Use /help to see what I can do.", &menu)
		}
	}

	if b.isAwaitingAdd(userID) {
		b.setAwaitingAdd(userID, false)
		return b.addWords(ctx, chatID, userID, m.Text)
	}
	return b.send(chatID, "I don't understand. Use /help to see what I can do.", nil)
}

func (b *Bot) handleStart(ctx context.Context, m *tgbotapi.Message) error {
	user := models.User{
		ID:                  m.From.ID,
		Username:            m.From.UserName,
		FirstName:           m.From.FirstName,
		NotificationEnabled: true,
		NotificationHour:    9,
	}
	if err := b.deps.Users.Upsert(ctx, user); err != nil {
		return err
	}
	menu := mainMenu()
	return b.send(m.Chat.ID, fmt.Sprintf("Hi, %s!\n\n%s", m.From.FirstName, helpText), &menu)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", "err", err)
	}
	if cb.From == nil {
		return nil
	}
	userID := cb.From.ID
	chatID := userID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	data := cb.Data
	switch {
	case data == callbackReview:
		return b.sendNextCard(ctx, chatID, userID)
	case data == callbackLevel:
		return b.sendLevel(ctx, chatID, userID)
	case strings.HasPrefix(data, prefixShow):
		wordID, err := strconv.ParseInt(strings.TrimPrefix(data, prefixShow), 10, 64)
		if err != nil {
			return fmt.Errorf("bad callback %q: %w", data, err)
		}
		return b.revealCard(ctx, chatID, userID, wordID)
	case strings.HasPrefix(data, prefixGrade):
		wordID, grade, err := parseGradeCallback(data)
		if err != nil {
			return err
		}
		return b.gradeCard(ctx, chatID, userID, wordID, grade)
	default:
		return fmt.Errorf("unknown callback %q", data)
	}
}

func (b *Bot) addWords(ctx context.Context, chatID, userID int64, text string) error {
	entries, problems := parseWordList(text, b.config.MaxWordsPerAdd)

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		w, err := b.deps.Words.Create(ctx, e.Text, e.Translation)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", e.Text, err))
			continue
		}
		ids = append(ids, w.ID)
	}

	added, err := b.deps.Reviews.Enroll(ctx, userID, ids, b.now())
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Added: %d\n", added)
	if known := len(ids) - added; known > 0 {
		fmt.Fprintf(&sb, "Already studying: %d\n", known)
	}
	if len(problems) > 0 {
		fmt.Fprintf(&sb, "\n❌ Errors (%d):\n", len(problems))
		for _, p := range problems {
			sb.WriteString("- " + p + "\n")
		}
	}
	menu := mainMenu()
	return b.send(chatID, strings.TrimRight(sb.String(), "\n"), &menu)
}

func (b *Bot) sendNextCard(ctx context.Context, chatID, userID int64) error {
	queue, err := b.deps.Reviews.Queue(ctx, userID, b.now(), 1)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		menu := mainMenu()
		return b.send(chatID, "🎉 Nothing to review right now.", &menu)
	}

	word, err := b.deps.Words.GetByID(ctx, queue[0].WordID)
	if err != nil {
		return err
	}
	kb := createKeyboard([][]MenuButton{{{Text: "👀 Show answer", CallbackData: fmt.Sprintf("%s%d", prefixShow, word.ID)}}})
	return b.send(chatID, "📖 "+word.Text, &kb)
}

func (b *Bot) revealCard(ctx context.Context, chatID, userID, wordID int64) error {
	word, err := b.deps.Words.GetByID(ctx, wordID)
	if err != nil {
		return err
	}
	now := b.now()
	preview, err := b.deps.Reviews.Preview(ctx, userID, wordID, now)
	if err != nil {
		return err
	}
	kb := createKeyboard(gradeButtons(wordID, preview, now))
	return b.send(chatID, fmt.Sprintf("📖 %s — %s\n\nHow well did you remember?", word.Text, word.Translation), &kb)
}

func (b *Bot) gradeCard(ctx context.Context, chatID, userID, wordID int64, grade models.Grade) error {
	now := b.now()
	item, err := b.deps.Reviews.Record(ctx, userID, wordID, grade, now)
	if err != nil {
		return err
	}
	if item.Due != nil {
		if err := b.send(chatID, "Next review in "+formatDelay(item.Due.Sub(now)), nil); err != nil {
			return err
		}
	}
	return b.sendNextCard(ctx, chatID, userID)
}

func (b *Bot) sendLevel(ctx context.Context, chatID, userID int64) error {
	s, err := b.deps.Levels.Summary(ctx, userID)
	if err != nil {
		return err
	}
	menu := mainMenu()
	return b.send(chatID, formatSummary(s), &menu)
}

type wordEntry struct {
	Text        string
	Translation string
}

// parseWordList reads "word - translation" lines. Long dashes are accepted,
// and a spaced dash wins over a bare one so hyphenated words survive.
func parseWordList(text string, limit int) ([]wordEntry, []string) {
	var entries []wordEntry
	var problems []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if limit > 0 && len(entries) >= limit {
			problems = append(problems, fmt.Sprintf("only %d words per message", limit))
			break
		}
		line = strings.NewReplacer("—", "-", "–", "-").Replace(line)
		word, translation, ok := strings.Cut(line, " - ")
		if !ok {
			word, translation, ok = strings.Cut(line, "-")
		}
		word, translation = strings.TrimSpace(word), strings.TrimSpace(translation)
		if !ok || word == "" || translation == "" {
			problems = append(problems, fmt.Sprintf("Invalid format: %s", line))
			continue
		}
		entries = append(entries, wordEntry{Text: word, Translation: translation})
	}
	return entries, problems
}

func gradeCallback(wordID int64, g models.Grade) string {
	return fmt.Sprintf("%s%d:%d", prefixGrade, wordID, int(g))
}

func parseGradeCallback(data string) (int64, models.Grade, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0]+":" != prefixGrade {
		return 0, 0, fmt.Errorf("bad grade callback %q", data)
	}
	wordID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad grade callback %q: %w", data, err)
	}
	g, err := models.ParseGrade(parts[2])
	if err != nil {
		return 0, 0, err
	}
	return wordID, g, nil
}

var gradeLabels = map[models.Grade]string{
	models.Again: "❌ Again",
	models.Hard:  "😓 Hard",
	models.Good:  "🙂 Good",
	models.Easy:  "😎 Easy",
}

func gradeButtons(wordID int64, preview map[models.Grade]models.Item, now time.Time) [][]MenuButton {
	row := make([]MenuButton, 0, 4)
	for g := models.Again; g <= models.Easy; g++ {
		label := gradeLabels[g]
		if it, ok := preview[g]; ok && it.Due != nil {
			label += " · " + formatDelay(it.Due.Sub(now))
		}
		row = append(row, MenuButton{Text: label, CallbackData: gradeCallback(wordID, g)})
	}
	return [][]MenuButton{row[:2], row[2:]}
}

// formatDelay renders a delay as minutes, hours or days.
func formatDelay(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", max(1, int(math.Round(d.Minutes()))))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(math.Round(d.Hours())))
	default:
		return fmt.Sprintf("%dd", int(math.Round(d.Hours()/24)))
	}
}

func formatSummary(s level.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Your level: %s\n", s.Level)
	fmt.Fprintf(&sb, "Estimated vocabulary: %.0f words\n", s.EstimatedVocabulary)
	fmt.Fprintf(&sb, "Words: %d (new %d, learning %d, review %d, relearning %d)\n",
		s.Total, s.New, s.Learning, s.Review, s.Relearning)
	fmt.Fprintf(&sb, "Mastered: %d\n", s.Mastered)
	fmt.Fprintf(&sb, "Due now: %d\n", s.Due)
	fmt.Fprintf(&sb, "Average recall: %.0f%%", s.AverageRetrievability*100)
	return sb.String()
}

// pluralWords склоняет слово «слово» по числу.
func pluralWords(n int) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return "слов"
	}
	switch n % 10 {
	case 1:
		return "слово"
	case 2, 3, 4:
		return "слова"
	default:
		return "слов"
	}
}
