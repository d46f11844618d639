package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/engbot/internal/conversation"
	"github.com/example/engbot/internal/excel"
	"github.com/example/engbot/internal/session"
)

const (
	helpText = "Привет! Я помогу тебе учить английские слова.\n\n" +
		"Доступные команды:\n" +
		"/add — добавить слово\n" +
		"/learn — получить новые слова\n" +
		"/repeat — повторить слова\n" +
		"/test — проверить перевод\n" +
		"/stop — остановить текущее действие\n" +
		"/stats — твой прогресс"
	unknownCommandText  = "Неизвестная команда. Используй /help, чтобы увидеть список команд."
	internalErrorText   = "⚠️ Что-то пошло не так. Попробуй ещё раз чуть позже."
	staleButtonText     = "Кнопка устарела"
	adminOnlyText       = "Загрузка словаря доступна только администраторам."
	unsupportedFileText = "Поддерживаются только файлы .xlsx и .csv."
)

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

// message is a rendered reply ready to be sent with HTML parse mode
type message struct {
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func decisionLabel(d session.Decision) string {
	switch d {
	case session.DecisionKnow:
		return "Знаю"
	case session.DecisionDontKnow:
		return "Не знаю"
	}
	return string(d)
}

func choiceKeyboard(choice *session.Choice) *tgbotapi.InlineKeyboardMarkup {
	row := make([]MenuButton, 0, len(choice.Options))
	for _, option := range choice.Options {
		row = append(row, MenuButton{Text: decisionLabel(option), CallbackData: repeatCallbackData(option, choice.Term)})
	}
	keyboard := createKeyboard([][]MenuButton{row})
	return &keyboard
}

func wordCard(title string, r session.Reply) string {
	var sb strings.Builder
	sb.WriteString(title)
	fmt.Fprintf(&sb, "<b>%s</b> — %s", esc(r.Word.Term), esc(r.Word.Translation))
	if r.Word.Example != "" {
		fmt.Fprintf(&sb, "\nПример: <i>%s</i>", esc(r.Word.Example))
	}
	return sb.String()
}

func invalidInputText(step conversation.AddStep) string {
	switch step {
	case conversation.StepEnglish:
		return fmt.Sprintf("Слово не должно быть пустым или длиннее %d символов. Введи английское слово:", conversation.MaxTermLength)
	case conversation.StepRussian:
		return "Перевод не может быть пустым. Введи перевод:"
	}
	return "Не понял ответ, попробуй ещё раз."
}

// render turns a session reply into a Telegram message
func render(r session.Reply) message {
	var m message
	switch r.Kind {
	case session.ReplyAskTerm:
		m.text = "Введи английское слово:"
	case session.ReplyAskTranslation:
		m.text = "Теперь введи перевод:"
	case session.ReplyAskExample:
		m.text = "Теперь введи пример предложения:"
	case session.ReplyWordAdded:
		m.text = fmt.Sprintf("Слово <b>%s</b> добавлено!", esc(r.Word.Term))
	case session.ReplyWordExists:
		m.text = fmt.Sprintf("Слово <b>%s</b> уже есть в словаре.", esc(r.Word.Term))
	case session.ReplyInvalidInput:
		m.text = invalidInputText(r.Step)

	case session.ReplyTestQuestion:
		m.text = fmt.Sprintf("👉 Переведи: <b>%s</b>", esc(r.Word.Term))
	case session.ReplyTestCorrect:
		m.text = "✅ Верно!"
	case session.ReplyTestWrong:
		m.text = fmt.Sprintf("❌ Неверно. Правильно: <b>%s</b>", esc(r.Answer))
	case session.ReplyTestComplete:
		m.text = "🎉 Все слова повторены! Отлично поработал!"
	case session.ReplyNoTestWords:
		m.text = "❗ Нет слов для теста. Добавь их через /add и выучи через /learn."

	case session.ReplyStopped:
		m.text = "🛑 Остановлено. Возвращайся, когда будешь готов продолжать!"
	case session.ReplyNothingToStop:
		m.text = "Сейчас нечего останавливать."

	case session.ReplyLearnWord:
		m.text = wordCard("", r)
	case session.ReplyNoNewWords:
		m.text = "Нет новых слов для изучения. Добавь их через /add."
	case session.ReplyStatistics:
		m.text = fmt.Sprintf("📊 Всего слов: %d\nВыучено: %d", r.Statistics.Total, r.Statistics.Learned)

	case session.ReplyRepeatWord:
		m.text = wordCard("Повтори слово:\n\n", r)
		if r.Choice != nil {
			m.keyboard = choiceKeyboard(r.Choice)
		}
	case session.ReplyRepeatComplete:
		m.text = "🎉 Все слова повторены! Молодец!"
	case session.ReplyNoDueWords:
		m.text = "Нет слов для повторения сегодня. Используй /learn, чтобы добавить новые слова."
	case session.ReplySequenceExpired:
		m.text = "Это повторение уже закончилось. Начни заново через /repeat."

	case session.ReplyWordUnavailable:
		m.text = fmt.Sprintf("Слово <b>%s</b> больше недоступно.", esc(r.Word.Term))
	case session.ReplyUnexpectedText:
		m.text = "Не понимаю. Используй /help, чтобы увидеть список команд."
	default:
		m.text = internalErrorText
	}
	return m
}

// pluralWords picks the Russian form of "слово" for n
func pluralWords(n int) string {
	n10, n100 := n%10, n%100
	switch {
	case n10 == 1 && n100 != 11:
		return "слово"
	case n10 >= 2 && n10 <= 4 && (n100 < 12 || n100 > 14):
		return "слова"
	}
	return "слов"
}

func reminderText(count int) string {
	return fmt.Sprintf("⏰ У тебя %d %s для повторения! Нажми /repeat, чтобы начать.", count, pluralWords(count))
}

func importSummary(result *excel.ImportResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📥 Импорт завершён\nОбработано строк: %d\nДобавлено: %d\nПропущено: %d",
		result.Processed, result.Created, result.Skipped)
	if len(result.Errors) > 0 {
		sb.WriteString("\n\nОшибки:")
		for i, e := range result.Errors {
			if i == 10 {
				fmt.Fprintf(&sb, "\n… и ещё %d", len(result.Errors)-i)
				break
			}
			sb.WriteString("\n" + esc(e))
		}
	}
	return sb.String()
}
