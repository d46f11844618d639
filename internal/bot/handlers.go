package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/engbot/internal/excel"
	"github.com/example/engbot/internal/session"
)

var sessionCommands = map[string]session.Command{
	"add":    session.CommandAdd,
	"learn":  session.CommandLearn,
	"test":   session.CommandTest,
	"stop":   session.CommandStop,
	"repeat": session.CommandRepeat,
	"stats":  session.CommandStats,
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := b.logger.With(zap.String("event_id", uuid.NewString()), zap.Int("update_id", update.UpdateID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling update", zap.Any("panic", r))
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		log = log.With(zap.Int64("user_id", msg.From.ID))
		switch {
		case msg.Document != nil:
			b.handleDocument(ctx, log, msg)
		case msg.IsCommand():
			b.handleCommand(ctx, log, msg)
		case msg.Text != "":
			b.dispatch(ctx, log, msg.Chat.ID, session.Event{UserID: msg.From.ID, Kind: session.EventText, Text: msg.Text})
		}
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		log = log.With(zap.Int64("user_id", update.CallbackQuery.From.ID))
		b.handleCallbackQuery(ctx, log, update.CallbackQuery)
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, log *zap.Logger, msg *tgbotapi.Message) {
	name := msg.Command()
	switch name {
	case "start", "help":
		b.reply(log, msg.Chat.ID, message{text: helpText})
		return
	}

	cmd, ok := sessionCommands[name]
	if !ok {
		b.reply(log, msg.Chat.ID, message{text: unknownCommandText})
		return
	}
	b.dispatch(ctx, log, msg.Chat.ID, session.Event{UserID: msg.From.ID, Kind: session.EventCommand, Command: cmd})
}

// dispatch runs the event through the session and sends every reply as a new message
func (b *Bot) dispatch(ctx context.Context, log *zap.Logger, chatID int64, ev session.Event) {
	replies, err := b.sessions.Handle(ctx, ev)
	if err != nil {
		log.Error("failed to handle event", zap.String("kind", string(ev.Kind)), zap.Error(err))
		b.reply(log, chatID, message{text: internalErrorText})
		return
	}
	for _, r := range replies {
		b.reply(log, chatID, render(r))
	}
}

// handleCallbackQuery handles the know / don't know buttons. The first reply
// replaces the message the button belongs to.
func (b *Bot) handleCallbackQuery(ctx context.Context, log *zap.Logger, query *tgbotapi.CallbackQuery) {
	decision, term, err := parseRepeatCallback(query.Data)
	if err != nil {
		log.Warn("unknown callback data", zap.String("data", query.Data))
		b.answerCallback(log, query.ID, staleButtonText)
		return
	}
	log = log.With(zap.String("term", term))

	replies, err := b.sessions.Handle(ctx, session.Event{
		UserID:   query.From.ID,
		Kind:     session.EventDecision,
		Term:     term,
		Decision: decision,
	})
	if err != nil {
		log.Error("failed to handle decision", zap.Error(err))
		b.answerCallback(log, query.ID, internalErrorText)
		return
	}
	b.answerCallback(log, query.ID, "")

	if query.Message == nil || query.Message.Chat == nil {
		return
	}
	chatID := query.Message.Chat.ID
	for i, r := range replies {
		m := render(r)
		if i == 0 {
			if err := b.edit(chatID, query.Message.MessageID, m); err != nil {
				log.Error("failed to edit message", zap.Error(err))
			}
			continue
		}
		b.reply(log, chatID, m)
	}
}

// handleDocument imports an uploaded word list
func (b *Bot) handleDocument(ctx context.Context, log *zap.Logger, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(log, msg.Chat.ID, message{text: adminOnlyText})
		return
	}
	doc := msg.Document
	if !excel.Supported(doc.FileName) {
		b.reply(log, msg.Chat.ID, message{text: unsupportedFileText})
		return
	}
	log = log.With(zap.String("file", doc.FileName))

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		log.Error("failed to resolve file url", zap.Error(err))
		b.reply(log, msg.Chat.ID, message{text: internalErrorText})
		return
	}
	body, err := b.download(ctx, url)
	if err != nil {
		log.Error("failed to download document", zap.Error(err))
		b.reply(log, msg.Chat.ID, message{text: internalErrorText})
		return
	}
	defer body.Close()

	result, err := b.importer.Import(ctx, doc.FileName, body)
	if err != nil {
		log.Error("failed to import words", zap.Error(err))
		b.reply(log, msg.Chat.ID, message{text: internalErrorText})
		return
	}
	b.reply(log, msg.Chat.ID, message{text: importSummary(result)})
}

func (b *Bot) reply(log *zap.Logger, chatID int64, m message) {
	if err := b.send(chatID, m); err != nil {
		log.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answerCallback(log *zap.Logger, queryID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		log.Warn("failed to answer callback", zap.Error(err))
	}
}
