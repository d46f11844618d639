// Package bot is the Telegram front end: it turns updates into session events and
// renders the replies back as chat messages.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/engbot/internal/excel"
	"github.com/example/engbot/internal/session"
)

// API is the part of *tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Sessions handles user events
type Sessions interface {
	Handle(ctx context.Context, ev session.Event) ([]session.Reply, error)
}

// Importer loads an uploaded word list into the catalog
type Importer interface {
	Import(ctx context.Context, name string, r io.Reader) (*excel.ImportResult, error)
}

type downloadFunc func(ctx context.Context, url string) (io.ReadCloser, error)

// Bot represents the Telegram bot application
type Bot struct {
	api      API
	config   *BotConfig
	sessions Sessions
	importer Importer
	logger   *zap.Logger
	download downloadFunc

	// pending updates per user; a key is present while its worker runs
	queueMu sync.Mutex
	queues  map[int64][]tgbotapi.Update

	wg sync.WaitGroup
}

// New creates a new bot instance
func New(api API, cfg *BotConfig, sessions Sessions, importer Importer, logger *zap.Logger) *Bot {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:      api,
		config:   cfg,
		sessions: sessions,
		importer: importer,
		logger:   logger.Named("bot"),
		download: httpDownload(&http.Client{Timeout: cfg.DownloadTimeout}),
		queues:   make(map[int64][]tgbotapi.Update),
	}
}

// NewAPI authorizes against the Telegram Bot API
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	return api, nil
}

// Run polls for updates until ctx is cancelled, then waits for in-flight handlers
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		b.logger.Warn("failed to register bot commands", zap.Error(err))
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	// handlers finish their event even after shutdown starts
	handlerCtx := context.WithoutCancel(ctx)
	b.logger.Info("bot started")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.enqueue(handlerCtx, update)
		}
	}
}

// enqueue hands the update to its user's worker. Each user's updates are
// handled one at a time in arrival order; different users run in parallel.
func (b *Bot) enqueue(ctx context.Context, update tgbotapi.Update) {
	userID := updateUserID(update)

	b.queueMu.Lock()
	pending, running := b.queues[userID]
	b.queues[userID] = append(pending, update)
	b.queueMu.Unlock()

	if running {
		return
	}
	b.wg.Add(1)
	go b.drain(ctx, userID)
}

func (b *Bot) drain(ctx context.Context, userID int64) {
	defer b.wg.Done()
	for {
		b.queueMu.Lock()
		pending := b.queues[userID]
		if len(pending) == 0 {
			delete(b.queues, userID)
			b.queueMu.Unlock()
			return
		}
		update := pending[0]
		b.queues[userID] = pending[1:]
		b.queueMu.Unlock()

		b.handleUpdate(ctx, update)
	}
}

func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

// SendReminder tells the user how many words are due today
func (b *Bot) SendReminder(_ context.Context, userID int64, count int) error {
	// private chats share the user's id
	msg := tgbotapi.NewMessage(userID, reminderText(count))
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder to user %d: %w", userID, err)
	}
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.config.AdminUserIDs[userID]
}

func (b *Bot) send(chatID int64, m message) error {
	msg := tgbotapi.NewMessage(chatID, m.text)
	msg.ParseMode = tgbotapi.ModeHTML
	if m.keyboard != nil {
		msg.ReplyMarkup = *m.keyboard
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) edit(chatID int64, messageID int, m message) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, m.text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = m.keyboard
	_, err := b.api.Request(edit)
	return err
}

func httpDownload(client *http.Client) downloadFunc {
	return func(ctx context.Context, url string) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download file: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to download file: status %s", resp.Status)
		}
		return resp.Body, nil
	}
}
