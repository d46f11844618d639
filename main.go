package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/engbot/internal/bot"
	"github.com/example/engbot/internal/config"
	"github.com/example/engbot/internal/conversation"
	"github.com/example/engbot/internal/database"
	"github.com/example/engbot/internal/excel"
	"github.com/example/engbot/internal/logger"
	"github.com/example/engbot/internal/scheduler"
	"github.com/example/engbot/internal/session"
	"github.com/example/engbot/internal/spaced_repetition"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("engbot: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	appLogger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	words := database.NewWordRepository(db)
	progress := database.NewProgressRepository(db)

	states, closeStates, err := newStateStore(ctx, cfg.Redis, appLogger)
	if err != nil {
		return err
	}
	defer closeStates()

	ladder, err := spaced_repetition.NewLadder(cfg.Learning.Intervals)
	if err != nil {
		return err
	}
	location := cfg.Learning.Location()

	svc := session.NewService(words, progress, states, session.Config{
		Ladder:         ladder,
		LearnBatchSize: cfg.Learning.BatchSize,
		Location:       location,
	}, appLogger)

	api, err := bot.NewAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	appLogger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	b := bot.New(api, bot.ConfigFrom(cfg.Telegram), svc, excel.NewImporter(words, appLogger), appLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})

	if cfg.Reminder.Enabled {
		reminders := scheduler.New(cfg.Reminder.At, location, progress, svc, b, appLogger)
		if err := reminders.Start(gctx); err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			reminders.Stop()
			return nil
		})
	}

	err = g.Wait()
	appLogger.Info("bot stopped")
	return err
}

// newStateStore keeps conversation state in Redis when it is configured, in memory otherwise
func newStateStore(ctx context.Context, cfg config.RedisConfig, appLogger *zap.Logger) (conversation.Store, func() error, error) {
	if cfg.Addr == "" {
		appLogger.Info("conversation state kept in memory")
		return conversation.NewMemoryStore(), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	appLogger.Info("conversation state kept in redis", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.StateTTL))
	return conversation.NewRedisStore(client, cfg.StateTTL), client.Close, nil
}
