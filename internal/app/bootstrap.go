package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/generator"
	"meal-planner/internal/llm"
	"meal-planner/internal/metrics"
	"meal-planner/internal/notify"
	"meal-planner/internal/planner"
	"meal-planner/internal/prep"
	"meal-planner/internal/recipe"
	"meal-planner/internal/settings"
	"meal-planner/internal/storage"
	"meal-planner/internal/telegram"
)

// Bootstrap wires every component from configuration. The returned closer releases
// the database, the redis client and the LLM client.
func Bootstrap(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*App, io.Closer, error) {
	var closers closerList

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closers = append(closers, db)

	kv, err := openStore(ctx, cfg, db)
	if err != nil {
		closers.Close()
		return nil, nil, err
	}
	if c, ok := kv.(io.Closer); ok {
		closers = append(closers, c)
	}

	textGen, err := llm.New(ctx, cfg)
	if err != nil {
		closers.Close()
		return nil, nil, fmt.Errorf("failed to initialize %s client: %w", cfg.LLMProvider, err)
	}
	if c, ok := textGen.(llm.Closer); ok {
		closers = append(closers, c)
	}

	metricsStore := metrics.NewStore(db.SQL)
	var collector *metrics.Collector
	if reg != nil {
		collector = metrics.NewCollector(reg)
	}
	gen := generator.New(textGen, logger.Named("generator")).
		WithRecorder(metrics.NewRecorder(metricsStore, collector, logger.Named("metrics")))

	library := recipe.NewLibrary(kv, logger.Named("recipes"))
	settingsStore := settings.NewStore(kv, logger.Named("settings"))

	var mealGen planner.MealGenerator
	switch cfg.GenerationMode {
	case "ai":
		mealGen = planner.NewAIGenerator(settingsStore, gen, logger.Named("mealgen"))
	default:
		seed := uint64(time.Now().UnixNano())
		mealGen = planner.NewLibraryGenerator(library, settingsStore, gen, rand.New(rand.NewPCG(seed, seed>>1)), logger.Named("mealgen"))
	}
	repo := planner.NewKVRepository(kv, library, logger.Named("plans"))

	notifier, sender, err := buildNotifiers(cfg, logger)
	if err != nil {
		closers.Close()
		return nil, nil, err
	}

	a := New(Components{
		Recipes:    library,
		Settings:   settingsStore,
		Planner:    planner.NewPlanner(repo, mealGen, logger.Named("planner")),
		Prep:       prep.NewPlanner(kv, gen, logger.Named("prep")),
		Generator:  gen,
		Clipper:    clipper.NewClipper(gen, library, settingsStore, logger.Named("clipper")),
		Notifier:   notifier,
		PlanSender: sender,
		Metrics:    metricsStore,
		Collector:  collector,
	}, logger)

	logger.Info("application wired",
		zap.String("store", cfg.StoreBackend),
		zap.String("llm", cfg.LLMProvider),
		zap.String("generationMode", cfg.GenerationMode),
		zap.Bool("notifications", cfg.NotificationsEnabled()))
	return a, closers, nil
}

func openStore(ctx context.Context, cfg *config.Config, db *database.DB) (storage.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		return storage.NewRedisStore(ctx, storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "meal-planner:",
		})
	case "file":
		return storage.NewFileStore(cfg.DataDir)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewSQLiteStore(db.SQL), nil
	}
}

func buildNotifiers(cfg *config.Config, logger *zap.Logger) (notify.Notifier, PlanSender, error) {
	var notifiers notify.Multi
	var sender PlanSender

	if cfg.NtfyTopic != "" {
		notifiers = append(notifiers, notify.NewNtfyNotifier(cfg.NtfyServer, cfg.NtfyTopic, cfg.AppURL))
	}
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger.Named("telegram"))
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, bot)
		sender = bot
	}

	if len(notifiers) == 0 {
		return notify.Nop{}, nil, nil
	}
	return notifiers, sender, nil
}

type closerList []io.Closer

// Close releases resources in reverse order of acquisition.
func (l closerList) Close() error {
	var errs []error
	for i := len(l) - 1; i >= 0; i-- {
		if err := l[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
