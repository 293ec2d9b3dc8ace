package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/domain/bot/receiver"
	"github.com/napryag/salon_bot/pkg/domain/bot/receiver/config"
	"github.com/napryag/salon_bot/pkg/domain/bot/sender"
	"github.com/napryag/salon_bot/pkg/domain/workspace"
	"github.com/napryag/salon_bot/pkg/repository/storage"
	"github.com/napryag/salon_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Err(errs.New("failed to load config").Wrap(err)).Msg("config init")
		return
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	// Context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Err(err).Str("driver", cfg.Storage.Driver).Msg("storage init")
		return
	}
	defer closeStorage()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("create bot api")
		return
	}
	bot.Debug = cfg.Bot.Debug
	logger.Info().Str("bot", bot.Self.UserName).Msg("authorized")

	client := api.New(api.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout},
		api.WithLogger(logger.With().Str("component", "api").Logger()))
	registry := workspace.NewRegistry(st, client, logger)

	deps := receiver.Deps{
		Bot:      bot,
		Registry: registry,
		Files:    receiver.NewTelegramFiles(bot, &http.Client{Timeout: cfg.API.Timeout}),
		Logger:   logger.With().Str("component", "receiver").Logger(),
		Location: cfg.Location(),
		PageSize: cfg.Bot.AdminPageSize,
	}

	notifyCfg := sender.ProcessorConfig{
		ChannelID:     cfg.ChannelID,
		RatePerSecond: cfg.Notify.RatePerSecond,
		Attempts:      cfg.Notify.Attempts,
	}
	if err := notifyCfg.Validate(); err != nil {
		logger.Warn().Err(err).Msg("admin notifications disabled")
	} else {
		deps.Notifier = sender.New(notifyCfg, logger.With().Str("component", "sender").Logger(), bot)
	}

	handler := receiver.NewHandler(deps)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Bot.UpdateTimeout
	updates := bot.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down bot")
		// Stops long polling: the updates channel closes and the loop below ends.
		bot.StopReceivingUpdates()
	}()

	for update := range updates {
		handler.HandleUpdate(ctx, update)
	}
	handler.Wait()
	logger.Info().Msg("bot stopped")
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := storage.NewPGStorage(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "redis":
		rs, err := storage.NewRedisStorage(ctx, storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	default:
		mem := storage.NewMemory()
		return mem, mem.Close, nil
	}
}
