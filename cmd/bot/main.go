package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/habotlola-gif/poizon-bot/internal/bot"
	"github.com/habotlola-gif/poizon-bot/internal/dialog"
	"github.com/habotlola-gif/poizon-bot/internal/ingest"
	"github.com/habotlola-gif/poizon-bot/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	config := loadConfig(log)

	log.Info().Str("db_path", config.DBPath).Msg("initializing store")
	st, err := store.New(config.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer st.Close()

	engine := dialog.NewEngine(st.Catalog, st.Orders, config.AdminID, log)

	telegramBot, err := bot.New(bot.Config{
		Token:   config.TelegramToken,
		AdminID: config.AdminID,
		Mode:    config.IngestMode,
	}, engine, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize bot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.SourceChannelID != 0 {
		ingestor := ingest.New(st.Catalog, telegramBot, config.SourceChannelID, config.PollInterval, log)
		if config.IngestMode == bot.ModePoll {
			queue := ingest.NewQueueSource()
			telegramBot.AttachIngestor(ingestor, queue)
			go ingestor.Run(ctx, queue)
		} else {
			telegramBot.AttachIngestor(ingestor, nil)
		}
		log.Info().
			Int64("channel_id", config.SourceChannelID).
			Str("mode", string(config.IngestMode)).
			Msg("ingestion enabled")
	}

	log.Info().Msg("bot is running")
	if err := telegramBot.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("bot error")
	}
}

type Config struct {
	TelegramToken   string
	AdminID         int64
	DBPath          string
	SourceChannelID int64
	PollInterval    time.Duration
	IngestMode      bot.Mode
}

func loadConfig(log zerolog.Logger) Config {
	config := Config{
		TelegramToken: mustGetEnv(log, "BOT_TOKEN"),
		DBPath:        getEnvOrDefault("DB_PATH", "./data/poizon.db"),
		IngestMode:    bot.ModePush,
	}

	adminID, err := strconv.ParseInt(mustGetEnv(log, "ADMIN_ID"), 10, 64)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ADMIN_ID")
	}
	config.AdminID = adminID

	if raw := os.Getenv("SOURCE_CHANNEL_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid SOURCE_CHANNEL_ID")
		}
		config.SourceChannelID = id
	}

	secs := 300
	if raw := os.Getenv("POLL_INTERVAL_SECONDS"); raw != "" {
		secs, err = strconv.Atoi(raw)
		if err != nil || secs < 1 {
			log.Fatal().Str("value", raw).Msg("invalid POLL_INTERVAL_SECONDS")
		}
	}
	config.PollInterval = time.Duration(secs) * time.Second

	if raw := os.Getenv("INGEST_MODE"); raw != "" {
		switch bot.Mode(raw) {
		case bot.ModePush, bot.ModePoll:
			config.IngestMode = bot.Mode(raw)
		default:
			log.Fatal().Str("value", raw).Msg("invalid INGEST_MODE, want push or poll")
		}
	}

	return config
}

func mustGetEnv(log zerolog.Logger, key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Str("key", key).Msg("required environment variable is not set")
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
