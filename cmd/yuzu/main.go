package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/rrifaldi/yuzu/discord"
	"github.com/rrifaldi/yuzu/events"
	"github.com/rrifaldi/yuzu/httpapi"
	"github.com/rrifaldi/yuzu/media"
	"github.com/rrifaldi/yuzu/messages"
	"github.com/rrifaldi/yuzu/observability"
	"github.com/rrifaldi/yuzu/pipeline"
	"github.com/rrifaldi/yuzu/romaji"
)

var CommitHash = ""

func createLog() *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = ""

	logLevelValue := os.Getenv(logLevelEnvKey)
	logLevel, logLevelErr := zapcore.ParseLevel(logLevelValue)

	if logLevelErr != nil {
		logLevel = zapcore.InfoLevel
	}

	rawLog := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		logLevel,
	)).Named("yuzu")

	if CommitHash != "" {
		rawLog = rawLog.With(zap.String("commit", CommitHash))
	}

	if logLevelErr != nil && logLevelValue != "" {
		rawLog.With(zap.String(logLevelEnvKey, logLevelValue)).Warn("unable to parse log level, using INFO")
	}

	return rawLog
}

func main() {
	// a missing .env is normal outside development
	dotenvErr := godotenv.Load()

	parentLogger := createLog()
	defer parentLogger.Sync()

	log := parentLogger.Named("main")
	log.With(zap.String("min_log_level", parentLogger.Level().String())).Info("starting")
	if dotenvErr != nil && !os.IsNotExist(dotenvErr) {
		log.Warn("failed to load .env file", zap.Error(dotenvErr))
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		log.Fatal("failed to parse config", zap.Error(err))
	}

	registry, closers, err := cfg.buildRegistry(context.Background())
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn("failed to close model client", zap.Error(err))
			}
		}
	}()
	if err != nil {
		log.Fatal("failed to create models", zap.Error(err))
	}
	log.Info("models ready", zap.Strings("labels", registry.Labels()))

	romanizer, err := romaji.New(romaji.WithSeparator(cfg.RomajiSeparator))
	if err != nil {
		log.Fatal("failed to create romanizer", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	publisher := events.New(cfg.Kafka, parentLogger.Named("events"), metrics)
	defer publisher.Close()

	ffmpeg := media.NewFFmpeg(
		media.WithFFmpegBinary(cfg.FFmpegBinary),
		media.WithFFprobeBinary(cfg.FFprobeBinary),
		media.WithCommandTimeout(cfg.CommandTimeout),
	)

	comparer, err := pipeline.New(registry, ffmpeg, romanizer, publisher, metrics, parentLogger.Named("pipeline"), cfg.Pipeline)
	if err != nil {
		log.Fatal("failed to create pipeline", zap.Error(err))
	}

	httpServer := httpapi.NewServer(parentLogger, comparer, metrics, cfg.HTTP)

	var discordBot *discord.DiscordBot
	if cfg.DiscordToken != "" {
		messageProvider, err := messages.NewMessageProvider()
		if err != nil {
			log.Fatal("failed to create message provider", zap.Error(err))
		}

		reports, err := lru.New[string, *pipeline.Report](cfg.ReportCacheSize)
		if err != nil {
			log.Fatal("failed to create report cache", zap.Error(err))
		}

		discordBot, err = discord.NewDiscordBot(context.Background(), discord.DiscordBotOptions{
			Token:        cfg.DiscordToken,
			Servers:      cfg.Servers,
			ParentLogger: parentLogger,
			Messages:     messageProvider,
			Comparer:     comparer,
		},
			discord.WithMaxInputFileSize(cfg.MaxInputFileSize),
			discord.WithReportCache(reports),
		)
		if err != nil {
			log.Fatal("failed to create discord bot", zap.Error(err))
		}
	} else {
		log.Info("no discord token, running the http api only")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := errgroup.Group{}

	// HTTP API
	g.Go(func() error {
		defer cancel()

		return httpServer.Run(ctx)
	})

	// Discord bot
	if discordBot != nil {
		g.Go(func() error {
			defer cancel()

			return discordBot.Run(ctx)
		})
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-shutdownSignal:
		cancel()
		log.Info("received signal, shutting down")
	case <-ctx.Done():
		log.Info("context done, shutting down")
	}

	err = g.Wait()
	if err != nil {
		log.Fatal("error group error", zap.Error(err))
	}
}
