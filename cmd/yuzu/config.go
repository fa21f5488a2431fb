package main

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/rrifaldi/yuzu/asr"
	googlespeech "github.com/rrifaldi/yuzu/asr/google-speech"
	workerswhisper "github.com/rrifaldi/yuzu/asr/workers-whisper"
	"github.com/rrifaldi/yuzu/events"
	"github.com/rrifaldi/yuzu/httpapi"
	"github.com/rrifaldi/yuzu/pipeline"
)

const (
	providerWorkersWhisper = "workers_whisper"
	providerGoogleSpeech   = "google_speech"
)

type modelConfig struct {
	Provider string `env:"PROVIDER" envDefault:"workers_whisper"`
	Name     string `env:"NAME"`
	Label    string `env:"LABEL"`
	Language string `env:"LANGUAGE"`
}

type config struct {
	// the bot is skipped without a token, leaving only the http api
	DiscordToken     string   `env:"DISCORD_TOKEN"`
	Servers          []string `env:"SERVERS"`
	MaxInputFileSize int      `env:"MAX_INPUT_FILE_SIZE" envDefault:"26214400"`
	ReportCacheSize  int      `env:"REPORT_CACHE_SIZE" envDefault:"512"`

	FFmpegBinary   string        `env:"FFMPEG_BINARY" envDefault:"ffmpeg"`
	FFprobeBinary  string        `env:"FFPROBE_BINARY" envDefault:"ffprobe"`
	CommandTimeout time.Duration `env:"COMMAND_TIMEOUT" envDefault:"30s"`

	RomajiSeparator string `env:"ROMAJI_SEPARATOR" envDefault:" "`

	ModelA modelConfig `envPrefix:"MODEL_A_"`
	ModelB modelConfig `envPrefix:"MODEL_B_"`

	Pipeline pipeline.Options
	HTTP     httpapi.Options `envPrefix:"HTTP_"`
	Kafka    events.Config   `envPrefix:"KAFKA_"`

	WorkersWhisperCredentials workerswhisper.Credentials `envPrefix:"ASR_WORKERS_WHISPER_"`
	GoogleSpeechOptions       googlespeech.Options       `envPrefix:"ASR_GOOGLE_SPEECH_"`
}

const environmentPrefix = "YUZU_"
const logLevelEnvKey = environmentPrefix + "LOG_LEVEL"

// loadConfig parses the config from environment, or from the process
// environment when it is nil.
func loadConfig(environment map[string]string) (config, error) {
	cfg := config{}
	err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      environmentPrefix,
		Environment: environment,
	})
	if err != nil {
		return cfg, err
	}

	cfg.ModelA = cfg.ModelA.withDefaults("@cf/openai/whisper")
	cfg.ModelB = cfg.ModelB.withDefaults("@cf/openai/whisper-large-v3-turbo")

	if cfg.ModelA.Label == cfg.ModelB.Label {
		return cfg, fmt.Errorf("models need distinct labels, both are %q", cfg.ModelA.Label)
	}

	if cfg.ModelA.Provider == providerGoogleSpeech || cfg.ModelB.Provider == providerGoogleSpeech {
		cfg.Pipeline.MaxDuration = min(cfg.Pipeline.MaxDuration, googlespeech.MaxSyncDuration)
	}

	return cfg, nil
}

func (m modelConfig) withDefaults(workersModel string) modelConfig {
	if m.Name == "" && m.Provider == providerWorkersWhisper {
		m.Name = workersModel
	}
	if m.Label == "" {
		switch {
		case m.Name != "":
			m.Label = path.Base(m.Name)
		default:
			m.Label = m.Provider
		}
	}
	if m.Language == "" {
		switch m.Provider {
		case providerGoogleSpeech:
			m.Language = "ja-JP"
		default:
			m.Language = "ja"
		}
	}
	return m
}

func (cfg config) newModelAPI(ctx context.Context, m modelConfig) (asr.SpeechRecognitionAPI, io.Closer, error) {
	switch m.Provider {
	case providerWorkersWhisper:
		client, err := workerswhisper.NewWorkersWhisperClient(workerswhisper.WorkersWhisperClientOptions{
			Credentials: cfg.WorkersWhisperCredentials,
			ModelName:   m.Name,
			Language:    m.Language,
		})
		return client, nil, err
	case providerGoogleSpeech:
		options := cfg.GoogleSpeechOptions
		options.LanguageCode = m.Language
		client, err := googlespeech.NewClient(ctx, options, m.Name)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}
	return nil, nil, fmt.Errorf("unknown asr provider %q", m.Provider)
}

// buildRegistry creates both model clients. The closers must be closed on
// shutdown, even when an error is returned.
func (cfg config) buildRegistry(ctx context.Context) (*asr.Registry, []io.Closer, error) {
	registry := asr.NewRegistry()
	var closers []io.Closer

	for _, m := range []modelConfig{cfg.ModelA, cfg.ModelB} {
		api, closer, err := cfg.newModelAPI(ctx, m)
		if err != nil {
			return nil, closers, fmt.Errorf("creating model %s: %w", m.Label, err)
		}
		if closer != nil {
			closers = append(closers, closer)
		}

		err = registry.Register(m.Label, api)
		if err != nil {
			return nil, closers, err
		}
	}

	return registry, closers, nil
}
