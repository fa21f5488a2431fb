package discord

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/messages"
	"github.com/rrifaldi/yuzu/pipeline"
	"github.com/rrifaldi/yuzu/utils"
)

// max attachment file size in bytes
const DefaultMaxInputFileSize = 1024 * 1024 * 25

// number of recent reports kept for the swap reference button
const DefaultReportCacheSize = 512

var DefaultAllowedMentions = &discordgo.MessageAllowedMentions{
	Parse:       []discordgo.AllowedMentionType{},
	RepliedUser: true,
}

type DiscordExecutionError struct {
	Message string
	Err     error
	// If true, do not log this error
	UserError bool
}

func (err DiscordExecutionError) Error() string {
	if err.Err == nil {
		return err.Message
	}
	return err.Err.Error()
}

func (e DiscordExecutionError) Unwrap() error {
	return e.Err
}

// Comparer is implemented by *pipeline.Pipeline.
type Comparer interface {
	Run(ctx context.Context, audioPath string, opts ...pipeline.RunOption) (*pipeline.Report, error)
	ModelLabels() (string, string)
	MaxDuration() float64
}

type DiscordBot struct {
	log *zap.Logger

	discord  *discordgo.Session
	messages *messages.MessageProvider
	comparer Comparer

	// reply message id -> report, lost on restart
	reports *lru.Cache[string, *pipeline.Report]

	http             *http.Client
	maxInputFileSize int

	self *discordgo.User

	commands   map[string]*discordgo.ApplicationCommand
	commandsMu sync.RWMutex

	knownServers map[string]struct{}
}

type DiscordBotOptions struct {
	ParentLogger *zap.Logger
	Messages     *messages.MessageProvider
	Comparer     Comparer

	Token   string
	Servers []string
}

type DiscordBotOptionsExtraOptions func(*DiscordBot)

func WithHTTPClient(client *http.Client) DiscordBotOptionsExtraOptions {
	return func(b *DiscordBot) {
		b.http = client
	}
}

func WithMaxInputFileSize(size int) DiscordBotOptionsExtraOptions {
	return func(b *DiscordBot) {
		b.maxInputFileSize = size
	}
}

func WithReportCache(cache *lru.Cache[string, *pipeline.Report]) DiscordBotOptionsExtraOptions {
	return func(b *DiscordBot) {
		b.reports = cache
	}
}

func NewDiscordBot(ctx context.Context, options DiscordBotOptions, extraOptions ...DiscordBotOptionsExtraOptions) (*DiscordBot, error) {
	b := &DiscordBot{
		log: options.ParentLogger.Named("discord_bot"),

		messages: options.Messages,
		comparer: options.Comparer,

		http:             http.DefaultClient,
		maxInputFileSize: DefaultMaxInputFileSize,
		knownServers:     make(map[string]struct{}),
	}
	for _, option := range extraOptions {
		option(b)
	}

	if b.reports == nil {
		reports, err := lru.New[string, *pipeline.Report](DefaultReportCacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating report cache: %w", err)
		}
		b.reports = reports
	}

	for _, v := range options.Servers {
		b.knownServers[v] = struct{}{}
	}

	discord, err := discordgo.New("Bot " + options.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discordgo instance: %w", err)
	}
	b.discord = discord
	b.discord.Client = b.http

	state := discordgo.NewState()
	state.TrackChannels = false
	state.TrackThreads = false
	state.TrackEmojis = false
	state.TrackStickers = false
	state.TrackMembers = false
	state.TrackThreadMembers = false
	state.TrackRoles = false
	state.TrackVoice = false
	state.TrackPresences = false
	b.discord.State = state
	b.discord.StateEnabled = true

	b.discord.AddHandler(b.handleReady)
	b.discord.AddHandler(b.handleMessageCreate)
	b.discord.AddHandler(b.handleInteractionCreate)

	b.discord.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	b.discord.Identify.Presence = discordgo.GatewayStatusUpdate{
		Game: discordgo.Activity{
			Name:  "🍋",
			Type:  discordgo.ActivityTypeCustom,
			State: "Comparing transcriptions",
		},
	}

	b.self, err = b.discord.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("checking discord session: %w", err)
	}

	b.log = b.log.With(zap.String("bot_id", b.self.ID))
	b.log.Info("discord api works")

	err = b.registerCommands(ctx)
	if err != nil {
		return nil, fmt.Errorf("registering commands: %w", err)
	}

	return b, nil
}

func (b *DiscordBot) handleReady(s *discordgo.Session, e *discordgo.Ready) {
	b.log.Info("gateway ready", zap.Int("guilds", len(e.Guilds)))
}

func (b *DiscordBot) Open() error {
	return b.discord.Open()
}

func (b *DiscordBot) Close() error {
	return b.discord.Close()
}

func (b *DiscordBot) Run(ctx context.Context) error {
	defer utils.PanicRecovery(b.log)

	err := b.Open()
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	<-ctx.Done()

	err = b.Close()
	if err != nil {
		return fmt.Errorf("closing discord websocket: %w", err)
	}

	return nil
}

func (b *DiscordBot) isGuildInScope(guildID string) bool {
	_, ok := b.knownServers[guildID]
	return ok
}
