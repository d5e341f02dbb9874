package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"penny_watch/internal/config"
	"penny_watch/internal/filter"
	"penny_watch/internal/model"
	"penny_watch/internal/monitor"
	"penny_watch/internal/notify"
)

type discordAPI interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot connects to the chat gateway, routes inbound messages to the monitor
// and runs operator commands.
type Bot struct {
	api            discordAPI
	cfg            *config.Config
	filters        *filter.List
	detector       monitor.Detector
	monitor        *monitor.Monitor
	commands       map[string]commandFunc
	waiters        *waiters
	confirmTimeout time.Duration
	log            *slog.Logger

	mu   sync.RWMutex
	self model.User
	ctx  context.Context
}

// New creates a Bot with a gateway session for cfg's token.
func New(cfg *config.Config, filters *filter.List, log *slog.Logger) (*Bot, error) {
	s, err := discordgo.New(cfg.SessionToken())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentMessageContent

	return newBot(s, cfg, filters, log), nil
}

func newBot(api discordAPI, cfg *config.Config, filters *filter.List, log *slog.Logger) *Bot {
	return &Bot{
		api:            api,
		cfg:            cfg,
		filters:        filters,
		detector:       monitor.LegacyWebhookDetector{},
		commands:       make(map[string]commandFunc),
		waiters:        newWaiters(),
		confirmTimeout: cfg.ConfirmTimeout(),
		log:            log,
		ctx:            context.Background(),
	}
}

// SetDetector replaces the automated-source predicate.
func (b *Bot) SetDetector(d monitor.Detector) {
	b.detector = d
}

// Run opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	b.api.AddHandler(b.onReady)
	b.api.AddHandler(b.onMessageCreate)

	if err := b.api.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	<-ctx.Done()

	if err := b.api.Close(); err != nil {
		return fmt.Errorf("close gateway: %w", err)
	}
	return nil
}

// Self returns the identity the client is logged in as.
func (b *Bot) Self() model.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.self
}

func (b *Bot) setSelf(u model.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.self = u
}

func (b *Bot) context() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.setSelf(fromDiscordUser(r.User))
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	b.HandleMessage(b.context(), fromDiscordMessage(m.Message))
}

// HandleMessage routes one inbound message: pending confirmations first,
// then the filter scan, then operator commands.
func (b *Bot) HandleMessage(ctx context.Context, msg model.Message) {
	self := b.Self()

	b.waiters.offer(msg)

	if b.monitor != nil {
		b.scan(ctx, msg, self)
	}

	b.processCommand(ctx, msg, self)
}

func (b *Bot) scan(ctx context.Context, msg model.Message, self model.User) {
	verdict := monitor.Classify(msg, self.ID, b.cfg.Prefix, b.detector)
	if verdict == monitor.Ignore {
		return
	}

	b.log.Debug("message received", "author", msg.Author.Username, "author_id", msg.Author.ID, "webhook_id", msg.WebhookID)
	if verdict != monitor.Candidate {
		return
	}
	b.log.Info("automated message detected", "message_id", msg.ID, "channel_id", msg.ChannelID, "embeds", len(msg.Embeds))

	from := model.Identity{Name: self.DisplayName(), AvatarURL: self.AvatarURL}
	if _, err := b.monitor.Scan(ctx, msg, from); err != nil {
		if notify.IsDeliveryError(err) {
			b.log.Error("alert delivery failed", "message_id", msg.ID, "error", err)
			return
		}
		b.log.Error("scan message", "message_id", msg.ID, "error", err)
	}
}

func (b *Bot) processCommand(ctx context.Context, msg model.Message, self model.User) {
	name, args, ok := ParseCommand(msg.Content, b.cfg.Prefix)
	if !ok {
		return
	}
	if !b.cfg.IsCommandAllowed(self.ID, msg.Author.ID) {
		b.log.Debug("command from unauthorized user", "cmd", name, "author_id", msg.Author.ID)
		return
	}

	b.log.Debug("command", "cmd", name, "args", args, "channel_id", msg.ChannelID)

	cmd, found := b.commands[name]
	if !found {
		b.reply(msg.ChannelID, fmt.Sprintf("Unknown command. Use %shelp for a list of commands.", b.cfg.Prefix))
		return
	}
	cmd(ctx, commandContext{
		ChannelID: msg.ChannelID,
		Author:    msg.Author,
		Args:      args,
		Prefix:    b.cfg.Prefix,
	})
}

func (b *Bot) reply(channelID, text string) {
	if _, err := b.api.ChannelMessageSend(channelID, text); err != nil {
		b.log.Error("send message", "channel_id", channelID, "error", err)
	}
}
