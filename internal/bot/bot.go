// Package bot runs the Discord gateway bot that hands out the verification
// link and answers status queries from the credential store.
package bot

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/store"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const commandTimeout = 10 * time.Second

// AuthURLer builds the Discord consent URL linked from /verify
type AuthURLer interface {
	AuthURL(state string) string
}

type Bot struct {
	session      *discordgo.Session
	registry     *Registry
	collector    *Collector
	store        store.Store
	links        AuthURLer
	guildID      string
	allowedUsers []string
	avatarWait   time.Duration
	cdnBaseURL   string
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the bot and its gateway session. Nothing connects until Start.
func New(cfg *config.Config, st store.Store, links AuthURLer) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	b := newBot(cfg, st, links)
	b.session = session
	return b, nil
}

func newBot(cfg *config.Config, st store.Store, links AuthURLer) *Bot {
	wait := cfg.Bot.AvatarWait
	if wait <= 0 {
		wait = 60 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		registry:     NewRegistry(),
		collector:    NewCollector(wait),
		store:        st,
		links:        links,
		guildID:      cfg.Bot.GuildID,
		allowedUsers: cfg.Bot.AllowedUsers,
		avatarWait:   wait,
		cdnBaseURL:   cfg.Discord.CDNBaseURL,
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}
	b.registerCommands()
	return b
}

// Start registers the gateway handlers and opens the websocket
func (b *Bot) Start(context.Context) error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(s, i.Interaction)
	})
	b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		b.collector.Offer(m.Message)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Stop resolves pending collectors and closes the gateway connection
func (b *Bot) Stop(context.Context) error {
	b.cancel()
	b.collector.Close()
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Info("Discord bot logged in",
		zap.String("user", r.User.Username),
		zap.String("user_id", r.User.ID),
	)

	cmds, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.guildID, b.registry.ApplicationCommands())
	if err != nil {
		logger.Error("Failed to register application commands", zap.Error(err))
		return
	}
	logger.Info("Registered application commands", zap.Int("count", len(cmds)), zap.String("guild_id", b.guildID))
}

func (b *Bot) allowed(userID string) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

// handleInteraction dispatches a slash command. The handler runs on its own
// goroutine; the returned channel is closed when it finishes.
func (b *Bot) handleInteraction(s Session, i *discordgo.Interaction) <-chan struct{} {
	done := make(chan struct{})
	if i.Type != discordgo.InteractionApplicationCommand {
		close(done)
		return done
	}

	cmd, ok := b.registry.Lookup(i.ApplicationCommandData().Name)
	if !ok {
		close(done)
		return done
	}

	c := &Context{
		Context:     b.ctx,
		Session:     s,
		Interaction: i,
		Command:     cmd,
	}
	user := c.User()

	if user == nil || !b.allowed(user.ID) {
		if err := c.Reply(msgNoPermission, true); err != nil {
			logger.Error("Failed to reply", zap.Error(err))
		}
		close(done)
		return done
	}

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in command handler", zap.String("command", cmd.Name), zap.Any("panic", r))
			}
		}()

		if !cmd.Interactive {
			ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
			defer cancel()
			c.Context = ctx
		}

		if err := cmd.Handler(c); err != nil {
			logger.Error("Command failed",
				zap.String("command", cmd.Name),
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
			if err := c.Fail(msgInternalError); err != nil {
				logger.Debug("Failed to send error followup", zap.Error(err))
			}
		}
	}()
	return done
}
