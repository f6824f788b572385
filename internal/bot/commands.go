package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/store"
	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

func (b *Bot) registerCommands() {
	b.registry.Add(Command{
		Name:        "verify",
		Description: "يرسل رسالة التحقق مع زر اثبت نفسك",
		Handler:     b.handleVerify,
	})
	b.registry.Add(Command{
		Name:        "info",
		Description: "يعرض بيانات التفويض لمستخدم",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "المستخدم (افتراضياً أنت)",
			},
		},
		Handler: b.handleInfo,
	})
	b.registry.Add(Command{
		Name:        "avatar",
		Description: "يغيّر الصورة المحفوظة برابط جديد",
		Interactive: true,
		Handler:     b.handleAvatar,
	})
}

func (b *Bot) handleVerify(c *Context) error {
	var guild *discordgo.Guild
	if c.Interaction.GuildID != "" {
		g, err := c.Session.Guild(c.Interaction.GuildID)
		if err != nil {
			logger.Warn("Failed to fetch guild for verify embed", zap.String("guild_id", c.Interaction.GuildID), zap.Error(err))
		} else {
			guild = g
		}
	}

	return c.ReplyEmbed(verifyEmbed(guild), verifyComponents(b.links.AuthURL("")), false)
}

func (b *Bot) handleInfo(c *Context) error {
	target := c.User()
	if opt := c.Option("user"); opt != nil {
		target = opt.UserValue(nil)
	}

	rec, err := b.store.Get(c, target.ID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Reply(msgNotAuthorized, true)
	}
	if err != nil {
		return err
	}

	return c.ReplyEmbed(infoEmbed(rec, b.cdnBaseURL), nil, true)
}

func (b *Bot) handleAvatar(c *Context) error {
	user := c.User()

	if _, err := b.store.Get(c, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Reply(msgSelfNotAuthorized, true)
		}
		return err
	}

	if err := c.Reply(fmt.Sprintf(msgAvatarPrompt, int(b.avatarWait.Seconds())), false); err != nil {
		return err
	}

	msg, err := b.collector.Await(c, c.Interaction.ChannelID, user.ID)
	if errors.Is(err, ErrCollectTimeout) {
		return c.Followup(msgNoInput)
	}
	if err != nil {
		return err
	}

	avatar := avatarInput(msg)
	if err := validate.Var(avatar, "required,http_url"); err != nil {
		return c.Followup(msgInvalidURL)
	}

	// re-read so a concurrent re-authorization is not overwritten with stale data
	rec, err := b.store.Get(c, user.ID)
	if err != nil {
		return err
	}
	rec.Profile.Avatar = avatar
	rec.AuthorizedAt = b.now().UTC()
	if err := b.store.Put(c, rec); err != nil {
		return err
	}

	logger.Info("Avatar override stored", zap.String("user_id", user.ID))
	return c.Followup("", avatarEmbed(rec, b.cdnBaseURL))
}

// avatarInput prefers the message text and falls back to the first attachment
func avatarInput(m *discordgo.Message) string {
	if text := strings.TrimSpace(m.Content); text != "" {
		return text
	}
	if len(m.Attachments) > 0 {
		return m.Attachments[0].URL
	}
	return ""
}
