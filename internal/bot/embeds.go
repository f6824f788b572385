package bot

import (
	"fmt"
	"strings"

	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/bwmarrin/discordgo"
)

const (
	colorGold  = 0xF1C40F
	colorGreen = 0x2ECC71

	// Discord rejects embed field values above this length
	maxFieldValue = 1024
)

// User facing texts
const (
	msgNoPermission      = "❌ ليس لديك صلاحية استخدام هذا الأمر."
	msgNotAuthorized     = "⚠️ هذا المستخدم لم يقم بالتفويض بعد."
	msgSelfNotAuthorized = "⚠️ لم تقم بالتفويض بعد، استخدم زر اثبّث نفسك أولاً."
	msgAvatarPrompt      = "📸 أرسل رابط الصورة الجديدة هنا خلال %d ثانية."
	msgNoInput           = "⌛ لم يتم استلام أي إدخال."
	msgInvalidURL        = "❌ الرابط غير صالح، يجب أن يبدأ بـ http:// أو https://"
	msgAvatarUpdated     = "✅ تم تحديث الصورة."
	msgInternalError     = "❌ حدث خطأ، حاول مرة أخرى لاحقاً."
	msgUnavailable       = "غير متوفر"
	verifyTitle          = "اهلا بكم في سيرفر يلو تيم"
	verifyDescription    = "أفضل سيرفر حرق كريديت ورواتبه إدارة\nيرجى تفعيل نفسك عن طريق الضغط على زر اثبّث نفسك"
	verifyButtonLabel    = "اثبّث نفسك"
)

func verifyEmbed(guild *discordgo.Guild) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       verifyTitle,
		Description: verifyDescription,
		Color:       colorGold,
	}
	if guild != nil && guild.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("")}
	}
	return embed
}

func verifyComponents(authURL string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: verifyButtonLabel,
					Style: discordgo.LinkButton,
					URL:   authURL,
				},
			},
		},
	}
}

func infoEmbed(rec models.AuthorizationRecord, cdnBaseURL string) *discordgo.MessageEmbed {
	email := rec.Profile.Email
	if email == "" {
		email = msgUnavailable
	}

	guilds := msgUnavailable
	if len(rec.Guilds) > 0 {
		guilds = truncate(strings.Join(rec.GuildNames(), "\n"), maxFieldValue)
	}

	return &discordgo.MessageEmbed{
		Title: "معلومات التفويض",
		Color: colorGold,
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: rec.Profile.AvatarURL(cdnBaseURL),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "اسم الحساب", Value: rec.Profile.DisplayName(), Inline: true},
			{Name: "ID", Value: rec.UserID, Inline: true},
			{Name: "البريد", Value: email},
			{Name: fmt.Sprintf("السيرفرات (%d)", len(rec.Guilds)), Value: guilds},
			{Name: "وقت التفويض", Value: fmt.Sprintf("<t:%d:F>", rec.AuthorizedAt.Unix())},
		},
	}
}

func avatarEmbed(rec models.AuthorizationRecord, cdnBaseURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: msgAvatarUpdated,
		Color:       colorGreen,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: rec.Profile.AvatarURL(cdnBaseURL)},
	}
}

// truncate cuts s to at most max runes, marking the cut with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
