package bot

import (
	"github.com/bwmarrin/discordgo"

	"penny_watch/internal/model"
)

func fromDiscordUser(u *discordgo.User) model.User {
	if u == nil {
		return model.User{}
	}
	return model.User{
		ID:            u.ID,
		Username:      u.Username,
		GlobalName:    u.GlobalName,
		Discriminator: u.Discriminator,
		AvatarURL:     u.AvatarURL(""),
		Bot:           u.Bot,
	}
}

func fromDiscordMessage(m *discordgo.Message) model.Message {
	msg := model.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		WebhookID: m.WebhookID,
		Author:    fromDiscordUser(m.Author),
		Content:   m.Content,
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		embed := model.Embed{Title: e.Title}
		if e.Author != nil {
			embed.AuthorName = e.Author.Name
		}
		for _, f := range e.Fields {
			if f == nil {
				continue
			}
			embed.Fields = append(embed.Fields, model.EmbedField{Name: f.Name, Value: f.Value})
		}
		msg.Embeds = append(msg.Embeds, embed)
	}
	return msg
}
