// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"time"
)

// User is the author of an inbound message.
type User struct {
	ID            string
	Username      string
	GlobalName    string
	Discriminator string
	AvatarURL     string
	Bot           bool
}

// DisplayName returns the global display name, falling back to the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Mention returns the platform mention markup for the user.
func (u User) Mention() string {
	return fmt.Sprintf("<@%s>", u.ID)
}

// EmbedField is a named key-value pair inside an embed.
type EmbedField struct {
	Name  string
	Value string
}

// Embed is a structured content block attached to a message.
type Embed struct {
	AuthorName string
	Title      string
	Fields     []EmbedField
}

// Message is one event from the monitored stream.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	WebhookID string
	Author    User
	Content   string
	Embeds    []Embed
}

// JumpURL returns a permanent link to the message.
func (m Message) JumpURL() string {
	guild := m.GuildID
	if guild == "" {
		guild = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guild, m.ChannelID, m.ID)
}

// Alert is built for a single filter match and discarded after dispatch.
type Alert struct {
	ID              string
	Filter          string
	Title           string
	EmphasizedTitle string
	Address         string
	JumpURL         string
	CreatedAt       time.Time
}

// Identity is the display name and avatar an alert is sent under.
type Identity struct {
	Name      string
	AvatarURL string
}
