package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"penny_watch/internal/model"
)

// Fixed presentation of an alert embed.
const (
	AlertColor       = 0x7F868C
	AlertDescription = "**Details**: Filter matched in the title."
	noTitle          = "No title"
)

// Webhook posts alerts to a Discord webhook URL.
type Webhook struct {
	url     string
	mention string
	timeout time.Duration
}

// NewWebhook creates a Webhook sink. mention is sent as the message content.
func NewWebhook(url, mention string) *Webhook {
	return &Webhook{
		url:     url,
		mention: mention,
		timeout: 10 * time.Second,
	}
}

// Name identifies the sink in logs and errors.
func (w *Webhook) Name() string {
	return "discord webhook"
}

// Send delivers one alert over a connection opened for this call only.
func (w *Webhook) Send(ctx context.Context, alert model.Alert, from model.Identity) error {
	if w.url == "" {
		return &DeliveryError{Sink: w.Name(), Err: fmt.Errorf("webhook URL is empty")}
	}

	body, err := json.Marshal(BuildParams(alert, from, w.mention))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
	}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport, Timeout: w.timeout}

	resp, err := client.Do(req)
	if err != nil {
		return &DeliveryError{Sink: w.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DeliveryError{Sink: w.Name(), Status: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(msg))}
	}
	return nil
}

// BuildParams renders the webhook message for an alert.
func BuildParams(alert model.Alert, from model.Identity, mention string) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Content:   mention,
		Username:  from.Name,
		AvatarURL: from.AvatarURL,
		Embeds:    []*discordgo.MessageEmbed{BuildEmbed(alert)},
	}
}

// BuildEmbed renders an alert as a Discord embed.
func BuildEmbed(alert model.Alert) *discordgo.MessageEmbed {
	title := alert.EmphasizedTitle
	if title == "" {
		title = noTitle
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "**Original Message Title**", Value: title},
	}
	if alert.Address != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "**Address**", Value: alert.Address})
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name:  "**Jump to Message**",
		Value: fmt.Sprintf("[Click here to view the message](%s)", alert.JumpURL),
	})

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Filter **%s** found in message!", alert.Filter),
		Description: AlertDescription,
		Color:       AlertColor,
		Timestamp:   alert.CreatedAt.Format(time.RFC3339),
		Fields:      fields,
	}
}
