// Package monitor classifies inbound messages and turns filter matches in
// embed titles into alerts.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"penny_watch/internal/filter"
	"penny_watch/internal/model"
)

// Dispatcher delivers a finished alert.
type Dispatcher interface {
	Send(ctx context.Context, alert model.Alert, from model.Identity) error
}

// FilterSource returns the current filter list.
type FilterSource interface {
	All(ctx context.Context) ([]string, error)
}

// Monitor scans embeds from a recognized source against the filter list.
type Monitor struct {
	filters    FilterSource
	dispatcher Dispatcher
	source     string
	log        *slog.Logger
	now        func() time.Time
	newID      func() string
}

// New creates a Monitor that only scans embeds whose author label equals source.
func New(filters FilterSource, dispatcher Dispatcher, source string, log *slog.Logger) *Monitor {
	return &Monitor{
		filters:    filters,
		dispatcher: dispatcher,
		source:     source,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Scan checks every embed of msg and dispatches at most one alert per embed.
// It returns the alerts that were delivered. A load or delivery failure stops
// the scan and is returned.
func (m *Monitor) Scan(ctx context.Context, msg model.Message, from model.Identity) ([]model.Alert, error) {
	var sent []model.Alert

	for i, embed := range msg.Embeds {
		if embed.AuthorName != m.source {
			continue
		}

		filters, err := m.filters.All(ctx)
		if err != nil {
			return sent, fmt.Errorf("load filters: %w", err)
		}

		m.log.Debug("checking embed", "message_id", msg.ID, "embed", i, "title", embed.Title, "filters", len(filters))

		match, ok := filter.FirstMatch(embed.Title, filters)
		if !ok {
			continue
		}
		m.log.Info("filter matched", "filter", match.Filter, "title", embed.Title, "message_id", msg.ID)

		alert := m.buildAlert(msg, embed, match)
		if alert.Address != "" {
			m.log.Info("address found", "address", alert.Address, "alert_id", alert.ID)
		}

		if err := m.dispatcher.Send(ctx, alert, from); err != nil {
			return sent, fmt.Errorf("dispatch alert %s: %w", alert.ID, err)
		}
		m.log.Info("alert sent", "filter", alert.Filter, "alert_id", alert.ID)
		sent = append(sent, alert)
	}

	return sent, nil
}

func (m *Monitor) buildAlert(msg model.Message, embed model.Embed, match filter.Match) model.Alert {
	address, _ := FindAddress(embed.Fields)
	return model.Alert{
		ID:              m.newID(),
		Filter:          match.Filter,
		Title:           embed.Title,
		EmphasizedTitle: filter.Emphasize(embed.Title, match),
		Address:         address,
		JumpURL:         msg.JumpURL(),
		CreatedAt:       m.now(),
	}
}

// FindAddress returns the value of the first field named "address" or
// "address:" in any case.
func FindAddress(fields []model.EmbedField) (string, bool) {
	for _, f := range fields {
		switch strings.ToLower(f.Name) {
		case "address", "address:":
			return f.Value, true
		}
	}
	return "", false
}
