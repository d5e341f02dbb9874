package bot

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"penny_watch/internal/monitor"
)

// Extension is a unit of bot behavior installed at startup.
type Extension struct {
	Name  string
	Setup func(b *Bot) error
}

// LoadExtensions installs each extension in order. A failing extension is
// logged and skipped; the names of the loaded ones are returned.
func (b *Bot) LoadExtensions(exts ...Extension) []string {
	var loaded []string
	for _, ext := range exts {
		if err := ext.Setup(b); err != nil {
			b.log.Error("failed to load extension", "extension", ext.Name, "error", err)
			continue
		}
		b.log.Info("loaded extension", "extension", ext.Name)
		loaded = append(loaded, ext.Name)
	}
	return loaded
}

// StartExtension logs the connected identity once the gateway is ready.
func StartExtension() Extension {
	return Extension{
		Name: "start",
		Setup: func(b *Bot) error {
			b.api.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
				if r.User == nil {
					return
				}
				b.log.Info("logged in", "user", r.User.String(), "user_id", r.User.ID, "prefix", b.cfg.Prefix)
			})
			return nil
		},
	}
}

// FiltersExtension registers the filter admin commands.
func FiltersExtension() Extension {
	return Extension{
		Name: "filters",
		Setup: func(b *Bot) error {
			b.registerCommand(b.handleHelp, "help")
			b.registerCommand(b.handleFilterAdd, "filteradd", "addfilter")
			b.registerCommand(b.handleFilterRemove, "filterremove", "removefilter")
			b.registerCommand(b.handleFilterList, "filterlists", "listfilters", "listfilter", "filterlist")
			b.registerCommand(b.handleClearFilters, "clearfilters", "filtersclear")
			return nil
		},
	}
}

// MonitorExtension enables the alert pipeline, delivering through d.
func MonitorExtension(d monitor.Dispatcher) Extension {
	return Extension{
		Name: "monitor",
		Setup: func(b *Bot) error {
			if b.cfg.WebhookURL == "" {
				return errors.New("webhook_url is not configured")
			}
			b.monitor = monitor.New(b.filters, d, b.cfg.SourceName, b.log.With("component", "monitor"))
			return nil
		},
	}
}
