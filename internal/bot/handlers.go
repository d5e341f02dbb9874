package bot

import (
	"context"
	"fmt"

	"penny_watch/internal/model"
)

type commandContext struct {
	ChannelID string
	Author    model.User
	Args      string
	Prefix    string
}

type commandFunc func(ctx context.Context, c commandContext)

// registerCommand binds fn to name and every alias. Names are matched
// case-insensitively by ParseCommand.
func (b *Bot) registerCommand(fn commandFunc, names ...string) {
	for _, n := range names {
		b.commands[n] = fn
	}
}

func (b *Bot) handleHelp(_ context.Context, c commandContext) {
	b.reply(c.ChannelID, FormatHelp(c.Prefix))
}

func (b *Bot) handleFilterAdd(ctx context.Context, c commandContext) {
	if c.Args == "" {
		b.reply(c.ChannelID, formatUsage(c.Prefix, "filteradd <filter_word>"))
		return
	}

	res, err := b.filters.Add(ctx, c.Args)
	if err != nil {
		b.log.Error("add filter", "filter", c.Args, "error", err)
		b.reply(c.ChannelID, fmt.Sprintf("Error: %v", err))
		return
	}
	if !res.Added {
		b.reply(c.ChannelID, formatAlreadyListening(c.Author, res.Filter))
		return
	}

	b.log.Info("filter added", "filter", res.Filter, "total", res.Total)
	b.reply(c.ChannelID, formatAdded(c.Author, res.Filter, res.Total))
}

func (b *Bot) handleFilterRemove(ctx context.Context, c commandContext) {
	if c.Args == "" {
		b.reply(c.ChannelID, formatUsage(c.Prefix, "filterremove <filter_word>"))
		return
	}

	res, err := b.filters.Remove(ctx, c.Args)
	if err != nil {
		b.log.Error("remove filter", "filter", c.Args, "error", err)
		b.reply(c.ChannelID, fmt.Sprintf("Error: %v", err))
		return
	}
	if !res.Removed {
		b.reply(c.ChannelID, formatNotInList(c.Author, c.Args))
		return
	}

	b.log.Info("filter removed", "filter", res.Filter, "total", res.Total)
	b.reply(c.ChannelID, formatRemoved(c.Author, c.Args, res.Total))
}

func (b *Bot) handleFilterList(ctx context.Context, c commandContext) {
	filters, err := b.filters.All(ctx)
	if err != nil {
		b.log.Error("list filters", "error", err)
		b.reply(c.ChannelID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(c.ChannelID, FormatFilterList(filters))
}

func (b *Bot) handleClearFilters(ctx context.Context, c commandContext) {
	filters, err := b.filters.All(ctx)
	if err != nil {
		b.log.Error("list filters", "error", err)
		b.reply(c.ChannelID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(filters) == 0 {
		b.reply(c.ChannelID, fmt.Sprintf("%s: There are no filters to clear.", c.Author.Mention()))
		return
	}

	n := len(filters)
	state := b.awaitConfirmation(ctx, c.ChannelID, c.Author, formatClearPrompt(c.Author, n))
	if state == Confirmed {
		cleared, err := b.filters.Clear(ctx)
		if err != nil {
			b.log.Error("clear filters", "error", err)
			b.reply(c.ChannelID, fmt.Sprintf("Error: %v", err))
			return
		}
		b.log.Info("filters cleared", "count", cleared)
		n = cleared
	}
	b.reply(c.ChannelID, formatClearOutcome(c.Author, state, n))
}
