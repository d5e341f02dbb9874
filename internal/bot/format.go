package bot

import (
	"fmt"
	"strings"

	"penny_watch/internal/model"
)

// FormatHelp renders the command reference for prefix.
func FormatHelp(prefix string) string {
	var b strings.Builder
	b.WriteString("Help Command\n\n")
	b.WriteString("Here's how to use the available commands:\n")
	b.WriteString("`[]` = Optional | `<>` = Required\n\n")
	fmt.Fprintf(&b, "**%sfilteradd <filter_word>** - Add a filter to the global filter list.\n", prefix)
	fmt.Fprintf(&b, "  > Example: `%sfilteradd meow`\n", prefix)
	b.WriteString("  > Adds 'meow' to the list of filters being tracked.\n\n")
	fmt.Fprintf(&b, "**%sfilterremove <filter_word>** - Remove a filter from the global filter list.\n", prefix)
	fmt.Fprintf(&b, "  > Example: `%sfilterremove meow`\n", prefix)
	b.WriteString("  > Removes 'meow' from the list of filters being tracked.\n\n")
	fmt.Fprintf(&b, "**%sfilterlists** - Lists all the current global filters.\n", prefix)
	fmt.Fprintf(&b, "  > Example: `%sfilterlists`\n", prefix)
	b.WriteString("  > Shows all filters that are being tracked.\n\n")
	fmt.Fprintf(&b, "**%sclearfilters** - Clears all filters from the global list after confirmation.\n", prefix)
	fmt.Fprintf(&b, "  > Example: `%sclearfilters`\n", prefix)
	b.WriteString("  > Prompts a confirmation dialog to clear all filters.")
	return b.String()
}

// FormatFilterList formats the active filters for display.
func FormatFilterList(filters []string) string {
	if len(filters) == 0 {
		return "No filters set."
	}
	var b strings.Builder
	b.WriteString("Here are the current filters being monitored:\n")
	for _, f := range filters {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	fmt.Fprintf(&b, "Total Filters: %d", len(filters))
	return b.String()
}

func formatAdded(author model.User, word string, total int) string {
	return fmt.Sprintf("%s: Now listening to anything that includes '%s'.\nCurrent total filters: %d", author.Mention(), word, total)
}

func formatAlreadyListening(author model.User, word string) string {
	return fmt.Sprintf("%s: I am **already** listening to anything that includes '%s'.", author.Mention(), word)
}

func formatRemoved(author model.User, raw string, total int) string {
	return fmt.Sprintf("%s: Filter '%s' has been successfully removed from the list.\nCurrent total filters: %d", author.Mention(), raw, total)
}

func formatNotInList(author model.User, raw string) string {
	return fmt.Sprintf("%s: Filter '%s' does not exist in the list.", author.Mention(), raw)
}

func formatClearPrompt(author model.User, n int) string {
	return fmt.Sprintf("%s: Are you sure you want to clear `%d` filters from the list? Reply with 'Yes' to confirm or 'No' to cancel.", author.Mention(), n)
}

func formatClearOutcome(author model.User, state ConfirmState, n int) string {
	switch state {
	case Confirmed:
		return fmt.Sprintf("%s: Successfully cleared `%d` filters from the list.", author.Mention(), n)
	case Cancelled:
		return fmt.Sprintf("%s: Cancelled clearance of `%d` filters.", author.Mention(), n)
	default:
		return fmt.Sprintf("%s: Timed out. No filters were cleared.", author.Mention())
	}
}

func formatUsage(prefix, usage string) string {
	return fmt.Sprintf("Usage: %s%s", prefix, usage)
}
