package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"

	"penny_watch/internal/config"
	"penny_watch/internal/filter"
	"penny_watch/internal/model"
	"penny_watch/internal/notify"
	"penny_watch/internal/storage"
)

// --- mocks ---

type sentMsg struct {
	ChannelID string
	Text      string
}

type mockAPI struct {
	mu       sync.Mutex
	sent     []sentMsg
	handlers []interface{}
	opened   bool
	closed   bool
	openErr  error
}

func (m *mockAPI) AddHandler(handler interface{}) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return func() {}
}

func (m *mockAPI) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockAPI) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockAPI) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMsg{ChannelID: channelID, Text: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (m *mockAPI) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

func (m *mockAPI) allTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.Text
	}
	return out
}

func (m *mockAPI) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type mockDispatcher struct {
	mu    sync.Mutex
	sent  []model.Alert
	froms []model.Identity
	err   error
}

func (d *mockDispatcher) Send(_ context.Context, alert model.Alert, from model.Identity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, alert)
	d.froms = append(d.froms, from)
	return nil
}

func (d *mockDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// --- helpers ---

var operator = model.User{ID: "100", Username: "operator", GlobalName: "Operator", AvatarURL: "https://cdn/avatar.png"}

func newTestBot(t *testing.T) (*Bot, *mockAPI, *filter.List) {
	t.Helper()
	cfg := &config.Config{
		Prefix:                ".",
		WebhookURL:            "https://discord.com/api/webhooks/1/abc",
		SourceName:            "Moneypenny",
		Mention:               "@everyone",
		ConfirmTimeoutSeconds: 30,
	}
	list := filter.NewList(storage.NewJSONFile(filepath.Join(t.TempDir(), "filters.json")))
	api := &mockAPI{}
	b := newBot(api, cfg, list, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.setSelf(operator)
	b.LoadExtensions(FiltersExtension())
	return b, api, list
}

func send(b *Bot, author model.User, content string) {
	b.HandleMessage(context.Background(), model.Message{ID: "m1", ChannelID: "chan", Author: author, Content: content})
}

func seedFilters(t *testing.T, list *filter.List, words ...string) {
	t.Helper()
	for _, w := range words {
		if _, err := list.Add(context.Background(), w); err != nil {
			t.Fatalf("seed filter %q: %v", w, err)
		}
	}
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected %q to contain %q", got, want)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// --- tests ---

func TestHandleHelp(t *testing.T) {
	b, api, _ := newTestBot(t)
	send(b, operator, ".help")

	got := api.lastText()
	if diff := cmp.Diff(FormatHelp("."), got); diff != "" {
		t.Errorf("help (-want +got):\n%s", diff)
	}
	requireContains(t, got, "Example: `.filteradd meow`")
	requireContains(t, got, "**.clearfilters**")
}

func TestHandleFilterAdd(t *testing.T) {
	b, api, list := newTestBot(t)

	send(b, operator, ".filteradd Meow")
	if diff := cmp.Diff("<@100>: Now listening to anything that includes 'MEOW'.\nCurrent total filters: 1", api.lastText()); diff != "" {
		t.Errorf("add (-want +got):\n%s", diff)
	}

	send(b, operator, ".addfilter meow")
	if diff := cmp.Diff("<@100>: I am **already** listening to anything that includes 'MEOW'.", api.lastText()); diff != "" {
		t.Errorf("duplicate add (-want +got):\n%s", diff)
	}

	send(b, operator, ".filteradd stray cat")
	requireContains(t, api.lastText(), "'STRAY CAT'")
	requireContains(t, api.lastText(), "Current total filters: 2")

	got, err := list.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if diff := cmp.Diff([]string{"MEOW", "STRAY CAT"}, got); diff != "" {
		t.Errorf("stored filters (-want +got):\n%s", diff)
	}

	send(b, operator, ".filteradd")
	if diff := cmp.Diff("Usage: .filteradd <filter_word>", api.lastText()); diff != "" {
		t.Errorf("usage (-want +got):\n%s", diff)
	}
}

func TestHandleFilterRemove(t *testing.T) {
	b, api, list := newTestBot(t)
	seedFilters(t, list, "MEOW", "WOOF")

	send(b, operator, ".filterremove meow")
	if diff := cmp.Diff("<@100>: Filter 'meow' has been successfully removed from the list.\nCurrent total filters: 1", api.lastText()); diff != "" {
		t.Errorf("remove (-want +got):\n%s", diff)
	}

	send(b, operator, ".removefilter meow")
	if diff := cmp.Diff("<@100>: Filter 'meow' does not exist in the list.", api.lastText()); diff != "" {
		t.Errorf("remove missing (-want +got):\n%s", diff)
	}

	send(b, operator, ".filterremove")
	if diff := cmp.Diff("Usage: .filterremove <filter_word>", api.lastText()); diff != "" {
		t.Errorf("usage (-want +got):\n%s", diff)
	}

	got, err := list.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if diff := cmp.Diff([]string{"WOOF"}, got); diff != "" {
		t.Errorf("stored filters (-want +got):\n%s", diff)
	}
}

func TestHandleFilterList(t *testing.T) {
	b, api, list := newTestBot(t)

	send(b, operator, ".filterlists")
	if diff := cmp.Diff("No filters set.", api.lastText()); diff != "" {
		t.Errorf("empty list (-want +got):\n%s", diff)
	}

	seedFilters(t, list, "Meow")
	want := "Here are the current filters being monitored:\n- MEOW\nTotal Filters: 1"

	for _, alias := range []string{".filterlists", ".listfilters", ".listfilter", ".filterlist", ".FilterLists"} {
		t.Run(alias, func(t *testing.T) {
			api.reset()
			send(b, operator, alias)
			if diff := cmp.Diff(want, api.lastText()); diff != "" {
				t.Errorf("list (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleClearFiltersEmpty(t *testing.T) {
	b, api, _ := newTestBot(t)

	send(b, operator, ".clearfilters")

	if diff := cmp.Diff([]string{"<@100>: There are no filters to clear."}, api.allTexts()); diff != "" {
		t.Errorf("replies (-want +got):\n%s", diff)
	}
	if n := b.waiters.len(); n != 0 {
		t.Errorf("pending waiters = %d, want 0", n)
	}
}

func TestHandleClearFilters(t *testing.T) {
	prompt := "<@100>: Are you sure you want to clear `2` filters from the list? Reply with 'Yes' to confirm or 'No' to cancel."

	tests := []struct {
		name        string
		reply       string
		timeout     time.Duration
		wantReply   string
		wantFilters []string
	}{
		{
			name:        "yes clears",
			reply:       "Yes",
			timeout:     time.Minute,
			wantReply:   "<@100>: Successfully cleared `2` filters from the list.",
			wantFilters: []string{},
		},
		{
			name:        "no cancels",
			reply:       "NO",
			timeout:     time.Minute,
			wantReply:   "<@100>: Cancelled clearance of `2` filters.",
			wantFilters: []string{"CAT", "DOG"},
		},
		{
			name:        "timeout leaves filters",
			timeout:     20 * time.Millisecond,
			wantReply:   "<@100>: Timed out. No filters were cleared.",
			wantFilters: []string{"CAT", "DOG"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, list := newTestBot(t)
			b.confirmTimeout = tt.timeout
			seedFilters(t, list, "cat", "dog")

			done := make(chan struct{})
			go func() {
				defer close(done)
				send(b, operator, ".clearfilters")
			}()

			if tt.reply != "" {
				waitFor(t, "prompt", func() bool { return api.lastText() == prompt })
				send(b, operator, tt.reply)
			}

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("clearfilters did not finish")
			}

			if diff := cmp.Diff([]string{prompt, tt.wantReply}, api.allTexts()); diff != "" {
				t.Errorf("replies (-want +got):\n%s", diff)
			}
			got, err := list.All(context.Background())
			if err != nil {
				t.Fatalf("All: %v", err)
			}
			if diff := cmp.Diff(tt.wantFilters, got); diff != "" {
				t.Errorf("filters (-want +got):\n%s", diff)
			}
			if n := b.waiters.len(); n != 0 {
				t.Errorf("pending waiters = %d, want 0", n)
			}
		})
	}
}

func TestHandleClearFiltersIgnoresOtherReplies(t *testing.T) {
	b, api, list := newTestBot(t)
	b.cfg.AllowedUsers = []string{"200"}
	seedFilters(t, list, "cat")

	done := make(chan struct{})
	go func() {
		defer close(done)
		send(b, operator, ".filtersclear")
	}()
	waitFor(t, "waiter", func() bool { return b.waiters.len() == 1 })

	other := model.User{ID: "200", Username: "other"}
	send(b, other, "yes")
	b.HandleMessage(context.Background(), model.Message{ChannelID: "elsewhere", Author: operator, Content: "yes"})
	send(b, operator, "maybe")

	if n := b.waiters.len(); n != 1 {
		t.Fatalf("pending waiters = %d, want 1", n)
	}

	send(b, operator, "yes")
	<-done

	requireContains(t, api.lastText(), "Successfully cleared `1` filters")
}

func TestHandleMessageCommandAuthority(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		author  model.User
		want    int
	}{
		{"self", nil, operator, 1},
		{"stranger", nil, model.User{ID: "300"}, 0},
		{"allowed operator", []string{"300"}, model.User{ID: "300"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, _ := newTestBot(t)
			b.cfg.AllowedUsers = tt.allowed

			send(b, tt.author, ".filterlists")

			if diff := cmp.Diff(tt.want, len(api.allTexts())); diff != "" {
				t.Errorf("replies (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleMessageNotCommand(t *testing.T) {
	b, api, _ := newTestBot(t)

	send(b, operator, "just chatting")
	send(b, operator, ".")

	if got := api.allTexts(); len(got) != 0 {
		t.Errorf("expected no replies, got %v", got)
	}
}

func TestHandleMessageUnknownCommand(t *testing.T) {
	b, api, _ := newTestBot(t)
	send(b, operator, ".bogus")
	if diff := cmp.Diff("Unknown command. Use .help for a list of commands.", api.lastText()); diff != "" {
		t.Errorf("unknown (-want +got):\n%s", diff)
	}
}

func moneypennyMessage(author model.User, content string) model.Message {
	return model.Message{
		ID:        "555",
		ChannelID: "chan",
		GuildID:   "guild",
		WebhookID: "hook",
		Author:    author,
		Content:   content,
		Embeds: []model.Embed{{
			AuthorName: "Moneypenny",
			Title:      "Stray Cat Sighting",
			Fields:     []model.EmbedField{{Name: "Address:", Value: "12 Elm St"}},
		}},
	}
}

func TestHandleMessageScansCandidates(t *testing.T) {
	b, _, list := newTestBot(t)
	d := &mockDispatcher{}
	b.LoadExtensions(MonitorExtension(d))
	seedFilters(t, list, "cat", "stray")

	hook := model.User{ID: "900", Username: "Moneypenny Hook", Bot: true, Discriminator: "0000"}
	b.HandleMessage(context.Background(), moneypennyMessage(hook, "new listing"))

	if d.count() != 1 {
		t.Fatalf("alerts = %d, want 1", d.count())
	}
	alert := d.sent[0]
	if diff := cmp.Diff("Stray **Cat** Sighting", alert.EmphasizedTitle); diff != "" {
		t.Errorf("emphasized title (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("12 Elm St", alert.Address); diff != "" {
		t.Errorf("address (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Identity{Name: "Operator", AvatarURL: "https://cdn/avatar.png"}, d.froms[0]); diff != "" {
		t.Errorf("sender identity (-want +got):\n%s", diff)
	}
}

func TestHandleMessageSkipsNonCandidates(t *testing.T) {
	hook := model.User{ID: "900", Username: "hook", Bot: true}

	tests := []struct {
		name string
		msg  model.Message
	}{
		{"own message", moneypennyMessage(operator, "")},
		{"prefixed message", moneypennyMessage(hook, ".filterlists")},
		{
			name: "human without webhook",
			msg: func() model.Message {
				m := moneypennyMessage(model.User{ID: "300", Username: "human"}, "")
				m.WebhookID = ""
				return m
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, list := newTestBot(t)
			d := &mockDispatcher{}
			b.LoadExtensions(MonitorExtension(d))
			seedFilters(t, list, "cat")

			b.HandleMessage(context.Background(), tt.msg)

			if d.count() != 0 {
				t.Errorf("alerts = %d, want 0", d.count())
			}
		})
	}
}

func TestHandleMessageDeliveryFailure(t *testing.T) {
	b, api, list := newTestBot(t)
	d := &mockDispatcher{err: &notify.DeliveryError{Sink: "webhook", Status: 500, Err: errors.New("boom")}}
	b.LoadExtensions(MonitorExtension(d))
	seedFilters(t, list, "cat")

	b.HandleMessage(context.Background(), moneypennyMessage(model.User{ID: "900", Bot: true}, ""))

	if got := api.allTexts(); len(got) != 0 {
		t.Errorf("expected no replies, got %v", got)
	}
}

func TestHandleMessageCustomDetector(t *testing.T) {
	b, _, list := newTestBot(t)
	d := &mockDispatcher{}
	b.LoadExtensions(MonitorExtension(d))
	b.SetDetector(neverAutomated{})
	seedFilters(t, list, "cat")

	b.HandleMessage(context.Background(), moneypennyMessage(model.User{ID: "900", Bot: true, Discriminator: "0000"}, ""))

	if d.count() != 0 {
		t.Errorf("alerts = %d, want 0", d.count())
	}
}

type neverAutomated struct{}

func (neverAutomated) Automated(model.Message) bool { return false }

func TestLoadExtensions(t *testing.T) {
	b, _, _ := newTestBot(t)
	b.cfg.WebhookURL = ""

	loaded := b.LoadExtensions(StartExtension(), MonitorExtension(&mockDispatcher{}), FiltersExtension())

	if diff := cmp.Diff([]string{"start", "filters"}, loaded); diff != "" {
		t.Errorf("loaded (-want +got):\n%s", diff)
	}
	if b.monitor != nil {
		t.Error("monitor should not be enabled without a webhook URL")
	}
	for _, name := range []string{"help", "filteradd", "addfilter", "filterremove", "removefilter", "filterlists", "listfilters", "listfilter", "filterlist", "clearfilters", "filtersclear"} {
		if _, ok := b.commands[name]; !ok {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRun(t *testing.T) {
	b, api, _ := newTestBot(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	waitFor(t, "gateway open", func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.opened
	})
	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.closed {
		t.Error("gateway was not closed")
	}
	if len(api.handlers) != 2 {
		t.Errorf("handlers = %d, want 2", len(api.handlers))
	}
}

func TestRunOpenError(t *testing.T) {
	b, api, _ := newTestBot(t)
	api.openErr = errors.New("invalid token")

	if err := b.Run(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestOnReadySetsSelf(t *testing.T) {
	b, _, _ := newTestBot(t)

	b.onReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "7", Username: "agent", GlobalName: "Agent Seven"}})

	self := b.Self()
	if diff := cmp.Diff("7", self.ID); diff != "" {
		t.Errorf("self ID (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Agent Seven", self.DisplayName()); diff != "" {
		t.Errorf("display name (-want +got):\n%s", diff)
	}
}
