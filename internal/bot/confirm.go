package bot

import (
	"context"
	"strings"
	"sync"

	"penny_watch/internal/model"
)

// ConfirmState tracks a destructive command waiting for a yes/no reply.
type ConfirmState int

// Confirmation states.
const (
	Idle ConfirmState = iota
	AwaitingConfirmation
	Confirmed
	Cancelled
	TimedOut
)

func (s ConfirmState) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

type waiter struct {
	match func(model.Message) bool
	ch    chan model.Message
}

// waiters hands inbound messages to commands blocked on a reply.
type waiters struct {
	mu      sync.Mutex
	next    int
	pending map[int]*waiter
}

func newWaiters() *waiters {
	return &waiters{pending: make(map[int]*waiter)}
}

func (w *waiters) add(match func(model.Message) bool) (int, <-chan model.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next++
	ch := make(chan model.Message, 1)
	w.pending[w.next] = &waiter{match: match, ch: ch}
	return w.next, ch
}

func (w *waiters) remove(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, id)
}

func (w *waiters) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// offer delivers msg to every waiter it satisfies. A waiter receives at most
// one message and is dropped once served.
func (w *waiters) offer(msg model.Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	served := false
	for id, wt := range w.pending {
		if !wt.match(msg) {
			continue
		}
		wt.ch <- msg
		delete(w.pending, id)
		served = true
	}
	return served
}

func isYesNo(content string) bool {
	return strings.EqualFold(content, "yes") || strings.EqualFold(content, "no")
}

// awaitConfirmation sends prompt and waits for author to answer yes or no in
// the same channel. The wait is registered before the prompt goes out.
func (b *Bot) awaitConfirmation(ctx context.Context, channelID string, author model.User, prompt string) ConfirmState {
	id, replies := b.waiters.add(func(m model.Message) bool {
		return m.Author.ID == author.ID && m.ChannelID == channelID && isYesNo(m.Content)
	})
	defer b.waiters.remove(id)

	state := AwaitingConfirmation
	b.reply(channelID, prompt)
	b.log.Debug("confirmation", "state", state, "channel_id", channelID, "author_id", author.ID)

	ctx, cancel := context.WithTimeout(ctx, b.confirmTimeout)
	defer cancel()

	select {
	case m := <-replies:
		if strings.EqualFold(m.Content, "yes") {
			state = Confirmed
		} else {
			state = Cancelled
		}
	case <-ctx.Done():
		state = TimedOut
	}

	b.log.Debug("confirmation", "state", state, "channel_id", channelID, "author_id", author.ID)
	return state
}
