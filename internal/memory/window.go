package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/core/ports/driven"
	"github.com/custodia-labs/corpora/internal/tokens"
)

// WindowBuffer keeps the most recent turns that fit a token limit,
// dropping the oldest first. System messages are never dropped.
type WindowBuffer struct {
	counter *tokens.Counter
	limit   int

	mu       sync.Mutex
	messages []driven.ChatMessage
}

// NewWindowBuffer creates a window buffer. A non-positive limit falls
// back to the default conversation budget.
func NewWindowBuffer(counter *tokens.Counter, limit int) *WindowBuffer {
	if limit <= 0 {
		limit = tokens.DefaultMaxConversationTokens
	}
	return &WindowBuffer{counter: counter, limit: limit}
}

// Append records a turn and evicts the oldest non-system turns until
// the history fits the token limit.
func (w *WindowBuffer) Append(_ context.Context, msg driven.ChatMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.messages = append(w.messages, msg)
	w.evictLocked()
	return nil
}

func (w *WindowBuffer) evictLocked() {
	for messagesTokens(w.counter, w.messages) > w.limit {
		dropped := false
		for i, m := range w.messages {
			if m.Role == domain.RoleSystem {
				continue
			}
			w.messages = append(w.messages[:i], w.messages[i+1:]...)
			dropped = true
			break
		}
		if !dropped {
			return
		}
	}
}

// Messages returns the retained history oldest first.
func (w *WindowBuffer) Messages() []driven.ChatMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]driven.ChatMessage, len(w.messages))
	copy(out, w.messages)
	return out
}

// TokenCount returns the token total of the retained history.
func (w *WindowBuffer) TokenCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return messagesTokens(w.counter, w.messages)
}

// State describes the buffer for query responses.
func (w *WindowBuffer) State() domain.MemoryState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.MemoryState{
		Type:         "window",
		MessageCount: len(w.messages),
		HasSummary:   false,
	}
}

// Reset discards all history.
func (w *WindowBuffer) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = nil
}

var _ ConversationMemory = (*WindowBuffer)(nil)
