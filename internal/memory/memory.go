// Package memory maintains bounded conversation history for the query
// engine. Two strategies are provided: a sliding window that drops the
// oldest turns, and a summarising buffer that collapses them into a
// summary turn using a language model.
package memory

import (
	"context"

	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/core/ports/driven"
	"github.com/custodia-labs/corpora/internal/tokens"
)

// ConversationMemory is bounded conversation history.
type ConversationMemory interface {
	// Append records a turn. The summarising implementation may call
	// the language model when the buffer overflows.
	Append(ctx context.Context, msg driven.ChatMessage) error

	// Messages returns the retained history oldest first.
	Messages() []driven.ChatMessage

	// TokenCount returns the token total of the retained history.
	TokenCount() int

	// State describes the memory for query responses.
	State() domain.MemoryState

	// Reset discards all history.
	Reset()
}

// messagesTokens sums the token counts of a message slice.
func messagesTokens(counter *tokens.Counter, msgs []driven.ChatMessage) int {
	total := 0
	for _, m := range msgs {
		total += counter.Count(m.Content)
	}
	return total
}
