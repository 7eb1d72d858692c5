package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/core/ports/driven"
	"github.com/custodia-labs/corpora/internal/logger"
	"github.com/custodia-labs/corpora/internal/tokens"
)

// summaryKeepTurns is the number of most recent turns kept verbatim
// when older history is summarised.
const summaryKeepTurns = 4

// summaryMaxTokens caps the length of a generated summary.
const summaryMaxTokens = 512

const summaryPrompt = "Summarize the following conversation concisely, " +
	"preserving any facts, dataset names, identifiers and user goals " +
	"that later turns may refer back to:\n\n%s"

// SummaryBuffer keeps recent turns verbatim and collapses overflowing
// history into a single synthetic summary turn generated by a language
// model. When summarisation fails it degrades to window eviction.
type SummaryBuffer struct {
	counter *tokens.Counter
	llm     driven.LLMService
	limit   int

	mu       sync.Mutex
	summary  string
	messages []driven.ChatMessage
}

// NewSummaryBuffer creates a summary buffer. A non-positive limit
// falls back to the default conversation budget.
func NewSummaryBuffer(counter *tokens.Counter, llm driven.LLMService, limit int) *SummaryBuffer {
	if limit <= 0 {
		limit = tokens.DefaultMaxConversationTokens
	}
	return &SummaryBuffer{counter: counter, llm: llm, limit: limit}
}

// Append records a turn. When the history exceeds the token limit the
// oldest turns are summarised into the summary turn.
func (s *SummaryBuffer) Append(ctx context.Context, msg driven.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	if s.tokensLocked() <= s.limit {
		return nil
	}
	return s.summariseLocked(ctx)
}

// summariseLocked folds everything but the newest turns into the
// summary. Callers hold s.mu.
func (s *SummaryBuffer) summariseLocked(ctx context.Context) error {
	if len(s.messages) <= summaryKeepTurns {
		return nil
	}

	old := s.messages[:len(s.messages)-summaryKeepTurns]
	recent := s.messages[len(s.messages)-summaryKeepTurns:]

	var transcript strings.Builder
	if s.summary != "" {
		transcript.WriteString("Previous summary: ")
		transcript.WriteString(s.summary)
		transcript.WriteString("\n\n")
	}
	for _, m := range old {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	summary, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: domain.RoleUser, Content: fmt.Sprintf(summaryPrompt, transcript.String())},
	}, driven.ChatOptions{MaxTokens: summaryMaxTokens})
	if err != nil {
		logger.Warn("memory: summarisation failed, evicting oldest turns: %v", err)
		s.messages = recent
		return nil
	}

	s.summary = strings.TrimSpace(summary)
	s.messages = recent
	return nil
}

// Messages returns the summary turn (when present) followed by the
// retained history, oldest first.
func (s *SummaryBuffer) Messages() []driven.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []driven.ChatMessage
	if s.summary != "" {
		out = append(out, driven.ChatMessage{
			Role:    domain.RoleSystem,
			Content: "Summary of earlier conversation: " + s.summary,
		})
	}
	out = append(out, s.messages...)
	return out
}

// TokenCount returns the token total of the retained history including
// the summary turn.
func (s *SummaryBuffer) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokensLocked()
}

func (s *SummaryBuffer) tokensLocked() int {
	total := messagesTokens(s.counter, s.messages)
	if s.summary != "" {
		total += s.counter.Count(s.summary)
	}
	return total
}

// State describes the buffer for query responses.
func (s *SummaryBuffer) State() domain.MemoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := len(s.messages)
	if s.summary != "" {
		count++
	}
	return domain.MemoryState{
		Type:         "summary",
		MessageCount: count,
		HasSummary:   s.summary != "",
	}
}

// Reset discards all history and the summary.
func (s *SummaryBuffer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = ""
	s.messages = nil
}

var _ ConversationMemory = (*SummaryBuffer)(nil)
