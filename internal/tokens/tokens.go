// Package tokens counts model tokens and enforces input budgets.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Encoding is the tokenizer encoding used for all counting.
const Encoding = "cl100k_base"

// DefaultMaxMessageTokens is the per-message input budget.
const DefaultMaxMessageTokens = 4096

// DefaultMaxConversationTokens is the conversation memory budget.
const DefaultMaxConversationTokens = 8192

// Counter counts tokens using a tiktoken encoding.
// It is safe for concurrent use.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter creates a Counter with the cl100k_base encoding.
func NewCounter() (*Counter, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("tokens: load encoding %s: %w", Encoding, err)
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Budget gates inputs against a maximum token count.
type Budget struct {
	counter *Counter
	max     int
}

// NewBudget creates a Budget over the given counter. A non-positive
// max falls back to DefaultMaxMessageTokens.
func NewBudget(counter *Counter, max int) *Budget {
	if max <= 0 {
		max = DefaultMaxMessageTokens
	}
	return &Budget{counter: counter, max: max}
}

// Max returns the budget's token limit.
func (b *Budget) Max() int {
	return b.max
}

// Check returns the token count of text and whether it fits the budget.
func (b *Budget) Check(text string) (int, bool) {
	n := b.counter.Count(text)
	return n, n <= b.max
}

// RejectionMessage is the response returned for over-budget input.
func (b *Budget) RejectionMessage() string {
	return fmt.Sprintf(
		"I apologize, but your input is too long. Please provide a shorter query (maximum %d tokens).",
		b.max,
	)
}
