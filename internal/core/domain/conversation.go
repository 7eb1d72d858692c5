package domain

// Message roles used in conversation memory and LLM calls.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MemoryState describes the conversation memory backing a session.
// It is reported alongside every response so callers can reason about
// context loss.
type MemoryState struct {
	// Type is "window" or "summary".
	Type string `json:"type"`

	// MessageCount is the number of turns currently held.
	MessageCount int `json:"message_count"`

	// HasSummary reports whether a synthetic summary turn is present.
	HasSummary bool `json:"has_summary"`
}

// Source attributes one retrieved chunk backing an answer.
type Source struct {
	// Number is the 1-indexed position in the attribution list.
	Number int `json:"number"`

	// Text is the chunk text, truncated to 200 characters with an
	// ellipsis appended when truncation occurred.
	Text string `json:"text"`

	URL        string  `json:"url"`
	SourceType string  `json:"source_type"`
	Score      float64 `json:"score"`
}

// ToolUsage reports whether a tool ran during a turn and what it returned.
type ToolUsage struct {
	ToolUsed   bool `json:"tool_used"`
	ToolResult any  `json:"tool_result"`
}

// QueryResult is the per-turn output of the query processor.
type QueryResult struct {
	Response    string      `json:"response"`
	Sources     []Source    `json:"sources"`
	ToolUsage   *ToolUsage  `json:"tool_usage,omitempty"`
	MemoryState MemoryState `json:"memory_state"`
}
