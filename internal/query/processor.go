// Package query implements the conversational query engine: a
// token-budget gate, context retrieval from the vector store, tool-call
// orchestration over the model's output and source attribution.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/core/ports/driven"
	"github.com/custodia-labs/corpora/internal/logger"
	"github.com/custodia-labs/corpora/internal/memory"
	"github.com/custodia-labs/corpora/internal/tokens"
	"github.com/custodia-labs/corpora/internal/tools"
)

const (
	// DefaultTopK is the number of chunks retrieved per turn.
	DefaultTopK = 5

	// sourceTextLimit caps the chunk text surfaced in attributions.
	sourceTextLimit = 200

	genericErrorResponse = "I encountered an error processing your query. Please try again."

	unknownSourceURL  = "Unknown source"
	unknownSourceType = "Unknown type"
)

const systemPromptFormat = `You are an AI assistant specialized in providing information about BossDB, its tools, and related neuroscience data. You have access to both a knowledge base and real-time API tools for querying BossDB metadata.

%s

When you need to use a tool, format your response as:
TOOL_REQUEST: {"tool": "tool_name", "params": {"param1": "value1"}}

After receiving tool results, provide a complete and coherent response incorporating both the tool data and relevant context from the knowledge base.`

// Processor answers user queries against the indexed corpus. Turns are
// sequential within a Processor; separate sessions get separate
// Processors and may run concurrently.
type Processor struct {
	store    driven.VectorStore
	llm      driven.LLMService
	mem      memory.ConversationMemory
	budget   *tokens.Budget
	executor tools.Executor
	topK     int
}

// Option configures a Processor.
type Option func(*Processor)

// WithTopK sets how many chunks are retrieved per turn.
func WithTopK(k int) Option {
	return func(p *Processor) {
		if k > 0 {
			p.topK = k
		}
	}
}

// New creates a Processor. The executor may be nil, in which case tool
// requests degrade to the marker-stripped text.
func New(store driven.VectorStore, llm driven.LLMService, mem memory.ConversationMemory,
	budget *tokens.Budget, executor tools.Executor, opts ...Option) *Processor {
	p := &Processor{
		store:    store,
		llm:      llm,
		mem:      mem,
		budget:   budget,
		executor: executor,
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Query runs one conversational turn: budget gate, retrieval-augmented
// model call, tool orchestration and source attribution. Memory is
// appended only after the turn fully succeeds, so a failed turn leaves
// the conversation unchanged.
func (p *Processor) Query(ctx context.Context, userQuery string) (domain.QueryResult, error) {
	if count, ok := p.budget.Check(userQuery); !ok {
		logger.Warn("query: input of %d tokens over the %d budget, rejecting", count, p.budget.Max())
		return domain.QueryResult{
			Response:    p.budget.RejectionMessage(),
			Sources:     []domain.Source{},
			MemoryState: p.mem.State(),
		}, nil
	}

	result, err := p.answer(ctx, userQuery)
	if err != nil {
		logger.Error("query: %v", err)
		return domain.QueryResult{
			Response:    genericErrorResponse,
			Sources:     []domain.Source{},
			MemoryState: p.mem.State(),
		}, nil
	}
	return result, nil
}

func (p *Processor) answer(ctx context.Context, userQuery string) (domain.QueryResult, error) {
	retrieved, err := p.store.Query(ctx, userQuery, p.topK)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("retrieve context: %w", err)
	}

	initial, err := p.chat(ctx, retrieved, userQuery)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("initial response: %w", err)
	}

	final, usage := p.resolveTools(ctx, retrieved, initial)

	if err := p.mem.Append(ctx, driven.ChatMessage{Role: domain.RoleUser, Content: userQuery}); err != nil {
		return domain.QueryResult{}, fmt.Errorf("append user turn: %w", err)
	}
	if err := p.mem.Append(ctx, driven.ChatMessage{Role: domain.RoleAssistant, Content: final}); err != nil {
		return domain.QueryResult{}, fmt.Errorf("append assistant turn: %w", err)
	}

	return domain.QueryResult{
		Response:    final,
		Sources:     attributeSources(retrieved),
		ToolUsage:   usage,
		MemoryState: p.mem.State(),
	}, nil
}

// resolveTools scans the model output for a tool request. Parse
// failures, unknown tools and execution errors all degrade to the
// marker-stripped text, never to an error.
func (p *Processor) resolveTools(ctx context.Context, retrieved []domain.ScoredChunk, initial string) (string, *domain.ToolUsage) {
	req, clean := tools.ParseRequest(initial)
	if req == nil || p.executor == nil {
		return clean, nil
	}

	result, err := p.executor.Execute(ctx, *req)
	if err != nil {
		logger.Error("query: tool %s failed: %v", req.Tool, err)
		return clean, nil
	}

	final, err := p.chat(ctx, retrieved, tools.FollowUpPrompt(clean, result))
	if err != nil {
		logger.Error("query: follow-up response failed: %v", err)
		return clean, nil
	}
	return final, &domain.ToolUsage{ToolUsed: true, ToolResult: result}
}

// chat makes one model call with the system prompt, retrieved context,
// conversation memory and the user-role prompt.
func (p *Processor) chat(ctx context.Context, retrieved []domain.ScoredChunk, prompt string) (string, error) {
	messages := []driven.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(systemPromptFormat, tools.Descriptions())},
	}
	if ctxBlock := contextBlock(retrieved); ctxBlock != "" {
		messages = append(messages, driven.ChatMessage{Role: domain.RoleSystem, Content: ctxBlock})
	}
	messages = append(messages, p.mem.Messages()...)
	messages = append(messages, driven.ChatMessage{Role: domain.RoleUser, Content: prompt})

	return p.llm.Chat(ctx, messages, driven.ChatOptions{})
}

// contextBlock renders retrieved chunks into a system turn.
func contextBlock(retrieved []domain.ScoredChunk) string {
	if len(retrieved) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Context information from the knowledge base:\n")
	for _, sc := range retrieved {
		b.WriteString("\n---\n")
		b.WriteString(sc.Chunk.Text)
	}
	return b.String()
}

// attributeSources converts retrieved chunks into the 1-indexed
// attribution list surfaced with every answer.
func attributeSources(retrieved []domain.ScoredChunk) []domain.Source {
	sources := make([]domain.Source, 0, len(retrieved))
	for i, sc := range retrieved {
		text := sc.Chunk.Text
		if runes := []rune(text); len(runes) > sourceTextLimit {
			text = string(runes[:sourceTextLimit]) + "..."
		}
		url := sc.Chunk.URL()
		if url == "" {
			url = unknownSourceURL
		}
		sourceType := sc.Chunk.SourceType()
		if sourceType == "" {
			sourceType = unknownSourceType
		}
		sources = append(sources, domain.Source{
			Number:     i + 1,
			Text:       text,
			URL:        url,
			SourceType: sourceType,
			Score:      sc.Score,
		})
	}
	return sources
}
