package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/corpora/internal/config"
	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/memory"
	"github.com/custodia-labs/corpora/internal/query"
	"github.com/custodia-labs/corpora/internal/tokens"
	"github.com/custodia-labs/corpora/internal/tools"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions against the indexed corpus",
	Long: `Starts an interactive session. Each question is answered from the
vector index, optionally augmented with live metadata API lookups.
Type "exit" or "quit" to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, store, err := newBuilder(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Load(cmd.Context()); err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	if store.Len() == 0 {
		return fmt.Errorf("index at %s is empty, run `corpora index` first", cfg.StorageDir)
	}

	llm, err := anthropic.NewLLMService(anthropic.Config{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
	})
	if err != nil {
		return err
	}
	if err := llm.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("llm service unreachable: %w", err)
	}

	counter, err := tokens.NewCounter()
	if err != nil {
		return fmt.Errorf("init tokenizer: %w", err)
	}

	mem, err := newMemory(cfg, counter)
	if err != nil {
		return err
	}

	processor := query.New(
		store,
		llm,
		mem,
		tokens.NewBudget(counter, cfg.Limits.MaxMessageTokens),
		tools.NewClient(cfg.Tools.BaseURL),
	)

	cmd.Printf("Chatting against %d indexed chunks. Type \"exit\" to leave.\n", store.Len())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result, err := processor.Query(cmd.Context(), line)
		if err != nil {
			return err
		}
		cmd.Println(renderResult(result))
	}
	return scanner.Err()
}

// newMemory picks the conversation buffer. A configured fast model gets
// a summarising buffer backed by a second LLM service on that model;
// without one, older turns fall out of a sliding window instead.
func newMemory(cfg config.Config, counter *tokens.Counter) (memory.ConversationMemory, error) {
	if cfg.LLM.FastModel == "" {
		return memory.NewWindowBuffer(counter, cfg.Limits.MaxTotalTokens), nil
	}
	summarizer, err := anthropic.NewLLMService(anthropic.Config{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.FastModel,
	})
	if err != nil {
		return nil, err
	}
	return memory.NewSummaryBuffer(counter, summarizer, cfg.Limits.MaxTotalTokens), nil
}

// renderResult formats a query result with its numbered source list.
func renderResult(result domain.QueryResult) string {
	var b strings.Builder
	b.WriteString(result.Response)
	b.WriteString("\n")
	if len(result.Sources) > 0 {
		b.WriteString("\n\n**Sources:**\n")
		for _, src := range result.Sources {
			fmt.Fprintf(&b, "%d. %s\n", src.Number, src.URL)
			fmt.Fprintf(&b, "   Relevance score: %.2f\n", src.Score)
		}
	}
	return b.String()
}
