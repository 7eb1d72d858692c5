package web

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

// notebook is the subset of the Jupyter notebook format we read.
// Cell sources are either a string or a list of line strings.
type notebook struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// FetchNotebook retrieves an .ipynb URL and converts its cells into one
// document. Markdown cells pass through as-is; code cells keep their
// source so the code-aware splitter can segment them.
func (c *Client) FetchNotebook(ctx context.Context, url string) ([]domain.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var nb notebook
	if err := json.Unmarshal(body, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook from %s: %w", url, err)
	}
	if len(nb.Cells) == 0 {
		return nil, fmt.Errorf("notebook %s: no cells", url)
	}

	var parts []string
	for _, cell := range nb.Cells {
		src := cellSource(cell.Source)
		if strings.TrimSpace(src) == "" {
			continue
		}
		parts = append(parts, src)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("notebook %s: no cell content", url)
	}

	doc := domain.Document{
		ID:   uuid.New().String(),
		Text: strings.Join(parts, "\n\n"),
		Metadata: map[string]any{
			"url":         url,
			"source_type": string(domain.SourceNotebook),
			"file_path":   pathForURL(url, ".ipynb"),
		},
	}
	return []domain.Document{doc}, nil
}

// cellSource decodes a cell source that is either a single string or a
// list of line strings.
func cellSource(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	return ""
}
