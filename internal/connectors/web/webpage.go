package web

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

// FetchWebpage retrieves a webpage and converts it to a single document
// of extracted text.
func (c *Client) FetchWebpage(ctx context.Context, url string) ([]domain.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	text := StripHTML(string(body))
	if text == "" {
		return nil, fmt.Errorf("webpage %s: no extractable text", url)
	}

	doc := domain.Document{
		ID:   uuid.New().String(),
		Text: text,
		Metadata: map[string]any{
			"url":         url,
			"source_type": string(domain.SourceWebpage),
		},
	}
	return []domain.Document{doc}, nil
}
