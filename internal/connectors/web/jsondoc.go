package web

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

// FetchJSON retrieves a JSON endpoint and converts the payload into one
// document of "path: value" lines so individual records stay adjacent
// for the record-aware splitter.
func (c *Client) FetchJSON(ctx context.Context, url string) ([]domain.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse json from %s: %w", url, err)
	}

	var sb strings.Builder
	flattenJSON(&sb, "", payload)
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("json %s: empty payload", url)
	}

	doc := domain.Document{
		ID:   uuid.New().String(),
		Text: text,
		Metadata: map[string]any{
			"url":         url,
			"source_type": string(domain.SourceJSON),
			"file_path":   pathForURL(url, ".json"),
		},
	}
	return []domain.Document{doc}, nil
}

// flattenJSON renders a parsed JSON value as indented "key: value" lines.
// Object keys are visited in sorted order for stable output.
func flattenJSON(sb *strings.Builder, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSON(sb, joinPath(prefix, k), val[k])
		}
	case []any:
		for i, item := range val {
			flattenJSON(sb, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
	case nil:
		fmt.Fprintf(sb, "%s: null\n", prefix)
	default:
		fmt.Fprintf(sb, "%s: %v\n", prefix, val)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// pathForURL derives a file_path metadata value from a URL so the
// splitter can dispatch on extension. URLs that already end with the
// extension keep their final path segment.
func pathForURL(url, ext string) string {
	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	last := trimmed
	if idx >= 0 {
		last = trimmed[idx+1:]
	}
	if strings.HasSuffix(strings.ToLower(last), ext) {
		return last
	}
	return last + ext
}
