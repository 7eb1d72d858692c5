// Package tools executes metadata API calls requested by the language
// model through an inline marker protocol. The model asks for a tool by
// emitting a TOOL_REQUEST marker; the query engine extracts it,
// executes the call and feeds the result back for a final answer.
package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Tool names the model may request.
const (
	SearchDatasets     = "search_datasets"
	ListCollections    = "list_collections"
	GetDatasetDetails  = "get_dataset_details"
	SearchPublications = "search_publications"
)

// Default result limits applied when a request omits them.
const (
	DefaultSearchLimit = 5
	DefaultListLimit   = 10
)

// Request is a parsed tool invocation from a model response.
type Request struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

var (
	markerRe = regexp.MustCompile(`TOOL_REQUEST: ({.*})`)
	stripRe  = regexp.MustCompile(`TOOL_REQUEST: {.*}`)
)

// ParseRequest scans a model response for a tool request marker.
// It returns the parsed request and the response with the marker
// removed. A response without a marker is returned unchanged with a
// nil request; a marker that fails to parse is stripped and ignored.
func ParseRequest(response string) (*Request, string) {
	match := markerRe.FindStringSubmatch(response)
	if match == nil {
		return nil, response
	}

	clean := strings.TrimSpace(stripRe.ReplaceAllString(response, ""))

	var req Request
	if err := json.Unmarshal([]byte(match[1]), &req); err != nil {
		return nil, clean
	}
	if req.Tool == "" {
		return nil, clean
	}
	return &req, clean
}

// Descriptions lists the available tools for the system prompt.
func Descriptions() string {
	return `Available tools:
- search_datasets: Search for datasets based on keywords
- list_collections: List available collections in BossDB
- get_dataset_details: Get detailed information about a specific dataset
- search_publications: Search for publications related to datasets`
}

// FollowUpPrompt builds the prompt that feeds a tool result back to the
// model for the final answer.
func FollowUpPrompt(cleanResponse string, result any) string {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", result))
	}
	return fmt.Sprintf(`Based on the initial response:
%s

And the tool results:
%s

Please provide a complete and coherent response incorporating both the tool data and the context.`,
		cleanResponse, payload)
}
