package searchproperties

import "rental-aggregator/internal/models"

type Input struct {
	ToolName  string                 `json:"toolName"`
	ToolInput map[string]interface{} `json:"toolInput"`
}

// Output mirrors the tool result a chat layer feeds back to its model.
type Output struct {
	Success    bool                     `json:"success"`
	Properties []models.UnifiedProperty `json:"properties"`
	Count      int                      `json:"count"`
	Message    string                   `json:"message"`
	Sources    []string                 `json:"sources"`
}
