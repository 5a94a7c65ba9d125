package registry

// ToolRegistry is the catalog of search tools callers may name.
type ToolRegistry struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Tools       []Tool `json:"tools"`
}

// Tool maps a caller-facing id onto the backend actor that runs it.
type Tool struct {
	ID          string                 `json:"id"`
	BackendName string                 `json:"backendName"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description"`
	Source      string                 `json:"source"`
	Enabled     bool                   `json:"enabled"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
}
