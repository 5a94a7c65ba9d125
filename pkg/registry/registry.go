package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

func LoadRegistry(path string) (*ToolRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ToolRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrDefault reads path, falling back to the built-in catalog when the file does not exist.
func LoadOrDefault(path string) (*ToolRegistry, error) {
	reg, err := LoadRegistry(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return reg, err
}

func (r *ToolRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Find looks a tool up by caller-facing id or backend name.
func (r *ToolRegistry) Find(name string) (*Tool, bool) {
	for i := range r.Tools {
		if r.Tools[i].ID == name || r.Tools[i].BackendName == name {
			return &r.Tools[i], true
		}
	}
	return nil, false
}

// Resolve returns the backend name for name. Unknown names pass through unchanged.
func (r *ToolRegistry) Resolve(name string) string {
	if t, ok := r.Find(name); ok && t.BackendName != "" {
		return t.BackendName
	}
	return name
}

// Upsert replaces the tool with the same id or appends it.
func (r *ToolRegistry) Upsert(tool Tool) {
	for i := range r.Tools {
		if r.Tools[i].ID == tool.ID {
			r.Tools[i] = tool
			return
		}
	}
	r.Tools = append(r.Tools, tool)
}

// Validate reports structural problems: blank or duplicate ids, missing backend names.
func (r *ToolRegistry) Validate() []string {
	var problems []string
	seen := make(map[string]bool)
	for i, t := range r.Tools {
		switch {
		case t.ID == "":
			problems = append(problems, fmt.Sprintf("tool #%d has no id", i))
			continue
		case seen[t.ID]:
			problems = append(problems, fmt.Sprintf("duplicate tool id %q", t.ID))
		}
		seen[t.ID] = true
		if t.BackendName == "" {
			problems = append(problems, fmt.Sprintf("tool %q has no backendName", t.ID))
		}
	}
	sort.Strings(problems)
	return problems
}

// Default is the built-in catalog of rental search tools.
func Default() *ToolRegistry {
	return &ToolRegistry{
		Version:     "1.0.0",
		LastUpdated: "2025-06-01T00:00:00Z",
		Tools: []Tool{
			{
				ID:          "jupri_zillow_scraper",
				BackendName: "jupri-slash-zillow-scraper",
				DisplayName: "Zillow",
				Description: `Search Zillow for rentals. Use a detailed "prompt" for all criteria; "search_type" must be "rent".`,
				Source:      "zillow",
				Enabled:     true,
				InputSchema: object(map[string]interface{}{
					"prompt":      prop("string", "Natural language query or a full Zillow search URL"),
					"search_type": enumProp("Must be \"rent\"", "rent"),
					"limit":       prop("integer", "Number of results (1-1000)"),
				}, "prompt", "search_type"),
				Tags: []string{"rent", "houses"},
			},
			{
				ID:          "epctex_apartments_scraper",
				BackendName: "epctex-slash-apartments-scraper",
				DisplayName: "Apartments.com",
				Description: "Search Apartments.com listings.",
				Source:      "apartments",
				Enabled:     true,
				Tags:        []string{"rent", "apartments"},
			},
			{
				ID:          "epctex_realtor_scraper",
				BackendName: "epctex-slash-realtor-scraper",
				DisplayName: "Realtor.com",
				Description: "Search Realtor.com rentals.",
				Source:      "realtor",
				Enabled:     true,
				Tags:        []string{"rent", "houses"},
			},
			{
				ID:          "epctex_apartmentlist_scraper",
				BackendName: "epctex-slash-apartmentlist-scraper",
				DisplayName: "ApartmentList",
				Description: "Search ApartmentList; each available unit becomes one listing.",
				Source:      "apartmentlist",
				Enabled:     true,
				Tags:        []string{"rent", "apartments", "units"},
			},
			{
				ID:          "epctex-slash-redfin-scraper",
				BackendName: "epctex-slash-redfin-scraper",
				DisplayName: "Redfin",
				Description: "Search for rental properties on Redfin.",
				Source:      "redfin",
				Enabled:     true,
				InputSchema: object(map[string]interface{}{
					"location":     prop("string", "City, State, or ZIP Code"),
					"maxPrice":     prop("number", "Max rent price"),
					"bedrooms":     prop("number", "Number of bedrooms"),
					"propertyType": enumProp("Property type", "apartment", "house", "condo", "townhouse", "any"),
					"query":        prop("string", "General query"),
				}, "location"),
				Tags: []string{"rent"},
			},
			{
				ID:          "ivanvs-slash-craigslist-scraper",
				BackendName: "ivanvs-slash-craigslist-scraper",
				DisplayName: "Craigslist",
				Description: "Search Craigslist for rentals.",
				Source:      "craigslist",
				Enabled:     true,
				InputSchema: object(map[string]interface{}{
					"location": prop("string", "Craigslist city/subdomain (e.g. sfbay)"),
					"maxPrice": prop("number", "Max rent price"),
					"bedrooms": prop("number", "Number of bedrooms"),
					"query":    prop("string", "Search query"),
				}, "location", "query"),
				Tags: []string{"rent"},
			},
		},
	}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	req := make([]interface{}, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   req,
	}
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func enumProp(description string, values ...string) map[string]interface{} {
	enum := make([]interface{}, 0, len(values))
	for _, v := range values {
		enum = append(enum, v)
	}
	return map[string]interface{}{"type": "string", "enum": enum, "description": description}
}
