package models

import "time"

// UnifiedProperty is the normalized listing every source is converted into.
type UnifiedProperty struct {
	ID           string       `json:"id"`
	Source       string       `json:"source"`
	Title        string       `json:"title"`
	Price        string       `json:"price"`
	PriceNumeric float64      `json:"priceNumeric"`
	Location     string       `json:"location"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	ZipCode      string       `json:"zipCode"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    float64      `json:"bathrooms"`
	Area         string       `json:"area"`
	AreaNumeric  float64      `json:"areaNumeric"`
	Images       []string     `json:"images"`
	Description  string       `json:"description"`
	URL          string       `json:"url"`
	PropertyType string       `json:"propertyType"`
	HomeStatus   string       `json:"homeStatus"`
	ScrapedAt    time.Time    `json:"scrapedAt"`
	Features     []string     `json:"features"`
	Amenities    []string     `json:"amenities"`
	ContactInfo  *ContactInfo `json:"contactInfo,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Availability string       `json:"availability,omitempty"`
}

type ContactInfo struct {
	Phone     string `json:"phone,omitempty"`
	AgentName string `json:"agentName,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// JobHandle identifies a remote run and/or its result dataset.
type JobHandle struct {
	RunID     string `json:"runId,omitempty"`
	DatasetID string `json:"datasetId,omitempty"`
}

// Valid reports whether the handle carries anything that can be polled or fetched.
func (h JobHandle) Valid() bool {
	return h.RunID != "" || h.DatasetID != ""
}

// RunStatus is the lifecycle state reported by the run-status endpoint.
type RunStatus string

const (
	RunStatusReady     RunStatus = "READY"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusTimedOut  RunStatus = "TIMED-OUT"
	RunStatusTimingOut RunStatus = "TIMING-OUT"
	RunStatusAborted   RunStatus = "ABORTED"
	RunStatusAborting  RunStatus = "ABORTING"
)

// Failed reports whether the run ended without producing a dataset.
func (s RunStatus) Failed() bool {
	switch s {
	case RunStatusFailed, RunStatusTimedOut, RunStatusAborted, "TIMED_OUT":
		return true
	}
	return false
}

// SearchRequest is one tool invocation within a multi-source search.
type SearchRequest struct {
	ToolName  string                 `json:"toolName"`
	ToolInput map[string]interface{} `json:"toolInput"`
}

// SourceResult summarizes what one source contributed to a search.
type SourceResult struct {
	ToolName string `json:"toolName"`
	Backend  string `json:"backend"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
}
