package searchallsources

import "rental-aggregator/internal/models"

type Input struct {
	Searches []models.SearchRequest `json:"searches"`
}

type Output struct {
	Success       bool                     `json:"success"`
	Properties    []models.UnifiedProperty `json:"properties"`
	Count         int                      `json:"count"`
	Message       string                   `json:"message"`
	Sources       []string                 `json:"sources"`
	SourceResults []models.SourceResult    `json:"sourceResults"`
}
