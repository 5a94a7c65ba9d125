package rankproperties

import "rental-aggregator/internal/models"

// Input carries the listings to rank and the caller's preferences. Zero preferences are ignored.
type Input struct {
	Properties []models.UnifiedProperty `json:"properties"`
	MaxPrice   float64                  `json:"maxPrice"`
	Bedrooms   *int                     `json:"bedrooms,omitempty"`
}

type RankedProperty struct {
	models.UnifiedProperty
	Score int `json:"score"`
}

type Output struct {
	RankedProperties []RankedProperty `json:"rankedProperties"`
	Count            int              `json:"count"`
}
