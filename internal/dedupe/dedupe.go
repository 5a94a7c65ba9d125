// Package dedupe collapses listings that describe the same place at the same price.
package dedupe

import (
	"strconv"
	"strings"

	"rental-aggregator/internal/models"
)

// Key builds the identity used for duplicate detection: address (or title), numeric
// price and location (or city), lowercased.
func Key(p models.UnifiedProperty) string {
	return strings.ToLower(known(p.Address, p.Title)) +
		"-" + strconv.FormatFloat(p.PriceNumeric, 'f', -1, 64) +
		"-" + strings.ToLower(known(p.Location, p.City))
}

// Dedupe keeps the first property for each Key and preserves input order.
func Dedupe(props []models.UnifiedProperty) []models.UnifiedProperty {
	out := make([]models.UnifiedProperty, 0, len(props))
	seen := make(map[string]struct{}, len(props))
	for _, p := range props {
		k := Key(p)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

func known(primary, fallback string) string {
	if primary == "" || primary == "N/A" {
		return fallback
	}
	return primary
}
