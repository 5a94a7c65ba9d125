package normalize

import (
	"strings"

	"rental-aggregator/internal/models"
)

// generic covers Zillow-style records and any source without a dedicated strategy.
func (n *Normalizer) generic(rec models.RawRecord, source string) models.UnifiedProperty {
	p := n.baseProperty(rec)

	p.Title = orDefault(rec.FirstText(
		[]string{"title"},
		[]string{"streetAddress"},
		[]string{"Title"},
		[]string{"address", "streetAddress"},
	), "")
	if p.Title == "" {
		if s, ok := rec["address"].(string); ok && s != "" {
			p.Title = s
		} else {
			p.Title = notAvailable
		}
	}

	price := genericPrice(rec)
	p.Price = orDefault(price, notAvailable)
	p.PriceNumeric = numericAmount(price)

	p.Location = genericLocation(rec)
	p.Address = orDefault(rec.FirstText([]string{"address", "streetAddress"}, []string{"streetAddress"}), "")
	if p.Address == "" {
		if s, ok := rec["Address"].(string); ok && s != "" {
			p.Address = s
		} else {
			p.Address = notAvailable
		}
	}
	p.City = orDefault(rec.FirstText([]string{"city"}, []string{"address", "city"}), notAvailable)
	p.State = rec.FirstText([]string{"state"}, []string{"address", "state"})
	p.ZipCode = rec.FirstText([]string{"zipcode"}, []string{"address", "zipcode"})

	p.Bedrooms = firstInt(rec.FirstText([]string{"bedrooms"}, []string{"beds"}, []string{"Bedrooms"}, []string{"bed"}))
	p.Bathrooms = firstMatchFloat(firstNumberRe, rec.FirstText([]string{"bathrooms"}, []string{"baths"}, []string{"Bathrooms"}, []string{"bath"}))

	area := rec.FirstText([]string{"livingArea", "value"}, []string{"livingArea"}, []string{"sqft"}, []string{"Area"})
	p.Area = orDefault(area, notAvailable)
	p.AreaNumeric = numericAmount(area)

	p.Description = rec.Text("description")
	p.URL = rec.FirstText([]string{"url"}, []string{"detailUrl"}, []string{"URL"})
	if p.URL == "" {
		if zpid := rec.Text("zpid"); zpid != "" && strings.Contains(strings.ToLower(source), "zillow") {
			p.URL = zillowURL(zpid)
		} else {
			p.URL = "#"
		}
	}

	p.PropertyType = orDefault(rec.FirstText([]string{"propertyType"}, []string{"homeType"}, []string{"PropertyType"}), notAvailable)
	p.HomeStatus = orDefault(rec.FirstText([]string{"homeStatus"}, []string{"HomeStatus"}), notAvailable)
	p.ScrapedAt = n.timestamp(rec.Text("datetime"))

	if latLong := rec.Map("latLong"); latLong != nil {
		p.Coordinates = coordinates(latLong, "latitude", "longitude")
	} else if rec.Text("latitude") != "" && rec.Text("longitude") != "" {
		p.Coordinates = coordinates(rec, "latitude", "longitude")
	}

	switch {
	case rec.List("features") != nil:
		p.Features = stringsOf(rec.List("features"))
	case rec.List("attirbutes") != nil:
		p.Features = stringsOf(rec.List("attirbutes"))
	default:
		p.Features = stringsOf(rec.List("attributes"))
	}
	p.Amenities = stringsOf(rec.List("amenities"))
	p.Images = genericImages(rec)
	return p
}

// genericPrice walks the price shapes providers use: an object with a value, a nested
// data block, a price history whose last entry is current, or a scalar.
func genericPrice(rec models.RawRecord) string {
	if s := rec.FirstText([]string{"price", "value"}, []string{"price", "data", "price"}); s != "" {
		return s
	}
	if history := rec.List("price"); len(history) > 0 {
		if s := models.AsRecord(history[len(history)-1]).Text("price"); s != "" {
			return s
		}
	}
	return rec.FirstText([]string{"price"}, []string{"Price"})
}

func genericLocation(rec models.RawRecord) string {
	if s, ok := rec["location"].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	if s, ok := rec["regionString"].(string); ok && s != "" {
		return s
	}
	if city, state := rec.Text("address", "city"), rec.Text("address", "state"); city != "" && state != "" {
		return city + ", " + state
	}
	if city, state := rec.Text("city"), rec.Text("state"); city != "" && state != "" {
		return city + ", " + state
	}
	// the capitalised form only counts when no location object was present
	if rec.Map("location") == nil {
		if s, ok := rec["Location"].(string); ok && s != "" {
			return s
		}
	}
	return notAvailable
}
