package normalize

import (
	"strings"

	"rental-aggregator/internal/models"
)

func (n *Normalizer) realtor(rec models.RawRecord) models.UnifiedProperty {
	p := n.baseProperty(rec)
	p.Title = orDefault(rec.FirstText([]string{"name"}, []string{"address", "street"}), notAvailable)

	price := rec.FirstText([]string{"listPrice"}, []string{"price"}, []string{"lastSoldPrice"})
	p.Price = orDefault(price, notAvailable)
	p.PriceNumeric = numericAmount(price)

	if addr := rec.Map("address"); addr != nil {
		p.Address = orDefault(addr.Text("street"), notAvailable)
		p.City = orDefault(addr.Text("locality"), notAvailable)
		p.State = orDefault(addr.Text("region"), notAvailable)
		p.ZipCode = addr.Text("postalCode")
		p.Location = joinLocation(p.Address, p.City, p.State)
	}

	p.Bedrooms = parseIntPrefix(rec.Text("beds"))
	p.Bathrooms = parseFloatPrefix(rec.FirstText([]string{"baths_total"}, []string{"baths"}))

	sqft := rec.Text("sqft")
	p.Area = orDefault(sqft, notAvailable)
	p.AreaNumeric = numericAmount(sqft)

	var lastListing models.RawRecord
	if history := rec.List("history"); len(history) > 0 {
		lastListing = models.AsRecord(history[0]).Map("listing")
	}

	if photos := rec.List("photos"); len(photos) > 0 {
		p.Images = hrefs(photos)
	} else {
		p.Images = hrefs(lastListing.List("photos"))
	}

	p.Description = firstNonEmpty(
		rec.Text("description", "text"),
		rec.Text("description"),
		rec.Text("text"),
		lastListing.Text("description", "text"),
	)

	if c := rec.Map("coordinates"); c != nil {
		p.Coordinates = coordinates(c, "latitude", "longitude")
	}
	p.PropertyType = orDefault(rec.Text("type"), notAvailable)
	p.HomeStatus = orDefault(rec.Text("status"), notAvailable)
	p.Features = realtorFeatures(rec)
	p.ScrapedAt = n.timestamp(rec.Text("scrapedAt"))
	return p
}

func realtorFeatures(rec models.RawRecord) []string {
	var features []string
	if v := rec.Text("cooling"); v != "" {
		features = append(features, "Cooling: "+v)
	}
	if v := rec.Text("heating"); v != "" {
		features = append(features, "Heating: "+v)
	}
	if v := rec.Text("fireplace"); v != "" && strings.ToLower(v) != "no" {
		features = append(features, "Fireplace")
	}
	if v := rec.Text("pool"); v != "" && strings.ToLower(v) != "no" {
		features = append(features, "Pool")
	}
	if v := rec.Text("garage_type"); v != "" {
		features = append(features, "Garage: "+v)
	}
	if v := rec.Text("exterior"); v != "" {
		features = append(features, "Exterior: "+v)
	}
	return features
}
