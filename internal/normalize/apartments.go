package normalize

import (
	"fmt"
	"strings"

	"rental-aggregator/internal/models"
)

// apartments handles Apartments.com records: rent ranges, a nested location block
// and grouped amenities.
func (n *Normalizer) apartments(rec models.RawRecord) models.UnifiedProperty {
	p := n.baseProperty(rec)
	p.Title = orDefault(rec.Text("propertyName"), notAvailable)

	minRent, maxRent := rec.Text("rent", "min"), rec.Text("rent", "max")
	switch {
	case minRent != "" && maxRent != "" && minRent != maxRent:
		p.Price = fmt.Sprintf("$%s - $%s", minRent, maxRent)
	case minRent != "":
		p.Price = "$" + minRent
	case maxRent != "":
		p.Price = "$" + maxRent
	}
	p.PriceNumeric = numericAmount(firstNonEmpty(minRent, maxRent))

	if loc := rec.Map("location"); loc != nil {
		// the scraper spells it "streedAddress"
		p.Address = orDefault(loc.FirstText([]string{"streedAddress"}, []string{"streetAddress"}), notAvailable)
		p.City = orDefault(loc.Text("city"), notAvailable)
		p.State = orDefault(loc.Text("state"), notAvailable)
		p.ZipCode = loc.Text("postalCode")
		p.Location = orDefault(loc.Text("fullAddress"), joinLocation(p.Address, p.City, p.State))
	}

	p.Bedrooms = bedroomCount(rec.Text("beds"), containsStudio)
	p.Bathrooms = firstMatchFloat(firstDecimalRe, strings.ToLower(rec.Text("baths")))

	if sqft := rec.Text("sqft"); sqft != "" {
		p.Area = sqft
		p.AreaNumeric = rangeLowerBound(sqft)
	}

	p.Images = stringsOf(rec.List("photos"))
	p.Description = rec.Text("description")
	if c := rec.Map("coordinates"); c != nil {
		p.Coordinates = coordinates(c, "latitude", "longitude")
	}
	p.PropertyType = "apartment"

	for _, group := range rec.List("amenities") {
		p.Amenities = append(p.Amenities, stringsOf(models.AsRecord(group).List("value"))...)
	}
	p.ScrapedAt = n.timestamp(rec.Text("scrapedAt"))
	return p
}
