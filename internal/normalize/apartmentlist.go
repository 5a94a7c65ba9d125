package normalize

import (
	"strconv"

	"rental-aggregator/internal/models"
)

// apartmentList expands one ApartmentList record into a property per rentable unit.
// Shared fields come from the parent, pricing and layout from the unit. It returns nil
// when the record has no units array.
func (n *Normalizer) apartmentList(rec models.RawRecord, source string) []models.UnifiedProperty {
	units, ok := rec.Get("units")
	unitList, isList := units.([]interface{})
	if !ok || !isList {
		return nil
	}

	propertyName := orDefault(rec.Text("propertyName"), notAvailable)

	address, city, state, zip, location := notAvailable, notAvailable, notAvailable, "", notAvailable
	if loc := rec.Map("location"); loc != nil {
		address = orDefault(loc.FirstText([]string{"streetAddress"}, []string{"streedAddress"}), notAvailable)
		city = orDefault(loc.Text("city"), notAvailable)
		state = orDefault(loc.Text("state"), notAvailable)
		zip = loc.Text("postalCode")
		location = orDefault(loc.Text("fullAddress"), joinLocation(address, city, state))
	}

	var coords *models.Coordinates
	if c := rec.Map("coordinates"); c != nil {
		coords = coordinates(c, "latitude", "longitude")
	}

	parentImages := stringsOf(rec.List("photos"))
	amenities := uniqueStrings(stringsOf(rec.List("amenities")))
	scrapedAt := n.timestamp(rec.Text("scrapedAt"))

	homeStatusFallback := notAvailable
	if rec.Bool("isActive") {
		homeStatusFallback = "active"
	}

	out := make([]models.UnifiedProperty, 0, len(unitList))
	for i, raw := range unitList {
		unit := models.AsRecord(raw)
		if unit == nil {
			continue
		}

		unitName := unit.FirstText([]string{"name"}, []string{"remoteListingId"}, []string{"id"})
		title := propertyName
		if unitName != "" {
			title = propertyName + " - Unit " + unitName
		}

		images := stringsOf(unit.List("photos"))
		if len(cleanImages(images)) == 0 {
			images = parentImages
		}

		price := unit.Text("price")
		sqft := unit.Text("sqft")

		availability := unit.Text("availability")
		if on := unit.Text("availableOn"); on != "" {
			availability = "Available from " + on
		}

		out = append(out, models.UnifiedProperty{
			ID:           unitID(rec, unit, i, source),
			Source:       source,
			Title:        title,
			Price:        orDefault(price, notAvailable),
			PriceNumeric: numericAmount(price),
			Location:     location,
			Address:      address,
			City:         city,
			State:        state,
			ZipCode:      zip,
			Bedrooms:     bedroomCount(unit.Text("bed"), isStudioToken),
			Bathrooms:    firstMatchFloat(firstNumberRe, unit.Text("bath")),
			Area:         orDefault(sqft, notAvailable),
			AreaNumeric:  numericAmount(sqft),
			Images:       cleanImages(images),
			Description:  rec.Text("description"),
			URL:          orDefault(firstNonEmpty(unit.Text("applyOnlineUrl"), rec.Text("url")), "#"),
			PropertyType: orDefault(rec.Text("rentalType"), "apartment"),
			HomeStatus:   orDefault(unit.Text("availability"), homeStatusFallback),
			ScrapedAt:    scrapedAt,
			Features:     []string{},
			Amenities:    amenities,
			Coordinates:  coords,
			Availability: availability,
		})
	}
	return out
}

func unitID(parent, unit models.RawRecord, index int, source string) string {
	unitKey := unit.FirstText([]string{"id"}, []string{"remoteListingId"})
	if parentID := parent.Text("id"); parentID != "" {
		if unitKey == "" {
			unitKey = strconv.Itoa(index)
		}
		return parentID + "-" + unitKey
	}
	if unitKey != "" {
		return "aptlist-" + unitKey
	}
	return syntheticID("aptlist", parent, source+"#"+strconv.Itoa(index))
}
