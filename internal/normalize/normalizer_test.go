package normalize

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestNormalizer(t *testing.T) *Normalizer {
	return NewNormalizer(logger.NewTestLogger(t)).WithClock(func() time.Time { return fixedNow })
}

// decode mirrors how dataset items arrive: JSON with UseNumber.
func decode(t *testing.T, raw string) []models.RawRecord {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var items []map[string]interface{}
	require.NoError(t, dec.Decode(&items))
	out := make([]models.RawRecord, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		source string
		want   Strategy
	}{
		{"epctex/apartments-scraper", StrategyApartments},
		{"EPCTEX/APARTMENTS-SCRAPER", StrategyApartments},
		{"epctex/apartmentlist-scraper", StrategyApartmentList},
		{"epctex/realtor-scraper", StrategyRealtor},
		{"jupri/zillow-scraper", StrategyGeneric},
		{"", StrategyGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, StrategyFor(tt.source))
		})
	}
}

func TestNormalize_GenericRecord(t *testing.T) {
	records := decode(t, `[{
		"address": {"streetAddress": "123 Main St", "city": "Austin", "state": "TX"},
		"price": "$1,200", "beds": "2", "baths": "1.5",
		"photos": ["https://x/a.jpg", "https://x/a.jpg"]
	}]`)

	props := newTestNormalizer(t).Normalize(records, "generic-source")
	require.Len(t, props, 1)

	p := props[0]
	assert.Equal(t, "123 Main St", p.Title)
	assert.Equal(t, "123 Main St", p.Address)
	assert.Equal(t, "Austin", p.City)
	assert.Equal(t, "TX", p.State)
	assert.Equal(t, "Austin, TX", p.Location)
	assert.Equal(t, "$1,200", p.Price)
	assert.Equal(t, 1200.0, p.PriceNumeric)
	assert.Equal(t, 2, p.Bedrooms)
	assert.Equal(t, 1.5, p.Bathrooms)
	assert.Equal(t, []string{"https://x/a.jpg"}, p.Images)
	assert.Equal(t, "#", p.URL)
	assert.Equal(t, "generic-source", p.Source)
	assert.Equal(t, fixedNow, p.ScrapedAt)
	assert.True(t, strings.HasPrefix(p.ID, "mcp-generic_source-"), p.ID)
}

func TestNormalize_RangePriceUsesLowEnd(t *testing.T) {
	records := decode(t, `[{"title": "Loft", "price": "$1,200 - $1,500", "city": "Austin"}]`)

	props := newTestNormalizer(t).Normalize(records, "generic-source")
	require.Len(t, props, 1)
	assert.Equal(t, "$1,200 - $1,500", props[0].Price)
	assert.Equal(t, 1200.0, props[0].PriceNumeric)
}

func TestNormalize_SyntheticIDIsDeterministic(t *testing.T) {
	raw := `[{"title": "Loft", "price": 900}]`
	n := newTestNormalizer(t)

	first := n.Normalize(decode(t, raw), "x")
	second := n.Normalize(decode(t, raw), "x")
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Len(t, strings.TrimPrefix(first[0].ID, "mcp-x-"), 9)
}

func TestNormalize_DropsInvalidRecords(t *testing.T) {
	records := decode(t, `[
		{"title": "Zero price", "price": 0},
		{"title": "N/A", "price": 1500},
		{"title": "unknown", "price": 1500},
		{"price": 1500},
		{"title": "Kept", "price": {"value": 1750}}
	]`)

	props := newTestNormalizer(t).Normalize(records, "generic")
	require.Len(t, props, 1)
	assert.Equal(t, "Kept", props[0].Title)
	assert.Equal(t, 1750.0, props[0].PriceNumeric)
}

func TestNormalize_SkipsNilRecords(t *testing.T) {
	props := newTestNormalizer(t).Normalize([]models.RawRecord{nil, {"title": "A", "price": "100"}}, "generic")
	assert.Len(t, props, 1)
}

func TestNormalize_GenericPriceHistoryUsesLastEntry(t *testing.T) {
	records := decode(t, `[{"title": "History", "price": [{"price": 1000}, {"price": 1100}]}]`)
	props := newTestNormalizer(t).Normalize(records, "generic")
	require.Len(t, props, 1)
	assert.Equal(t, 1100.0, props[0].PriceNumeric)
}

func TestNormalize_ZillowStatusFilter(t *testing.T) {
	records := decode(t, `[
		{"zpid": "111", "title": "Rental", "price": 2000, "homeStatus": "for_rent"},
		{"zpid": "222", "title": "Sale", "price": 500000, "homeStatus": "FOR_SALE"},
		{"zpid": "333", "title": "No status", "price": 2100},
		{"zpid": "444", "title": "Community", "price": 1900, "homeStatus": "APARTMENT_COMMUNITY", "detailUrl": "/b/444"}
	]`)

	props := newTestNormalizer(t).Normalize(records, "jupri/zillow-scraper")
	require.Len(t, props, 2)

	assert.Equal(t, "111", props[0].ID)
	assert.Equal(t, "https://www.zillow.com/homedetails/111_zpid/", props[0].URL)
	assert.Equal(t, "444", props[1].ID)
	assert.Equal(t, "https://www.zillow.com/homedetails/444_zpid/", props[1].URL)
}

func TestNormalize_ZillowImagesAndCoordinates(t *testing.T) {
	records := decode(t, `[{
		"zpid": "9", "title": "Pics", "price": "$2,400/mo", "homeStatus": "FOR_RENT",
		"latLong": {"latitude": 30.1, "longitude": -97.7},
		"hdpData": {"homeInfo": {"photos": [
			{"mixedSources": {"jpeg": [{"url": "https://p/1.jpg"}, {"url": "https://p/2.jpg"}]}},
			{"mixedSources": {"jpeg": [{"url": "https://p/1.jpg"}]}}
		]}}
	}]`)

	props := newTestNormalizer(t).Normalize(records, "zillow")
	require.Len(t, props, 1)
	assert.Equal(t, []string{"https://p/1.jpg", "https://p/2.jpg"}, props[0].Images)
	require.NotNil(t, props[0].Coordinates)
	assert.Equal(t, 30.1, props[0].Coordinates.Lat)
	assert.Equal(t, -97.7, props[0].Coordinates.Lng)
	assert.Equal(t, 2400.0, props[0].PriceNumeric)
}

func TestNormalize_RealtorRecord(t *testing.T) {
	records := decode(t, `[
		{
			"id": "r1", "listPrice": 2500, "beds": "3", "baths_total": "2.5", "sqft": "1,400",
			"address": {"street": "9 Oak Ave", "locality": "Denver", "region": "CO", "postalCode": "80202"},
			"status": "for_rent", "type": "single_family",
			"photos": [{"href": "https://r/1.jpg"}, "https://r/2.jpg", {"href": "ftp://bad"}],
			"description": {"text": "Sunny"},
			"cooling": "Central", "fireplace": "No", "pool": "Yes", "contactPhone": "555-0100"
		},
		{"id": "r2", "name": "Sold one", "listPrice": 3000, "status": "SOLD"},
		{"id": "r3", "name": "Pending one", "listPrice": 3000, "status": "pending_sale"}
	]`)

	props := newTestNormalizer(t).Normalize(records, "epctex/realtor-scraper")
	require.Len(t, props, 1)

	p := props[0]
	assert.Equal(t, "r1", p.ID)
	assert.Equal(t, "9 Oak Ave", p.Title)
	assert.Equal(t, "9 Oak Ave, Denver, CO", p.Location)
	assert.Equal(t, "80202", p.ZipCode)
	assert.Equal(t, 2500.0, p.PriceNumeric)
	assert.Equal(t, 3, p.Bedrooms)
	assert.Equal(t, 2.5, p.Bathrooms)
	assert.Equal(t, 1400.0, p.AreaNumeric)
	assert.Equal(t, []string{"https://r/1.jpg", "https://r/2.jpg"}, p.Images)
	assert.Equal(t, "Sunny", p.Description)
	assert.Equal(t, "single_family", p.PropertyType)
	assert.Equal(t, "for_rent", p.HomeStatus)
	assert.Equal(t, []string{"Cooling: Central", "Pool"}, p.Features)
	require.NotNil(t, p.ContactInfo)
	assert.Equal(t, "555-0100", p.ContactInfo.Phone)
}

func TestNormalize_RealtorHistoryPhotos(t *testing.T) {
	records := decode(t, `[{
		"name": "Old listing", "price": "1800",
		"history": [{"listing": {"photos": [{"href": "https://h/1.jpg"}], "description": {"text": "From history"}}}]
	}]`)

	props := newTestNormalizer(t).Normalize(records, "realtor-scraper")
	require.Len(t, props, 1)
	assert.Equal(t, []string{"https://h/1.jpg"}, props[0].Images)
	assert.Equal(t, "From history", props[0].Description)
}

func TestNormalize_ApartmentsRecord(t *testing.T) {
	records := decode(t, `[{
		"id": "a1", "propertyName": "The Vista",
		"rent": {"min": 1450, "max": 2100},
		"location": {"streedAddress": "1 Vista Way", "city": "Austin", "state": "TX", "postalCode": "78701"},
		"beds": "Studio - 2 Beds", "baths": "1 - 2 Baths", "sqft": "500 - 1,100 sq ft",
		"photos": ["https://a/1.jpg", "relative.jpg"],
		"amenities": [{"title": "Community", "value": ["Pool", "Gym"]}, {"title": "Unit", "value": ["Pool", "Washer"]}]
	}]`)

	props := newTestNormalizer(t).Normalize(records, "epctex/apartments-scraper")
	require.Len(t, props, 1)

	p := props[0]
	assert.Equal(t, "The Vista", p.Title)
	assert.Equal(t, "$1450 - $2100", p.Price)
	assert.Equal(t, 1450.0, p.PriceNumeric)
	assert.Equal(t, "1 Vista Way", p.Address)
	assert.Equal(t, "1 Vista Way, Austin, TX", p.Location)
	assert.Equal(t, 0, p.Bedrooms)
	assert.Equal(t, 1.0, p.Bathrooms)
	assert.Equal(t, 500.0, p.AreaNumeric)
	assert.Equal(t, []string{"https://a/1.jpg"}, p.Images)
	assert.Equal(t, "apartment", p.PropertyType)
	assert.Equal(t, []string{"Pool", "Gym", "Washer"}, p.Amenities)
}

func TestNormalize_ApartmentListUnits(t *testing.T) {
	records := decode(t, `[{
		"id": "p1", "propertyName": "Maple Court", "isActive": true,
		"photos": ["https://m/parent.jpg"],
		"amenities": ["Parking", "Parking", "Laundry"],
		"location": {"streetAddress": "77 Maple", "city": "Austin", "state": "TX"},
		"units": [
			{"id": "u1", "name": "101", "price": "$1,300", "bed": "Studio", "bath": "1", "availableOn": "2026-04-01"},
			{"id": "u2", "name": "102", "price": 0, "bed": "2", "bath": "2"}
		]
	}]`)

	props := newTestNormalizer(t).Normalize(records, "epctex/apartmentlist-scraper")
	require.Len(t, props, 1)

	p := props[0]
	assert.Equal(t, "p1-u1", p.ID)
	assert.Equal(t, "Maple Court - Unit 101", p.Title)
	assert.Equal(t, 1300.0, p.PriceNumeric)
	assert.Equal(t, 0, p.Bedrooms)
	assert.Equal(t, 1.0, p.Bathrooms)
	assert.Equal(t, []string{"https://m/parent.jpg"}, p.Images)
	assert.Equal(t, []string{"Parking", "Laundry"}, p.Amenities)
	assert.Equal(t, "active", p.HomeStatus)
	assert.Equal(t, "Available from 2026-04-01", p.Availability)
	assert.Equal(t, "77 Maple, Austin, TX", p.Location)
	assert.Nil(t, p.ContactInfo)
}

func TestNormalize_ApartmentListWithoutUnitsIsSkipped(t *testing.T) {
	records := decode(t, `[{"id": "p1", "propertyName": "Empty", "price": 1000}]`)
	props := newTestNormalizer(t).Normalize(records, "apartmentlist-scraper")
	assert.NotNil(t, props)
	assert.Empty(t, props)
}

func TestNormalize_DoesNotDedupe(t *testing.T) {
	records := decode(t, `[
		{"title": "Twin", "price": 1000, "address": "1 A St"},
		{"title": "Twin", "price": 1000, "address": "1 A St"}
	]`)
	assert.Len(t, newTestNormalizer(t).Normalize(records, "generic"), 2)
}

func TestJoinLocation(t *testing.T) {
	assert.Equal(t, "1 A St, TX", joinLocation("1 A St", "N/A", "TX"))
	assert.Equal(t, "N/A", joinLocation("N/A", "", "N/A"))
}
