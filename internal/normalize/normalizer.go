// Package normalize converts raw scraper records into UnifiedProperty values.
package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"rental-aggregator/internal/models"
)

// notAvailable fills text fields a source did not provide.
const notAvailable = "N/A"

// Strategy names the field-extraction shape used for a source.
type Strategy string

const (
	StrategyApartments    Strategy = "apartments"
	StrategyRealtor       Strategy = "realtor"
	StrategyApartmentList Strategy = "apartmentlist"
	StrategyGeneric       Strategy = "generic"
)

var sourceSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

// StrategyFor picks the extraction strategy from a case-insensitive substring of the source name.
func StrategyFor(source string) Strategy {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "apartmentlist-scraper"):
		return StrategyApartmentList
	case strings.Contains(s, "apartments-scraper"):
		return StrategyApartments
	case strings.Contains(s, "realtor-scraper"):
		return StrategyRealtor
	default:
		return StrategyGeneric
	}
}

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Normalizer is stateless apart from its clock, which stamps records lacking a scrape time.
type Normalizer struct {
	logger Logger
	now    func() time.Time
}

func NewNormalizer(logger Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// WithClock replaces the clock used for missing scrape timestamps.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	return &Normalizer{logger: n.logger, now: now}
}

// Normalize maps records from source into valid properties. Invalid or filtered
// records are skipped; the rest keep their input order.
func (n *Normalizer) Normalize(records []models.RawRecord, source string) []models.UnifiedProperty {
	strategy := StrategyFor(source)
	out := make([]models.UnifiedProperty, 0, len(records))
	skipped := 0

	for i, rec := range records {
		if rec == nil {
			skipped++
			continue
		}

		var candidates []models.UnifiedProperty
		switch strategy {
		case StrategyApartmentList:
			candidates = n.apartmentList(rec, source)
			if candidates == nil {
				n.logger.Warn("skipping record without units", map[string]interface{}{
					"source": source,
					"index":  i,
				})
			}
		case StrategyApartments:
			candidates = []models.UnifiedProperty{n.finalize(n.apartments(rec), rec, source)}
		case StrategyRealtor:
			candidates = []models.UnifiedProperty{n.finalize(n.realtor(rec), rec, source)}
		default:
			candidates = []models.UnifiedProperty{n.finalize(n.generic(rec, source), rec, source)}
		}

		for _, p := range candidates {
			if reason := rejectReason(p, source); reason != "" {
				skipped++
				n.logger.Debug("skipping property", map[string]interface{}{
					"source": source,
					"title":  p.Title,
					"price":  p.Price,
					"reason": reason,
				})
				continue
			}
			out = append(out, p)
		}
	}

	n.logger.Info("records normalized", map[string]interface{}{
		"source":   source,
		"strategy": string(strategy),
		"input":    len(records),
		"output":   len(out),
		"skipped":  skipped,
	})
	return out
}

// baseProperty seeds the fields every flat strategy starts from.
func (n *Normalizer) baseProperty(rec models.RawRecord) models.UnifiedProperty {
	return models.UnifiedProperty{
		Title:        notAvailable,
		Price:        notAvailable,
		Location:     notAvailable,
		Address:      notAvailable,
		City:         notAvailable,
		State:        notAvailable,
		Area:         notAvailable,
		PropertyType: notAvailable,
		Description:  rec.FirstText([]string{"description"}, []string{"text"}),
		URL:          orDefault(rec.Text("url"), "#"),
		HomeStatus:   orDefault(rec.FirstText([]string{"homeStatus"}, []string{"HomeStatus"}, []string{"status"}), notAvailable),
		ScrapedAt:    n.timestamp(rec.FirstText([]string{"scrapedAt"}, []string{"datetime"})),
	}
}

// finalize applies the rules shared by every flat strategy.
func (n *Normalizer) finalize(p models.UnifiedProperty, rec models.RawRecord, source string) models.UnifiedProperty {
	p.Source = source
	p.Images = cleanImages(p.Images)
	p.Features = uniqueStrings(p.Features)
	p.Amenities = uniqueStrings(p.Amenities)

	if p.ID == "" {
		p.ID = rec.FirstText([]string{"id"}, []string{"zpid"}, []string{"ZPID"}, []string{"URL"})
	}
	if p.ID == "" {
		p.ID = syntheticID("mcp-"+sourceSanitizer.ReplaceAllString(source, "_"), rec, "")
	}

	if phone, agent := rec.Text("contactPhone"), rec.Text("brokerName"); phone != "" || agent != "" {
		p.ContactInfo = &models.ContactInfo{Phone: phone, AgentName: agent}
	} else if phone := rec.Text("contact", "phone"); phone != "" {
		p.ContactInfo = &models.ContactInfo{Phone: phone}
	}

	if strings.Contains(strings.ToLower(source), "zillow") && !isHTTPURL(p.URL) {
		if zpid := rec.Text("zpid"); zpid != "" {
			p.URL = zillowURL(zpid)
		}
	}
	return p
}

// rejectReason returns why p must be dropped, or "" to keep it.
func rejectReason(p models.UnifiedProperty, source string) string {
	lowerSource := strings.ToLower(source)

	if strings.Contains(lowerSource, "zillow") {
		switch strings.ToUpper(p.HomeStatus) {
		case "FOR_RENT", "RENT", "APARTMENT_COMMUNITY", "APARTMENTS":
		default:
			return "status not for rent: " + p.HomeStatus
		}
	}

	if strings.Contains(lowerSource, "realtor-scraper") {
		status := strings.ToLower(p.HomeStatus)
		for _, inactive := range []string{"sold", "off_market", "pending"} {
			if strings.Contains(status, inactive) {
				return "inactive status: " + p.HomeStatus
			}
		}
	}

	if p.PriceNumeric <= 0 {
		return "missing price"
	}
	if isPlaceholder(p.Title) {
		return "missing title"
	}
	return ""
}

func isPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n/a", "unknown":
		return true
	}
	return false
}

func (n *Normalizer) timestamp(s string) time.Time {
	if s != "" {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return n.now().UTC()
}

// syntheticID derives a stable id from the record content so reruns agree.
func syntheticID(prefix string, rec models.RawRecord, salt string) string {
	data, _ := json.Marshal(rec)
	sum := sha1.Sum(append(data, salt...))
	return prefix + "-" + hex.EncodeToString(sum[:])[:9]
}

func zillowURL(zpid string) string {
	return "https://www.zillow.com/homedetails/" + zpid + "_zpid/"
}

func coordinates(m models.RawRecord, latKey, lngKey string) *models.Coordinates {
	lat, okLat := m.Number(latKey)
	lng, okLng := m.Number(lngKey)
	if !okLat || !okLng {
		return nil
	}
	return &models.Coordinates{Lat: lat, Lng: lng}
}

// joinLocation renders "street, city, state" from whichever parts are known.
func joinLocation(parts ...string) string {
	known := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" && p != notAvailable {
			known = append(known, p)
		}
	}
	if len(known) == 0 {
		return notAvailable
	}
	return strings.Join(known, ", ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
