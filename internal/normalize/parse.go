package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingFloatRe = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
	leadingIntRe   = regexp.MustCompile(`^[-+]?\d+`)
	firstIntRe     = regexp.MustCompile(`\d+`)
	firstDecimalRe = regexp.MustCompile(`\d*\.?\d+`)
	firstNumberRe  = regexp.MustCompile(`[\d.]+`)
	nonRangeRe     = regexp.MustCompile(`[^0-9.-]+`)
)

// parseFloatPrefix reads the longest numeric prefix of s ("12.5 baths" -> 12.5).
// Anything unparseable is 0.
func parseFloatPrefix(s string) float64 {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseIntPrefix reads the leading integer of s ("3 beds" -> 3).
func parseIntPrefix(s string) int {
	m := leadingIntRe.FindString(strings.TrimSpace(s))
	n, _ := strconv.Atoi(m)
	return n
}

// numericAmount strips currency and separators before parsing: "$1,200/mo" -> 1200.
// A range such as "$1,200 - $1,500" yields its low end.
func numericAmount(s string) float64 {
	return rangeLowerBound(s)
}

// rangeLowerBound parses the low end of a range such as "650 - 900 sq ft".
func rangeLowerBound(s string) float64 {
	cleaned := nonRangeRe.ReplaceAllString(s, "")
	low, _, _ := strings.Cut(cleaned, "-")
	return parseFloatPrefix(low)
}

func firstInt(s string) int {
	n, _ := strconv.Atoi(firstIntRe.FindString(s))
	return n
}

func firstMatchFloat(re *regexp.Regexp, s string) float64 {
	return parseFloatPrefix(re.FindString(s))
}

// bedroomCount treats any studio marker as zero bedrooms, otherwise takes the first integer.
func bedroomCount(s string, studio func(string) bool) int {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" || studio(lower) {
		return 0
	}
	return firstInt(lower)
}

func containsStudio(s string) bool { return strings.Contains(s, "studio") }

func isStudioToken(s string) bool { return s == "studio" || s == "s" }
