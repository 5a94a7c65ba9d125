package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumericAmount(t *testing.T) {
	assert.Equal(t, 1200.0, numericAmount("$1,200"))
	assert.Equal(t, 2400.0, numericAmount("$2,400/mo"))
	assert.Equal(t, 0.0, numericAmount("Call for price"))
	assert.Equal(t, 0.0, numericAmount(""))
	assert.Equal(t, 1200.0, numericAmount("$1,200 - $1,500"))
	assert.Equal(t, 1850.5, numericAmount("$1,850.50-$2,000/mo"))
}

func TestRangeLowerBound(t *testing.T) {
	assert.Equal(t, 650.0, rangeLowerBound("650 - 900 sq ft"))
	assert.Equal(t, 1100.0, rangeLowerBound("1,100 sq ft"))
}

func TestParsePrefixes(t *testing.T) {
	assert.Equal(t, 2.5, parseFloatPrefix("2.5 baths"))
	assert.Equal(t, 0.0, parseFloatPrefix("baths"))
	assert.Equal(t, 3, parseIntPrefix("3 beds"))
	assert.Equal(t, 0, parseIntPrefix("three"))
}

func TestBedroomCount(t *testing.T) {
	assert.Equal(t, 0, bedroomCount("Studio - 2 Beds", containsStudio))
	assert.Equal(t, 2, bedroomCount("2 Beds", containsStudio))
	assert.Equal(t, 0, bedroomCount("S", isStudioToken))
	assert.Equal(t, 4, bedroomCount("4", isStudioToken))
}

func TestCleanImages(t *testing.T) {
	got := cleanImages([]string{"https://a", "http://b", "https://a", "/c", ""})
	assert.Equal(t, []string{"https://a", "http://b"}, got)
}
