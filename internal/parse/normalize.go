// internal/parse/normalize.go
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"dealflow-workers/internal/models"
)

// Placeholder defaults for owner contact fields. The UI shows these instead
// of blanks when the source text omits owner data, so they are part of the
// record contract, not a parsing artifact.
const (
	PlaceholderSkipTrace      = "Available via skip trace"
	PlaceholderSameAsProperty = "Same as property address"
	PlaceholderUnknown        = "Unknown"
)

const (
	DefaultMotivationScore = 50

	LeadTypeStandard       = "standard"
	LeadTypePreforeclosure = "preforeclosure"
)

var nonDigitRe = regexp.MustCompile(`[^\d]+`)

// streetAddressRe accepts a house number followed by at least one word, the
// shape of a numbered-list heading like "123 Oak St".
var streetAddressRe = regexp.MustCompile(`^\d+\s+[A-Za-z0-9]`)

// Distressed-situation keywords scanned against the lower-cased raw text, in
// priority order. The matched keyword is reported lower-cased with
// underscores.
var distressKeywords = []struct {
	keyword   string
	indicator string
}{
	{"foreclosure", "preforeclosure"},
	{"pre-foreclosure", "preforeclosure"},
	{"tax lien", "tax_delinquent"},
	{"tax delinquent", "tax_delinquent"},
	{"probate", "probate"},
	{"divorce", "divorce"},
	{"vacant", "vacant"},
	{"absentee", "absentee_owner"},
}

// Normalize combines section and raw-text extraction into a canonical
// PropertyRecord. Every field degrades to its documented default instead of
// failing; the pipeline prefers a plausible placeholder over a hard error
// because the data feeds a human-facing card.
func Normalize(sections SectionMap, rawText string) models.PropertyRecord {
	rec := models.PropertyRecord{}

	property := sections[SectionProperty]
	financial := sections[SectionFinancial]
	owner := sections[SectionOwner]
	contact := sections[SectionContact]
	motivation := sections[SectionMotivation]

	rec.Address = extractChain([]string{property, rawText}, []string{"Property Address", "Street Address", "Address"})
	if rec.Address == "" {
		rec.Address = headingAddress(rawText)
	}
	rec.City = extractChain([]string{property, rawText}, []string{"City"})
	rec.State = extractChain([]string{property, rawText}, []string{"State"})
	rec.ZipCode = extractChain([]string{property, rawText}, []string{"Zip Code", "ZipCode", "Zip"})

	rec.Bedrooms = parseCount(extractChain([]string{property, rawText}, []string{"Bedrooms", "Beds"}))
	rec.Bathrooms = parseCount(extractChain([]string{property, rawText}, []string{"Bathrooms", "Baths"}))
	rec.SquareFeet = parseCount(extractChain([]string{property, rawText}, []string{"Square Feet", "Sq Ft", "Sqft"}))
	rec.YearBuilt = parseCount(extractChain([]string{property, rawText}, []string{"Year Built"}))

	rec.ARV = parseAmount(extractChain([]string{financial, rawText},
		[]string{"After Repair Value", "ARV", "Estimated Value", "Price"}))
	rec.MaxOffer = parseAmount(extractChain([]string{financial, rawText},
		[]string{"Maximum Offer", "Max Offer", "MAO"}))
	if rec.MaxOffer == "" {
		rec.MaxOffer = "0"
	}
	rec.LastSalePrice = parseAmount(extractChain([]string{financial, rawText},
		[]string{"Last Sale Price", "Last Sold For", "Last Sold", "Sale Price"}))

	rec.EquityPercentage = parsePercent(extractChain([]string{financial, rawText},
		[]string{"Equity Percentage", "Equity"}), 0)
	rec.MotivationScore = motivationScore(motivation, rawText)

	rec.OwnerName = extractChain([]string{owner, contact, rawText}, []string{"Owner Name", "Owner"})
	if rec.OwnerName == "" {
		rec.OwnerName = PlaceholderSkipTrace
	}
	rec.OwnerPhone = extractChain([]string{owner, contact, rawText}, []string{"Owner Phone", "Phone Number", "Phone"})
	if rec.OwnerPhone == "" {
		rec.OwnerPhone = PlaceholderSkipTrace
	}
	rec.OwnerEmail = extractChain([]string{owner, contact, rawText}, []string{"Owner Email", "Email"})
	if rec.OwnerEmail == "" {
		rec.OwnerEmail = PlaceholderSkipTrace
	}
	rec.OwnerMailingAddress = extractChain([]string{owner, contact, rawText}, []string{"Mailing Address"})
	if rec.OwnerMailingAddress == "" {
		rec.OwnerMailingAddress = PlaceholderSameAsProperty
	}
	rec.OwnerStatus = extractChain([]string{owner, rawText}, []string{"Owner Status", "Occupancy Status", "Occupancy"})
	if rec.OwnerStatus == "" {
		rec.OwnerStatus = PlaceholderUnknown
	}

	rec.LeadType = classifyLeadType(rawText)
	rec.DistressedIndicator = distressedIndicator(rawText)

	return rec
}

// extractChain tries each source text in order and returns the first
// non-empty extraction. The chain order is fixed per field and significant.
func extractChain(texts []string, labels []string) string {
	for _, text := range texts {
		if v := ExtractField(text, labels); v != "" {
			return v
		}
	}
	return ""
}

// motivationScore reads the score from the motivation section, where the
// content under the header is usually the bare "85/100" value, before
// falling back to a labeled extraction from the full text.
func motivationScore(motivation, rawText string) int {
	labels := []string{"Motivation Score", "Motivation"}
	if v := ExtractField(motivation, labels); v != "" {
		return parsePercent(v, DefaultMotivationScore)
	}
	if motivation != "" {
		return parsePercent(motivation, DefaultMotivationScore)
	}
	if v := ExtractField(rawText, labels); v != "" {
		return parsePercent(v, DefaultMotivationScore)
	}
	return DefaultMotivationScore
}

// headingAddress recovers the address from a numbered-list block whose first
// line is the street address itself rather than a labeled field.
func headingAddress(rawText string) string {
	for _, line := range strings.Split(rawText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if streetAddressRe.MatchString(trimmed) {
			return trimmed
		}
		return ""
	}
	return ""
}

// classifyLeadType: an explicit "Lead Type:" label wins; otherwise any
// mention of foreclosure classifies the lead as preforeclosure. Check order
// is behavioral contract, do not reorder.
func classifyLeadType(rawText string) string {
	if explicit := ExtractField(rawText, []string{"Lead Type"}); explicit != "" {
		return strings.ReplaceAll(strings.ToLower(explicit), " ", "_")
	}
	if strings.Contains(strings.ToLower(rawText), "foreclosure") {
		return LeadTypePreforeclosure
	}
	return LeadTypeStandard
}

func distressedIndicator(rawText string) string {
	lower := strings.ToLower(rawText)
	for _, d := range distressKeywords {
		if strings.Contains(lower, d.keyword) {
			return d.indicator
		}
	}
	return ""
}

// parseAmount strips currency formatting ("$350,000.00" -> "350000") and
// returns the digits as a decimal string, or "" when no digits remain.
func parseAmount(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(raw, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if i := strings.Index(cleaned, "."); i >= 0 {
		cleaned = cleaned[:i]
	}
	cleaned = nonDigitRe.ReplaceAllString(cleaned, "")
	return cleaned
}

// parseCount coerces a field like "3" or "1,850 sqft" to an int, defaulting
// to 0 when unparsable.
func parseCount(raw string) int {
	digits := parseAmount(raw)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// parsePercent coerces "72%", "85/100" and similar to an int in [0,100],
// falling back to def when unparsable.
func parsePercent(raw string, def int) int {
	if raw == "" {
		return def
	}
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "%", "")
	if i := strings.Index(cleaned, "/"); i >= 0 {
		cleaned = cleaned[:i]
	}
	digits := parseAmount(cleaned)
	if digits == "" {
		return def
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return def
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
