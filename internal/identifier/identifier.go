// Package identifier classifies a raw user-supplied identifier into one of
// tax-id, phone-number, or free-text-name, canonicalizing phone numbers to
// E.164. Classification never fails: a phone-looking string that the
// numbering plan rejects degrades to a name lookup instead of erroring.
package identifier

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// Kind labels the outcome of classification.
type Kind string

const (
	KindTaxID Kind = "tax_id"
	KindPhone Kind = "phone_number"
	KindName  Kind = "name"
)

// TaxIDLength is the fixed length of an organization tax ID.
const TaxIDLength = 10

// Classification carries both the raw input and its canonical form. Raw is
// kept for diagnostics; the fallback from phone to name is deliberate, not
// silent data loss.
type Classification struct {
	Kind        Kind
	Raw         string
	Canonical   string
	CountryCode int
	ValidPhone  bool
}

// Classify normalizes input against an explicit default region (ISO 3166-1
// alpha-2) used when the number carries no country prefix. The region is a
// parameter, not ambient state, so concurrent calls with different regions
// are safe.
func Classify(input, defaultRegion string) Classification {
	raw := strings.TrimSpace(input)
	c := Classification{Kind: KindName, Raw: raw, Canonical: raw}

	if isTaxID(raw) {
		c.Kind = KindTaxID
		return c
	}

	if containsLetter(raw) {
		return c
	}

	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		// unparsable phone-like string: treated as a candidate person name
		return c
	}

	c.Kind = KindPhone
	c.Canonical = phonenumbers.Format(num, phonenumbers.E164)
	c.CountryCode = int(num.GetCountryCode())
	c.ValidPhone = true
	return c
}

// IsTaxID reports whether s already has the canonical tax-id shape.
func IsTaxID(s string) bool {
	return isTaxID(strings.TrimSpace(s))
}

func isTaxID(s string) bool {
	if len(s) != TaxIDLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
