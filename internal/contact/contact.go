package contact

import (
	"regexp"
	"strings"
)

// PaymentMethod is how the buyer said they want to pay.
type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCOD      PaymentMethod = "cod"
	PaymentUnknown  PaymentMethod = "unknown"
)

// ReferenceIDs holds the administrative-area ids resolved against the
// reference dataset. A lower level is only ever set when its parent is.
type ReferenceIDs struct {
	ProvinceID string `json:"province_id,omitempty"`
	RegencyID  string `json:"regency_id,omitempty"`
	DistrictID string `json:"district_id,omitempty"`
	VillageID  string `json:"village_id,omitempty"`
}

// Correction records one field rewrite applied during reference correction.
type Correction struct {
	Field          string `json:"field"`
	OriginalValue  string `json:"original_value"`
	CorrectedValue string `json:"corrected_value"`
}

// Contact is the draft record produced by the extractor and refined by the
// corrector.
type Contact struct {
	Name          string        `json:"name"`
	PhoneNumber   string        `json:"phone_number"`
	StreetAddress string        `json:"street_address"`
	Village       string        `json:"village,omitempty"`
	District      string        `json:"district,omitempty"`
	Regency       string        `json:"regency,omitempty"`
	Province      string        `json:"province,omitempty"`
	PostalCode    string        `json:"postal_code,omitempty"`
	Payment       PaymentMethod `json:"payment_method"`
	ReferenceIDs  ReferenceIDs  `json:"reference_ids"`
	Corrections   []Correction  `json:"corrections"`
	Validated     bool          `json:"validated"`
}

// Clone returns a copy that shares no mutable state with the receiver.
func (c *Contact) Clone() *Contact {
	out := *c
	if c.Corrections != nil {
		out.Corrections = make([]Correction, len(c.Corrections))
		copy(out.Corrections, c.Corrections)
	}
	return &out
}

var (
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}\s.,\-/]`)
	multiSpace      = regexp.MustCompile(`\s+`)
	nonDigit        = regexp.MustCompile(`\D+`)
)

// Sanitize strips everything that is not a letter, digit, whitespace,
// period, comma, hyphen, or forward slash, then collapses whitespace.
// Emoji and decorative symbols in pasted chat text disappear here.
func Sanitize(s string) string {
	s = disallowedChars.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// countryPrefix is the Indonesian dialing prefix phone numbers are
// normalized to.
const countryPrefix = "62"

// minLocalDigits is the shortest digit run still treated as a dialable
// local number rather than some stray id.
const minLocalDigits = 8

// NormalizePhone reduces a phone value to digits and prefixes it with the
// country code: a leading 0 is replaced, a bare local number gets the
// prefix prepended, anything already prefixed passes through.
func NormalizePhone(raw string) string {
	digits := nonDigit.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		return countryPrefix + digits[1:]
	}
	if !strings.HasPrefix(digits, countryPrefix) && len(digits) >= minLocalDigits {
		return countryPrefix + digits
	}
	return digits
}

// FormatAddress assembles the display/storage string for a contact:
// street, "Kel. <village>", "Kec. <district>", regency and province
// uppercased, then the postal code, comma-joined with empty parts omitted.
func FormatAddress(c *Contact) string {
	var parts []string
	if c.StreetAddress != "" {
		parts = append(parts, c.StreetAddress)
	}
	if c.Village != "" {
		parts = append(parts, "Kel. "+c.Village)
	}
	if c.District != "" {
		parts = append(parts, "Kec. "+c.District)
	}
	if c.Regency != "" {
		parts = append(parts, strings.ToUpper(c.Regency))
	}
	if c.Province != "" {
		parts = append(parts, strings.ToUpper(c.Province))
	}
	if c.PostalCode != "" {
		parts = append(parts, c.PostalCode)
	}
	return strings.Join(parts, ", ")
}
