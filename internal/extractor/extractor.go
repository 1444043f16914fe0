package extractor

import (
	"regexp"
	"strings"

	"kiriman/internal/contact"
)

// fieldRule binds one labeled-field pattern to its assignment. Rules run in
// declaration order per line; the first match wins, so the more ambiguous
// labels sit lower in the table.
type fieldRule struct {
	field   string
	pattern *regexp.Regexp
	assign  func(c *contact.Contact, value string)
}

var (
	// Standalone section headers: the label alone on a line, announcing
	// that the next line carries the value.
	addressHeaderPattern = regexp.MustCompile(`(?i)^(?:alamat(?:\s+lengkap|\s+pengiriman)?)\s*[:=-]?\s*$`)
	paymentHeaderPattern = regexp.MustCompile(`(?i)^(?:metode\s+pembayaran|pembayaran)\s*[:=-]?\s*$`)

	// Lines that contribute nothing: itemized product lines, money totals,
	// closing pleasantries, decorative banners.
	skipPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:sub\s*total|grand\s*total|total|ongkir|ongkos\s+kirim)\b`),
		regexp.MustCompile(`(?i)\bRp\.?\s*[\d.,]+`),
		regexp.MustCompile(`(?i)(?:^|\s)\d+\s*(?:x|pcs|bks|slop)\b|\bx\s*\d+\s*$`),
		regexp.MustCompile(`(?i)\b(?:terima\s*kasih|makasih|thank\s*you|thanks|ditunggu|mohon\s+diproses|pesanan\s+baru)\b`),
		regexp.MustCompile(`^[\p{S}\p{P}\s]+$`),
	}

	// Inline compound tail: "..., KABUPATEN SIDOARJO, JAWA TIMUR" left at
	// the end of a street address when no separate labels were present.
	compoundTailPattern = regexp.MustCompile(`(?i),\s*((?:kabupaten|kab\.?|kota)\s+[\p{L} .]+?)\s*,\s*([\p{L} .]+?)\s*$`)

	// Candidate trailing district segment: one or two plain words.
	districtTailPattern = regexp.MustCompile(`,\s*(\p{L}+(?:\s+\p{L}+)?)\s*$`)

	phoneLabelPattern = regexp.MustCompile(`(?i)^(?:no\.?\s*hp|no\.?\s*wa|no\.?\s*telp(?:on)?|nomor\s*(?:hp|wa|whatsapp|telepon|telp)|hp|wa|whatsapp|telp|telepon)\b\s*[:=-]?\s*(.*)$`)
	nameLabelPattern  = regexp.MustCompile(`(?i)^(?:nama(?:\s+penerima|\s+pemesan|\s+lengkap)?|penerima)\b\s*[:=-]?\s*(.*)$`)

	nonDigit = regexp.MustCompile(`\D+`)
)

// fieldRules is the labeled-field dispatch table. Name and phone come
// first, then the address levels from the most specific label down, so a
// line like "Kecamatan: Menteng" never falls through to the street rule.
var fieldRules = []fieldRule{
	{
		field:   "name",
		pattern: nameLabelPattern,
		assign:  func(c *contact.Contact, v string) { c.Name = contact.Sanitize(v) },
	},
	{
		field:   "phone",
		pattern: phoneLabelPattern,
		assign:  func(c *contact.Contact, v string) { c.PhoneNumber = contact.NormalizePhone(v) },
	},
	{
		field:   "street",
		pattern: regexp.MustCompile(`(?i)^(?:alamat(?:\s+lengkap|\s+pengiriman)?)\b\s*[:=-]?\s*(.*)$`),
		assign:  nil, // handled by the accumulation state in Extract
	},
	{
		field:   "district",
		pattern: regexp.MustCompile(`(?i)^(?:kecamatan|kec\.?)\b\s*[:=-]?\s*(.*)$`),
		assign:  func(c *contact.Contact, v string) { c.District = contact.Sanitize(v) },
	},
	{
		field:   "village",
		pattern: regexp.MustCompile(`(?i)^(?:kelurahan|kel\.?|desa)\b\s*[:=-]?\s*(.*)$`),
		assign:  func(c *contact.Contact, v string) { c.Village = contact.Sanitize(v) },
	},
	{
		field:   "regency",
		pattern: regexp.MustCompile(`(?i)^(?:kab(?:upaten)?\.?\s*/\s*kota|kabupaten|kab\.?|kota)\b\s*[:=-]?\s*(.*)$`),
		assign:  func(c *contact.Contact, v string) { c.Regency = contact.Sanitize(v) },
	},
	{
		field:   "province",
		pattern: regexp.MustCompile(`(?i)^(?:provinsi|prov\.?)\b\s*[:=-]?\s*(.*)$`),
		assign:  func(c *contact.Contact, v string) { c.Province = contact.Sanitize(v) },
	},
	{
		field:   "postal",
		pattern: regexp.MustCompile(`(?i)^(?:kode\s*pos|kodepos)\b\s*[:=-]?\s*(.*)$`),
		assign:  func(c *contact.Contact, v string) { c.PostalCode = nonDigit.ReplaceAllString(v, "") },
	},
	{
		field:   "payment",
		pattern: regexp.MustCompile(`(?i)^(?:metode\s+pembayaran|pembayaran|payment|bayar)\b\s*[:=-]?\s*(.*)$`),
		assign:  func(c *contact.Contact, v string) { c.Payment = DetectPayment(v) },
	},
}

// Extract scans a pasted chat message line by line and returns the draft
// contact it describes, or nil when the text carries neither a name nor a
// phone number and is therefore not a contact message. Malformed input is
// not an error; it just yields a mostly-empty draft.
func Extract(raw string) *contact.Contact {
	c := &contact.Contact{Payment: contact.PaymentUnknown}

	var (
		streetBuf   []string
		accumStreet bool   // a street label was seen and may continue
		section     string // "address" or "payment" section announced by a header
		pending     string // field whose value is the next non-empty line
	)

	flushStreet := func() {
		if len(streetBuf) > 0 {
			c.StreetAddress = strings.Join(streetBuf, " ")
			streetBuf = nil
		}
		accumStreet = false
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if addressHeaderPattern.MatchString(line) {
			flushStreet()
			section, pending = "address", "street"
			continue
		}
		if paymentHeaderPattern.MatchString(line) {
			flushStreet()
			section, pending = "payment", "payment"
			continue
		}

		if shouldSkip(line) {
			continue
		}

		if pending != "" {
			switch pending {
			case "street":
				c.StreetAddress = contact.Sanitize(line)
			case "payment":
				c.Payment = DetectPayment(line)
			}
			pending = ""
			continue
		}

		if rule, value, ok := matchRule(line); ok {
			if rule.field == "street" {
				flushStreet()
				accumStreet = true
				if v := contact.Sanitize(value); v != "" {
					streetBuf = append(streetBuf, v)
				}
			} else {
				flushStreet()
				rule.assign(c, value)
			}
			continue
		}

		if accumStreet {
			streetBuf = append(streetBuf, contact.Sanitize(line))
			continue
		}

		if section == "address" && c.StreetAddress == "" && !looksLikeLabel(line) {
			c.StreetAddress = contact.Sanitize(line)
		}
	}
	flushStreet()

	peelCompoundTail(c)

	if c.Name == "" && c.PhoneNumber == "" {
		return nil
	}
	return c
}

func matchRule(line string) (fieldRule, string, bool) {
	for _, rule := range fieldRules {
		if m := rule.pattern.FindStringSubmatch(line); m != nil {
			return rule, strings.TrimSpace(m[1]), true
		}
	}
	return fieldRule{}, "", false
}

func shouldSkip(line string) bool {
	for _, pattern := range skipPatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// looksLikeLabel reports whether a line inside an address section is
// actually a name or phone label rather than address text.
func looksLikeLabel(line string) bool {
	return nameLabelPattern.MatchString(line) || phoneLabelPattern.MatchString(line)
}

// maxDistrictTailLen bounds the trailing segment peeled as a district. Kept
// short so ordinary street tails do not get eaten.
const maxDistrictTailLen = 16

// peelCompoundTail splits a ", KABUPATEN X, PROVINCE Y" tail off the street
// address when the regency and province were not separately labeled, then
// tries to peel one short alphabetic comma segment as the district.
func peelCompoundTail(c *contact.Contact) {
	if c.StreetAddress == "" || c.Regency != "" || c.Province != "" {
		return
	}
	m := compoundTailPattern.FindStringSubmatchIndex(c.StreetAddress)
	if m == nil {
		return
	}
	c.Regency = strings.TrimSpace(c.StreetAddress[m[2]:m[3]])
	c.Province = strings.TrimSpace(c.StreetAddress[m[4]:m[5]])
	c.StreetAddress = strings.TrimRight(strings.TrimSpace(c.StreetAddress[:m[0]]), ",")

	if c.District != "" {
		return
	}
	if dm := districtTailPattern.FindStringSubmatchIndex(c.StreetAddress); dm != nil {
		seg := strings.TrimSpace(c.StreetAddress[dm[2]:dm[3]])
		if len(seg) <= maxDistrictTailLen {
			c.District = seg
			c.StreetAddress = strings.TrimRight(strings.TrimSpace(c.StreetAddress[:dm[0]]), ",")
		}
	}
}

var (
	transferPattern = regexp.MustCompile(`(?i)\b(?:transfer|tf|trf|bca|bri|bni|mandiri|seabank|rekening)\b`)
	codPattern      = regexp.MustCompile(`(?i)\b(?:cod|bayar\s+di\s*tempat|ditempat)\b`)
)

// DetectPayment maps a free-text payment value to the payment enum.
func DetectPayment(value string) contact.PaymentMethod {
	switch {
	case codPattern.MatchString(value):
		return contact.PaymentCOD
	case transferPattern.MatchString(value):
		return contact.PaymentTransfer
	default:
		return contact.PaymentUnknown
	}
}
