// Package corrector resolves the extractor's draft administrative-area
// names against the reference dataset, top down: province, then regency,
// district, and village, each scoped to its resolved parent so same-named
// areas in unrelated regions cannot collide.
package corrector

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"kiriman/internal/contact"
	"kiriman/internal/wilayah"
)

// Similarity scoring knobs. The blended score weighs JaroWinkler against a
// normalized levenshtein similarity; DefaultThreshold is permissive enough
// to absorb roughly 40% character-level edit distance.
const (
	DefaultThreshold = 0.60
	jaroWeight       = 0.70
	levWeight        = 0.30

	// Queries shorter than this after qualifier stripping are not matched
	// at all.
	minQueryLen = 2
)

// Lookup is the slice of the wilayah client the corrector needs.
type Lookup interface {
	Provinces(ctx context.Context) ([]wilayah.Area, error)
	Regencies(ctx context.Context, provinceID string) ([]wilayah.Area, error)
	Districts(ctx context.Context, regencyID string) ([]wilayah.Area, error)
	Villages(ctx context.Context, districtID string) ([]wilayah.Area, error)
}

// Corrector corrects spelling, casing, and abbreviation variance in a
// draft's administrative names.
type Corrector struct {
	lookup    Lookup
	logger    *zap.Logger
	threshold float64
}

// New creates a Corrector. A non-positive threshold selects
// DefaultThreshold.
func New(lookup Lookup, logger *zap.Logger, threshold float64) *Corrector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Corrector{
		lookup:    lookup,
		logger:    logger.With(zap.String("component", "corrector")),
		threshold: threshold,
	}
}

// Correct returns an augmented copy of the draft with corrected area names,
// reference ids, and an audit trail of the rewrites applied. It never fails:
// a lookup error skips that step (and every step below it), clears
// Validated, and leaves the field as extracted; a name that clears no
// candidate is simply left alone.
func (co *Corrector) Correct(ctx context.Context, draft *contact.Contact) *contact.Contact {
	out := draft.Clone()
	out.Validated = true

	co.resolveProvince(ctx, out)
	co.resolveRegency(ctx, out)
	co.resolveDistrict(ctx, out)
	co.resolveVillage(ctx, out)

	co.logger.Debug("correction done",
		zap.Bool("validated", out.Validated),
		zap.Int("corrections", len(out.Corrections)),
		zap.String("province_id", out.ReferenceIDs.ProvinceID),
		zap.String("village_id", out.ReferenceIDs.VillageID),
	)
	return out
}

func (co *Corrector) resolveProvince(ctx context.Context, c *contact.Contact) {
	if c.Province == "" {
		return
	}
	provinces, err := co.lookup.Provinces(ctx)
	if err != nil {
		co.degrade(c, "province", err)
		return
	}
	if area, score, ok := co.bestMatch(c.Province, provinces); ok {
		co.apply(c, "province", &c.Province, &c.ReferenceIDs.ProvinceID, area, score)
	}
}

func (co *Corrector) resolveRegency(ctx context.Context, c *contact.Contact) {
	if c.Regency == "" {
		return
	}
	if c.ReferenceIDs.ProvinceID != "" {
		regencies, err := co.lookup.Regencies(ctx, c.ReferenceIDs.ProvinceID)
		if err != nil {
			co.degrade(c, "regency", err)
			return
		}
		if area, score, ok := co.bestMatch(c.Regency, regencies); ok {
			co.apply(c, "regency", &c.Regency, &c.ReferenceIDs.RegencyID, area, score)
		}
		return
	}
	co.resolveRegencyAnyProvince(ctx, c)
}

// resolveRegencyAnyProvince is the unscoped fallback used when no province
// resolved: every province's regency list is searched in dataset order and
// the first candidate clearing the threshold wins. Same-named regencies in
// different provinces therefore resolve arbitrarily; the winning parent is
// backfilled as the province.
func (co *Corrector) resolveRegencyAnyProvince(ctx context.Context, c *contact.Contact) {
	provinces, err := co.lookup.Provinces(ctx)
	if err != nil {
		co.degrade(c, "regency", err)
		return
	}
	for _, province := range provinces {
		regencies, err := co.lookup.Regencies(ctx, province.ID)
		if err != nil {
			co.degrade(c, "regency", err)
			continue
		}
		area, score, ok := co.bestMatch(c.Regency, regencies)
		if !ok {
			continue
		}
		co.apply(c, "regency", &c.Regency, &c.ReferenceIDs.RegencyID, area, score)
		if c.Province == "" {
			co.apply(c, "province", &c.Province, &c.ReferenceIDs.ProvinceID, province, 1)
		} else {
			c.ReferenceIDs.ProvinceID = province.ID
		}
		return
	}
}

func (co *Corrector) resolveDistrict(ctx context.Context, c *contact.Contact) {
	if c.District == "" || c.ReferenceIDs.RegencyID == "" {
		return
	}
	districts, err := co.lookup.Districts(ctx, c.ReferenceIDs.RegencyID)
	if err != nil {
		co.degrade(c, "district", err)
		return
	}
	if area, score, ok := co.bestMatch(c.District, districts); ok {
		co.apply(c, "district", &c.District, &c.ReferenceIDs.DistrictID, area, score)
	}
}

func (co *Corrector) resolveVillage(ctx context.Context, c *contact.Contact) {
	if c.Village == "" || c.ReferenceIDs.DistrictID == "" {
		return
	}
	villages, err := co.lookup.Villages(ctx, c.ReferenceIDs.DistrictID)
	if err != nil {
		co.degrade(c, "village", err)
		return
	}
	if area, score, ok := co.bestMatch(c.Village, villages); ok {
		co.apply(c, "village", &c.Village, &c.ReferenceIDs.VillageID, area, score)
	}
}

// apply rewrites the field to the reference display name and records a
// correction entry when the change goes beyond casing.
func (co *Corrector) apply(c *contact.Contact, field string, value *string, id *string, area wilayah.Area, score float64) {
	if !strings.EqualFold(*value, area.Name) {
		c.Corrections = append(c.Corrections, contact.Correction{
			Field:          field,
			OriginalValue:  *value,
			CorrectedValue: area.Name,
		})
	}
	co.logger.Debug("area resolved",
		zap.String("field", field),
		zap.String("query", *value),
		zap.String("matched", area.Name),
		zap.Float64("score", score),
	)
	*value = area.Name
	*id = area.ID
}

// degrade handles a lookup failure: log, clear Validated, leave the field
// as extracted. Steps below the failed one skip themselves via the missing
// parent id.
func (co *Corrector) degrade(c *contact.Contact, field string, err error) {
	co.logger.Warn("reference lookup failed, leaving field as-is",
		zap.String("field", field),
		zap.Error(err),
	)
	c.Validated = false
}

// bestMatch returns the highest-scoring candidate above the threshold.
// Qualifier words ("kabupaten", "kec.", ...) are stripped from both sides
// before scoring so "Sidoarjo" still lands on "KABUPATEN SIDOARJO".
func (co *Corrector) bestMatch(query string, candidates []wilayah.Area) (wilayah.Area, float64, bool) {
	q := normalize(query)
	if len([]rune(q)) < minQueryLen {
		return wilayah.Area{}, 0, false
	}

	var (
		best      wilayah.Area
		bestScore float64
		found     bool
	)
	for _, cand := range candidates {
		score := similarity(q, normalize(cand.Name))
		if score >= co.threshold && score > bestScore {
			best, bestScore, found = cand, score, true
		}
	}
	return best, bestScore, found
}

var qualifierPrefixes = []string{
	"kabupaten", "kab.", "kab", "kota",
	"provinsi", "prov.", "prov",
	"kecamatan", "kec.", "kec",
	"kelurahan", "kel.", "kel", "desa",
}

// normalize lowercases, unaccents, and strips a leading qualifier word.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
	for _, prefix := range qualifierPrefixes {
		if s == prefix {
			return ""
		}
		if strings.HasPrefix(s, prefix+" ") {
			return strings.TrimSpace(s[len(prefix)+1:])
		}
	}
	return s
}

// similarity blends JaroWinkler with a length-normalized levenshtein
// similarity, both on normalized input.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	lev := 1.0 - float64(dist)/float64(maxLen)
	return jaroWeight*jw + levWeight*lev
}
