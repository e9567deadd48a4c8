package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"foreclosure-ingest/models"
	"foreclosure-ingest/scraper"
)

const (
	// rocYearOffset converts a Republic-of-China calendar year to the
	// Gregorian year.
	rocYearOffset = 1911

	// sqmToPing is the fixed conversion factor from square meters to 坪.
	sqmToPing = 0.3025

	// priceScale converts provider prices quoted in 萬元 (units of 10,000
	// TWD) into the smallest currency unit.
	priceScale = 10000
)

var (
	// rocCompactRegexp matches the judiciary's compact ROC date, e.g. "1150310".
	rocCompactRegexp = regexp.MustCompile(`^(\d{3})(\d{2})(\d{2})$`)
	// rocSeparatedRegexp matches separator forms, e.g. "115/03/10" or "115.3.10".
	rocSeparatedRegexp = regexp.MustCompile(`^(\d{2,3})[./-](\d{1,2})[./-](\d{1,2})$`)
	// isoDateRegexp matches dates already in ISO form.
	isoDateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// numberRegexp captures the first numeric value in a free-text field.
	numberRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
)

// Delivery-flag phrases, checked negatives first: 「不點交」 contains 「點交」,
// so order matters.
var (
	deliveryNegative = []string{"不點交", "無法點交", "不予點交"}
	deliveryPositive = []string{"點交"}
)

// Normalizer maps provider-shaped raw records onto the canonical Listing.
// It performs no I/O and holds no mutable state: the same RawRecord always
// yields the same Listing, which is what makes re-runs idempotent and the
// whole layer testable in isolation.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer stamping listings with the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerAt creates a Normalizer with a fixed clock, for tests.
func NewNormalizerAt(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// NormalizeBatch maps a raw batch onto canonical listings. Records without a
// stable natural key are dropped individually; the count of drops is returned
// for the caller to log.
func (n *Normalizer) NormalizeBatch(provider string, batch []models.RawRecord) ([]models.Listing, int) {
	listings := make([]models.Listing, 0, len(batch))
	dropped := 0

	for _, rec := range batch {
		listing, err := n.Normalize(provider, rec)
		if err != nil {
			dropped++
			continue
		}
		listings = append(listings, listing)
	}
	return listings, dropped
}

// Normalize maps one raw record onto a fully-populated Listing. Every
// canonical field has a documented default, so the output is always whole;
// the only failure mode is a missing natural key (ValidationError), which
// drops the single record.
func (n *Normalizer) Normalize(provider string, rec models.RawRecord) (models.Listing, error) {
	id, err := naturalID(provider, rec)
	if err != nil {
		return models.Listing{}, err
	}

	basePrice := parsePriceWan(rec.Get("price"))
	areaPing := parseArea(rec)

	unitPrice := 0.0
	if areaPing > 0 {
		unitPrice = float64(basePrice) / areaPing
	}

	return models.Listing{
		ID:             id,
		Provider:       provider,
		SourceURL:      rec.Get("sourceUrl"),
		Address:        textOr(rec.Get("address"), models.PlaceholderAddress),
		Court:          textOr(rec.Get("court"), models.PlaceholderCourt),
		CaseNumber:     textOr(rec.Get("caseNo"), models.PlaceholderCase),
		AuctionDate:    normalizeDate(rec.Get("date")),
		AuctionRound:   parseRound(rec.Get("round")),
		BasePrice:      basePrice,
		AreaPing:       areaPing,
		UnitPrice:      unitPrice,
		DeliveryStatus: ClassifyDelivery(rec.Get("delivery")),
		ImageURLs:      splitImages(rec.Get("images")),
		ScrapedAt:      n.now(),
	}, nil
}

// naturalID assembles the provider's natural key and builds the canonical id.
// The judiciary identifies a sale by court + filing year + case + sale
// sequence; every other provider assigns a stable object or case number.
func naturalID(provider string, rec models.RawRecord) (string, error) {
	var parts []string
	switch provider {
	case "judicial":
		parts = []string{rec.Get("court"), rec.Get("year"), rec.Get("caseNo"), rec.Get("saleNo")}
	default:
		key := rec.Get("objectId")
		if key == "" {
			key = rec.Get("caseNo")
		}
		parts = []string{key}
	}

	id, err := BuildID(provider, parts...)
	if err != nil {
		return "", &scraper.ValidationError{Provider: provider, Field: "natural key"}
	}
	return id, nil
}

// normalizeDate converts a source date to ISO form. ROC-calendar input is
// recognized by digit pattern and shifted by the fixed year offset; input
// already in ISO form passes through; anything else degrades to the
// documented placeholder date.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)

	if isoDateRegexp.MatchString(raw) {
		return raw
	}

	var y, m, d string
	if match := rocCompactRegexp.FindStringSubmatch(raw); match != nil {
		y, m, d = match[1], match[2], match[3]
	} else if match := rocSeparatedRegexp.FindStringSubmatch(raw); match != nil {
		y, m, d = match[1], match[2], match[3]
	} else {
		return models.PlaceholderDate
	}

	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return models.PlaceholderDate
	}

	converted := time.Date(year+rocYearOffset, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes impossible dates (Feb 31 becomes Mar 3); a
	// round-trip mismatch means the source date was not a real calendar day.
	if converted.Day() != day || converted.Month() != time.Month(month) {
		return models.PlaceholderDate
	}
	return converted.Format("2006-01-02")
}

// parsePriceWan parses a 萬元-quoted price into minor currency units.
// Unparseable or negative input degrades to 0.
func parsePriceWan(raw string) int64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := numberRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}
	wan, err := strconv.ParseFloat(match, 64)
	if err != nil || wan < 0 {
		return 0
	}
	// Round, don't truncate: decimal 萬元 amounts land just below the exact
	// product in binary floating point (1.13 * 10000 = 11299.999...).
	return int64(math.Round(wan * priceScale))
}

// parseArea resolves the area in 坪. Providers quoting square meters are
// converted with the fixed factor; providers quoting 坪 pass through.
func parseArea(rec models.RawRecord) float64 {
	if raw := rec.Get("areaPing"); raw != "" {
		return parseFloatField(raw)
	}
	if raw := rec.Get("areaSqm"); raw != "" {
		return parseFloatField(raw) * sqmToPing
	}
	return 0
}

func parseFloatField(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := numberRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseRound parses the auction round, defaulting to 1 when unspecified.
func parseRound(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ClassifyDelivery maps a free-text delivery remark onto the three-value
// enum by substring matching.
func ClassifyDelivery(note string) models.DeliveryStatus {
	for _, phrase := range deliveryNegative {
		if strings.Contains(note, phrase) {
			return models.NotDelivered
		}
	}
	for _, phrase := range deliveryPositive {
		if strings.Contains(note, phrase) {
			return models.Delivered
		}
	}
	return models.Unspecified
}

func textOr(s, fallback string) string {
	s = collapseWhitespace(s)
	if s == "" {
		return fallback
	}
	return s
}

func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func splitImages(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}
