package services

import (
	"reflect"
	"testing"
	"time"

	"foreclosure-ingest/models"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func testNormalizer() *Normalizer {
	return NewNormalizerAt(fixedClock)
}

func TestNormalizeDateROCCompact(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1150310", "2026-03-10"},
		{"1131231", "2024-12-31"},
		{"115/03/10", "2026-03-10"},
		{"115.3.10", "2026-03-10"},
		{"2026-03-10", "2026-03-10"},
		{"", models.PlaceholderDate},
		{"下次公告", models.PlaceholderDate},
		{"1151340", models.PlaceholderDate}, // month 13
		{"1150231", models.PlaceholderDate}, // Feb 31 is not a real day
		{"1150431", models.PlaceholderDate}, // Apr 31 either
		{"1150229", models.PlaceholderDate}, // 2026 is not a leap year
		{"1170229", "2028-02-29"},           // 2028 is
	}

	for _, tt := range tests {
		got := normalizeDate(tt.raw)
		if got != tt.want {
			t.Errorf("normalizeDate(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParsePriceWan(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"1,000", 10000000},
		{"1000", 10000000},
		{"550.5", 5505000},
		{"1.13", 11300}, // must round, not truncate the float product
		{"2,480.57", 24805700},
		{"", 0},
		{"面議", 0},
	}

	for _, tt := range tests {
		got := parsePriceWan(tt.raw)
		if got != tt.want {
			t.Errorf("parsePriceWan(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseAreaConvertsSquareMeters(t *testing.T) {
	rec := models.RawRecord{"areaSqm": "100.0"}
	if got := parseArea(rec); got != 30.25 {
		t.Errorf("parseArea(100 sqm) = %v; want 30.25", got)
	}
}

func TestParseAreaPingPassesThrough(t *testing.T) {
	rec := models.RawRecord{"areaPing": "30.25"}
	if got := parseArea(rec); got != 30.25 {
		t.Errorf("parseArea(30.25 ping) = %v; want 30.25", got)
	}
}

func TestClassifyDelivery(t *testing.T) {
	tests := []struct {
		note string
		want models.DeliveryStatus
	}{
		{"拍定後點交", models.Delivered},
		{"點交", models.Delivered},
		{"不點交", models.NotDelivered},
		{"本件無法點交", models.NotDelivered},
		{"詳閱公告", models.Unspecified},
		{"", models.Unspecified},
	}

	for _, tt := range tests {
		got := ClassifyDelivery(tt.note)
		if got != tt.want {
			t.Errorf("ClassifyDelivery(%q) = %q; want %q", tt.note, got, tt.want)
		}
	}
}

// A record with a price but no area must normalize with a zero unit price,
// never a division error.
func TestNormalizeZeroAreaUnitPrice(t *testing.T) {
	n := testNormalizer()
	rec := models.RawRecord{
		"objectId": "A1234",
		"address":  "台北市中正區某路1號",
		"price":    "1,000",
	}

	listing, err := n.Normalize("assetbank", rec)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if listing.BasePrice != 10000000 {
		t.Errorf("BasePrice = %d; want 10000000", listing.BasePrice)
	}
	if listing.UnitPrice != 0 {
		t.Errorf("UnitPrice = %v; want 0", listing.UnitPrice)
	}
}

// Every required field resolves to a documented default; the canonical
// record is always whole.
func TestNormalizeTotalDefaults(t *testing.T) {
	n := testNormalizer()
	rec := models.RawRecord{"objectId": "B9"}

	listing, err := n.Normalize("landbank", rec)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if listing.Address != models.PlaceholderAddress {
		t.Errorf("Address = %q; want placeholder", listing.Address)
	}
	if listing.Court != models.PlaceholderCourt {
		t.Errorf("Court = %q; want placeholder", listing.Court)
	}
	if listing.CaseNumber != models.PlaceholderCase {
		t.Errorf("CaseNumber = %q; want placeholder", listing.CaseNumber)
	}
	if listing.AuctionDate != models.PlaceholderDate {
		t.Errorf("AuctionDate = %q; want placeholder", listing.AuctionDate)
	}
	if listing.AuctionRound != 1 {
		t.Errorf("AuctionRound = %d; want 1", listing.AuctionRound)
	}
	if listing.DeliveryStatus != models.Unspecified {
		t.Errorf("DeliveryStatus = %q; want unspecified", listing.DeliveryStatus)
	}
	if listing.ImageURLs == nil || len(listing.ImageURLs) != 0 {
		t.Errorf("ImageURLs = %v; want empty non-nil slice", listing.ImageURLs)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	n := testNormalizer()
	rec := models.RawRecord{
		"court":    "臺灣臺北地方法院",
		"year":     "114",
		"caseNo":   "司執字第12345號",
		"saleNo":   "1",
		"address":  "台北市大安區某街9號",
		"date":     "1150310",
		"price":    "2,500",
		"areaPing": "25.5",
		"delivery": "點交",
	}

	first, err := n.Normalize("judicial", rec)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	second, err := n.Normalize("judicial", rec)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Normalize is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first.AuctionDate != "2026-03-10" {
		t.Errorf("AuctionDate = %q; want 2026-03-10", first.AuctionDate)
	}
}

func TestNormalizeBatchDropsKeylessRecords(t *testing.T) {
	n := testNormalizer()
	batch := []models.RawRecord{
		{"objectId": "C1", "address": "台北市信義區"},
		{"address": "沒有案號的列"},
		{"objectId": "C2"},
	}

	listings, dropped := n.NormalizeBatch("metrobank", batch)
	if len(listings) != 2 {
		t.Errorf("normalized %d listings; want 2", len(listings))
	}
	if dropped != 1 {
		t.Errorf("dropped = %d; want 1", dropped)
	}
}

func TestNormalizeImageSplit(t *testing.T) {
	n := testNormalizer()
	rec := models.RawRecord{
		"objectId": "D1",
		"images":   "https://a/1.jpg|https://a/2.jpg||",
	}

	listing, err := n.Normalize("opendata", rec)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	want := []string{"https://a/1.jpg", "https://a/2.jpg"}
	if !reflect.DeepEqual(listing.ImageURLs, want) {
		t.Errorf("ImageURLs = %v; want %v", listing.ImageURLs, want)
	}
}
