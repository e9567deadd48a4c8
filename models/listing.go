package models

import "time"

// RawRecord is the provider-native shape of one auction record: a loose
// key-value bag exactly as the adapter pulled it off the wire. RawRecords
// live only between a fetch call and the normalizer; they are never persisted.
//
// Conventional keys are documented at each adapter. Values are always strings;
// adapters stringify numeric payload fields so the untyped zone stays bounded
// to this one type.
type RawRecord map[string]string

// Get returns the value for key, or "" when absent.
func (r RawRecord) Get(key string) string {
	if v, ok := r[key]; ok {
		return v
	}
	return ""
}

// DeliveryStatus classifies whether the court delivers possession of the
// property to the winning bidder.
type DeliveryStatus string

const (
	Delivered    DeliveryStatus = "delivered"
	NotDelivered DeliveryStatus = "not-delivered"
	Unspecified  DeliveryStatus = "unspecified"
)

// Placeholder values used when a provider omits a required text field.
// A canonical Listing never carries an empty required field.
const (
	PlaceholderAddress = "地址未提供"
	PlaceholderCourt   = "法院未提供"
	PlaceholderCase    = "案號未提供"
	PlaceholderDate    = "1970-01-01"
)

// Listing is the canonical, fully-populated auction record. Every field has a
// documented default so a Listing is always whole by the time it reaches
// storage — there is no partial canonical record.
type Listing struct {
	ID             string         `json:"id"`
	Provider       string         `json:"provider"`
	SourceURL      string         `json:"source_url"`
	Address        string         `json:"address"`
	Court          string         `json:"court"`
	CaseNumber     string         `json:"case_number"`
	AuctionDate    string         `json:"auction_date"` // ISO calendar date
	AuctionRound   int            `json:"auction_round"`
	BasePrice      int64          `json:"base_price"` // smallest currency unit (TWD)
	AreaPing       float64        `json:"area_ping"`
	UnitPrice      float64        `json:"unit_price"` // BasePrice / AreaPing, 0 when area is 0
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	ImageURLs      []string       `json:"image_urls"`
	ScrapedAt      time.Time      `json:"scraped_at"`
}

// Criteria narrows what a source adapter fetches.
type Criteria struct {
	City     string // city keyword, provider-native meaning
	MaxPages int    // pagination cap for paginated providers
}
