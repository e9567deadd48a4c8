// Package opendata fetches the government open-data auction dataset.
//
// The portal serves JSON to API clients but silently substitutes an HTML
// error page when it mistakes the caller for a browser or is having a bad
// day. The adapter always sends an explicit non-browser User-Agent and sniffs
// the body shape before parsing: an HTML-shaped payload where JSON was
// expected is a hard protocol failure, never something to feed the decoder.
package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"foreclosure-ingest/models"
	"foreclosure-ingest/scraper"
	"foreclosure-ingest/utils"
)

const providerName = "opendata"

const apiUserAgent = "foreclosure-ingest/1.0 (data pipeline)"

// datasetRecord is one row of the open dataset. Field names follow the
// portal's published schema.
type datasetRecord struct {
	ObjectID    string          `json:"object_id"`
	Address     string          `json:"address"`
	CourtName   string          `json:"court_name"`
	CaseNumber  string          `json:"case_number"`
	SaleDate    string          `json:"sale_date"` // ISO already
	SaleRound   json.RawMessage `json:"sale_round"`
	FloorPrice  json.RawMessage `json:"floor_price"` // 萬元, number or string
	AreaSqm     json.RawMessage `json:"area_sqm"`
	DeliverNote string          `json:"deliver_note"`
	PhotoURLs   []string        `json:"photo_urls"`
}

// Adapter implements scraper.Source for the open-data portal.
type Adapter struct {
	url    string
	client *resty.Client
	runlog *utils.RunLog
	retry  *utils.RetryConfig
}

// New creates an open-data adapter for the given dataset URL.
func New(url string, timeout time.Duration, runlog *utils.RunLog, retry *utils.RetryConfig) *Adapter {
	return &Adapter{
		url:    url,
		client: resty.New().SetTimeout(timeout).SetHeader("User-Agent", apiUserAgent),
		runlog: runlog,
		retry:  retry,
	}
}

func (a *Adapter) Name() string { return providerName }

// Fetch performs the single dataset GET.
func (a *Adapter) Fetch(ctx context.Context, _ models.Criteria) ([]models.RawRecord, error) {
	var body []byte

	err := a.retry.Do("opendata-dataset", func() error {
		resp, err := a.client.R().
			SetContext(ctx).
			Get(a.url)
		if err != nil {
			return &scraper.TransportError{Provider: providerName, Err: err}
		}
		if resp.StatusCode() != 200 {
			return &scraper.TransportError{
				Provider: providerName,
				Err:      fmt.Errorf("dataset status %d", resp.StatusCode()),
			}
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		a.runlog.Errorf("[opendata] dataset fetch failed: %v", err)
		return nil, err
	}

	if LooksLikeHTML(body) {
		perr := &scraper.ProtocolError{
			Provider: providerName,
			Reason:   "HTML body where JSON was expected",
		}
		a.runlog.Errorf("[opendata] %v", perr)
		return nil, perr
	}

	var dataset []datasetRecord
	if err := json.Unmarshal(body, &dataset); err != nil {
		derr := &scraper.DecodeError{Provider: providerName, Err: err}
		a.runlog.Errorf("[opendata] %v", derr)
		return nil, derr
	}

	records := make([]models.RawRecord, 0, len(dataset))
	for _, rec := range dataset {
		records = append(records, models.RawRecord{
			"objectId":  rec.ObjectID,
			"address":   rec.Address,
			"court":     rec.CourtName,
			"caseNo":    rec.CaseNumber,
			"date":      rec.SaleDate,
			"round":     rawToString(rec.SaleRound),
			"price":     rawToString(rec.FloorPrice),
			"areaSqm":   rawToString(rec.AreaSqm),
			"delivery":  rec.DeliverNote,
			"images":    strings.Join(rec.PhotoURLs, "|"),
			"sourceUrl": a.url,
		})
	}

	a.runlog.Logf("[opendata] fetched %d raw records", len(records))
	return records, nil
}

// LooksLikeHTML reports whether a payload is HTML-shaped: after leading
// whitespace it opens with a tag or doctype instead of a JSON value.
func LooksLikeHTML(body []byte) bool {
	trimmed := strings.TrimLeft(string(body), " \t\r\n")
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<!doctype") ||
		strings.HasPrefix(lower, "<html") ||
		strings.HasPrefix(trimmed, "<")
}

// rawToString flattens a JSON value that the portal emits inconsistently as
// either a number or a quoted string.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}
