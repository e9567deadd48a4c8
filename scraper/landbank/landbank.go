// Package landbank fetches the land bank's foreclosure listing page.
//
// The page is a static server-rendered table served as Big5, not UTF-8.
// Parsing the body without decoding it first corrupts every multi-byte
// character silently, so the adapter decodes the raw bytes through the Big5
// decoder before the markup ever reaches the parser. The table itself has no
// class or id hooks; rows are recognized purely by shape and decoration rows
// are skipped by their known label strings.
package landbank

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/traditionalchinese"

	"foreclosure-ingest/models"
	"foreclosure-ingest/scraper"
	"foreclosure-ingest/utils"
)

const providerName = "landbank"

const listingPath = "/sale/house_list.html"

// Adapter implements scraper.Source for the land-bank listing page.
type Adapter struct {
	baseURL string
	client  *resty.Client
	runlog  *utils.RunLog
	retry   *utils.RetryConfig
}

// New creates a land-bank adapter against the given base URL.
func New(baseURL string, timeout time.Duration, runlog *utils.RunLog, retry *utils.RetryConfig) *Adapter {
	return &Adapter{
		baseURL: baseURL,
		client:  scraper.NewHTTPClient(timeout),
		runlog:  runlog,
		retry:   retry,
	}
}

func (a *Adapter) Name() string { return providerName }

// Fetch downloads the fixed listing page, decodes Big5 and parses rows.
func (a *Adapter) Fetch(ctx context.Context, _ models.Criteria) ([]models.RawRecord, error) {
	var raw []byte

	err := a.retry.Do("landbank-listing-page", func() error {
		resp, err := a.client.R().
			SetContext(ctx).
			Get(a.baseURL + listingPath)
		if err != nil {
			return &scraper.TransportError{Provider: providerName, Err: err}
		}
		if resp.StatusCode() != 200 {
			return &scraper.TransportError{
				Provider: providerName,
				Err:      fmt.Errorf("listing page status %d", resp.StatusCode()),
			}
		}
		raw = resp.Body()
		return nil
	})
	if err != nil {
		a.runlog.Errorf("[landbank] listing page fetch failed: %v", err)
		return nil, err
	}

	page, err := decodeBig5(raw)
	if err != nil {
		derr := &scraper.DecodeError{Provider: providerName, Err: err}
		a.runlog.Errorf("[landbank] %v", derr)
		return nil, derr
	}

	rows, err := ParseListingTable(page)
	if err != nil {
		perr := &scraper.ProtocolError{Provider: providerName, Reason: err.Error()}
		a.runlog.Errorf("[landbank] %v", perr)
		return nil, perr
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, cells := range rows {
		records = append(records, models.RawRecord{
			"caseNo":    cells[0],
			"address":   cells[1],
			"date":      cells[2], // ROC with separators
			"round":     cells[3],
			"price":     cells[4], // 萬元
			"areaPing":  cells[5],
			"delivery":  cells[6],
			"sourceUrl": a.baseURL + listingPath,
		})
	}

	a.runlog.Logf("[landbank] fetched %d raw records", len(records))
	return records, nil
}

func decodeBig5(raw []byte) (string, error) {
	decoded, err := traditionalchinese.Big5.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("big5 decode: %w", err)
	}
	return string(decoded), nil
}
