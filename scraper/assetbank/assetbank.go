// Package assetbank fetches foreclosure listings from the asset-management
// bank's legacy server-rendered search page.
//
// The page is a stateful WebForms-style application: the search form carries
// hidden anti-forgery blobs (__VIEWSTATE and friends) that the server issues
// on GET and verifies on POST. The adapter scrapes those tokens out of the
// initial markup and resubmits them verbatim; a response without them is a
// protocol failure for this run, not something a retry can fix.
package assetbank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"foreclosure-ingest/models"
	"foreclosure-ingest/scraper"
	"foreclosure-ingest/utils"
)

const providerName = "assetbank"

const searchPath = "/auction/search.aspx"

var requiredTokens = []string{"__VIEWSTATE", "__VIEWSTATEGENERATOR", "__EVENTVALIDATION"}

// Adapter implements scraper.Source for the asset-bank listing site.
type Adapter struct {
	baseURL string
	client  *resty.Client
	runlog  *utils.RunLog
	retry   *utils.RetryConfig
}

// New creates an asset-bank adapter against the given base URL.
func New(baseURL string, timeout time.Duration, runlog *utils.RunLog, retry *utils.RetryConfig) *Adapter {
	return &Adapter{
		baseURL: baseURL,
		client:  scraper.NewHTTPClient(timeout),
		runlog:  runlog,
		retry:   retry,
	}
}

func (a *Adapter) Name() string { return providerName }

// Fetch performs the GET-scrape-POST dance and parses the result table.
func (a *Adapter) Fetch(ctx context.Context, criteria models.Criteria) ([]models.RawRecord, error) {
	page, err := a.fetchSearchPage(ctx)
	if err != nil {
		a.runlog.Errorf("[assetbank] search page fetch failed: %v", err)
		return nil, err
	}

	tokens := ExtractHiddenInputs(page)
	for _, name := range requiredTokens {
		if tokens[name] == "" {
			err := &scraper.ProtocolError{
				Provider: providerName,
				Reason:   fmt.Sprintf("search page missing hidden token %s", name),
			}
			a.runlog.Errorf("[assetbank] %v", err)
			return nil, err
		}
	}

	form := map[string]string{
		"ctl00$MainContent$ddlCity": criteria.City,
		"ctl00$MainContent$btnQry":  "查詢",
	}
	for name, value := range tokens {
		form[name] = value
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(a.baseURL + searchPath)
	if err != nil {
		terr := &scraper.TransportError{Provider: providerName, Err: err}
		a.runlog.Errorf("[assetbank] query POST failed: %v", terr)
		return nil, terr
	}
	if resp.StatusCode() != 200 {
		terr := &scraper.TransportError{
			Provider: providerName,
			Err:      fmt.Errorf("query status %d", resp.StatusCode()),
		}
		a.runlog.Errorf("[assetbank] query POST failed: %v", terr)
		return nil, terr
	}

	rows, err := ParseResultTable(string(resp.Body()))
	if err != nil {
		perr := &scraper.ProtocolError{Provider: providerName, Reason: err.Error()}
		a.runlog.Errorf("[assetbank] result parse failed: %v", perr)
		return nil, perr
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, cells := range rows {
		records = append(records, models.RawRecord{
			"caseNo":    cells[0],
			"address":   cells[1],
			"date":      cells[2], // ROC with separators, e.g. "115/03/10"
			"price":     cells[3], // 萬元
			"areaSqm":   cells[4],
			"delivery":  cells[5],
			"sourceUrl": a.baseURL + searchPath,
		})
	}

	a.runlog.Logf("[assetbank] fetched %d raw records", len(records))
	return records, nil
}

func (a *Adapter) fetchSearchPage(ctx context.Context) (string, error) {
	var body string

	err := a.retry.Do("assetbank-search-page", func() error {
		resp, err := a.client.R().
			SetContext(ctx).
			Get(a.baseURL + searchPath)
		if err != nil {
			return &scraper.TransportError{Provider: providerName, Err: err}
		}
		if resp.StatusCode() != 200 {
			return &scraper.TransportError{
				Provider: providerName,
				Err:      fmt.Errorf("search page status %d", resp.StatusCode()),
			}
		}
		body = string(resp.Body())
		return nil
	})
	if err != nil {
		return "", err
	}

	if !strings.Contains(body, "__VIEWSTATE") {
		return "", &scraper.ProtocolError{
			Provider: providerName,
			Reason:   "search page markup carries no viewstate form",
		}
	}
	return body, nil
}
