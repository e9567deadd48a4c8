// Package judicial fetches foreclosure announcements from the judiciary
// auction query endpoint.
//
// The endpoint speaks a session-bound query protocol: an initial GET on the
// search page establishes server-side session state and hands back a cookie
// set (JSESSIONID plus load-balancer persistence cookies), and the query POST
// is only accepted when that exact cookie set is replayed. Result pages are
// tied to the session established on page 1, so pagination is strictly
// sequential; firing page requests concurrently corrupts the server-side
// cursor and must not be attempted.
package judicial

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"foreclosure-ingest/models"
	"foreclosure-ingest/scraper"
	"foreclosure-ingest/utils"
)

const providerName = "judicial"

const (
	searchPath = "/judbp/wkw/WHD1A02.htm"
	queryPath  = "/judbp/wkw/WHD1A02_1.json"
)

// queryResponse is the JSON shape of one result page.
type queryResponse struct {
	Total int         `json:"total"`
	Rows  []resultRow `json:"rows"`
}

type resultRow struct {
	CourtName    string `json:"crtnm"`
	FilingYear   string `json:"year"`     // ROC year of the case filing
	CaseID       string `json:"caseid"`   // e.g. "司執字第12345號"
	SaleSequence string `json:"saleno"`   // sale round sequence within the case
	Address      string `json:"address"`
	SaleDate     string `json:"saledate"` // ROC compact date, e.g. "1150310"
	SaleRound    string `json:"saleround"`
	FloorPrice   string `json:"floorprice"` // 萬元, comma-grouped
	AreaPing     string `json:"area"`
	DeliverNote  string `json:"crmyn"` // free-text 點交/不點交 remark
	PhotoURL     string `json:"photourl"`
}

// Adapter implements scraper.Source for the judiciary endpoint.
type Adapter struct {
	baseURL string
	client  *resty.Client
	runlog  *utils.RunLog
	retry   *utils.RetryConfig
}

// New creates a judiciary adapter against the given base URL.
func New(baseURL string, timeout time.Duration, runlog *utils.RunLog, retry *utils.RetryConfig) *Adapter {
	return &Adapter{
		baseURL: baseURL,
		client:  scraper.NewHTTPClient(timeout),
		runlog:  runlog,
		retry:   retry,
	}
}

func (a *Adapter) Name() string { return providerName }

// Fetch establishes a query session and walks result pages sequentially.
// A page failure ends pagination with whatever was collected so far.
func (a *Adapter) Fetch(ctx context.Context, criteria models.Criteria) ([]models.RawRecord, error) {
	if err := a.openSession(ctx); err != nil {
		a.runlog.Errorf("[judicial] session setup failed: %v", err)
		return nil, err
	}

	var records []models.RawRecord
	for page := 1; page <= criteria.MaxPages; page++ {
		rows, total, err := a.queryPage(ctx, criteria.City, page)
		if err != nil {
			a.runlog.Errorf("[judicial] page %d failed, stopping pagination: %v", page, err)
			break
		}

		for _, row := range rows {
			records = append(records, rowToRecord(row, a.baseURL))
		}

		a.runlog.Logf("[judicial] page %d: %d rows (total reported: %d)", page, len(rows), total)
		if len(records) >= total || len(rows) == 0 {
			break
		}
	}

	a.runlog.Logf("[judicial] fetched %d raw records", len(records))
	return records, nil
}

// openSession performs the initial GET that seeds the cookie jar. The
// judiciary backend sits behind a load balancer whose persistence cookie must
// ride along on the query POST, so the session is considered open only when
// at least one cookie came back.
func (a *Adapter) openSession(ctx context.Context) error {
	var cookieCount int

	err := a.retry.Do("judicial-session", func() error {
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
		cookieCount = len(resp.Cookies())
		return nil
	})
	if err != nil {
		return err
	}

	if cookieCount == 0 {
		return &scraper.ProtocolError{
			Provider: providerName,
			Reason:   "no session cookie issued by search page",
		}
	}
	return nil
}

func (a *Adapter) queryPage(ctx context.Context, city string, page int) ([]resultRow, int, error) {
	var result queryResponse

	resp, err := a.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"courtX":   "",
			"cityX":    city,
			"pageNum":  strconv.Itoa(page),
			"pageSize": "20",
			"saleType": "1", // real property only
		}).
		SetResult(&result).
		Post(a.baseURL + queryPath)
	if err != nil {
		return nil, 0, &scraper.TransportError{Provider: providerName, Err: err}
	}
	if resp.StatusCode() != 200 {
		return nil, 0, &scraper.TransportError{
			Provider: providerName,
			Err:      fmt.Errorf("query status %d", resp.StatusCode()),
		}
	}
	// A session the backend no longer recognizes comes back as an HTML login
	// redirect with a 200 status; resty leaves the result zero-valued then.
	if result.Rows == nil && result.Total == 0 && len(resp.Body()) > 0 && resp.Body()[0] == '<' {
		return nil, 0, &scraper.ProtocolError{
			Provider: providerName,
			Reason:   "query rejected, HTML body where JSON expected (session lost)",
		}
	}

	return result.Rows, result.Total, nil
}

func rowToRecord(row resultRow, baseURL string) models.RawRecord {
	return models.RawRecord{
		"court":     row.CourtName,
		"year":      row.FilingYear,
		"caseNo":    row.CaseID,
		"saleNo":    row.SaleSequence,
		"address":   row.Address,
		"date":      row.SaleDate,
		"round":     row.SaleRound,
		"price":     row.FloorPrice,
		"areaPing":  row.AreaPing,
		"delivery":  row.DeliverNote,
		"images":    row.PhotoURL,
		"sourceUrl": baseURL + searchPath,
	}
}
