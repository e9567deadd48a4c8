package judicial

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foreclosure-ingest/models"
	"foreclosure-ingest/scraper"
	"foreclosure-ingest/utils"
)

func newTestAdapter(baseURL string) *Adapter {
	logger := utils.NewLogger()
	return New(baseURL, 5*time.Second, utils.NewRunLog(logger), &utils.RetryConfig{
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		Logger:      logger,
	})
}

func sampleRows() []resultRow {
	return []resultRow{
		{
			CourtName:    "臺灣臺北地方法院",
			FilingYear:   "114",
			CaseID:       "司執字第12345號",
			SaleSequence: "1",
			Address:      "台北市大安區某街9號",
			SaleDate:     "1150310",
			SaleRound:    "2",
			FloorPrice:   "2,500",
			AreaPing:     "25.5",
			DeliverNote:  "點交",
			PhotoURL:     "https://img.example/j1.jpg",
		},
		{
			CourtName:    "臺灣士林地方法院",
			FilingYear:   "113",
			CaseID:       "司執字第67號",
			SaleSequence: "3",
			Address:      "台北市士林區某路2號",
			SaleDate:     "1150401",
			SaleRound:    "1",
			FloorPrice:   "880",
			AreaPing:     "18.2",
			DeliverNote:  "不點交",
		},
	}
}

// A healthy provider issues a session cookie on the search page and accepts
// the query POST only when that cookie rides along.
func TestFetchReplaysSessionCookie(t *testing.T) {
	rows := sampleRows()

	mux := http.NewServeMux()
	mux.HandleFunc(searchPath, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "BIGipServer", Value: "pool-7", Path: "/"})
		w.Write([]byte("<html>search form</html>"))
	})
	mux.HandleFunc(queryPath, func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("JSESSIONID"); err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(queryResponse{Total: len(rows), Rows: rows})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	records, err := newTestAdapter(srv.URL).Fetch(context.Background(),
		models.Criteria{City: "台北市", MaxPages: 3})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("fetched %d records; want 2", len(records))
	}

	first := records[0]
	if first.Get("court") != "臺灣臺北地方法院" {
		t.Errorf("court = %q", first.Get("court"))
	}
	if first.Get("caseNo") != "司執字第12345號" {
		t.Errorf("caseNo = %q", first.Get("caseNo"))
	}
	if first.Get("saleNo") != "1" {
		t.Errorf("saleNo = %q", first.Get("saleNo"))
	}
	if first.Get("date") != "1150310" {
		t.Errorf("date = %q", first.Get("date"))
	}
	if first.Get("sourceUrl") != srv.URL+searchPath {
		t.Errorf("sourceUrl = %q", first.Get("sourceUrl"))
	}
}

// A search page that issues no cookie at all means the query would be
// rejected anyway: adapter-fatal ProtocolError, no query attempted.
func TestFetchNoSessionCookie(t *testing.T) {
	queried := false

	mux := http.NewServeMux()
	mux.HandleFunc(searchPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>no cookies here</html>"))
	})
	mux.HandleFunc(queryPath, func(w http.ResponseWriter, r *http.Request) {
		queried = true
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	records, err := newTestAdapter(srv.URL).Fetch(context.Background(),
		models.Criteria{City: "台北市", MaxPages: 1})

	var perr *scraper.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("Fetch error = %v; want ProtocolError", err)
	}
	if len(records) != 0 {
		t.Errorf("fetched %d records from dead session; want 0", len(records))
	}
	if queried {
		t.Error("query POST attempted without a session")
	}
}

// A backend that lost the session answers the query POST with an HTML login
// page and a 200 status; the adapter must classify that, not parse it.
func TestQueryPageHTMLBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(queryPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>請重新登入</body></html>"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, _, err := newTestAdapter(srv.URL).queryPage(context.Background(), "台北市", 1)

	var perr *scraper.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("queryPage error = %v; want ProtocolError", err)
	}
}

func TestRowToRecordMapping(t *testing.T) {
	rec := rowToRecord(sampleRows()[1], "https://base.example")

	want := map[string]string{
		"court":    "臺灣士林地方法院",
		"year":     "113",
		"caseNo":   "司執字第67號",
		"saleNo":   "3",
		"round":    "1",
		"price":    "880",
		"areaPing": "18.2",
		"delivery": "不點交",
		"images":   "",
	}
	for key, value := range want {
		if rec.Get(key) != value {
			t.Errorf("record[%s] = %q; want %q", key, rec.Get(key), value)
		}
	}
}
