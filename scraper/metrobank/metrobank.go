// Package metrobank fetches foreclosure listings from the metro bank's
// listing site.
//
// The site renders nothing server-side: the listing data only exists after
// client-side script pulls it from an internal API. Instead of scraping the
// assembled DOM (whose markup shifts with every frontend release), the
// adapter drives a real browser and intercepts the network responses the page
// itself loads, extracting the JSON payloads directly from the intercepted
// bodies.
package metrobank

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"foreclosure-ingest/models"
	"foreclosure-ingest/scraper"
	"foreclosure-ingest/utils"
)

const providerName = "metrobank"

const listingPath = "/foreclosure/list"

// payloadKeywords identify the XHR responses carrying listing data. URL
// matching is the only stable hook; endpoint paths move between releases but
// have always kept these fragments.
var payloadKeywords = []string{"auction", "foreclosure", "houselist"}

// Adapter implements scraper.Source by driving a headless browser.
type Adapter struct {
	baseURL   string
	chromeBin string
	timeout   time.Duration
	runlog    *utils.RunLog
}

// New creates a metro-bank adapter. chromeBin may be empty; the binary is
// then discovered from PATH and known install locations.
func New(baseURL, chromeBin string, timeout time.Duration, runlog *utils.RunLog) *Adapter {
	return &Adapter{
		baseURL:   baseURL,
		chromeBin: chromeBin,
		timeout:   timeout,
		runlog:    runlog,
	}
}

func (a *Adapter) Name() string { return providerName }

// Fetch loads the listing page in a headless browser and drains every
// intercepted payload response.
func (a *Adapter) Fetch(ctx context.Context, _ models.Criteria) ([]models.RawRecord, error) {
	chromeBin := a.chromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, a.timeout)
	defer cancelTimeout()

	var (
		mu         sync.Mutex
		requestIDs []network.RequestID
	)
	seen := utils.NewURLSet()

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeXHR && resp.Type != network.ResourceTypeFetch {
			return
		}
		if !matchesPayloadURL(resp.Response.URL) || !seen.Add(resp.Response.URL) {
			return
		}
		mu.Lock()
		requestIDs = append(requestIDs, resp.RequestID)
		mu.Unlock()
	})

	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(a.baseURL+listingPath),
		// Let the page finish its XHR round-trips.
		chromedp.Sleep(6*time.Second),
	)
	if err != nil {
		terr := &scraper.TransportError{Provider: providerName, Err: err}
		a.runlog.Errorf("[metrobank] page load failed: %v", terr)
		return nil, terr
	}

	mu.Lock()
	ids := append([]network.RequestID(nil), requestIDs...)
	mu.Unlock()

	if len(ids) == 0 {
		perr := &scraper.ProtocolError{
			Provider: providerName,
			Reason:   "no listing payload responses intercepted",
		}
		a.runlog.Errorf("[metrobank] %v", perr)
		return nil, perr
	}

	var records []models.RawRecord
	for _, id := range ids {
		var body []byte
		err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			b, err := network.GetResponseBody(id).Do(ctx)
			body = b
			return err
		}))
		if err != nil {
			a.runlog.Errorf("[metrobank] response body read failed: %v", err)
			continue
		}

		recs, err := ParsePayload(body, a.baseURL+listingPath)
		if err != nil {
			a.runlog.Errorf("[metrobank] payload parse failed: %v", err)
			continue
		}
		records = append(records, recs...)
	}

	a.runlog.Logf("[metrobank] fetched %d raw records from %d payloads", len(records), len(ids))
	return records, nil
}

func matchesPayloadURL(url string) bool {
	lower := strings.ToLower(url)
	for _, kw := range payloadKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
