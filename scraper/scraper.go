package scraper

import (
	"context"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"

	"foreclosure-ingest/models"
)

// Source is a per-provider adapter. Fetch returns the provider-shaped raw
// records for the given criteria. A degraded provider yields an empty slice
// and a classified error; Fetch never panics past its own boundary, so one
// broken provider can never take the rest of the run down with it.
type Source interface {
	Name() string
	Fetch(ctx context.Context, criteria models.Criteria) ([]models.RawRecord, error)
}

// NewHTTPClient builds the resty client all HTTP adapters share the shape of:
// a hard timeout on every call and a session cookie jar. Providers behind
// load balancers hand out persistence cookies on the first GET and reject any
// follow-up that does not replay them, so the jar is not optional.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	jar, _ := cookiejar.New(nil)
	return resty.New().
		SetTimeout(timeout).
		SetCookieJar(jar).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
}
