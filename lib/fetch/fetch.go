package fetch

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"sealedmarket-backend/lib/telemetry"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Fetcher produces markup text for a url, or fails. Both the plain HTTP
// client and the rendering browser satisfy it, so consumers never need
// to know which strategy produced their input.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
}

type HTTPFetcher struct {
	http *resty.Client
}

func NewHTTPFetcher(opts HTTPOptions) (*HTTPFetcher, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "fetch/http")

	return &HTTPFetcher{http: client}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("fetch %s: status %s", url, res.Status())
	}
	return string(res.Body()), nil
}
