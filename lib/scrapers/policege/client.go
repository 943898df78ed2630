package policege

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"policevideos/internal/assert"
	"policevideos/lib/restyutil"
	"policevideos/lib/telemetry"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	listingPage = "protocols.php"
	submitPage  = "submit-index.php"
	landingPage = "index.php?lang=ge"
)

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

type ClientOptions struct {
	BaseUrl string
	// defaults to SchemaV1
	Schema *Schema
	// defaults to 2
	RequestsPerSecond float64
	// how many media files of a single protocol are downloaded at once,
	// defaults to 1
	MediaConcurrency int
}

// Client talks to a single portal account, it is safe for concurrent use.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	schema           Schema
	parser           parser
	mediaConcurrency int
	tel              telemetry.API

	// held exclusively by Authenticate, shared by every other request
	mu sync.RWMutex
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseUrl)

	tel = telemetry.NewScopedAPI("policege", tel)

	base := strings.TrimRight(opts.BaseUrl, "/")
	parsedBaseUrl, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if !parsedBaseUrl.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", opts.BaseUrl)
	}

	schema := SchemaV1
	if opts.Schema != nil {
		schema = *opts.Schema
	}
	requestsPerSecond := opts.RequestsPerSecond
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	mediaConcurrency := opts.MediaConcurrency
	if mediaConcurrency <= 0 {
		mediaConcurrency = 1
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(base)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(
		httpClient.GetClient().Transport,
		cloudflarebp.Options{
			AddMissingHeaders: true,
			Headers: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
				"Accept-Language": "ka-GE,ka;q=0.9,en-US;q=0.8,en;q=0.7",
				"User-Agent":      browserUserAgent,
			},
		},
	)

	httpClient.SetHeader("user-agent", browserUserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(time.Second * 30)

	// burst >= 1 means no request is ever dropped, only delayed
	rateLimiter := rate.NewLimiter(rate.Limit(requestsPerSecond), max(1, int(requestsPerSecond)))
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel, "policege/http")
	restyutil.InstrumentClient(httpClient, "policege", restyInstrumentOutput)

	c := &Client{
		BaseUrl:          parsedBaseUrl,
		Http:             httpClient,
		schema:           schema,
		parser:           parser{schema: schema, tel: tel},
		mediaConcurrency: mediaConcurrency,
		tel:              tel,
	}
	return c, nil
}

// url resolves a portal relative reference against the base url, absolute
// references are returned unchanged.
func (c *Client) url(ref string) string {
	ref = strings.TrimSpace(ref)
	parsed, err := url.Parse(ref)
	if err == nil && parsed.IsAbs() {
		return ref
	}
	base := c.BaseUrl.String()
	if ref == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(ref, "/")
}

// origin is the scheme and host of the base url, as a browser would send it.
func (c *Client) origin() string {
	return fmt.Sprintf("%s://%s", c.BaseUrl.Scheme, c.BaseUrl.Host)
}

func (c *Client) sessionId() string {
	jar := c.Http.GetClient().Jar
	if jar == nil {
		return ""
	}
	for _, cookie := range jar.Cookies(c.BaseUrl) {
		if cookie.Name == c.schema.SessionCookie {
			return cookie.Value
		}
	}
	return ""
}

// SessionId returns the session token currently held by the client, it is
// empty if the client never had one.
func (c *Client) SessionId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionId()
}

// SetSessionId installs a previously obtained session token.
func (c *Client) SetSessionId(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Http.GetClient().Jar.SetCookies(c.BaseUrl, []*http.Cookie{{
		Name:  c.schema.SessionCookie,
		Value: id,
		Path:  "/",
	}})
}

// fetch performs a GET against the portal, any transport failure or non-2xx
// status is returned as an error and reported under report.
func (c *Client) fetch(ctx context.Context, ref, report string) (*resty.Response, error) {
	target := c.url(ref)
	res, err := c.Http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		c.tel.ReportBroken(report, fmt.Errorf("request %s: %w", target, err))
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	if res.IsError() {
		err := fmt.Errorf("request %s: unexpected status %s", target, res.Status())
		c.tel.ReportBroken(report, err)
		return nil, err
	}
	return res, nil
}

func (c *Client) document(ctx context.Context, ref, report string) (*goquery.Document, *resty.Response, error) {
	res, err := c.fetch(ctx, ref, report)
	if err != nil {
		return nil, nil, err
	}
	doc, err := parseDocument(res.Body())
	if err != nil {
		c.tel.ReportBroken(report, fmt.Errorf("parse %s: %w", c.url(ref), err))
		return nil, nil, err
	}
	return doc, res, nil
}

func parseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(body))
}

// finalUrl is the url the response was served from, after redirects.
func finalUrl(res *resty.Response) string {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return res.Request.URL
	}
	return res.RawResponse.Request.URL.String()
}
