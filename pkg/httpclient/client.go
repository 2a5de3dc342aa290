package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/wp-poweranalytics/power-analytics/pkg/useragent"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxRedirects = 5
)

type userAgentTransport struct {
	agent string
	rt    http.RoundTripper
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r2 := req.Clone(req.Context())
	r2.Header.Set("User-Agent", u.agent)
	return u.rt.RoundTrip(r2)
}

type options struct {
	timeout      time.Duration
	maxRedirects int
	userAgent    string
	transport    http.RoundTripper
}

type Opt func(*options)

// WithTimeout bounds the whole request, including redirects and reading the body.
func WithTimeout(d time.Duration) Opt {
	return func(o *options) {
		o.timeout = d
	}
}

// WithMaxRedirects sets how many redirect hops are followed before giving up.
func WithMaxRedirects(n int) Opt {
	return func(o *options) {
		o.maxRedirects = n
	}
}

func WithUserAgent(agent string) Opt {
	return func(o *options) {
		o.userAgent = agent
	}
}

func WithTransport(rt http.RoundTripper) Opt {
	return func(o *options) {
		o.transport = rt
	}
}

func NewHTTPClient(opts ...Opt) *http.Client {
	o := options{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		userAgent:    useragent.Header,
		transport:    http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&o)
	}

	maxRedirects := o.maxRedirects
	return &http.Client{
		Timeout: o.timeout,
		Transport: &userAgentTransport{
			agent: o.userAgent,
			rt:    o.transport,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}
