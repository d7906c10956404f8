package source

import (
	"net/http"
	"time"
)

const defaultUserAgent = "simple-record-grid/1"

type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

func getOpts(args []Option) (o options) {
	o.httpClient = http.DefaultClient
	o.userAgent = defaultUserAgent

	for i := range args {
		args[i](&o)
	}
	return
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout bounds every single request. No timeout is applied by default,
// the backend is expected to answer or fail on its own.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}
