// Package slavart talks to the slavart search and track download endpoints.
package slavart

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeptore/sadl/httputil"
)

const errorBodyLimit = 4 << 10

type Options struct {
	SearchURL       string
	DownloadURL     string
	UserAgent       string
	SearchTimeout   time.Duration
	DownloadTimeout time.Duration
	// Transport overrides the round tripper of both endpoints. Nil uses a clone of
	// http.DefaultTransport.
	Transport http.RoundTripper
}

type Client struct {
	searchURL   string
	downloadURL string
	userAgent   string
	search      *http.Client
	download    *http.Client
	logger      zerolog.Logger
}

func NewClient(opts Options, logger zerolog.Logger) *Client {
	return &Client{
		searchURL:   opts.SearchURL,
		downloadURL: opts.DownloadURL,
		userAgent:   opts.UserAgent,
		search: &http.Client{ //nolint:exhaustruct
			Timeout:   opts.SearchTimeout,
			Transport: httputil.NewCompressionTransport(baseTransport(opts.Transport, false)),
		},
		download: &http.Client{ //nolint:exhaustruct
			Timeout:   opts.DownloadTimeout,
			Transport: baseTransport(opts.Transport, true),
		},
		logger: logger,
	}
}

// Track bodies must arrive with their declared length intact, so transparent gzip
// decoding is disabled on the download transport.
func baseTransport(override http.RoundTripper, identity bool) http.RoundTripper {
	if nil != override {
		return override
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DisableCompression = identity
	return t
}
