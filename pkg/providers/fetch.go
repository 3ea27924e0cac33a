package providers

import (
	"context"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/palmares-dance/palmares/pkg/whttp"
)

// Fetcher downloads federation pages and converts transport failures and
// non-2xx answers into ProviderErrors.
type Fetcher struct {
	Provider string
	Charset  string
	Client   *retryablehttp.Client
}

// NewFetcher builds a fetcher from provider options. defaultCharset applies
// when the options do not force one.
func NewFetcher(opts Options, defaultCharset string) *Fetcher {
	cs := opts.Charset
	if cs == "" {
		cs = defaultCharset
	}
	return &Fetcher{
		Provider: opts.Name,
		Charset:  cs,
		Client:   whttp.NewClient(opts.Retries, opts.Timeout),
	}
}

// Get returns the decoded body of url. message describes the operation and
// prefixes the error.
func (f *Fetcher) Get(ctx context.Context, url, message string) (string, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{URL: url, Charset: f.Charset}, f.Client)
	if err != nil {
		return "", &ProviderError{Provider: f.Provider, URL: url, Message: message, Err: err}
	}
	if !res.OK() {
		return "", &ProviderError{Provider: f.Provider, URL: url, Message: message, StatusCode: res.StatusCode}
	}
	return res.BodyString, nil
}
