// Package whttp sends requests to federation sites and returns bodies
// decoded to UTF-8.
package whttp

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	// Charset forces body decoding. Empty means use the Content-Type header
	// or the document's meta tags, then UTF-8 sniffing.
	Charset string
}

type WHTTPRes struct {
	StatusCode  int
	ContentType string
	BodyString  string
}

// OK reports whether the server answered with a 2xx status.
func (r *WHTTPRes) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient returns a retrying client. Once retries are exhausted the last
// response is handed back so callers can report its status code.
func NewClient(retries int, timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = log.New(ioutil.Discard, "", 0)
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	return client
}

func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}

	// Set common headers
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:83.0) Gecko/20100101 Firefox/83.0")
	req.Header.Set("Accept-Language", "fr,en")

	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	wRes := &WHTTPRes{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	body, err := decodedReader(resp.Body, wRes.ContentType, wReq.Charset)
	if err != nil {
		return nil, err
	}
	bodyBytes, err := ioutil.ReadAll(body)
	if err != nil {
		return nil, err
	}
	wRes.BodyString = strings.TrimPrefix(string(bodyBytes), "\ufeff")
	return wRes, nil
}

func decodedReader(body io.Reader, contentType, forced string) (io.Reader, error) {
	if forced == "" {
		return charset.NewReader(body, contentType)
	}
	enc, err := htmlindex.Get(forced)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", forced, err)
	}
	return enc.NewDecoder().Reader(body), nil
}
