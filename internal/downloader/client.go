package downloader

import (
	"fmt"
	"net/http"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// HTTPClient is the minimal client used for metadata lookups and file fetches.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type tlsWrapper struct {
	inner tls_client.HttpClient
}

func (w *tlsWrapper) Do(req *http.Request) (*http.Response, error) {
	fReq := &fhttp.Request{
		Method:        req.Method,
		URL:           req.URL,
		Proto:         req.Proto,
		ProtoMajor:    req.ProtoMajor,
		ProtoMinor:    req.ProtoMinor,
		Header:        make(fhttp.Header),
		Body:          req.Body,
		ContentLength: req.ContentLength,
		Host:          req.Host,
	}
	for k, v := range req.Header {
		fReq.Header[k] = v
	}
	fReq = fReq.WithContext(req.Context())

	resp, err := w.inner.Do(fReq)
	if err != nil {
		return nil, err
	}

	out := &http.Response{
		Status:           resp.Status,
		StatusCode:       resp.StatusCode,
		Proto:            resp.Proto,
		ProtoMajor:       resp.ProtoMajor,
		ProtoMinor:       resp.ProtoMinor,
		ContentLength:    resp.ContentLength,
		Body:             resp.Body,
		Header:           make(http.Header),
		Uncompressed:     resp.Uncompressed,
		TransferEncoding: resp.TransferEncoding,
		Request:          req,
	}
	for k, v := range resp.Header {
		out.Header[k] = v
	}
	return out, nil
}

// NewHTTPClient returns a browser-fingerprinted client. timeoutSec <= 0 uses 60.
func NewHTTPClient(timeoutSec int) (HTTPClient, error) {
	if timeoutSec <= 0 {
		timeoutSec = 60
	}
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSec),
		tls_client.WithClientProfile(profiles.DefaultClientProfile),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithCookieJar(tls_client.NewCookieJar()),
	}
	c, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("create tls client: %w", err)
	}
	return &tlsWrapper{inner: c}, nil
}
