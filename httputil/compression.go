package httputil

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const acceptedEncodings = "gzip, br, zstd"

// CompressionTransport advertises gzip, brotli and zstd and decodes the response body
// accordingly. Decoded responses lose their Content-Length, so it must not wrap
// transports whose callers depend on the declared length.
type CompressionTransport struct {
	Base http.RoundTripper
}

func NewCompressionTransport(base http.RoundTripper) *CompressionTransport {
	if nil == base {
		base = http.DefaultTransport
	}
	return &CompressionTransport{Base: base}
}

func (t *CompressionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", acceptedEncodings)
	}

	resp, err := t.Base.RoundTrip(req)
	if nil != err {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	var decoded io.ReadCloser
	switch contentEncoding(resp.Header.Get("Content-Encoding")) {
	case "":
		return resp, nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if nil != err {
			_ = resp.Body.Close()
			return nil, err
		}
		decoded = zr
	case "br":
		decoded = io.NopCloser(brotli.NewReader(resp.Body))
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if nil != err {
			_ = resp.Body.Close()
			return nil, err
		}
		decoded = zr.IOReadCloser()
	default:
		return resp, nil
	}

	resp.Body = &decodedBody{decoded: decoded, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type decodedBody struct {
	decoded io.ReadCloser
	raw     io.ReadCloser
}

func (b *decodedBody) Read(p []byte) (int, error) {
	return b.decoded.Read(p)
}

func (b *decodedBody) Close() error {
	decodedErr := b.decoded.Close()
	if rawErr := b.raw.Close(); nil != rawErr {
		return rawErr
	}
	return decodedErr
}

// contentEncoding returns the outermost coding of a Content-Encoding header value.
func contentEncoding(header string) string {
	parts := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}
