package models

import (
	"io"
	"net/http"
	"strconv"
	"strings"
)

// RawResponse carries a backend byte stream together with the status the
// backend answered with, so the proxy layer can surface failures faithfully
// instead of translating them.
type RawResponse struct {
	StatusCode int
	Reason     string
	Header     http.Header
	Body       io.ReadCloser
}

// NewRawResponse wraps a backend HTTP response. The caller takes over
// ownership of the body.
func NewRawResponse(resp *http.Response) *RawResponse {
	return &RawResponse{
		StatusCode: resp.StatusCode,
		Reason:     strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))),
		Header:     resp.Header,
		Body:       resp.Body,
	}
}

// OK reports whether the backend answered with a 2xx status.
func (r *RawResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
