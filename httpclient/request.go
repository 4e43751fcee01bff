package httpclient

import (
	"io"
	"net/http"
)

// Request is an outbound call. Headers override the client defaults.
type Request struct {
	Method  string // GET when empty
	URL     string
	Headers map[string]string
}

// Response is a fully read reply.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StreamResponse is a 2xx reply whose body the caller reads and closes.
type StreamResponse struct {
	StatusCode int
	Headers    http.Header
	// ContentLength is -1 when the server did not declare a size.
	ContentLength int64
	Body          io.ReadCloser
}

// Close closes the body.
func (r *StreamResponse) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}
