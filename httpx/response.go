package httpx

import (
	"bytes"
	"net/http"
)

// ResponseBuffer records a handler's response so the caller can inspect it
// (e.g. retry on 401, or turn granted tokens into cookies) before sending.
type ResponseBuffer interface {
	http.ResponseWriter
	// Status is 0 until WriteHeader is called.
	Status() int
	Body() []byte
	// Flush merges the recorded headers into w and writes status and body.
	Flush(w http.ResponseWriter) error
}

type responseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewResponseBuffer() ResponseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (resp *responseBuffer) Status() int          { return resp.status }
func (resp *responseBuffer) Header() http.Header  { return resp.header }
func (resp *responseBuffer) WriteHeader(code int) { resp.status = code }

func (resp *responseBuffer) Body() []byte {
	if resp.body.Len() == 0 {
		return nil
	}
	return resp.body.Bytes()
}

func (resp *responseBuffer) Write(body []byte) (int, error) {
	return resp.body.Write(body)
}

func (resp *responseBuffer) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, values := range resp.header {
		header.Del(key)
		for _, v := range values {
			header.Add(key, v)
		}
	}
	if resp.status != 0 {
		w.WriteHeader(resp.status)
	}
	if resp.body.Len() == 0 {
		return nil
	}
	_, err := w.Write(resp.body.Bytes())
	return err
}
