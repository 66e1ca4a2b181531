package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	readBufferSize   = 8 << 10
	errorBodyExcerpt = 512
)

// HTTPSource streams responses from an HTTP endpoint. The request is sent
// as a POST with the encoded body; the response body is surfaced as raw
// chunks exactly as the server flushes them.
type HTTPSource struct {
	client *http.Client
}

// NewHTTP returns an HTTPSource. A nil client uses a dedicated default
// without a global timeout, since streamed responses stay open for the
// whole generation.
func NewHTTP(client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPSource{client: client}
}

func (s *HTTPSource) Open(ctx context.Context, req Request) (Stream, error) {
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("Accept", "text/event-stream")
	for k, v := range req.Headers {
		hr.Header.Set(k, v)
	}

	resp, err := s.client.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyExcerpt))
		resp.Body.Close()
		return nil, fmt.Errorf("provider returned %s: %s", resp.Status, bytes.TrimSpace(excerpt))
	}

	return &httpStream{body: resp.Body, buf: make([]byte, readBufferSize)}, nil
}

type httpStream struct {
	body io.ReadCloser
	buf  []byte
	cur  []byte
	err  error
	done bool
}

func (s *httpStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.cur = s.buf[:n]
			switch {
			case err == io.EOF:
				s.done = true
			case err != nil:
				s.err = err
			}
			return true
		}
		if err == io.EOF {
			s.done = true
			return false
		}
		if err != nil {
			s.err = err
			return false
		}
	}
}

func (s *httpStream) Bytes() []byte { return s.cur }

func (s *httpStream) Err() error { return s.err }

func (s *httpStream) Close() error { return s.body.Close() }
