package boardclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-board/pkg/boardproto"
)

// Probe queries a board server's HTTP diagnostics.
type Probe struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type ProbeOption func(*Probe)

func WithTimeout(d time.Duration) ProbeOption {
	return func(p *Probe) { p.defaultTimeout = d }
}

func WithRetry(max int) ProbeOption {
	return func(p *Probe) { p.retryMax = max }
}

func NewProbe(baseURL string, opts ...ProbeOption) *Probe {
	p := &Probe{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 4},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Health returns the body of /healthz.
func (p *Probe) Health(ctx context.Context) (string, error) {
	body, err := p.get(ctx, "/healthz")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (p *Probe) Version(ctx context.Context) (string, error) {
	body, err := p.get(ctx, "/version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (p *Probe) Position(ctx context.Context) (*boardproto.PositionView, error) {
	body, err := p.get(ctx, "/position")
	if err != nil {
		return nil, err
	}
	var v boardproto.PositionView
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode position: %w", err)
	}
	return &v, nil
}

// get retries transport errors and 5xx answers with backoff.
func (p *Probe) get(ctx context.Context, path string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(p.baseURL + path)

	attempts := p.retryMax
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepWithContext(ctx, backoffDuration(attempt-1)); err != nil {
				return nil, lastErr
			}
		}
		if err := p.http.DoDeadline(req, resp, p.deadline(ctx)); err != nil {
			lastErr = fmt.Errorf("GET %s: %w", path, err)
			continue
		}
		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("GET %s: status=%d body=%s", path, status, truncate(string(resp.Body()), 256))
			if !shouldRetryStatus(status) {
				return nil, lastErr
			}
			continue
		}
		// the body is owned by resp, which is released on return
		return append([]byte(nil), resp.Body()...), nil
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func (p *Probe) deadline(ctx context.Context) time.Time {
	limit := time.Now().Add(p.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(limit) {
		return dl
	}
	return limit
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
