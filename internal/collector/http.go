package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MacroLens/internal/model"
)

const defaultTimeout = 30 * time.Second

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// classifyStatus maps a non-2xx response to the fetch error taxonomy.
func classifyStatus(source string, code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	switch {
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return model.Transient("%s: status %d, body: %s", source, code, msg)
	default:
		return model.Unavailable("%s: status %d, body: %s", source, code, msg)
	}
}

// classifyTransport wraps a client.Do failure. Context cancellation is
// passed through untouched so callers can tell it apart.
func classifyTransport(source string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", source, model.ErrTransientFetch, err)
}
