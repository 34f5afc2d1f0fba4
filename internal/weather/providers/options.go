package providers

import (
	"net/http"

	"github.com/sony/gobreaker"
)

// base carries what every HTTP-backed provider needs.
type base struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func newBase(name, baseURL string, client *http.Client, opts []Option) base {
	b := base{
		name:    name,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.circuit = newCircuitBreaker(b.name)
	return b
}

// Name returns the provider name used in logs and metrics.
func (b *base) Name() string {
	return b.name
}

// Option tweaks an HTTP-backed provider.
type Option func(*base)

// WithBaseURL points the provider at a different endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(b *base) { b.baseURL = u }
}

// WithBackoff overrides the retry policy.
func WithBackoff(cfg BackoffConfig) Option {
	return func(b *base) { b.httpCfg.Backoff = cfg }
}
