package httptp

import "time"

// Options configures the HTTP subgraph transport.
//
// Defaults:
// - MaxConnsPerHost: 64
// - IdleConnTimeout: 90s
// - RequestTimeout:  used only if the incoming context has no deadline
// - H2C:             false (plain HTTP/1.1 keep-alive to the subgraph)
//
// All options are safe to leave zero-valued to use defaults.
type Options struct {
	MaxConnsPerHost int
	IdleConnTimeout time.Duration
	RequestTimeout  time.Duration

	// H2C dials subgraphs with cleartext HTTP/2 (RFC 7540 §3.1 prior
	// knowledge) instead of HTTP/1.1. Subgraphs fronted by a mesh sidecar or
	// an internal gRPC-adjacent proxy commonly speak h2c only.
	H2C bool
}

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		MaxConnsPerHost: 64,
		IdleConnTimeout: 90 * time.Second,
		RequestTimeout:  10 * time.Second,
	}
}

func WithMaxConnsPerHost(n int) Option            { return func(o *Options) { o.MaxConnsPerHost = n } }
func WithIdleConnTimeout(d time.Duration) Option  { return func(o *Options) { o.IdleConnTimeout = d } }
func WithRequestTimeout(d time.Duration) Option   { return func(o *Options) { o.RequestTimeout = d } }
func WithH2C(enabled bool) Option                 { return func(o *Options) { o.H2C = enabled } }
