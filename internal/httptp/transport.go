package httptp

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	eventbus "github.com/nexusgraph/federation-gateway/internal/eventbus"
	events "github.com/nexusgraph/federation-gateway/internal/events"
)

// Transport is the production capability.Transport: it sends a subgraph's
// rendered GraphQL request (or an extension-bridge request shaped the same
// way) over HTTP, using the host's own connection pool rather than a
// hand-rolled one — net/http already pools keep-alive connections per host,
// which is everything grpctp.Transport's connPool exists to approximate for
// gRPC's channel model.
type Transport struct {
	opts   *Options
	client *http.Client
}

func New(opts ...Option) *Transport {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}

	var rt http.RoundTripper
	if o.H2C {
		rt = &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return (&net.Dialer{}).DialContext(ctx, network, addr)
			},
		}
	} else {
		rt = &http.Transport{
			MaxConnsPerHost:     o.MaxConnsPerHost,
			MaxIdleConnsPerHost: o.MaxConnsPerHost,
			IdleConnTimeout:     o.IdleConnTimeout,
		}
	}

	return &Transport{opts: o, client: &http.Client{Transport: rt}}
}

var _ capability.Transport = (*Transport)(nil)

// Fetch satisfies capability.Transport. A non-2xx response is returned as an
// ordinary Response (§4.5.1 lets the caller decide whether a non-2xx body is
// still parseable GraphQL data); only a failure to complete the round trip at
// all — dial error, timeout, cancellation — becomes a TransportError.
func (t *Transport) Fetch(ctx context.Context, req capability.Request) (capability.Response, error) {
	if _, ok := ctx.Deadline(); !ok && t.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.RequestTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return capability.Response{}, &capability.TransportError{Op: "httptp: build request", Err: err}
	}
	for k, v := range req.Headers {
		httpReq.Header[http.CanonicalHeaderKey(k)] = v
	}

	subgraph := subgraphLabel(req.URL)
	start := time.Now()
	eventbus.Publish(ctx, events.SubgraphCallStart{Subgraph: subgraph, Method: req.Method, URL: req.URL})

	resp, err := t.client.Do(httpReq)
	if err != nil {
		eventbus.Publish(ctx, events.SubgraphCallFinish{
			Subgraph: subgraph, Method: req.Method, URL: req.URL,
			Err: err, Duration: time.Since(start),
		})
		return capability.Response{}, &capability.TransportError{Op: "httptp: round trip", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		eventbus.Publish(ctx, events.SubgraphCallFinish{
			Subgraph: subgraph, Method: req.Method, URL: req.URL,
			Status: resp.StatusCode, Err: err, Duration: time.Since(start),
		})
		return capability.Response{}, &capability.TransportError{Op: "httptp: read body", Err: err}
	}

	eventbus.Publish(ctx, events.SubgraphCallFinish{
		Subgraph: subgraph, Method: req.Method, URL: req.URL,
		Status: resp.StatusCode, Duration: time.Since(start),
	})

	return capability.Response{
		Status:  resp.StatusCode,
		Headers: map[string][]string(resp.Header),
		Body:    body,
	}, nil
}

// subgraphLabel extracts the host from a subgraph URL for event/span
// labeling. capability.Request carries no subgraph ID of its own (§6.3 keeps
// the wire-level Request transport-agnostic), so the URL's host is the best
// available correlation key.
func subgraphLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

func (t *Transport) Close() error {
	if tr, ok := t.client.Transport.(*http.Transport); ok {
		tr.CloseIdleConnections()
	}
	return nil
}
