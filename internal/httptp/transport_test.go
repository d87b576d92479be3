package httptp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	eventbus "github.com/nexusgraph/federation-gateway/internal/eventbus"
	events "github.com/nexusgraph/federation-gateway/internal/events"
)

func TestTransport_Fetch_SuccessReturnsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Cache-Control", "max-age=5")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"name":"widget"}}`))
	}))
	defer srv.Close()

	tp := New()
	resp, err := tp.Fetch(context.Background(), capability.Request{
		Method:  "POST",
		URL:     srv.URL,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Body:    []byte(`{"query":"{ name }"}`),
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.Status)
	require.Equal(t, "max-age=5", http.Header(resp.Headers).Get("Cache-Control"))
	require.JSONEq(t, `{"data":{"name":"widget"}}`, string(resp.Body))
}

func TestTransport_Fetch_NonTwoXXIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"message":"boom"}]}`))
	}))
	defer srv.Close()

	tp := New()
	resp, err := tp.Fetch(context.Background(), capability.Request{Method: "POST", URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, 500, resp.Status)
	require.Contains(t, string(resp.Body), "boom")
}

func TestTransport_Fetch_DeadlineExceededIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tp := New(WithRequestTimeout(10 * time.Millisecond))
	_, err := tp.Fetch(context.Background(), capability.Request{Method: "POST", URL: srv.URL})
	require.Error(t, err)
	var terr *capability.TransportError
	require.ErrorAs(t, err, &terr)
}

func TestTransport_Fetch_PublishesStartAndFinishEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)

	var starts, finishes int
	eventbus.Subscribe(func(ctx context.Context, e events.SubgraphCallStart) { starts++ })
	eventbus.Subscribe(func(ctx context.Context, e events.SubgraphCallFinish) {
		finishes++
		require.Equal(t, 200, e.Status)
		require.NoError(t, e.Err)
	})

	tp := New()
	_, err := tp.Fetch(context.Background(), capability.Request{Method: "GET", URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, 1, starts)
	require.Equal(t, 1, finishes)
}
