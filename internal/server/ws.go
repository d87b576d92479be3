package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
)

// ServeWS upgrades an incoming request to a graphql-ws connection and serves
// Subscription-rooted operations over it. The planner/executor have no
// streaming resolver concept (§3.1's resolver kinds all resolve once);
// Subscription root fields plan and execute exactly like Query root fields
// (ResolverKindGraphqlRootField). So this handler implements the graphql-ws
// message framing honestly scoped to that: a "subscribe" message runs its
// operation once through the same pipeline executeOne drives, emits a single
// "next" message carrying the result, then "complete" — there is no
// multi-event stream to drain, because nothing downstream of this package
// ever produces one.
var wsUpgrader = websocket.Upgrader{
	Subprotocols:    []string{"graphql-transport-ws"},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	headers := make(map[string][]string, len(r.Header))
	for k, v := range r.Header {
		headers[k] = v
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "connection_init":
			if err := conn.WriteJSON(wsMessage{Type: "connection_ack"}); err != nil {
				return
			}
		case "ping":
			_ = conn.WriteJSON(wsMessage{Type: "pong"})
		case "subscribe":
			if h.handleSubscribe(conn, headers, msg) != nil {
				return
			}
		case "complete":
			// client cancelling a subscription that already completed
			// single-shot on our side; nothing left to tear down.
		default:
			_ = conn.WriteJSON(wsErrorMessage(msg.ID, gqlerr.New(gqlerr.CodeOperationParsing, "unknown message type")))
		}
	}
}

func (h *Handler) handleSubscribe(conn *websocket.Conn, headers map[string][]string, msg wsMessage) error {
	var req GraphQLRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return conn.WriteJSON(wsErrorMessage(msg.ID, gqlerr.New(gqlerr.CodeOperationParsing, "invalid subscribe payload")))
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}

	// The upgraded connection outlives any single HTTP request context, so
	// each subscribe message gets its own bounded background context rather
	// than inheriting one (§6.1's per-request timeout applies to the
	// request/response transport, not a long-lived socket).
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res := h.executeOne(ctx, req, headers, modeGraphQLResponse)
	if err := conn.WriteJSON(wsMessage{ID: msg.ID, Type: "next", Payload: mustMarshal(res)}); err != nil {
		return err
	}
	return conn.WriteJSON(wsMessage{ID: msg.ID, Type: "complete"})
}

func wsErrorMessage(id string, err *gqlerr.Error) wsMessage {
	return wsMessage{ID: id, Type: "error", Payload: mustMarshal([]specError{toSpecError(err.WithExtensionCode())})}
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`null`)
	}
	return b
}
