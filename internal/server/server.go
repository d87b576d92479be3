// Package server adapts the core's request/response shapes (§6.1, §6.2) onto
// an http.Handler: request parsing (including automatic persisted queries),
// authentication, cache lookup, planning/execution, and the content-type and
// status-code negotiation §7 requires between `application/json` and
// `application/graphql-response+json` clients.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	cache "github.com/nexusgraph/federation-gateway/internal/cache"
	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	eventbus "github.com/nexusgraph/federation-gateway/internal/eventbus"
	events "github.com/nexusgraph/federation-gateway/internal/events"
	executor "github.com/nexusgraph/federation-gateway/internal/executor"
	extrt "github.com/nexusgraph/federation-gateway/internal/extrt"
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	introspection "github.com/nexusgraph/federation-gateway/internal/introspection"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
	"github.com/nexusgraph/federation-gateway/internal/planner"
	reqid "github.com/nexusgraph/federation-gateway/internal/reqid"
	response "github.com/nexusgraph/federation-gateway/internal/response"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// Handler is an http.Handler that serves a federated GraphQL endpoint: it
// parses the transport request, drives §4.2-§4.7 end to end, and formats
// the result per §6.2/§7.
type Handler struct {
	sch     *schema.Schema
	planner *planner.Planner
	exec    *executor.Executor
	opt     Options
}

type Options struct {
	// Timeout sets a default deadline for the whole request if the incoming
	// request context has none. 0 means no default timeout.
	Timeout time.Duration

	// SubgraphTimeout bounds every individual Runner.Run call (§4.4 step 4).
	SubgraphTimeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// IntrospectionEnabled gates __schema/__type per §4.2 step 2's
	// IntrospectionPolicy.
	IntrospectionEnabled bool

	// DocCache backs automatic persisted queries (§6.1's extensions.persistedQuery).
	DocCache capability.OperationDocCache

	// OpCache reuses a PreparedOperation across requests sharing a fingerprint.
	OpCache operation.Cache

	// PartialCache is the Partial Response Cache (§4.7). Nil disables it —
	// every top-level field is always planned and executed fresh.
	PartialCache *cache.PartialCache

	// ExtensionRuntime backs Authenticate (§4.5.3, §6.4). Nil means the
	// bearer value, if any, is used unverified as a claimless token, and a
	// request without an Authorization header is anonymous. @authorized is
	// not evaluated either way.
	ExtensionRuntime capability.ExtensionRuntime

	// Complexity gates or measures operation cost (§6.5 `complexity_control`).
	// A zero value applies no limit and reports nothing.
	Complexity operation.ComplexityPolicy

	// TrustedDocuments gates which operations may execute at all (§6.5
	// `trusted_documents`). A zero value accepts every operation, trusted or
	// not — the default, since trusted-document *storage* policy itself is
	// out of scope (only the capability.OperationDocCache lookup/store
	// hooks are in scope).
	TrustedDocuments TrustedDocumentsPolicy
}

// TrustedDocumentsPolicy configures whether literal (non-persisted)
// operations are accepted.
type TrustedDocumentsPolicy struct {
	// Enabled turns on persisted/trusted document bookkeeping. When false,
	// Enforced and BypassHeader have no effect.
	Enabled bool
	// Enforced rejects any request that isn't a DocCache-resolved
	// persisted/trusted document, unless BypassHeader is present.
	Enforced bool
	// BypassHeader, when set and present on the request (any value),
	// exempts that request from enforcement — an escape hatch for internal
	// tooling that must run ad hoc operations against an enforced gateway.
	BypassHeader string
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option         { return func(o *Options) { o.Timeout = d } }
func WithSubgraphTimeout(d time.Duration) Option { return func(o *Options) { o.SubgraphTimeout = d } }
func WithPretty() Option                         { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option            { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }
func WithIntrospection(enable bool) Option {
	return func(o *Options) { o.IntrospectionEnabled = enable }
}
func WithDocCache(c capability.OperationDocCache) Option {
	return func(o *Options) { o.DocCache = c }
}
func WithOperationCache(c operation.Cache) Option { return func(o *Options) { o.OpCache = c } }
func WithPartialCache(c *cache.PartialCache) Option {
	return func(o *Options) { o.PartialCache = c }
}
func WithExtensionRuntime(ext capability.ExtensionRuntime) Option {
	return func(o *Options) { o.ExtensionRuntime = ext }
}
func WithComplexity(p operation.ComplexityPolicy) Option {
	return func(o *Options) { o.Complexity = p }
}
func WithTrustedDocuments(p TrustedDocumentsPolicy) Option {
	return func(o *Options) { o.TrustedDocuments = p }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a new GraphQL HTTP handler driving runner over sch, which must
// already be introspection.ExtendSchema-extended if introspection is to be
// served (§4.1; shape-building requires the meta-types to exist in sch even
// when IntrospectionEnabled is false and every __schema/__type query is
// rejected by Validate instead).
func New(runner executor.Runner, sch *schema.Schema, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	exec := executor.NewExecutor(runner, executor.Deadlines{Request: op.Timeout, Subgraph: op.SubgraphTimeout})
	return &Handler{sch: sch, planner: planner.New(sch), exec: exec, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, rid := reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeResult(w, status, requestRejection(gqlerr.New(gqlerr.CodeInternal, "method not allowed")), h.opt.Pretty)
		return
	}

	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Code == gqlerr.CodeInternal && berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeResult(w, status, requestRejection(berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	mode := negotiateMode(r.Header.Get("Accept"))
	headers := make(map[string][]string, len(r.Header)+1)
	for k, v := range r.Header {
		headers[k] = v
	}
	headers["graphql-request-id"] = []string{rid}

	if batch != nil {
		results := make([]*transportResult, len(batch))
		for i := range batch {
			results[i] = h.executeOne(ctx, batch[i], headers, mode)
		}
		writeJSON(w, status, results, h.opt.Pretty)
		return
	}

	res := h.executeOne(ctx, req, headers, mode)
	status = res.status
	writeResult(w, status, res, h.opt.Pretty)
}

// executeOne runs one request through the full pipeline: document
// resolution/validation/binding (§4.2), authentication, modifier evaluation
// (§4.2 step 6), introspection resolution (§4.1), partial cache lookup
// (§4.7), planning (§4.3) and execution (§4.4), finishing with the
// response-builder merge path every data source shares (§4.6.3).
func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest, headers map[string][]string, mode responseMode) *transportResult {
	start := time.Now()
	opType, opName := "", req.OperationName
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName})
	var cacheStatus cache.Status

	finish := func(res *transportResult) *transportResult {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Query: req.Query, OperationName: opName, OperationType: opType,
			Duration: time.Since(start),
		})
		return res
	}

	token, err := h.authenticate(ctx, req, headers)
	if err != nil {
		return finish(operationError(mode, asGQLError(err)))
	}

	raw := operation.RawRequest{
		Query:          req.Query,
		OperationName:  req.OperationName,
		Variables:      req.Variables,
		PersistedQuery: parsePersistedQuery(req.Extensions),
	}

	if h.opt.TrustedDocuments.Enabled && h.opt.TrustedDocuments.Enforced && raw.PersistedQuery == nil && !bypassesTrustedDocuments(headers, h.opt.TrustedDocuments.BypassHeader) {
		return finish(operationError(mode, gqlerr.New(gqlerr.CodeTrustedDocumentRequired, "only trusted/persisted documents are accepted")))
	}

	prepared, err := operation.Prepare(ctx, h.sch, raw, h.opt.DocCache, h.opt.OpCache, operation.IntrospectionPolicy{Enabled: h.opt.IntrospectionEnabled})
	if err != nil {
		return finish(operationError(mode, asGQLError(err)))
	}
	opType, opName = string(prepared.Type), prepared.Name

	if h.opt.Complexity.Mode != "" {
		if score := operation.Measure(prepared); h.opt.Complexity.Mode == operation.ComplexityModeEnforce && h.opt.Complexity.MaxComplexity > 0 && score > h.opt.Complexity.MaxComplexity {
			return finish(operationError(mode, gqlerr.New(gqlerr.CodeComplexityTooHigh,
				fmt.Sprintf("operation complexity %d exceeds maximum %d", score, h.opt.Complexity.MaxComplexity))))
		}
	}

	mods := operation.EvaluateModifiers(ctx, prepared, raw.Variables, token, h.opt.ExtensionRuntime)
	if len(mods.Errors) > 0 {
		return finish(operationErrorList(mode, mods.Errors))
	}

	introspected, rest := introspection.Split(prepared)
	builder := response.NewBuilder(prepared.RootShape.TypeName)

	if iplan, idata := introspection.Plan(h.sch, introspected, prepared.Shapes, raw.Variables); iplan != nil {
		builder.MergeRoot(iplan, idata)
	}

	missFields := rest
	var pending []cache.PendingWriteBack
	var maxAge time.Duration
	if h.opt.PartialCache != nil && len(rest) > 0 {
		reducedShape := *prepared.RootShape
		reducedShape.Fields = rest
		reducedOp := *prepared
		reducedOp.RootShape = &reducedShape

		outcome := h.opt.PartialCache.Lookup(ctx, &reducedOp, h.sch, raw.Variables, authIdentityBits(token))
		cacheStatus, maxAge, pending, missFields = outcome.Status, outcome.MaxAge, outcome.PendingWriteBacks, outcome.MissFields
		if len(outcome.HitFields) > 0 {
			hitPlan := &plan.ExecutionPlan{
				ParentID:  -1,
				TypeName:  reducedShape.TypeName,
				Selection: cache.PlannedFieldsFor(outcome.HitFields, prepared.Shapes),
			}
			builder.MergeRoot(hitPlan, outcome.HitData)
		}
	}

	if len(missFields) > 0 {
		dag, err := h.planner.PlanFields(prepared, missFields, mods)
		if err != nil {
			return finish(operationError(mode, gqlerr.New(gqlerr.CodeInternal, err.Error())))
		}
		reqCtx := executor.RequestContext{Variables: raw.Variables, Headers: headers, Token: token}
		if err := h.exec.Run(ctx, dag, builder, reqCtx); err != nil {
			return finish(operationError(mode, gqlerr.New(gqlerr.CodeGatewayTimeout, "request deadline exceeded")))
		}
	}

	resp := builder.Finalize()

	if h.opt.PartialCache != nil && len(pending) > 0 {
		if finalData, ok := resp.Data.(map[string]any); ok {
			h.opt.PartialCache.WriteBack(ctx, pending, finalData)
		}
	}

	return finish(executionResult(resp, cacheStatus, maxAge, opType, opName))
}

// authenticate builds the request's initial opaque token from its bearer
// header and exchanges it for a claims-bearing one via ExtensionRuntime, if
// configured (§4.5.3, §6.4). A nil ExtensionRuntime returns the raw token
// unverified, anonymous only when there is no Authorization header — auth
// verification itself stays out of scope (§1).
func (h *Handler) authenticate(ctx context.Context, req GraphQLRequest, headers map[string][]string) (capability.AccessToken, error) {
	var raw []byte
	if v := headers["Authorization"]; len(v) > 0 {
		raw = []byte(strings.TrimPrefix(v[0], "Bearer "))
	}
	token := extrt.NewRawToken(raw)
	if h.opt.ExtensionRuntime == nil {
		return token, nil
	}
	authed, err := h.opt.ExtensionRuntime.Authenticate(ctx, token)
	if err != nil {
		return nil, gqlerr.New(gqlerr.CodeUnauthenticated, err.Error())
	}
	return authed, nil
}

func authIdentityBits(token capability.AccessToken) string {
	if token == nil || token.IsAnonymous() {
		return "anonymous"
	}
	raw, ok := token.AsBytes()
	if !ok {
		return "anonymous"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func asGQLError(err error) *gqlerr.Error {
	if ge, ok := err.(*gqlerr.Error); ok {
		return ge
	}
	return gqlerr.New(gqlerr.CodeInternal, err.Error())
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parsePersistedQuery(extensions map[string]any) *operation.PersistedQueryExtension {
	raw, ok := extensions["persistedQuery"]
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	hash, _ := m["sha256Hash"].(string)
	if hash == "" {
		return nil
	}
	version := 1
	if v, ok := m["version"].(float64); ok {
		version = int(v)
	}
	return &operation.PersistedQueryExtension{Version: version, SHA256Hash: hash}
}

// bypassesTrustedDocuments reports whether the request carries the configured
// bypass header. An empty BypassHeader means no bypass is configured at all.
func bypassesTrustedDocuments(headers map[string][]string, bypassHeader string) bool {
	if bypassHeader == "" {
		return false
	}
	for k := range headers {
		if strings.EqualFold(k, bypassHeader) {
			return true
		}
	}
	return false
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *gqlerr.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, gqlerr.New(gqlerr.CodeOperationParsing, "missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, gqlerr.New(gqlerr.CodeOperationParsing, "invalid 'variables' JSON")
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && !startsWith(ct, "application/json") && !startsWith(ct, "application/graphql-response+json") {
		return GraphQLRequest{}, nil, gqlerr.New(gqlerr.CodeOperationParsing, "unsupported Content-Type")
	}

	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return GraphQLRequest{}, nil, gqlerr.New(gqlerr.CodeInternal, "failed to read body")
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return GraphQLRequest{}, nil, gqlerr.New(gqlerr.CodeInternal, errBodyTooLargeMessage)
	}

	if len(body) > 0 && body[0] == '[' {
		var arr []GraphQLRequest
		if err := json.Unmarshal(body, &arr); err != nil {
			return GraphQLRequest{}, nil, gqlerr.New(gqlerr.CodeOperationParsing, "invalid JSON")
		}
		if len(arr) == 0 {
			return GraphQLRequest{}, nil, gqlerr.New(gqlerr.CodeOperationParsing, "empty batch")
		}
		return GraphQLRequest{}, arr, nil
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return GraphQLRequest{}, nil, gqlerr.New(gqlerr.CodeOperationParsing, "invalid JSON")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil, nil
}

// ------------------ Response formatting ------------------

// responseMode is the negotiated emission dialect (§7): a
// graphql-response+json client gets real HTTP status codes for operation
// errors, an application/json client always gets 200 with `data: null`.
type responseMode int

const (
	modeJSON responseMode = iota
	modeGraphQLResponse
)

func negotiateMode(accept string) responseMode {
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if startsWith(p, "application/graphql-response+json") {
			return modeGraphQLResponse
		}
		if startsWith(p, "application/json") {
			return modeJSON
		}
	}
	return modeJSON
}

type specLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type specError struct {
	Message    string         `json:"message"`
	Locations  []specLocation `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type telemetry struct {
	ErrorsByCode []string   `json:"errors_by_code,omitempty"`
	Operation    opSummary  `json:"operation"`
}

type opSummary struct {
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
}

// transportResult is the emitted shape of §6.2, plus the HTTP status this
// request resolved to under the negotiated mode. hasData distinguishes
// category 1 (§7, no `data` key at all) from category 2/3 (`data: null` or a
// partial object) — encoding/json's `omitempty` can't tell "never set" apart
// from "explicitly nil", so transportResult marshals itself.
type transportResult struct {
	Data        any
	hasData     bool
	Errors      []specError    `json:"errors,omitempty"`
	Extensions  map[string]any `json:"extensions,omitempty"`
	Telemetry   telemetry      `json:"telemetry"`
	CacheStatus string         `json:"cache_status,omitempty"`
	status      int            `json:"-"`
}

func (r *transportResult) MarshalJSON() ([]byte, error) {
	type withoutData struct {
		Errors      []specError    `json:"errors,omitempty"`
		Extensions  map[string]any `json:"extensions,omitempty"`
		Telemetry   telemetry      `json:"telemetry"`
		CacheStatus string         `json:"cache_status,omitempty"`
	}
	if !r.hasData {
		return json.Marshal(withoutData{Errors: r.Errors, Extensions: r.Extensions, Telemetry: r.Telemetry, CacheStatus: r.CacheStatus})
	}
	type withData struct {
		Data        any            `json:"data"`
		Errors      []specError    `json:"errors,omitempty"`
		Extensions  map[string]any `json:"extensions,omitempty"`
		Telemetry   telemetry      `json:"telemetry"`
		CacheStatus string         `json:"cache_status,omitempty"`
	}
	return json.Marshal(withData{Data: r.Data, Errors: r.Errors, Extensions: r.Extensions, Telemetry: r.Telemetry, CacheStatus: r.CacheStatus})
}

// requestRejection is category 1 (§7): the request never resolved to an
// operation at all. No `data` field is meaningful.
func requestRejection(err *gqlerr.Error) *transportResult {
	return &transportResult{
		Errors:    []specError{toSpecError(err.WithExtensionCode())},
		Telemetry: telemetry{ErrorsByCode: []string{string(err.Code)}},
		status:    http.StatusBadRequest,
	}
}

// operationError is category 2 (§7): a well-formed request failed before
// execution (parsing, validation, authentication, internal planning
// failure).
func operationError(mode responseMode, err *gqlerr.Error) *transportResult {
	return operationErrorList(mode, []*gqlerr.Error{err})
}

func operationErrorList(mode responseMode, errs []*gqlerr.Error) *transportResult {
	codes := make([]string, len(errs))
	specErrs := make([]specError, len(errs))
	for i, e := range errs {
		codes[i] = string(e.Code)
		specErrs[i] = toSpecError(e.WithExtensionCode())
	}
	res := &transportResult{
		Data:      nil,
		hasData:   true,
		Errors:    specErrs,
		Telemetry: telemetry{ErrorsByCode: codes},
		status:    http.StatusOK,
	}
	if mode == modeGraphQLResponse {
		res.status = statusForCode(errs[0].Code)
	}
	return res
}

// executionResult is category 3/4/5 (§7): the operation executed, and any
// failures are field-level errors recorded by the Response Builder. Status
// is always 200 regardless of negotiated mode.
func executionResult(resp *response.Response, cacheStatus cache.Status, maxAge time.Duration, opType, opName string) *transportResult {
	res := &transportResult{
		Data:        resp.Data,
		hasData:     true,
		Telemetry:   telemetry{Operation: opSummary{Type: opType, Name: opName}},
		CacheStatus: string(cacheStatus),
		status:      http.StatusOK,
	}
	if len(resp.Errors) > 0 {
		res.Errors = make([]specError, len(resp.Errors))
		codes := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			res.Errors[i] = toSpecError(e.WithExtensionCode())
			codes[i] = string(e.Code)
		}
		res.Telemetry.ErrorsByCode = codes
	}
	if maxAge > 0 {
		res.Extensions = map[string]any{"cacheControl": map[string]any{"maxAge": maxAge.Seconds()}}
	}
	return res
}

func statusForCode(code gqlerr.Code) int {
	switch code {
	case gqlerr.CodeOperationParsing, gqlerr.CodeOperationValidation, gqlerr.CodeComplexityTooHigh, gqlerr.CodeTrustedDocumentRequired:
		return http.StatusBadRequest
	case gqlerr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case gqlerr.CodeUnauthorized:
		return http.StatusForbidden
	case gqlerr.CodeRateLimited:
		return http.StatusTooManyRequests
	case gqlerr.CodeGatewayTimeout:
		return http.StatusGatewayTimeout
	case gqlerr.CodePersistedQueryNotFound:
		// APQ-miss is a retry signal, not a hard failure; kept 200 regardless
		// of negotiated mode, matching every known client implementation.
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func toSpecError(e gqlerr.Error) specError {
	se := specError{Message: e.Message, Extensions: e.Extensions}
	if len(e.Path) > 0 {
		se.Path = make([]any, len(e.Path))
		for i, p := range e.Path {
			se.Path[i] = p
		}
	}
	for _, l := range e.Locations {
		se.Locations = append(se.Locations, specLocation{Line: l.Line, Column: l.Column})
	}
	return se
}

func writeResult(w http.ResponseWriter, status int, res *transportResult, pretty bool) {
	writeJSON(w, status, res, pretty)
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func startsWith(s, prefix string) bool { return len(s) >= len(prefix) && s[:len(prefix)] == prefix }

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool {
	if accept == "" {
		return false
	}
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if startsWith(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}

var graphiqlPage = []byte(`<!DOCTYPE html>
<html>
<head>
  <title>GraphQL Gateway</title>
  <style>body { margin: 0; height: 100vh; }</style>
  <link rel="stylesheet" href="https://unpkg.com/graphiql/graphiql.min.css" />
</head>
<body>
  <div id="graphiql" style="height: 100vh;"></div>
  <script crossorigin src="https://unpkg.com/react/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: window.location.pathname });
    ReactDOM.render(
      React.createElement(GraphiQL, { fetcher }),
      document.getElementById('graphiql'),
    );
  </script>
</body>
</html>`)
