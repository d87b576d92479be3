package cache

import (
	"context"
	"time"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// Status classifies a Lookup's outcome, mirroring the header value emitted
// alongside the response (§4.7, §6.2 `cache_status`).
type Status string

const (
	StatusHit        Status = "HIT"
	StatusPartialHit Status = "PARTIAL_HIT"
	StatusMiss       Status = "MISS"
)

// PendingWriteBack is a fingerprint that missed and will be fetched fresh;
// the caller hands its final field data back to WriteBack once the reduced
// plan has executed successfully.
type PendingWriteBack struct {
	key    string
	MaxAge time.Duration
	Fields []*operation.FieldShape
}

// Outcome is what Lookup reports back to the caller before planning begins.
type Outcome struct {
	Status Status

	// HitData merges directly into the response builder's root object via
	// MergeRoot(PlannedFieldsFor(HitFields, shapes), HitData) — no
	// re-execution needed for these fields at all.
	HitFields []*operation.FieldShape
	HitData   map[string]any

	// MissFields is every top-level field — cacheable-but-missed, plus
	// always-uncacheable — that still needs a normal plan built and
	// executed.
	MissFields []*operation.FieldShape

	// MaxAge is the header value for a Hit/PartialHit outcome: the minimum
	// across every contributing fingerprint's remaining TTL (§8 "Cache
	// header monotonicity"). Meaningless (zero) for a Miss.
	MaxAge time.Duration

	// PendingWriteBacks lists the missed cacheable fingerprints the caller
	// should write back after a successful execution of MissFields.
	PendingWriteBacks []PendingWriteBack
}

// PartialCache is the Partial Response Cache (§4.7): it looks fingerprints
// up before planning and writes fresh ones back after execution succeeds.
type PartialCache struct {
	Cache capability.EntityCache
	Clock capability.Clock
}

func New(c capability.EntityCache, clock capability.Clock) *PartialCache {
	if clock == nil {
		clock = capability.SystemClock{}
	}
	return &PartialCache{Cache: c, Clock: clock}
}

// Lookup splits prepared's top-level selection into fingerprints and
// resolves each against the cache, before any planning happens.
func (pc *PartialCache) Lookup(ctx context.Context, prepared *operation.PreparedOperation, sch *schema.Schema, variables map[string]any, authBits string) Outcome {
	fingerprints, uncacheable := Split(prepared, sch)
	missFields := append([]*operation.FieldShape(nil), uncacheable...)

	var hitFields []*operation.FieldShape
	hitData := map[string]any{}
	var hitTTLs []time.Duration
	var pending []PendingWriteBack

	if pc.Cache == nil {
		for _, fp := range fingerprints {
			missFields = append(missFields, fp.Fields...)
			pending = append(pending, PendingWriteBack{
				key:    fp.key(prepared.Fingerprint, prepared.Shapes, variables, authBits),
				MaxAge: fp.MaxAge,
				Fields: fp.Fields,
			})
		}
	} else {
		for _, fp := range fingerprints {
			key := fp.key(prepared.Fingerprint, prepared.Shapes, variables, authBits)
			raw, ok, err := pc.Cache.Get(ctx, key)
			if err != nil || !ok {
				missFields = append(missFields, fp.Fields...)
				pending = append(pending, PendingWriteBack{key: key, MaxAge: fp.MaxAge, Fields: fp.Fields})
				continue
			}
			env, err := decodeEnvelope(raw)
			remaining := time.Duration(0)
			if err == nil {
				remaining = env.ExpiresAt.Sub(pc.Clock.Now())
			}
			if err != nil || remaining <= 0 {
				missFields = append(missFields, fp.Fields...)
				pending = append(pending, PendingWriteBack{key: key, MaxAge: fp.MaxAge, Fields: fp.Fields})
				continue
			}
			hitFields = append(hitFields, fp.Fields...)
			for k, v := range env.Data {
				hitData[k] = v
			}
			hitTTLs = append(hitTTLs, remaining)
		}
	}

	status := StatusMiss
	switch {
	case len(fingerprints) > 0 && len(missFields) == 0:
		status = StatusHit
	case len(hitFields) > 0:
		status = StatusPartialHit
	}

	maxAge := time.Duration(0)
	if status != StatusMiss {
		maxAge = CombinedMaxAge(hitTTLs, pendingMaxAges(pending))
	}

	return Outcome{
		Status:            status,
		HitFields:         hitFields,
		HitData:           hitData,
		MissFields:        missFields,
		MaxAge:            maxAge,
		PendingWriteBacks: pending,
	}
}

func pendingMaxAges(pending []PendingWriteBack) []time.Duration {
	out := make([]time.Duration, 0, len(pending))
	for _, p := range pending {
		out = append(out, p.MaxAge)
	}
	return out
}

// CombinedMaxAge is the minimum of every contributing duration, ignoring
// non-positive ones (§4.7 "minimum of remaining TTLs" / "minimum across hit
// TTLs and miss results' cacheable max-age"). Returns zero if none are
// positive.
func CombinedMaxAge(groups ...[]time.Duration) time.Duration {
	min := time.Duration(0)
	seen := false
	for _, group := range groups {
		for _, d := range group {
			if d <= 0 {
				continue
			}
			if !seen || d < min {
				min = d
				seen = true
			}
		}
	}
	return min
}

// WriteBack stores each pending fingerprint's fresh data, asynchronously,
// extracting it from the finalized response's top-level data by field
// response name (§4.7 "cacheable fingerprints are written back
// asynchronously with their TTLs"). Call once execution has completed
// successfully.
func (pc *PartialCache) WriteBack(ctx context.Context, pending []PendingWriteBack, finalData map[string]any) {
	if pc.Cache == nil {
		return
	}
	for _, p := range pending {
		data := map[string]any{}
		for _, f := range p.Fields {
			name := f.ResponseKey.ResponseName
			if v, ok := finalData[name]; ok {
				data[name] = v
			}
		}
		raw, err := encodeEnvelope(data, pc.Clock.Now().Add(p.MaxAge))
		if err != nil {
			continue
		}
		go func(key string, raw []byte, ttl time.Duration) {
			_ = pc.Cache.Put(context.Background(), key, raw, ttl)
		}(p.key, raw, p.MaxAge)
	}
}

// PlannedFieldsFor rebuilds a full plan.PlannedField tree for fields whose
// data is already known in full (a cache hit's fields). See
// plan.PlannedFieldsFor for the shared implementation — introspection's
// locally-resolved __schema/__type data needs the identical capability, so
// it lives in internal/plan rather than being duplicated here.
func PlannedFieldsFor(fields []*operation.FieldShape, shapes []*operation.ConcreteShape) []*plan.PlannedField {
	return plan.PlannedFieldsFor(fields, shapes)
}
