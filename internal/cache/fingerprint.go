package cache

import (
	"sort"
	"time"

	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// Fingerprint is one cacheable slice of a prepared operation's top-level
// selection: every top-level field sharing the same effective @cache(maxAge)
// is grouped into a single fingerprint so they share one cache lookup.
type Fingerprint struct {
	MaxAge time.Duration
	Fields []*operation.FieldShape
}

// Split partitions prepared.RootShape's top-level fields into cacheable
// Fingerprints (grouped by identical effective MaxAge) and the remainder of
// fields that carry no @cache directive at all and must always execute.
func Split(prepared *operation.PreparedOperation, sch *schema.Schema) (fingerprints []Fingerprint, uncacheable []*operation.FieldShape) {
	if prepared == nil || prepared.RootShape == nil {
		return nil, nil
	}

	byMaxAge := map[time.Duration][]*operation.FieldShape{}
	for _, f := range prepared.RootShape.Fields {
		maxAge := effectiveMaxAge(f, sch)
		if maxAge <= 0 {
			uncacheable = append(uncacheable, f)
			continue
		}
		byMaxAge[maxAge] = append(byMaxAge[maxAge], f)
	}

	ages := make([]time.Duration, 0, len(byMaxAge))
	for age := range byMaxAge {
		ages = append(ages, age)
	}
	sort.Slice(ages, func(i, j int) bool { return ages[i] < ages[j] })

	for _, age := range ages {
		fingerprints = append(fingerprints, Fingerprint{MaxAge: age, Fields: byMaxAge[age]})
	}
	return fingerprints, uncacheable
}

// effectiveMaxAge is a field-level @cache(maxAge:) if present, else the
// field's own return type's @cache(maxAge:) (schema.Type.CacheControl's doc
// comment: "used ... when no field-level directive overrides it"), else
// zero (not cacheable).
func effectiveMaxAge(f *operation.FieldShape, sch *schema.Schema) time.Duration {
	if f.SchemaField != nil && f.SchemaField.CacheControl != nil {
		return f.SchemaField.CacheControl.MaxAge
	}
	named := schema.GetNamedType(f.Type)
	if t := sch.TypeByName(named); t != nil && t.CacheControl != nil {
		return t.CacheControl.MaxAge
	}
	return 0
}

// fieldNames returns fp's field response names, sorted, for use in a cache
// key (stable regardless of map/slice iteration order upstream).
func (fp Fingerprint) fieldNames() []string {
	names := make([]string, 0, len(fp.Fields))
	for _, f := range fp.Fields {
		names = append(names, f.ResponseKey.ResponseName)
	}
	sort.Strings(names)
	return names
}
