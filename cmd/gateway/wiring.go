package main

import (
	"fmt"
	"time"

	"github.com/nexusgraph/federation-gateway/internal/schema"
	"github.com/nexusgraph/federation-gateway/internal/subgraph"
)

// applySubgraphConfig overrides the composed schema's per-subgraph metadata
// with deployment config (§6.5 "subgraphs[name]"). internal/schema/builder.go
// only ever populates Subgraph.URL from the composed join__graph directive —
// WebsocketURL and HeaderRules have no SDL representation, so they must come
// from here, keyed by name since config authors think in subgraph names, not
// the composed SubgraphID enum value.
func applySubgraphConfig(sch *schema.Schema, cfgs map[string]SubgraphConfig) error {
	byName := make(map[string]schema.SubgraphID, len(sch.Subgraphs))
	for id, sg := range sch.Subgraphs {
		byName[sg.Name] = id
	}

	for name, cfg := range cfgs {
		id, ok := byName[name]
		if !ok {
			return fmt.Errorf("subgraph config %q does not match any subgraph in the composed schema", name)
		}
		sg := sch.Subgraphs[id]
		if cfg.URL != "" {
			sg.URL = cfg.URL
		}
		if cfg.WebsocketURL != "" {
			sg.WebsocketURL = cfg.WebsocketURL
		}
		if len(cfg.Headers) > 0 {
			rules, err := headerRules(cfg.Headers)
			if err != nil {
				return fmt.Errorf("subgraph %q: %w", name, err)
			}
			sg.HeaderRules = rules
		}
	}
	return nil
}

func headerRules(cfgs []HeaderRuleConfig) ([]schema.HeaderRule, error) {
	rules := make([]schema.HeaderRule, 0, len(cfgs))
	for _, c := range cfgs {
		var op schema.HeaderRuleOp
		switch c.Op {
		case "forward":
			op = schema.HeaderRuleForward
		case "insert":
			op = schema.HeaderRuleInsert
		case "remove":
			op = schema.HeaderRuleRemove
		case "rename":
			op = schema.HeaderRuleRename
		default:
			return nil, fmt.Errorf("unknown header rule op %q", c.Op)
		}
		rules = append(rules, schema.HeaderRule{
			Op:          op,
			Name:        c.Name,
			RenameTo:    c.RenameTo,
			InsertValue: c.Value,
		})
	}
	return rules, nil
}

// retriesAndCacheTTLs projects the config's per-subgraph retry/entity-cache-ttl
// overrides onto subgraph.Config's SubgraphID-keyed maps, falling back to the
// deployment-wide retry block when a subgraph names none of its own.
func retriesAndCacheTTLs(sch *schema.Schema, cfgs map[string]SubgraphConfig, deploymentRetry *RetryConfig) (map[schema.SubgraphID]subgraph.RetryPolicy, map[schema.SubgraphID]time.Duration) {
	byName := make(map[string]schema.SubgraphID, len(sch.Subgraphs))
	for id, sg := range sch.Subgraphs {
		byName[sg.Name] = id
	}

	retries := make(map[schema.SubgraphID]subgraph.RetryPolicy, len(sch.Subgraphs))
	ttls := make(map[schema.SubgraphID]time.Duration, len(sch.Subgraphs))
	for id := range sch.Subgraphs {
		retries[id] = deploymentRetry.policy()
	}
	for name, cfg := range cfgs {
		id, ok := byName[name]
		if !ok {
			continue
		}
		if cfg.Retry != nil {
			retries[id] = cfg.Retry.policy()
		}
		if cfg.EntityCacheTTL > 0 {
			ttls[id] = cfg.EntityCacheTTL
		}
	}
	return retries, ttls
}
