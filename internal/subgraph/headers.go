package subgraph

import schema "github.com/nexusgraph/federation-gateway/internal/schema"

// projectHeaders applies sg's composed header rules (§4.5.1) against the
// client's incoming headers, producing the set forwarded to the subgraph.
// Rules apply in order, so a REMOVE after a FORWARD of the same name wins.
func projectHeaders(rules []schema.HeaderRule, incoming map[string][]string) map[string][]string {
	out := map[string][]string{}
	for _, rule := range rules {
		switch rule.Op {
		case schema.HeaderRuleForward:
			if v, ok := incoming[rule.Name]; ok {
				out[rule.Name] = v
			}
		case schema.HeaderRuleInsert:
			out[rule.Name] = []string{rule.InsertValue}
		case schema.HeaderRuleRemove:
			delete(out, rule.Name)
		case schema.HeaderRuleRename:
			if v, ok := incoming[rule.Name]; ok {
				out[rule.RenameTo] = v
				delete(out, rule.Name)
			}
		}
	}
	return out
}
