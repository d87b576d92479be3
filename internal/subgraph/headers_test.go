package subgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

func TestProjectHeaders_ForwardCopiesIncomingValue(t *testing.T) {
	rules := []schema.HeaderRule{{Op: schema.HeaderRuleForward, Name: "Authorization"}}
	out := projectHeaders(rules, map[string][]string{"Authorization": {"Bearer xyz"}})
	require.Equal(t, []string{"Bearer xyz"}, out["Authorization"])
}

func TestProjectHeaders_ForwardMissingHeaderIsNoop(t *testing.T) {
	rules := []schema.HeaderRule{{Op: schema.HeaderRuleForward, Name: "X-Absent"}}
	out := projectHeaders(rules, map[string][]string{})
	_, ok := out["X-Absent"]
	require.False(t, ok)
}

func TestProjectHeaders_InsertSetsFixedValueRegardlessOfIncoming(t *testing.T) {
	rules := []schema.HeaderRule{{Op: schema.HeaderRuleInsert, Name: "X-Gateway", InsertValue: "federation"}}
	out := projectHeaders(rules, map[string][]string{"X-Gateway": {"client-supplied"}})
	require.Equal(t, []string{"federation"}, out["X-Gateway"])
}

func TestProjectHeaders_RemoveDropsAPreviouslyProjectedHeader(t *testing.T) {
	rules := []schema.HeaderRule{
		{Op: schema.HeaderRuleForward, Name: "Cookie"},
		{Op: schema.HeaderRuleRemove, Name: "Cookie"},
	}
	out := projectHeaders(rules, map[string][]string{"Cookie": {"a=b"}})
	_, ok := out["Cookie"]
	require.False(t, ok)
}

func TestProjectHeaders_RenameMovesValueToNewName(t *testing.T) {
	rules := []schema.HeaderRule{{Op: schema.HeaderRuleRename, Name: "X-Old", RenameTo: "X-New"}}
	out := projectHeaders(rules, map[string][]string{"X-Old": {"v"}})
	require.Equal(t, []string{"v"}, out["X-New"])
	_, ok := out["X-Old"]
	require.False(t, ok)
}

func TestProjectHeaders_LaterRuleUndoesEarlierOne(t *testing.T) {
	rules := []schema.HeaderRule{
		{Op: schema.HeaderRuleInsert, Name: "X-Debug", InsertValue: "on"},
		{Op: schema.HeaderRuleRemove, Name: "X-Debug"},
	}
	out := projectHeaders(rules, nil)
	_, ok := out["X-Debug"]
	require.False(t, ok)
}
