package operation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	language "github.com/nexusgraph/federation-gateway/internal/language"
)

// RawRequest is the transport-facing request shape (§6.1), before any
// parsing or schema binding has happened.
type RawRequest struct {
	Query          string
	OperationName  string
	Variables      map[string]any
	PersistedQuery *PersistedQueryExtension
}

// PersistedQueryExtension mirrors the `extensions.persistedQuery` object a
// client may send instead of (or alongside) a literal query string.
type PersistedQueryExtension struct {
	Version    int
	SHA256Hash string
}

// persistedQueryEntry is what gets stored in the OperationDocCache under an
// APQ hash key.
type persistedQueryEntry struct {
	Query string `json:"query"`
}

// ResolveDocument implements §4.2 step 1: turn req into parsed query text,
// from literal text or an automatic-persisted-query hash lookup. Literal
// text sent with a hash is verified against it and stored; a hash alone
// is looked up. There is no lookup by trusted-document id.
func ResolveDocument(ctx context.Context, req RawRequest, docCache capability.OperationDocCache) (*PreparedDocument, error) {
	query := req.Query

	if req.PersistedQuery != nil {
		key := apqKey(req.PersistedQuery.SHA256Hash)
		if query == "" {
			var entry persistedQueryEntry
			found, err := docCache.GetJSON(ctx, key, &entry)
			if err != nil {
				return nil, gqlerr.New(gqlerr.CodeInternal, err.Error())
			}
			if !found {
				return nil, gqlerr.New(gqlerr.CodePersistedQueryNotFound, "persisted query not found")
			}
			query = entry.Query
		} else {
			if apqHash(query) != req.PersistedQuery.SHA256Hash {
				return nil, gqlerr.New(gqlerr.CodeOperationValidation, "persistedQuery hash mismatch")
			}
			if err := docCache.PutJSON(ctx, key, persistedQueryEntry{Query: query}, 0); err != nil {
				return nil, gqlerr.New(gqlerr.CodeInternal, err.Error())
			}
		}
	}

	if query == "" {
		return nil, errDocumentNotResolved
	}

	doc, err := language.ParseQuery(query)
	if err != nil {
		return nil, gqlerr.New(gqlerr.CodeOperationParsing, err.Error())
	}
	return &PreparedDocument{Query: doc, OperationName: req.OperationName}, nil
}

func apqHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

func apqKey(hash string) string { return "apq:" + hash }
