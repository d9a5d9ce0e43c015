package search

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawID(id uuid.UUID) json.RawMessage {
	return json.RawMessage(fmt.Sprintf("%q", id.String()))
}

func TestDecodeHitIDsPreservesRanking(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	hits := meilisearch.Hits{
		{"id": rawID(first), "body": json.RawMessage(`"top match"`)},
		{"id": rawID(second)},
		{"id": rawID(third)},
	}

	ids := decodeHitIDs(hits)
	require.Len(t, ids, 3)
	assert.Equal(t, []uuid.UUID{first, second, third}, ids)
}

func TestDecodeHitIDsSkipsMalformedHits(t *testing.T) {
	good := uuid.New()

	hits := meilisearch.Hits{
		{"body": json.RawMessage(`"no id field"`)},
		{"id": json.RawMessage(`42`)},
		{"id": json.RawMessage(`"not-a-uuid"`)},
		{"id": rawID(good)},
	}

	ids := decodeHitIDs(hits)
	require.Len(t, ids, 1)
	assert.Equal(t, good, ids[0])
}

func TestSearchPostIDsDecodesEngineResponse(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost && r.URL.Path == "/indexes/posts/search" {
			fmt.Fprintf(w, `{
				"hits": [{"id": %q, "body": "quarterly results"}, {"id": %q, "body": "results recap"}],
				"estimatedTotalHits": 2,
				"offset": 0,
				"limit": 500,
				"processingTimeMs": 1,
				"query": "results"
			}`, first.String(), second.String())
			return
		}
		// Index bootstrap and anything else gets an accepted task.
		fmt.Fprint(w, `{"taskUid": 1, "indexUid": "posts", "status": "enqueued", "type": "settingsUpdate", "enqueuedAt": "2026-01-01T00:00:00Z"}`)
	}))
	defer srv.Close()

	svc := NewSearchService(meilisearch.New(srv.URL))

	ids, err := svc.SearchPostIDs(uuid.New(), nil, "results")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
}
