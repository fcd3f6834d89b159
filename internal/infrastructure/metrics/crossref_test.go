package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleCitationsByDOI(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/10.1000%2Fxyz", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"message": {"is-referenced-by-count": 42}}`))
	}))
	defer server.Close()

	count, err := NewClient(server.URL).ArticleCitations(context.Background(), "10.1000/xyz", "")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestArticleCitationsByTitle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "some title", r.URL.Query().Get("query.bibliographic"))
		_, _ = w.Write([]byte(`{"message": {"items": [{"is-referenced-by-count": 7}]}}`))
	}))
	defer server.Close()

	count, err := NewClient(server.URL).ArticleCitations(context.Background(), "", "some title")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestArticleCitationsNothingToLookUp(t *testing.T) {
	t.Parallel()

	count, err := NewClient("https://unused.example.org").ArticleCitations(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestJournalHIndex(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Citation counts 10, 5, 3, 1 → h-index 3.
		_, _ = w.Write([]byte(`{"message": {"items": [
			{"is-referenced-by-count": 3},
			{"is-referenced-by-count": 10},
			{"is-referenced-by-count": 1},
			{"is-referenced-by-count": 5}
		]}}`))
	}))
	defer server.Close()

	h, err := NewClient(server.URL).JournalHIndex(context.Background(), "Some Journal")
	require.NoError(t, err)
	assert.Equal(t, 3, h)
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ArticleCitations(context.Background(), "10.1/abc", "")
	assert.Error(t, err)
}
