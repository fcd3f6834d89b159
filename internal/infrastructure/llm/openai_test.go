package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchdigest/internal/config"
	"researchdigest/internal/domain"
	"researchdigest/internal/summarize"
)

func newTestClient(endpoint string) *OpenAIClient {
	return NewOpenAIClient(config.OpenAIConfig{
		Endpoint: endpoint,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
	})
}

var testRecord = domain.ArticleRecord{
	Source:   "arxiv",
	Title:    "Sample Paper",
	Abstract: "An abstract worth summarizing.",
}

func TestSummarizeParsesCompletion(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  A short summary.  "}}]}`))
	}))
	defer server.Close()

	summary, err := newTestClient(server.URL).Summarize(context.Background(), testRecord, 200)
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", summary)
}

func TestSummarizeRateLimitIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Summarize(context.Background(), testRecord, 200)
	require.Error(t, err)
	assert.Equal(t, summarize.ClassTransient, summarize.Classify(err))
}

func TestSummarizeServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Summarize(context.Background(), testRecord, 200)
	require.Error(t, err)
	assert.Equal(t, summarize.ClassTransient, summarize.Classify(err))
}

func TestSummarizeAuthFailureIsPermanent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Summarize(context.Background(), testRecord, 200)
	require.Error(t, err)
	assert.Equal(t, summarize.ClassPermanent, summarize.Classify(err))
}

func TestSummarizeEmptyContentIsPermanent(t *testing.T) {
	t.Parallel()

	_, err := newTestClient("https://unused.example.org").Summarize(context.Background(), domain.ArticleRecord{Title: "empty"}, 200)
	require.Error(t, err)
	assert.Equal(t, summarize.ClassPermanent, summarize.Classify(err))
}

func TestSummarizeMisconfiguredClientIsPermanent(t *testing.T) {
	t.Parallel()

	client := NewOpenAIClient(config.OpenAIConfig{})
	_, err := client.Summarize(context.Background(), testRecord, 200)
	require.Error(t, err)
	assert.Equal(t, summarize.ClassPermanent, summarize.Classify(err))
}

func TestSummarizeTruncatesContentAtRuneBoundary(t *testing.T) {
	t.Parallel()

	var payload struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	// Three-byte runes guarantee the byte cap lands mid-rune.
	record := domain.ArticleRecord{
		Title:   "Multibyte",
		Content: strings.Repeat("世", maxContentChars),
	}

	_, err := newTestClient(server.URL).Summarize(context.Background(), record, 200)
	require.NoError(t, err)

	require.Len(t, payload.Messages, 2)
	prompt := payload.Messages[1].Content
	assert.True(t, utf8.ValidString(prompt))
	assert.NotContains(t, prompt, string(utf8.RuneError))
}

func TestSummarizeEmptyCompletionIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Summarize(context.Background(), testRecord, 200)
	require.Error(t, err)
	assert.Equal(t, summarize.ClassTransient, summarize.Classify(err))
}
