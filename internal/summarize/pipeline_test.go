package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"researchdigest/internal/domain"
)

type fakeClient struct {
	calls   int
	results []func() (string, error)
}

func (f *fakeClient) Summarize(_ context.Context, _ domain.ArticleRecord, _ int) (string, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx]()
}

func succeed(text string) func() (string, error) {
	return func() (string, error) { return text, nil }
}

func failTransient(msg string) func() (string, error) {
	return func() (string, error) { return "", Transient(errors.New(msg)) }
}

func failPermanent(msg string) func() (string, error) {
	return func() (string, error) { return "", Permanent(errors.New(msg)) }
}

func testConfig() Config {
	return Config{
		MaxAttempts:      3,
		MaxSummaryLength: 200,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       2 * time.Millisecond,
	}
}

var testRecord = domain.ArticleRecord{
	Source:   "arxiv",
	Title:    "Sample Paper",
	URL:      "https://arxiv.org/abs/1234.5678",
	Abstract: "First sentence of the abstract. Second sentence with more detail. Third one here.",
}

func TestSummarizeSuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	client := &fakeClient{results: []func() (string, error){succeed("A concise model summary.")}}
	p := NewPipeline(client, testConfig(), nil)

	result := p.Summarize(context.Background(), "id-1", testRecord)

	assert.Equal(t, "id-1", result.Identity)
	assert.Equal(t, domain.ProvenanceModel, result.Provenance)
	assert.Equal(t, "A concise model summary.", result.Summary)
	assert.Equal(t, 1, client.calls)
}

func TestSummarizeRetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	client := &fakeClient{results: []func() (string, error){
		failTransient("rate limited"),
		failTransient("timeout"),
		succeed("Recovered summary."),
	}}
	p := NewPipeline(client, testConfig(), nil)

	result := p.Summarize(context.Background(), "id-2", testRecord)

	assert.Equal(t, domain.ProvenanceModel, result.Provenance)
	assert.Equal(t, 3, client.calls)
}

func TestSummarizeExhaustionYieldsFallback(t *testing.T) {
	t.Parallel()

	client := &fakeClient{results: []func() (string, error){failTransient("unavailable")}}
	p := NewPipeline(client, testConfig(), nil)

	result := p.Summarize(context.Background(), "id-3", testRecord)

	assert.Equal(t, domain.ProvenanceFallback, result.Provenance)
	assert.NotEmpty(t, result.Summary)
	assert.Equal(t, 3, client.calls)
}

func TestSummarizePermanentFailureAbortsRetries(t *testing.T) {
	t.Parallel()

	client := &fakeClient{results: []func() (string, error){failPermanent("content policy")}}
	p := NewPipeline(client, testConfig(), nil)

	result := p.Summarize(context.Background(), "id-4", testRecord)

	assert.Equal(t, domain.ProvenanceFallback, result.Provenance)
	assert.Equal(t, 1, client.calls)
}

func TestSummarizeUnclassifiedErrorIsRetried(t *testing.T) {
	t.Parallel()

	client := &fakeClient{results: []func() (string, error){
		func() (string, error) { return "", errors.New("something odd") },
		succeed("Second try worked."),
	}}
	p := NewPipeline(client, testConfig(), nil)

	result := p.Summarize(context.Background(), "id-5", testRecord)

	assert.Equal(t, domain.ProvenanceModel, result.Provenance)
	assert.Equal(t, 2, client.calls)
}

func TestSummarizeNilClientFallsBack(t *testing.T) {
	t.Parallel()

	p := NewPipeline(nil, testConfig(), nil)
	result := p.Summarize(context.Background(), "id-6", testRecord)

	assert.Equal(t, domain.ProvenanceFallback, result.Provenance)
	assert.Contains(t, result.Summary, "First sentence of the abstract.")
}

func TestSummarizeCancelledContextFallsBack(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{results: []func() (string, error){failTransient("timeout")}}
	p := NewPipeline(client, testConfig(), nil)

	result := p.Summarize(ctx, "id-7", testRecord)
	assert.Equal(t, domain.ProvenanceFallback, result.Provenance)
}

func TestSummarizeTruncatesModelOutput(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 100)
	client := &fakeClient{results: []func() (string, error){succeed(long)}}

	cfg := testConfig()
	cfg.MaxSummaryLength = 50
	p := NewPipeline(client, cfg, nil)

	result := p.Summarize(context.Background(), "id-8", testRecord)
	assert.LessOrEqual(t, len([]rune(result.Summary)), 50)
	assert.Equal(t, domain.ProvenanceModel, result.Provenance)
}

func TestFallbackSummaryDeterministic(t *testing.T) {
	t.Parallel()

	content := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."
	a := fallbackSummary(content, 200)
	b := fallbackSummary(content, 200)
	assert.Equal(t, a, b)
	assert.Equal(t, content, a)
}

func TestFallbackSummaryRespectsBudget(t *testing.T) {
	t.Parallel()

	content := "First sentence here. " + strings.Repeat("Another sentence follows. ", 20)
	summary := fallbackSummary(content, 60)
	assert.LessOrEqual(t, len([]rune(summary)), 60)
	assert.True(t, strings.HasPrefix(summary, "First sentence here."))
}

func TestFallbackSummaryEmptyContent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, emptyContentSummary, fallbackSummary("", 100))
	assert.Equal(t, emptyContentSummary, fallbackSummary("   ", 100))
}

func TestFallbackSummaryNoSentencePunctuation(t *testing.T) {
	t.Parallel()

	summary := fallbackSummary("just a fragment without punctuation", 100)
	assert.Equal(t, "just a fragment without punctuation", summary)
}

func TestClassifyDefaultsToTransient(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ClassTransient, Classify(errors.New("mystery")))
	assert.Equal(t, ClassPermanent, Classify(Permanent(errors.New("bad auth"))))
	assert.Equal(t, ClassTransient, Classify(Transient(errors.New("429"))))
}
