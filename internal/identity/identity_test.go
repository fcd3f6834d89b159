package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"researchdigest/internal/domain"
)

func record(source, title, url string) domain.ArticleRecord {
	return domain.ArticleRecord{
		Source:      source,
		Title:       title,
		URL:         url,
		PublishedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	rec := record("arxiv", "Attention Is All You Need", "https://arxiv.org/abs/1706.03762")

	first := r.Resolve(rec)
	second := r.Resolve(rec)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestResolveNormalizesURL(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)

	a := r.Resolve(record("arxiv", "A", "HTTPS://ArXiv.org/abs/1234.5678/"))
	b := r.Resolve(record("arxiv", "A", "https://arxiv.org/abs/1234.5678"))
	assert.Equal(t, a, b)
}

func TestResolveStripsQueryNoise(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)

	a := r.Resolve(record("nature", "B", "https://nature.com/articles/x?utm_source=feed"))
	b := r.Resolve(record("nature", "B", "https://nature.com/articles/x"))
	assert.Equal(t, a, b)
}

func TestResolveKeepsQueryForSignificantSource(t *testing.T) {
	t.Parallel()

	r := NewResolver([]string{"pubmed"})

	a := r.Resolve(record("pubmed", "C", "https://pubmed.gov/article?id=42"))
	b := r.Resolve(record("pubmed", "C", "https://pubmed.gov/article?id=43"))
	assert.NotEqual(t, a, b)
}

func TestResolveDropsFragment(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)

	a := r.Resolve(record("nature", "D", "https://nature.com/articles/y#abstract"))
	b := r.Resolve(record("nature", "D", "https://nature.com/articles/y"))
	assert.Equal(t, a, b)
}

func TestResolveFallsBackToTitleAndSource(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)

	a := r.Resolve(record("arxiv", "Deep   Residual\tLearning", ""))
	b := r.Resolve(record("arxiv", "deep residual learning", "not a url"))
	assert.Equal(t, a, b)

	// Same title on a different source is a different article.
	c := r.Resolve(record("nature", "deep residual learning", ""))
	assert.NotEqual(t, a, c)
}

func TestResolveIsTotal(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	assert.NotEmpty(t, r.Resolve(domain.ArticleRecord{}))
}
