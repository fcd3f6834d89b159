package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"researchdigest/internal/domain"
)

// Resolver derives a stable identity for an article record. Resolution is pure
// and deterministic: the same record always yields the same identity, across
// fetches and across runs.
type Resolver struct {
	// querySources names sources whose URLs encode the article in query
	// parameters; for everyone else the query string is noise and stripped.
	querySources map[string]bool
}

// NewResolver builds a resolver. Sources listed in querySignificant keep their
// URL query strings as part of the identity.
func NewResolver(querySignificant []string) *Resolver {
	set := make(map[string]bool, len(querySignificant))
	for _, s := range querySignificant {
		set[strings.ToLower(strings.TrimSpace(s))] = true
	}
	return &Resolver{querySources: set}
}

// Resolve returns the identity for a record. A well-formed URL wins; otherwise
// the identity is a hash over the normalized title and source name.
func (r *Resolver) Resolve(rec domain.ArticleRecord) string {
	if id, ok := r.normalizeURL(rec.URL, rec.Source); ok {
		return id
	}
	return hashTitleSource(rec.Title, rec.Source)
}

func (r *Resolver) normalizeURL(raw, source string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	if u.RawQuery != "" && !r.querySources[strings.ToLower(strings.TrimSpace(source))] {
		u.RawQuery = ""
	}

	return u.String(), true
}

func hashTitleSource(title, source string) string {
	normalized := normalizeText(title) + "\x1f" + normalizeText(source)
	sum := sha256.Sum256([]byte(normalized))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// normalizeText lower-cases and collapses internal whitespace.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
