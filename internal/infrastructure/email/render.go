package email

import (
	"fmt"
	"html"
	"strings"

	"researchdigest/internal/domain"
	"researchdigest/internal/relevance"
)

func renderHTML(entries []domain.DigestEntry, includeLinks bool) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>Research Digest</h2>")

	for _, entry := range entries {
		b.WriteString("<div style=\"margin-bottom:16px\">")
		fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(entry.Title))
		fmt.Fprintf(&b, "<p><em>%s · %s relevance</em></p>",
			html.EscapeString(entry.Source), relevance.Tier(entry.Relevance))
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(entry.Summary))
		if entry.Provenance == domain.ProvenanceFallback {
			b.WriteString("<p><small>Automatic excerpt; full summary unavailable.</small></p>")
		}
		if includeLinks && entry.URL != "" {
			fmt.Fprintf(&b, "<p><a href=%q>Read more</a></p>", entry.URL)
		}
		b.WriteString("</div>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func renderText(entries []domain.DigestEntry, includeLinks bool) string {
	var b strings.Builder
	b.WriteString("Research Digest\n\n")

	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. %s (%s, %s relevance)\n", i+1, entry.Title, entry.Source, relevance.Tier(entry.Relevance))
		fmt.Fprintf(&b, "%s\n", entry.Summary)
		if entry.Provenance == domain.ProvenanceFallback {
			b.WriteString("(automatic excerpt)\n")
		}
		if includeLinks && entry.URL != "" {
			fmt.Fprintf(&b, "%s\n", entry.URL)
		}
		b.WriteString("\n")
	}

	return b.String()
}
