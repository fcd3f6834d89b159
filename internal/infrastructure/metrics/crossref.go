package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"researchdigest/internal/ports"
)

// Client fetches citation metrics from a Crossref-compatible works API.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ ports.CitationSource = (*Client)(nil)

// NewClient creates a reusable metrics client.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type work struct {
	ReferencedByCount int      `json:"is-referenced-by-count"`
	ContainerTitle    []string `json:"container-title"`
}

// ArticleCitations returns how often the article is cited, located by DOI when
// available, otherwise by bibliographic title search.
func (c *Client) ArticleCitations(ctx context.Context, doi, title string) (int, error) {
	if doi == "" && title == "" {
		return 0, nil
	}

	if doi != "" {
		var resp struct {
			Message work `json:"message"`
		}
		if err := c.get(ctx, c.endpoint+"/"+url.PathEscape(doi), &resp); err != nil {
			return 0, err
		}
		return resp.Message.ReferencedByCount, nil
	}

	var resp struct {
		Message struct {
			Items []work `json:"items"`
		} `json:"message"`
	}
	query := fmt.Sprintf("%s?query.bibliographic=%s&rows=1", c.endpoint, url.QueryEscape(title))
	if err := c.get(ctx, query, &resp); err != nil {
		return 0, err
	}
	if len(resp.Message.Items) == 0 {
		return 0, nil
	}
	return resp.Message.Items[0].ReferencedByCount, nil
}

// JournalHIndex approximates a journal's h-index from the citation counts of
// its most-cited indexed works.
func (c *Client) JournalHIndex(ctx context.Context, journal string) (int, error) {
	if journal == "" {
		return 0, nil
	}

	var resp struct {
		Message struct {
			Items []work `json:"items"`
		} `json:"message"`
	}
	query := fmt.Sprintf("%s?filter=container-title:%s&rows=100", c.endpoint, url.QueryEscape(journal))
	if err := c.get(ctx, query, &resp); err != nil {
		return 0, err
	}

	citations := make([]int, 0, len(resp.Message.Items))
	for _, item := range resp.Message.Items {
		citations = append(citations, item.ReferencedByCount)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(citations)))

	h := 0
	for i, count := range citations {
		if count >= i+1 {
			h = i + 1
		} else {
			break
		}
	}
	return h, nil
}

func (c *Client) get(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
