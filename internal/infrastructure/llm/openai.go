package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"researchdigest/internal/config"
	"researchdigest/internal/domain"
	"researchdigest/internal/summarize"
)

const defaultSystemPrompt = "You are a specialized academic assistant that " +
	"summarizes research papers in just 2-3 concise sentences."

// maxContentChars caps how much article text goes into the prompt.
const maxContentChars = 10000

// OpenAIClient implements summarize.Client backed by OpenAI-compatible
// chat-completion APIs. Errors are classified so the retry loop knows whether
// another attempt can help.
type OpenAIClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ summarize.Client = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Summarize asks the model for a short summary of the article.
func (c *OpenAIClient) Summarize(ctx context.Context, record domain.ArticleRecord, maxLength int) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", summarize.Permanent(fmt.Errorf("openai client misconfigured"))
	}

	content := record.Body()
	if content == "" {
		return "", summarize.Permanent(fmt.Errorf("article %q has no content", record.Title))
	}
	if len(content) > maxContentChars {
		// Back up to a rune boundary so the prompt stays valid UTF-8.
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	prompt := fmt.Sprintf(
		"Please summarize the following research article in ONLY 2-3 sentences "+
			"(at most %d characters):\n\nTitle: %s\n\n%s\n\n"+
			"Focus ONLY on the most important research contributions and findings.",
		maxLength, record.Title, content)

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
	})
	if err != nil {
		return "", summarize.Permanent(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", summarize.Permanent(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failures and timeouts are worth another attempt.
		return "", summarize.Transient(fmt.Errorf("summarize request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", summarize.Transient(fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", summarize.Transient(fmt.Errorf("empty completion"))
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// classifyStatus maps HTTP status codes onto the retry taxonomy: rate limits
// and server errors are transient, every other client error is permanent.
func classifyStatus(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err := fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(detail)))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return summarize.Transient(err)
	}
	return summarize.Permanent(err)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}
