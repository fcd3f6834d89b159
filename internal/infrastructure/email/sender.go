package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"researchdigest/internal/config"
	"researchdigest/internal/domain"
	"researchdigest/internal/ports"
)

// Sender delivers digests over email. The HTTP mail API is preferred when an
// API key is configured; otherwise delivery falls back to SMTP.
type Sender struct {
	cfg    config.EmailConfig
	client *http.Client
	now    func() time.Time
	// sendMail is swappable in tests; defaults to smtp.SendMail.
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

var _ ports.DigestSink = (*Sender)(nil)

// NewSender wires delivery settings.
func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{
		cfg:      cfg,
		client:   &http.Client{Timeout: 30 * time.Second},
		now:      time.Now,
		sendMail: smtp.SendMail,
	}
}

// SendDigest renders and delivers the digest batch.
func (s *Sender) SendDigest(ctx context.Context, entries []domain.DigestEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if s.cfg.From == "" || s.cfg.To == "" {
		return fmt.Errorf("email sender misconfigured: from/to missing")
	}

	subject := fmt.Sprintf("%s Research Digest - %s",
		s.cfg.SubjectPrefix, s.now().Format("2006-01-02"))
	html := renderHTML(entries, s.cfg.IncludeLinks)
	text := renderText(entries, s.cfg.IncludeLinks)

	if s.cfg.APIKey != "" {
		return s.sendViaAPI(ctx, subject, html, text)
	}
	if s.cfg.SMTP.Server != "" {
		return s.sendViaSMTP(subject, html, text)
	}
	return fmt.Errorf("no email delivery path configured")
}

func (s *Sender) sendViaAPI(ctx context.Context, subject, html, text string) error {
	body, err := json.Marshal(map[string]any{
		"from":    s.cfg.From,
		"to":      []string{s.cfg.To},
		"subject": subject,
		"html":    html,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail api error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}

func (s *Sender) sendViaSMTP(subject, html, text string) error {
	boundary := "digest-boundary"

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", s.cfg.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, text)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, html)
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTP.Server, s.cfg.SMTP.Port)
	var auth smtp.Auth
	if s.cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTP.Username, s.cfg.SMTP.Password, s.cfg.SMTP.Server)
	}

	if err := s.sendMail(addr, auth, s.cfg.From, []string{s.cfg.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
