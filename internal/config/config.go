package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "RESEARCH_DIGEST_CONFIG"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	resendKeyEnv    = "RESEND_API_KEY"
	emailFromEnv    = "EMAIL_FROM"
	emailToEnv      = "EMAIL_TO"
	smtpServerEnv   = "EMAIL_SMTP_SERVER"
	smtpPortEnv     = "EMAIL_SMTP_PORT"
	smtpUserEnv     = "EMAIL_SMTP_USERNAME"
	smtpPasswordEnv = "EMAIL_SMTP_PASSWORD"
)

// Config holds every setting the application consumes. Limits are validated at
// startup; a run never proceeds with undefined limits.
type Config struct {
	App     AppConfig      `yaml:"app"`
	OpenAI  OpenAIConfig   `yaml:"openai"`
	Email   EmailConfig    `yaml:"email"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Quality QualityConfig  `yaml:"quality_filter"`
	Topics  []string       `yaml:"topics"`
	Sources []SourceConfig `yaml:"sources"`
	// QuerySources lists source names whose URLs carry meaningful query
	// parameters; identity resolution keeps the query string for these.
	QuerySources []string `yaml:"query_significant_sources"`
}

// AppConfig carries run-level limits and paths.
type AppConfig struct {
	LogLevel             string `yaml:"log_level"`
	StoragePath          string `yaml:"storage_path"`
	UpdateFrequency      string `yaml:"update_frequency"`
	RetentionDays        int    `yaml:"tracking_retention_days"`
	MaxArticlesToProcess int    `yaml:"max_articles_to_process"`
	MaxSummaryLength     int    `yaml:"max_summary_length"`
	SummaryConcurrency   int    `yaml:"summary_concurrency"`
}

// Interval resolves the update frequency to a duration.
func (a AppConfig) Interval() time.Duration {
	d, err := time.ParseDuration(a.UpdateFrequency)
	if err != nil || d <= 0 {
		return 6 * time.Hour
	}
	return d
}

// Validate checks the run-level limits.
func (a AppConfig) Validate() error {
	if err := validation.ValidateStruct(&a,
		validation.Field(&a.StoragePath, validation.Required),
		validation.Field(&a.RetentionDays, validation.Min(0)),
		validation.Field(&a.MaxArticlesToProcess, validation.Required, validation.Min(1)),
		validation.Field(&a.MaxSummaryLength, validation.Required, validation.Min(1)),
		validation.Field(&a.SummaryConcurrency, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if a.UpdateFrequency != "" {
		if _, err := time.ParseDuration(a.UpdateFrequency); err != nil {
			return fmt.Errorf("app: update_frequency %q is not a duration", a.UpdateFrequency)
		}
	}
	return nil
}

// OpenAIConfig defines how to contact the summarization API.
type OpenAIConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	SystemPrompt   string `yaml:"system_prompt"`
	MaxAttempts    int    `yaml:"max_attempts"`
	InitialBackoff string `yaml:"initial_backoff"`
	MaxBackoff     string `yaml:"max_backoff"`
}

// Backoff resolves the initial and maximum retry delays.
func (o OpenAIConfig) Backoff() (initial, max time.Duration) {
	initial, max = 2*time.Second, time.Minute
	if d, err := time.ParseDuration(o.InitialBackoff); err == nil && d > 0 {
		initial = d
	}
	if d, err := time.ParseDuration(o.MaxBackoff); err == nil && d > 0 {
		max = d
	}
	return initial, max
}

// Validate checks the summarizer contract fields.
func (o OpenAIConfig) Validate() error {
	if err := validation.ValidateStruct(&o,
		validation.Field(&o.Endpoint, validation.Required),
		validation.Field(&o.Model, validation.Required),
		validation.Field(&o.MaxAttempts, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	return nil
}

// EmailConfig wires the digest sink. The Resend-style HTTP API is preferred;
// SMTP is the fallback when no API key is configured.
type EmailConfig struct {
	APIKey        string     `yaml:"api_key"`
	APIEndpoint   string     `yaml:"api_endpoint"`
	From          string     `yaml:"from"`
	To            string     `yaml:"to"`
	SubjectPrefix string     `yaml:"subject_prefix"`
	IncludeLinks  bool       `yaml:"include_links"`
	SMTP          SMTPConfig `yaml:"smtp"`
}

// Configured reports whether any delivery path is usable.
func (e EmailConfig) Configured() bool {
	return e.APIKey != "" || e.SMTP.Server != ""
}

// SMTPConfig holds the legacy SMTP delivery settings.
type SMTPConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MetricsConfig points at the citation metrics API.
type MetricsConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// QualityConfig thresholds articles on citation metrics; zero disables a check.
type QualityConfig struct {
	MinCitations int `yaml:"min_citations"`
	MinHIndex    int `yaml:"min_h_index"`
}

// Validate checks the thresholds are not negative.
func (q QualityConfig) Validate() error {
	if err := validation.ValidateStruct(&q,
		validation.Field(&q.MinCitations, validation.Min(0)),
		validation.Field(&q.MinHIndex, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("quality_filter: %w", err)
	}
	return nil
}

// SourceConfig describes a single site with its scanner strategy.
type SourceConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	Categories []CategoryConfig  `yaml:"categories"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds the concrete endpoints to crawl.
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Validate runs every section's checks. Any failure is fatal at startup.
func (c Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.OpenAI.Validate(); err != nil {
		return err
	}
	return c.Quality.Validate()
}

// Load reads YAML configuration over the defaults and applies environment
// overrides. The path argument wins over the config path env var. Validation
// failures abort the load.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(resendKeyEnv); v != "" {
		c.Email.APIKey = v
	}
	if v := os.Getenv(emailFromEnv); v != "" {
		c.Email.From = v
	}
	if v := os.Getenv(emailToEnv); v != "" {
		c.Email.To = v
	}
	if v := os.Getenv(smtpServerEnv); v != "" {
		c.Email.SMTP.Server = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := parsePort(v); err == nil {
			c.Email.SMTP.Port = port
		}
	}
	if v := os.Getenv(smtpUserEnv); v != "" {
		c.Email.SMTP.Username = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Email.SMTP.Password = v
	}
}

func parsePort(v string) (int, error) {
	var port int
	if _, err := fmt.Sscanf(v, "%d", &port); err != nil {
		return 0, err
	}
	return port, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		App: AppConfig{
			LogLevel:             "info",
			StoragePath:          "./data",
			UpdateFrequency:      "6h",
			RetentionDays:        30,
			MaxArticlesToProcess: 5,
			MaxSummaryLength:     600,
			SummaryConcurrency:   3,
		},
		OpenAI: OpenAIConfig{
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			MaxAttempts:    3,
			InitialBackoff: "2s",
			MaxBackoff:     "1m",
		},
		Email: EmailConfig{
			APIEndpoint:   "https://api.resend.com/emails",
			SubjectPrefix: "[Research Update]",
			IncludeLinks:  true,
		},
		Metrics: MetricsConfig{
			Endpoint: "https://api.crossref.org/works",
		},
		Sources: []SourceConfig{
			{
				Name:    "arxiv",
				Scanner: "arxiv",
				Categories: []CategoryConfig{
					{Name: "cs.AI", URL: "https://export.arxiv.org/list/cs.AI/pastweek"},
				},
			},
		},
	}
}
