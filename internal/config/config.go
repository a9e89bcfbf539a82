package config

import (
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/riskscope/internal/database"
	"github.com/nao1215/riskscope/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "riskscope"

	// DefaultHost and DefaultPort form the REST listen address.
	DefaultHost = "0.0.0.0"
	DefaultPort = 8000

	// DefaultTimeout bounds one analyzer call, including retries and polling.
	// The scanning service typically needs several polls before the analysis
	// completes, so this is generous.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the delay between analysis status polls.
	DefaultPollInterval = 1 * time.Second

	// DefaultMaxPolls caps the number of analysis status polls.
	DefaultMaxPolls = 12

	// DefaultHIBPCacheTTL is how long a fetched hash range stays cached.
	DefaultHIBPCacheTTL = time.Hour

	// DefaultSMTPPort is the mail submission port.
	DefaultSMTPPort = 587

	// DefaultNotifyWorkers is the number of notification goroutines.
	DefaultNotifyWorkers = 2

	// DefaultNotifyQueueSize is the notification buffer capacity.
	// Alerts beyond this are dropped rather than blocking routing.
	DefaultNotifyQueueSize = 100

	// DefaultNotifyMinAction is the lowest action that triggers a notification.
	DefaultNotifyMinAction = "alert"

	// DefaultBatchSize is the number of inputs routed concurrently by
	// route --file.
	DefaultBatchSize = 10

	// DefaultLLMModel is the chat model used for text classification.
	DefaultLLMModel = "gpt-3.5-turbo"

	// DefaultLogLevel keeps the output quiet unless something goes wrong.
	DefaultLogLevel = "warn"

	// DefaultKafkaTopic is the topic alerts are published to.
	DefaultKafkaTopic = "riskscope.alerts"
)

// Config holds all configuration options for riskscope.
// This struct is populated from defaults, the YAML file, the environment
// and CLI flags (in that order) and passed through the application via
// dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. Every key maps one-to-one to an environment variable,
// which keeps the file, the environment and the masked printout aligned.
type Config struct {
	// Host and Port form the REST listen address.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// VirusTotalAPIKey enables the remote URL scanner. Without it, URLs are
	// scored by local heuristics only.
	VirusTotalAPIKey string `yaml:"vt_api_key"`

	// OpenAIAPIKey enables LLM text classification. Without it, texts are
	// scored by local heuristics only.
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// OpenAIBaseURL points at any chat-completions compatible endpoint.
	OpenAIBaseURL string `yaml:"openai_base_url"`

	// LLMModel is the chat model name.
	LLMModel string `yaml:"llm_model"`

	// Timeout bounds one analyzer call.
	Timeout time.Duration `yaml:"timeout"`

	// PollInterval and MaxPolls control how long the URL scanner waits for
	// a queued analysis.
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPolls     int           `yaml:"max_polls"`

	// CommonPasswordsFile is a newline separated list of common passwords.
	CommonPasswordsFile string `yaml:"common_passwords_file"`

	// BreachedSHA1File is a newline separated list of SHA-1 digests,
	// optionally followed by ":count".
	BreachedSHA1File string `yaml:"breached_sha1_file"`

	// EnableHIBP turns on the k-anonymity breach range lookup.
	EnableHIBP bool `yaml:"enable_hibp"`

	// HIBPCacheTTL is how long fetched ranges are cached. 0 disables caching.
	HIBPCacheTTL time.Duration `yaml:"hibp_cache_ttl"`

	// FingerprintKey keys the password and text fingerprints stored as input
	// references. When empty a random key is used per process, so references
	// cannot be correlated across restarts.
	FingerprintKey string `yaml:"fingerprint_key"`

	// SOCKS5Proxy routes every outbound analyzer call through a proxy
	// in "host:port" format.
	SOCKS5Proxy string `yaml:"socks5_proxy"`

	// DatabaseURL selects the event store: sqlite://<path>, a bare path,
	// or postgres://...
	DatabaseURL string `yaml:"database_url"`

	// MemoryPath is the JSON file backing the memory store.
	MemoryPath string `yaml:"memory_path"`

	// N8NWebhookURL receives a JSON payload for every alert.
	N8NWebhookURL string `yaml:"n8n_webhook_url"`

	// SlackWebhookURL is a Slack incoming webhook.
	SlackWebhookURL string `yaml:"slack_webhook_url"`

	// SMTP settings for email alerts. Email is enabled when SMTPHost is set.
	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port"`
	SMTPUser     string   `yaml:"smtp_user"`
	SMTPPass     string   `yaml:"smtp_pass"`
	EmailFrom    string   `yaml:"email_from"`
	AlertEmailTo []string `yaml:"alert_email_to"`

	// KafkaBrokers enables the Kafka channel when non-empty.
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	// NotifyWorkers and NotifyQueueSize size the notification queue.
	NotifyWorkers   int `yaml:"notify_workers"`
	NotifyQueueSize int `yaml:"notify_queue_size"`

	// NotifyMinAction is "alert" or "log".
	NotifyMinAction string `yaml:"notify_min_action"`

	// BatchSize is the concurrency of route --file.
	BatchSize int `yaml:"batch_size"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// LogJSON switches the log output to JSON.
	LogJSON bool `yaml:"log_json"`

	// Verbose forces debug logging regardless of LogLevel.
	Verbose bool `yaml:"-"`

	// ConfigFilePath is the file the configuration was loaded from, if any.
	ConfigFilePath string `yaml:"-"`
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, port numbers).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		LLMModel:        DefaultLLMModel,
		Timeout:         DefaultTimeout,
		PollInterval:    DefaultPollInterval,
		MaxPolls:        DefaultMaxPolls,
		HIBPCacheTTL:    DefaultHIBPCacheTTL,
		DatabaseURL:     "sqlite://" + filepath.Join(XDGDataDir(), "events.db"),
		MemoryPath:      filepath.Join(XDGDataDir(), "memory.json"),
		SMTPPort:        DefaultSMTPPort,
		KafkaTopic:      DefaultKafkaTopic,
		NotifyWorkers:   DefaultNotifyWorkers,
		NotifyQueueSize: DefaultNotifyQueueSize,
		NotifyMinAction: DefaultNotifyMinAction,
		BatchSize:       DefaultBatchSize,
		LogLevel:        DefaultLogLevel,
	}
}

// XDGDataDir returns the XDG data directory for riskscope.
// On Linux: ~/.local/share/riskscope
// On macOS: ~/Library/Application Support/riskscope
// On Windows: %LOCALAPPDATA%\riskscope
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for riskscope.
// On Linux: ~/.config/riskscope
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Addr returns the REST listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// EmailEnabled reports whether SMTP alerts are configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

// SlogLevel returns the effective log level. Verbose wins over LogLevel.
// An unparseable level falls back to warn; Validate reports it.
func (c *Config) SlogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

// MinNotifyAction returns NotifyMinAction as a model.Action.
func (c *Config) MinNotifyAction() model.Action {
	a, err := model.ParseAction(c.NotifyMinAction)
	if err != nil || a == model.ActionIgnore {
		return model.ActionAlert
	}
	return a
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return 0, ErrInvalidLogLevel
	}
	return level, nil
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.MaxPolls <= 0 {
		return ErrInvalidMaxPolls
	}
	if c.HIBPCacheTTL < 0 {
		return ErrInvalidCacheTTL
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.EmailEnabled() && len(c.AlertEmailTo) == 0 {
		return ErrMissingEmailRecipient
	}
	if _, _, err := database.ParseURL(c.DatabaseURL); err != nil {
		return ErrUnsupportedDatabase
	}
	if a, err := model.ParseAction(c.NotifyMinAction); err != nil || a == model.ActionIgnore {
		return ErrInvalidNotifyAction
	}
	return nil
}
