package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the configuration file name searched for in the
	// current directory.
	DefaultConfigFile = ".riskscope.yaml"

	// XDGConfigFile is the configuration file name inside XDGConfigDir.
	XDGConfigFile = "config.yaml"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load builds the effective configuration: defaults, then the configuration
// file (if one is found), then environment variables read through lookup.
// An explicit configPath that does not exist is an error; a missing
// implicit file is not.
func Load(configPath string, lookup LookupFunc) (*Config, error) {
	cfg := NewConfig()

	path := FindConfigFile(configPath)
	if path == "" && configPath != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}
	if path != "" {
		if err := LoadConfigFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.ConfigFilePath = path
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys missing from
// the file keep their current values.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .riskscope.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), XDGConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// ApplyEnv overlays environment variables onto cfg. Unset variables leave
// the current value alone; set but unparseable ones return ErrInvalidEnv.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	strs := map[string]*string{
		"VT_API_KEY":            &cfg.VirusTotalAPIKey,
		"OPENAI_API_KEY":        &cfg.OpenAIAPIKey,
		"OPENAI_BASE_URL":       &cfg.OpenAIBaseURL,
		"LLM_MODEL":             &cfg.LLMModel,
		"COMMON_PASSWORDS_FILE": &cfg.CommonPasswordsFile,
		"BREACHED_SHA1_FILE":    &cfg.BreachedSHA1File,
		"FINGERPRINT_KEY":       &cfg.FingerprintKey,
		"SOCKS5_PROXY":          &cfg.SOCKS5Proxy,
		"DATABASE_URL":          &cfg.DatabaseURL,
		"MEMORY_PATH":           &cfg.MemoryPath,
		"N8N_WEBHOOK_URL":       &cfg.N8NWebhookURL,
		"SLACK_WEBHOOK_URL":     &cfg.SlackWebhookURL,
		"SMTP_HOST":             &cfg.SMTPHost,
		"SMTP_USER":             &cfg.SMTPUser,
		"SMTP_PASS":             &cfg.SMTPPass,
		"EMAIL_FROM":            &cfg.EmailFrom,
		"KAFKA_TOPIC":           &cfg.KafkaTopic,
		"NOTIFY_MIN_ACTION":     &cfg.NotifyMinAction,
		"LOG_LEVEL":             &cfg.LogLevel,
		"HOST":                  &cfg.Host,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"PORT":              &cfg.Port,
		"SMTP_PORT":         &cfg.SMTPPort,
		"MAX_POLLS":         &cfg.MaxPolls,
		"NOTIFY_WORKERS":    &cfg.NotifyWorkers,
		"NOTIFY_QUEUE_SIZE": &cfg.NotifyQueueSize,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, key, v)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"ENABLE_HIBP": &cfg.EnableHIBP,
		"LOG_JSON":    &cfg.LogJSON,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, key, v)
		}
		*dst = b
	}

	durations := map[string]*time.Duration{
		"TIMEOUT":        &cfg.Timeout,
		"POLL_INTERVAL":  &cfg.PollInterval,
		"HIBP_CACHE_TTL": &cfg.HIBPCacheTTL,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, key, v)
		}
		*dst = d
	}

	lists := map[string]*[]string{
		"ALERT_EMAIL_TO": &cfg.AlertEmailTo,
		"KAFKA_BROKERS":  &cfg.KafkaBrokers,
	}
	for key, dst := range lists {
		if v, ok := lookup(key); ok {
			*dst = SplitList(v)
		}
	}
	return nil
}

// parseDuration accepts Go duration strings ("90s") and plain integers,
// which are read as seconds.
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
