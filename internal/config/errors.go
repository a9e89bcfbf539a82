package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidTimeout is returned when the analyzer timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPollInterval is returned when the scanning service poll
	// interval is not positive.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be positive")

	// ErrInvalidMaxPolls is returned when the maximum number of polls is not positive.
	ErrInvalidMaxPolls = errors.New("invalid max polls: must be positive")

	// ErrInvalidCacheTTL is returned when the breach range cache TTL is negative.
	// Use 0 to disable caching.
	ErrInvalidCacheTTL = errors.New("invalid breach cache TTL: must be non-negative")

	// ErrInvalidLogLevel is returned for a log level other than
	// debug, info, warn or error.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn or error")

	// ErrInvalidPort is returned when the listen port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrMissingEmailRecipient is returned when an SMTP host is configured
	// without any alert recipient.
	ErrMissingEmailRecipient = errors.New("email notifications enabled without a recipient: set alert_email_to")

	// ErrUnsupportedDatabase is returned when the database URL is neither a
	// SQLite path nor a PostgreSQL URL.
	ErrUnsupportedDatabase = errors.New("unsupported database URL: use sqlite://<path> or postgres://")

	// ErrInvalidNotifyAction is returned when notify_min_action is not log or alert.
	ErrInvalidNotifyAction = errors.New("invalid notify_min_action: must be log or alert")

	// ErrInvalidEnv is returned when an environment variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
