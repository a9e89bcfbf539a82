package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces every redacted attribute value.
const MaskValue = "***REDACTED***"

// redactedKeys are attribute keys whose values are never written, compared
// case-insensitively. They cover the request headers of the scanning and
// breach services, the analyzer and notifier credentials from the
// configuration file, and storage DSNs.
var redactedKeys = keySet(
	"authorization", "proxy-authorization", "cookie", "set-cookie", "session_id",
	"x-apikey", "x-api-key", "api_key", "api-key", "apikey",
	"vt_api_key", "openai_api_key", "fingerprint_key",
	"password", "passwd", "smtp_pass", "secret", "token", "auth", "credential", "credentials",
	"webhook_url", "n8n_webhook_url", "slack_webhook_url",
	"database_url", "dsn",
)

// redactedFragments mark a key as secret wherever they appear in it.
// A bare "key" is deliberately absent: cache_key and partition_key are
// routine.
var redactedFragments = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// secretShapes match values that are secret whatever key they are logged
// under.
var secretShapes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`^sk-[A-Za-z0-9_-]{16,}$`),
	// full SHA-1 digest; the 5 character range prefix stays visible
	regexp.MustCompile(`^[0-9A-Fa-f]{40}$`),
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
	regexp.MustCompile(`(?i)hooks\.slack\.com/services/`),
	regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://[^/\s:@]+:[^/\s@]+@`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// SecureHandler is a slog.Handler that redacts secrets before the record
// reaches the wrapped handler. Attributes are redacted by key or by value
// shape, including attributes inside groups and those bound with WithAttrs.
//
// Design decision: redaction lives in a handler wrapper so every component
// can take a plain *slog.Logger and cannot bypass it by choosing a format.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled defers to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts r's attributes and forwards a copy.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs redacts attrs once, when they are bound.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{handler: h.handler.WithAttrs(redactAll(attrs))}
}

// WithGroup defers to the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func redactAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, redact(a))
	}
	return out
}

func redact(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch {
	case v.Kind() == slog.KindGroup:
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redactAll(v.Group())...)}
	case isSensitiveKey(a.Key):
		return slog.String(a.Key, MaskValue)
	case v.Kind() == slog.KindString && isSensitiveValue(v.String()):
		return slog.String(a.Key, MaskValue)
	default:
		return slog.Attr{Key: a.Key, Value: v}
	}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := redactedKeys[key]; ok {
		return true
	}
	return containsSensitiveKeyword(key)
}

// containsSensitiveKeyword expects a lower-case key.
func containsSensitiveKeyword(key string) bool {
	for _, fragment := range redactedFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, shape := range secretShapes {
		if shape.MatchString(value) {
			return true
		}
	}
	return false
}

// Options configures New.
type Options struct {
	// Level is the minimum level written. Nil means slog.LevelWarn.
	Level slog.Leveler

	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// New returns a redacting logger writing text or JSON records to w.
func New(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: opts.Level}
	if ho.Level == nil {
		ho.Level = slog.LevelWarn
	}
	if opts.JSON {
		return slog.New(NewSecureHandler(slog.NewJSONHandler(w, ho)))
	}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, ho)))
}

// NewSecureLogger returns a text logger at debug level when verbose is set
// and warn level otherwise.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	if verbose {
		return New(w, Options{Level: slog.LevelDebug})
	}
	return New(w, Options{Level: slog.LevelWarn})
}
