package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/riskscope/internal/analyzer/password"
	"github.com/nao1215/riskscope/internal/analyzer/text"
	"github.com/nao1215/riskscope/internal/analyzer/urlscan"
	"github.com/nao1215/riskscope/internal/config"
	"github.com/nao1215/riskscope/internal/database"
	"github.com/nao1215/riskscope/internal/dispatch"
	"github.com/nao1215/riskscope/internal/log"
	"github.com/nao1215/riskscope/internal/memory"
	"github.com/nao1215/riskscope/internal/metrics"
	"github.com/nao1215/riskscope/internal/notify"
	"github.com/nao1215/riskscope/internal/pipeline"
	"github.com/nao1215/riskscope/internal/transport"
)

// lookupEnv reads environment overrides.
var lookupEnv config.LookupFunc = os.LookupEnv

// loadConfig builds the effective configuration: defaults, the config file,
// the environment and finally the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path, lookupEnv)
	if err != nil {
		return nil, err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	cfg.Verbose = verbose

	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON, err = cmd.Flags().GetBool("log-json")
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newLogger creates the secure logger for cfg and installs it as default.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger := log.New(cmd.ErrOrStderr(), log.Options{
		Level: cfg.SlogLevel(),
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// appOptions selects which collaborators newApp wires.
type appOptions struct {
	// persist opens the event store and the memory store.
	persist bool

	// notify starts the notification queue.
	notify bool
}

// app holds every wired component of one CLI invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	events  *database.EventStore
	memory  *memory.Store
	queue   *notify.Queue
	kafka   *notify.Kafka
	router  *dispatch.Router
}

// newApp wires analyzers, storage, memory, notifiers and metrics from cfg.
// Close must be called to drain notifications and close the database.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	client, err := transport.NewHTTPClient(transport.Options{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.SOCKS5Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	retrier := transport.NewRetrier(client,
		transport.WithRetryLogger(logger),
		transport.WithRetryHook(a.metrics.ObserveRetry),
	)

	fp, err := password.NewFingerprinter([]byte(cfg.FingerprintKey))
	if err != nil {
		return nil, err
	}

	checker, err := newPasswordChecker(cfg, retrier, fp, logger)
	if err != nil {
		return nil, err
	}

	collab := pipeline.Collaborators{
		Metrics:         a.metrics,
		NotifyMinAction: cfg.MinNotifyAction(),
	}

	if opts.persist {
		a.events, err = database.Open(ctx, cfg.DatabaseURL, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %w", err)
		}
		collab.Store = a.events
		logger.Debug("event store opened", "driver", a.events.Driver())

		a.memory, err = memory.Open(cfg.MemoryPath, memory.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		collab.Memory = a.memory
	}

	if opts.notify {
		notifiers, err := a.newNotifiers()
		if err != nil {
			return nil, err
		}
		if len(notifiers) > 0 {
			a.queue = notify.NewQueue(notifiers,
				notify.WithWorkers(cfg.NotifyWorkers),
				notify.WithQueueSize(cfg.NotifyQueueSize),
				notify.WithQueueLogger(logger),
				notify.WithObserver(a.metrics),
			)
			collab.Notify = a.queue
		}
	}

	a.router, err = dispatch.NewRouter(
		dispatch.WithURLAnalyzer(newURLAnalyzer(cfg, retrier, logger)),
		dispatch.WithPasswordChecker(checker),
		dispatch.WithTextAnalyzer(newTextAnalyzer(cfg, retrier, logger)),
		dispatch.WithFingerprinter(fp),
		dispatch.WithPipeline(pipeline.DefaultPipeline(collab, pipeline.WithLogger(logger))),
		dispatch.WithObserver(a.metrics),
		dispatch.WithTimeout(cfg.Timeout),
		dispatch.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Close drains the notification queue and releases storage.
func (a *app) Close() {
	if a.queue != nil {
		a.queue.Close()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Warn("failed to close kafka writer", "error", err)
		}
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("failed to close event store", "error", err)
		}
	}
}

func newURLAnalyzer(cfg *config.Config, retrier *transport.Retrier, logger *slog.Logger) *urlscan.Analyzer {
	var scanner urlscan.Scanner
	if cfg.VirusTotalAPIKey != "" {
		scanner = urlscan.NewVirusTotal(cfg.VirusTotalAPIKey, retrier,
			urlscan.WithPollInterval(cfg.PollInterval),
			urlscan.WithMaxPolls(cfg.MaxPolls),
			urlscan.WithScannerLogger(logger),
		)
	} else {
		logger.Debug("no scanning service key configured, URLs use local heuristics")
	}
	return urlscan.New(scanner, urlscan.WithTimeout(cfg.Timeout), urlscan.WithLogger(logger))
}

func newPasswordChecker(cfg *config.Config, retrier *transport.Retrier, fp *password.Fingerprinter, logger *slog.Logger) (*password.Checker, error) {
	common, err := password.LoadCommonPasswords(cfg.CommonPasswordsFile)
	if err != nil {
		return nil, err
	}
	breached, err := password.LoadBreachedHashes(cfg.BreachedSHA1File)
	if err != nil {
		return nil, err
	}

	opts := []password.Option{
		password.WithCommonPasswords(common),
		password.WithBreachedHashes(breached),
		password.WithFingerprinter(fp),
		password.WithStrengthScorer(password.Zxcvbn{}),
		password.WithTimeout(cfg.Timeout),
		password.WithLogger(logger),
	}
	if cfg.EnableHIBP {
		opts = append(opts, password.WithBreachLookup(password.NewRangeClient(retrier,
			password.WithCacheTTL(cfg.HIBPCacheTTL),
			password.WithRangeLogger(logger),
		)))
	}
	logger.Debug("password lists loaded", "common", len(common), "breached", len(breached), "range_lookup", cfg.EnableHIBP)
	return password.New(opts...)
}

func newTextAnalyzer(cfg *config.Config, retrier *transport.Retrier, logger *slog.Logger) *text.Analyzer {
	var classifier text.Classifier
	if cfg.OpenAIAPIKey != "" {
		classifier = text.NewLLMClassifier(cfg.OpenAIAPIKey, retrier,
			text.WithLLMBaseURL(cfg.OpenAIBaseURL),
			text.WithModel(cfg.LLMModel),
			text.WithLLMLogger(logger),
		)
	} else {
		logger.Debug("no language model key configured, texts use local heuristics")
	}
	return text.New(classifier, text.WithTimeout(cfg.Timeout), text.WithLogger(logger))
}

// newNotifiers returns a notifier for every configured channel.
func (a *app) newNotifiers() ([]notify.Notifier, error) {
	cfg := a.cfg
	var notifiers []notify.Notifier

	if cfg.N8NWebhookURL != "" {
		w, err := notify.NewWebhook(cfg.N8NWebhookURL, nil)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, w)
	}
	if cfg.SlackWebhookURL != "" {
		s, err := notify.NewSlack(cfg.SlackWebhookURL, nil)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, s)
	}
	if cfg.EmailEnabled() {
		e, err := notify.NewEmail(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFrom,
			To:       cfg.AlertEmailTo,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, e)
	}
	if len(cfg.KafkaBrokers) > 0 {
		k, err := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		a.kafka = k
		notifiers = append(notifiers, k)
	}

	names := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		names = append(names, n.Name())
	}
	a.logger.Debug("notification channels", "channels", names)
	return notifiers, nil
}
