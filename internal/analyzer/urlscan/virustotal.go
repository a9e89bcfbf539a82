package urlscan

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/riskscope/internal/model"
	"github.com/nao1215/riskscope/internal/transport"
)

// Scanning service defaults.
const (
	// DefaultBaseURL is the VirusTotal v3 API root.
	DefaultBaseURL = "https://www.virustotal.com/api/v3"

	// DefaultPollInterval is the wait between analysis status checks.
	DefaultPollInterval = 1 * time.Second

	// DefaultMaxPolls caps how many times an analysis is polled.
	// Reaching the cap is not an error; the latest data is used.
	DefaultMaxPolls = 12

	apiKeyHeader    = "x-apikey"
	statusCompleted = "completed"
)

// VirusTotal is the remote Scanner backed by the VirusTotal v3 API.
//
// The protocol is strictly sequential: submit, then poll the returned
// analysis, then fetch the canonical URL object. Every call goes through
// the shared Retrier, so rate limits and transient failures are retried
// within the caller's deadline.
type VirusTotal struct {
	apiKey       string
	baseURL      string
	retrier      *transport.Retrier
	pollInterval time.Duration
	maxPolls     int
	logger       *slog.Logger

	// sleep waits between polls. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// VTOption configures a VirusTotal scanner.
type VTOption func(*VirusTotal)

// WithBaseURL overrides the API root (used by tests and proxies).
func WithBaseURL(baseURL string) VTOption {
	return func(v *VirusTotal) {
		if baseURL != "" {
			v.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithPollInterval overrides the wait between polls.
func WithPollInterval(d time.Duration) VTOption {
	return func(v *VirusTotal) {
		if d >= 0 {
			v.pollInterval = d
		}
	}
}

// WithMaxPolls overrides the poll cap. Values below 1 keep the default.
func WithMaxPolls(n int) VTOption {
	return func(v *VirusTotal) {
		if n > 0 {
			v.maxPolls = n
		}
	}
}

// WithScannerLogger sets the logger.
func WithScannerLogger(logger *slog.Logger) VTOption {
	return func(v *VirusTotal) {
		v.logger = logger
	}
}

// WithPollSleep replaces the function used to wait between polls.
func WithPollSleep(sleep func(ctx context.Context, d time.Duration) error) VTOption {
	return func(v *VirusTotal) {
		if sleep != nil {
			v.sleep = sleep
		}
	}
}

// NewVirusTotal creates a remote scanner using apiKey.
func NewVirusTotal(apiKey string, retrier *transport.Retrier, opts ...VTOption) *VirusTotal {
	v := &VirusTotal{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		retrier:      retrier,
		pollInterval: DefaultPollInterval,
		maxPolls:     DefaultMaxPolls,
		sleep:        sleepContext,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.retrier == nil {
		v.retrier = transport.NewRetrier(nil)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}

	return v
}

// URLID returns the identifier of the canonical URL object:
// unpadded URL-safe base64 of the raw URL bytes.
func URLID(rawURL string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawURL))
}

// voteStats is the tally object returned by the API.
type voteStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
}

func (s voteStats) total() int {
	return s.Malicious + s.Suspicious + s.Harmless + s.Undetected
}

// engineResult is one engine's verdict.
type engineResult struct {
	Category   string `json:"category"`
	EngineName string `json:"engine_name"`
	Result     string `json:"result"`
}

// analysisAttributes is the payload of an analysis object.
type analysisAttributes struct {
	Status  string                  `json:"status"`
	Stats   voteStats               `json:"stats"`
	Results map[string]engineResult `json:"results"`
}

type analysisResponse struct {
	Data struct {
		ID         string             `json:"id"`
		Type       string             `json:"type"`
		Attributes analysisAttributes `json:"attributes"`
	} `json:"data"`
}

type urlObjectResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			LastAnalysisStats   voteStats               `json:"last_analysis_stats"`
			LastAnalysisResults map[string]engineResult `json:"last_analysis_results"`
		} `json:"attributes"`
	} `json:"data"`
}

// Scan implements Scanner.
func (v *VirusTotal) Scan(ctx context.Context, rawURL string) (model.URLFindings, error) {
	analysisID, err := v.submit(ctx, rawURL)
	if err != nil {
		return model.URLFindings{}, fmt.Errorf("failed to submit url: %w", err)
	}

	// An empty id means the service answered from its cache; go straight to the object.
	var analysis analysisAttributes
	completed := analysisID == ""
	if analysisID != "" {
		analysis, completed, err = v.poll(ctx, analysisID)
		if err != nil {
			if transport.IsClientError(err) {
				return model.URLFindings{}, fmt.Errorf("failed to poll analysis: %w", err)
			}
			v.logger.Warn("analysis polling stopped early",
				"analysis_id", analysisID,
				"status", analysis.Status,
				"error", err,
			)
		}
	}

	var object urlObjectResponse
	fetchErr := v.getJSON(ctx, "/urls/"+URLID(rawURL), &object)
	if fetchErr == nil && object.Data.Attributes.LastAnalysisStats.total() > 0 {
		f := newFindings(rawURL, object.Data.Attributes.LastAnalysisStats, object.Data.Attributes.LastAnalysisResults)
		f.AnalysisStatus = analysis.Status
		f.Partial = !completed
		return f, nil
	}

	if fetchErr != nil {
		v.logger.Debug("url object fetch failed, using analysis data",
			"url", rawURL,
			"error", fetchErr,
		)
	}

	if analysis.Stats.total() == 0 {
		if fetchErr != nil {
			return model.URLFindings{}, fmt.Errorf("%w: %w", ErrNoVerdict, fetchErr)
		}
		return model.URLFindings{}, ErrNoVerdict
	}

	f := newFindings(rawURL, analysis.Stats, analysis.Results)
	f.AnalysisStatus = analysis.Status
	f.Partial = true
	return f, nil
}

// submit posts the URL for scanning and returns the analysis id.
func (v *VirusTotal) submit(ctx context.Context, rawURL string) (string, error) {
	form := url.Values{"url": {rawURL}}.Encode()

	resp, err := v.retrier.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/urls", strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		v.setHeaders(req)
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var submitted analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	return submitted.Data.ID, nil
}

// poll fetches the analysis until it completes or maxPolls is reached.
// It returns the latest attributes seen and whether the analysis completed.
func (v *VirusTotal) poll(ctx context.Context, analysisID string) (analysisAttributes, bool, error) {
	var latest analysisAttributes

	for i := range v.maxPolls {
		var resp analysisResponse
		if err := v.getJSON(ctx, "/analyses/"+url.PathEscape(analysisID), &resp); err != nil {
			return latest, false, err
		}
		latest = resp.Data.Attributes

		if latest.Status == statusCompleted {
			return latest, true, nil
		}

		if i < v.maxPolls-1 {
			if err := v.sleep(ctx, v.pollInterval); err != nil {
				return latest, false, err
			}
		}
	}

	v.logger.Info("analysis poll cap reached",
		"analysis_id", analysisID,
		"polls", v.maxPolls,
		"status", latest.Status,
	)
	return latest, false, nil
}

// getJSON performs a GET against the API and decodes the JSON response.
func (v *VirusTotal) getJSON(ctx context.Context, path string, out any) error {
	resp, err := v.retrier.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		v.setHeaders(req)
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (v *VirusTotal) setHeaders(req *http.Request) {
	req.Header.Set(apiKeyHeader, v.apiKey)
	req.Header.Set("Accept", "application/json")
}

// newFindings converts API tallies into findings.
func newFindings(rawURL string, stats voteStats, results map[string]engineResult) model.URLFindings {
	engines := make(map[string]string, len(results))
	for name, r := range results {
		if name == "" {
			name = r.EngineName
		}
		engines[name] = r.Category
	}

	return model.URLFindings{
		URL:        rawURL,
		Malicious:  max(stats.Malicious, 0),
		Suspicious: max(stats.Suspicious, 0),
		Harmless:   max(stats.Harmless, 0),
		Undetected: max(stats.Undetected, 0),
		Engines:    engines,
		RiskScore:  RiskScore(stats.Malicious, stats.Suspicious, stats.Harmless, stats.Undetected),
		Source:     model.SourceRemote,
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
