package memory

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/riskscope/internal/heuristic"
	"github.com/nao1215/riskscope/internal/model"
)

const (
	// DefaultShortTermLimit is the number of recent entries kept.
	DefaultShortTermLimit = 30

	// DefaultTopN is the number of URLs and domains returned by Summary.
	DefaultTopN = 10

	// DefaultMaxTracked bounds how many distinct URLs and flagged domains
	// long-term memory counts. The least seen are pruned first.
	DefaultMaxTracked = 1000
)

// Entry is one remembered decision.
type Entry struct {
	Timestamp time.Time    `json:"ts"`
	RequestID string       `json:"request_id,omitempty"`
	Kind      model.Kind   `json:"kind"`
	InputRef  string       `json:"input_ref"`
	Score     int          `json:"score"`
	Action    model.Action `json:"action"`
}

// LongTerm holds the running statistics.
type LongTerm struct {
	TotalEvents      int            `json:"total_events"`
	AvgRiskScore     float64        `json:"avg_risk_score"`
	ActionCounts     map[string]int `json:"action_counts"`
	KindCounts       map[string]int `json:"kind_counts"`
	URLCounts        map[string]int `json:"url_counts"`
	FlaggedDomains   map[string]int `json:"flagged_domains"`
	PasswordStrength map[string]int `json:"password_strength"`
}

func newLongTerm() LongTerm {
	return LongTerm{
		ActionCounts:   map[string]int{},
		KindCounts:     map[string]int{},
		URLCounts:      map[string]int{},
		FlaggedDomains: map[string]int{},
		PasswordStrength: map[string]int{
			string(model.StrengthVeryWeak):   0,
			string(model.StrengthWeak):       0,
			string(model.StrengthReasonable): 0,
			string(model.StrengthStrong):     0,
		},
	}
}

// fill replaces nil maps left by an older or hand-edited file.
func (lt *LongTerm) fill() {
	fresh := newLongTerm()
	if lt.ActionCounts == nil {
		lt.ActionCounts = fresh.ActionCounts
	}
	if lt.KindCounts == nil {
		lt.KindCounts = fresh.KindCounts
	}
	if lt.URLCounts == nil {
		lt.URLCounts = fresh.URLCounts
	}
	if lt.FlaggedDomains == nil {
		lt.FlaggedDomains = fresh.FlaggedDomains
	}
	if lt.PasswordStrength == nil {
		lt.PasswordStrength = fresh.PasswordStrength
	}
}

// clone returns a deep copy so updates can be staged before they are saved.
func (lt LongTerm) clone() LongTerm {
	lt.ActionCounts = maps.Clone(lt.ActionCounts)
	lt.KindCounts = maps.Clone(lt.KindCounts)
	lt.URLCounts = maps.Clone(lt.URLCounts)
	lt.FlaggedDomains = maps.Clone(lt.FlaggedDomains)
	lt.PasswordStrength = maps.Clone(lt.PasswordStrength)
	return lt
}

// prune keeps the n most frequent URLs and flagged domains and reports
// whether anything was dropped.
func (lt *LongTerm) prune(n int) bool {
	before := len(lt.URLCounts) + len(lt.FlaggedDomains)
	lt.URLCounts = keepTop(lt.URLCounts, n)
	lt.FlaggedDomains = keepTop(lt.FlaggedDomains, n)
	return len(lt.URLCounts)+len(lt.FlaggedDomains) < before
}

func keepTop(m map[string]int, n int) map[string]int {
	if len(m) <= n {
		return m
	}
	kept := make(map[string]int, n)
	for _, c := range topN(m, n) {
		kept[c.Value] = c.Count
	}
	return kept
}

type snapshot struct {
	ShortTerm []Entry  `json:"short_term"`
	LongTerm  LongTerm `json:"long_term"`
}

// Store is the memory store. It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	path       string
	limit      int
	maxTracked int
	data       snapshot
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithShortTermLimit sets how many recent entries are kept.
// Non-positive values keep the default.
func WithShortTermLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithMaxTracked bounds how many distinct URLs and flagged domains are
// counted. Non-positive values keep the default.
func WithMaxTracked(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTracked = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open loads the store at path, starting empty when the file does not exist.
// An empty path keeps the store in memory only.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:       path,
		limit:      DefaultShortTermLimit,
		maxTracked: DefaultMaxTracked,
		data: snapshot{
			ShortTerm: []Entry{},
			LongTerm:  newLongTerm(),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}

	var data snapshot
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse memory file %s: %w", path, err)
	}
	data.LongTerm.fill()
	data.LongTerm.prune(s.maxTracked)
	data.ShortTerm = trimEntries(data.ShortTerm, s.limit)
	if data.ShortTerm == nil {
		data.ShortTerm = []Entry{}
	}
	s.data = data
	return s, nil
}

// Path returns the backing file path, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Record folds d into memory and persists the result.
// When saving fails the in-memory state is left as it was.
func (s *Store) Record(d model.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := snapshot{
		ShortTerm: trimEntries(append(slices.Clone(s.data.ShortTerm), Entry{
			Timestamp: s.now().UTC(),
			RequestID: d.RequestID,
			Kind:      d.Kind,
			InputRef:  d.InputRef,
			Score:     d.CombinedScore,
			Action:    d.Action,
		}), s.limit),
		LongTerm: s.data.LongTerm.clone(),
	}

	lt := &next.LongTerm
	lt.TotalEvents++
	n := float64(lt.TotalEvents)
	lt.AvgRiskScore = (lt.AvgRiskScore*(n-1) + float64(d.CombinedScore)) / n
	lt.ActionCounts[d.Action.String()]++
	lt.KindCounts[string(d.Kind)]++

	switch f := d.Findings.(type) {
	case model.URLFindings:
		target := f.URL
		if target == "" {
			target = d.InputRef
		}
		if target != "" {
			lt.URLCounts[target]++
			if d.Action >= model.ActionLog {
				if domain := heuristic.RegistrableDomain(target); domain != "" {
					lt.FlaggedDomains[domain]++
				}
			}
		}
	case model.PasswordFindings:
		if f.Strength != "" {
			lt.PasswordStrength[string(f.Strength)]++
		}
	}
	if lt.prune(s.maxTracked) {
		s.logger.Debug("pruned rarely seen urls from memory", "max_tracked", s.maxTracked)
	}

	if err := s.save(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

// trimEntries drops the oldest entries beyond limit.
func trimEntries(entries []Entry, limit int) []Entry {
	if extra := len(entries) - limit; extra > 0 {
		return slices.Clone(entries[extra:])
	}
	return entries
}

// save writes data atomically. The caller must hold mu.
func (s *Store) save(data snapshot) error {
	if s.path == "" {
		return nil
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode memory: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create memory directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary memory file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write memory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write memory: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace memory file: %w", err)
	}
	return nil
}

// Recent returns up to limit short-term entries, newest first.
// A non-positive limit returns all of them.
func (s *Store) Recent(limit int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := slices.Clone(s.data.ShortTerm)
	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Count is a value and how often it was seen.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summary is a read-only view of long-term memory.
type Summary struct {
	TotalEvents      int            `json:"total_events"`
	AvgRiskScore     float64        `json:"avg_risk_score"`
	ActionCounts     map[string]int `json:"action_counts"`
	KindCounts       map[string]int `json:"kind_counts"`
	PasswordStrength map[string]int `json:"password_strength"`
	TopURLs          []Count        `json:"top_urls"`
	TopDomains       []Count        `json:"top_flagged_domains"`
}

// Summary returns the long-term statistics with the top URLs and flagged
// domains.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	lt := s.data.LongTerm
	return Summary{
		TotalEvents:      lt.TotalEvents,
		AvgRiskScore:     lt.AvgRiskScore,
		ActionCounts:     cloneCounts(lt.ActionCounts),
		KindCounts:       cloneCounts(lt.KindCounts),
		PasswordStrength: cloneCounts(lt.PasswordStrength),
		TopURLs:          topN(lt.URLCounts, DefaultTopN),
		TopDomains:       topN(lt.FlaggedDomains, DefaultTopN),
	}
}

func cloneCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return maps.Clone(m)
}

// topN returns the n most frequent values, ties broken alphabetically.
func topN(m map[string]int, n int) []Count {
	counts := make([]Count, 0, len(m))
	for v, c := range m {
		counts = append(counts, Count{Value: v, Count: c})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
