package heuristic

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// URL heuristic signal names.
const (
	SignalUnparseable    = "unparseable_url"
	SignalIPLiteral      = "ip_literal_host"
	SignalUserInfo       = "userinfo_in_url"
	SignalPunycode       = "punycode_host"
	SignalShortener      = "url_shortener"
	SignalSuspiciousTLD  = "suspicious_tld"
	SignalPlainHTTP      = "plain_http"
	SignalDeepSubdomains = "deep_subdomains"
	SignalLongURL        = "long_url"
	SignalPathKeyword    = "path_keyword"
)

// urlSignalWeights holds the score contribution of each URL signal.
var urlSignalWeights = map[string]int{
	SignalUnparseable:    50,
	SignalIPLiteral:      30,
	SignalUserInfo:       25,
	SignalPunycode:       20,
	SignalShortener:      15,
	SignalSuspiciousTLD:  15,
	SignalPlainHTTP:      10,
	SignalDeepSubdomains: 10,
	SignalLongURL:        10,
	SignalPathKeyword:    10,
}

const (
	pathKeywordCap      = 30
	longURLLength       = 100
	maxSubdomainLabels  = 3
	defaultSchemePrefix = "http://"
)

// urlShorteners are hosts that hide the final destination.
var urlShorteners = map[string]bool{
	"bit.ly":      true,
	"tinyurl.com": true,
	"goo.gl":      true,
	"t.co":        true,
	"ow.ly":       true,
	"is.gd":       true,
	"buff.ly":     true,
	"rebrand.ly":  true,
	"cutt.ly":     true,
	"shorturl.at": true,
}

// suspiciousTLDs are top-level domains disproportionately used for abuse.
var suspiciousTLDs = map[string]bool{
	"zip":     true,
	"mov":     true,
	"xyz":     true,
	"top":     true,
	"tk":      true,
	"ml":      true,
	"ga":      true,
	"cf":      true,
	"gq":      true,
	"click":   true,
	"country": true,
	"work":    true,
}

// pathKeywords are words in a URL path or query typical for credential phishing.
var pathKeywords = []string{
	"login", "verify", "account", "secure", "update",
	"banking", "signin", "password", "wallet",
}

// URLSignals is the breakdown of the local URL heuristic.
type URLSignals struct {
	// Score is the clamped sum of the fired signal weights.
	Score int

	// Signals lists fired signals; path keywords appear as "path_keyword:<word>".
	Signals []string
}

// ScoreURL inspects the shape of a URL without contacting anything.
// It is the local reputation check used when no scanning service is
// configured or the service could not produce a verdict.
func ScoreURL(raw string) URLSignals {
	var s URLSignals
	fire := func(name string) {
		s.Signals = append(s.Signals, name)
		s.Score += urlSignalWeights[name]
	}

	trimmed := strings.TrimSpace(raw)
	u, assumedScheme, err := parseLenient(trimmed)
	if err != nil || u.Hostname() == "" {
		fire(SignalUnparseable)
		s.Score = ClampScore(s.Score)
		return s
	}

	host := strings.ToLower(u.Hostname())
	ip := net.ParseIP(host)

	if ip != nil {
		fire(SignalIPLiteral)
	}
	if u.User != nil {
		fire(SignalUserInfo)
	}
	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			fire(SignalPunycode)
			break
		}
	}
	if urlShorteners[strings.TrimPrefix(host, "www.")] {
		fire(SignalShortener)
	}
	if ip == nil {
		if tld := host[strings.LastIndex(host, ".")+1:]; suspiciousTLDs[tld] {
			fire(SignalSuspiciousTLD)
		}
		if subdomainLabels(host) > maxSubdomainLabels {
			fire(SignalDeepSubdomains)
		}
	}
	if u.Scheme == "http" && !assumedScheme {
		fire(SignalPlainHTTP)
	}
	if len(trimmed) > longURLLength {
		fire(SignalLongURL)
	}

	rest := Fold(u.EscapedPath() + "?" + u.RawQuery)
	keywordScore := 0
	for _, kw := range pathKeywords {
		if strings.Contains(rest, kw) {
			s.Signals = append(s.Signals, SignalPathKeyword+":"+kw)
			keywordScore += urlSignalWeights[SignalPathKeyword]
		}
	}
	s.Score += min(keywordScore, pathKeywordCap)

	s.Score = ClampScore(s.Score)
	return s
}

// RegistrableDomain returns the eTLD+1 of a URL's host (for example
// "example.co.uk" for "https://a.b.example.co.uk/x"). It falls back to the
// bare host for IP literals and hosts without a known public suffix, and
// returns "" when the URL has no host.
func RegistrableDomain(raw string) string {
	u, _, err := parseLenient(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// parseLenient parses raw, assuming http:// when no scheme is present
// so that bare hosts like "www.example.com/login" still yield a host.
// The boolean result reports whether the scheme was assumed.
func parseLenient(raw string) (*url.URL, bool, error) {
	if raw == "" {
		return nil, false, url.InvalidHostError("")
	}
	assumed := false
	if !strings.Contains(raw, "://") {
		raw = defaultSchemePrefix + raw
		assumed = true
	}
	u, err := url.Parse(raw)
	return u, assumed, err
}

// subdomainLabels counts the labels in front of the registrable domain.
func subdomainLabels(host string) int {
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || domain == host {
		return 0
	}
	sub := strings.TrimSuffix(strings.TrimSuffix(host, domain), ".")
	if sub == "" {
		return 0
	}
	return strings.Count(sub, ".") + 1
}
