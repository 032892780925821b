package crawler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// RobotRule is a single Allow/Disallow line: a literal path prefix and the
// verdict it carries. No wildcard or end-anchor matching, prefix only.
type RobotRule struct {
	PathPrefix string
	Allow      bool
}

// userAgentSection groups the rules declared under one User-agent line.
type userAgentSection struct {
	userAgent string
	rules     []RobotRule
}

// RobotsPolicy is the parsed robots.txt of a single domain. Created once per
// domain, immutable afterward, owned by the RobotsCache.
type RobotsPolicy struct {
	sections []userAgentSection
}

// ParseRobots parses robots.txt content into a policy.
//
// Recognized fields are User-agent, Disallow and Allow; blank lines and
// #-comments are skipped. A User-agent line opens a new section and rule
// lines append to the currently open section only, so rules before any
// User-agent line are dropped. Empty rule values are skipped. If the content
// yields no sections at all, a catch-all "*" section with no rules is
// synthesized, which allows everything.
func ParseRobots(content string) *RobotsPolicy {
	policy := &RobotsPolicy{}
	var current *userAgentSection

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		field := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch field {
		case "user-agent":
			policy.sections = append(policy.sections, userAgentSection{userAgent: value})
			current = &policy.sections[len(policy.sections)-1]
		case "disallow":
			if current != nil && value != "" {
				current.rules = append(current.rules, RobotRule{PathPrefix: value, Allow: false})
			}
		case "allow":
			if current != nil && value != "" {
				current.rules = append(current.rules, RobotRule{PathPrefix: value, Allow: true})
			}
		}
	}

	if len(policy.sections) == 0 {
		policy.sections = append(policy.sections, userAgentSection{userAgent: "*"})
	}

	return policy
}

// IsAllowed reports whether userAgent may fetch path.
//
// Section selection is an exact match on the declared agent name, falling
// back to the "*" section, falling back to allow. Within the selected
// section every rule whose prefix matches the path is considered and the
// longest matching prefix wins; declaration order does not matter. No
// matching rule means allow.
func (p *RobotsPolicy) IsAllowed(path, userAgent string) bool {
	section := p.selectSection(userAgent)
	if section == nil {
		return true
	}

	allowed := true
	matchLen := -1
	for _, rule := range section.rules {
		if strings.HasPrefix(path, rule.PathPrefix) && len(rule.PathPrefix) > matchLen {
			matchLen = len(rule.PathPrefix)
			allowed = rule.Allow
		}
	}
	return allowed
}

func (p *RobotsPolicy) selectSection(userAgent string) *userAgentSection {
	var fallback *userAgentSection
	for i := range p.sections {
		switch p.sections[i].userAgent {
		case userAgent:
			return &p.sections[i]
		case "*":
			if fallback == nil {
				fallback = &p.sections[i]
			}
		}
	}
	return fallback
}

// DomainOf extracts the host part of a URL: the substring after the first
// "://" and up to the next "/".
func DomainOf(rawURL string) (string, error) {
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrMalformedURL, rawURL)
	}
	rest := rawURL[idx+len("://"):]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	if rest == "" {
		return "", fmt.Errorf("%w: %s", ErrMalformedURL, rawURL)
	}
	return rest, nil
}

// PathOf extracts the path part of a URL by stripping scheme and host. A URL
// with no "/" after the host has path "/".
func PathOf(rawURL string) (string, error) {
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrMalformedURL, rawURL)
	}
	rest := rawURL[idx+len("://"):]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		return rest[slash:], nil
	}
	return "/", nil
}

// RobotsCache lazily fetches and memoizes one RobotsPolicy per domain.
//
// The cache is not internally synchronized: the orchestrator serializes the
// whole check-then-fetch-then-store sequence under the crawl mutex, which
// means the robots.txt fetch itself runs while that lock is held. That is a
// deliberate simplicity tradeoff: it guarantees at most one policy per
// domain without a per-domain in-flight protocol.
type RobotsCache struct {
	fetcher  Fetcher
	policies map[string]*RobotsPolicy
}

// NewRobotsCache creates an empty cache backed by the given fetcher.
func NewRobotsCache(fetcher Fetcher) *RobotsCache {
	return &RobotsCache{
		fetcher:  fetcher,
		policies: make(map[string]*RobotsPolicy),
	}
}

// Resolve reports whether userAgent may fetch rawURL on domain, fetching and
// caching the domain's policy on first access.
//
// The robots.txt is always requested over plain http regardless of the
// target URL's scheme. A 404 caches an allow-everything policy so the miss
// is not refetched; any other fetch error propagates and the caller must not
// crawl the URL.
func (c *RobotsCache) Resolve(ctx context.Context, domain, rawURL, userAgent string) (bool, error) {
	policy, ok := c.policies[domain]
	if !ok {
		resp, err := c.fetcher.Get(ctx, "http://"+domain+"/robots.txt")
		switch {
		case err == nil:
			policy = ParseRobots(string(resp.Body))
		case errors.Is(err, ErrNotFound):
			// A missing robots.txt means everything is allowed. Cache that
			// verdict so the miss is not refetched for every URL on the
			// domain.
			policy = ParseRobots("")
		default:
			return false, fmt.Errorf("robots.txt for %s: %w", domain, err)
		}
		c.policies[domain] = policy
	}

	path, err := PathOf(rawURL)
	if err != nil {
		return false, err
	}
	return policy.IsAllowed(path, userAgent), nil
}

// Cached reports whether a policy for domain is already memoized.
func (c *RobotsCache) Cached(domain string) bool {
	_, ok := c.policies[domain]
	return ok
}
