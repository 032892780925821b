package crawler

import (
	"context"
	"errors"
	"testing"
)

func TestParseRobotsLongestPrefix(t *testing.T) {
	policy := ParseRobots(`
User-agent: *
Disallow: /a
Allow: /a/b
`)

	tests := []struct {
		path     string
		expected bool
	}{
		{"/a/b/c", true},  // longest match is the Allow: /a/b rule
		{"/a/x", false},   // only Disallow: /a matches
		{"/a", false},     // exact prefix match on the Disallow rule
		{"/z", true},      // no rule matches, permissive default
		{"/a/b", true},    // Allow prefix matches exactly
		{"/aardvark", false}, // literal prefix match, no path-segment awareness
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := policy.IsAllowed(tt.path, "AnyBot"); got != tt.expected {
				t.Errorf("IsAllowed(%q) = %v, expected %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestParseRobotsRuleOrderIrrelevant(t *testing.T) {
	forward := ParseRobots("User-agent: *\nDisallow: /a\nAllow: /a/b\n")
	reversed := ParseRobots("User-agent: *\nAllow: /a/b\nDisallow: /a\n")

	for _, path := range []string{"/a/b/c", "/a/x", "/z"} {
		if forward.IsAllowed(path, "X") != reversed.IsAllowed(path, "X") {
			t.Errorf("verdict for %q depends on declaration order", path)
		}
	}
}

func TestParseRobotsAgentSelection(t *testing.T) {
	policy := ParseRobots(`
User-agent: GoodBot
Disallow: /good-only

User-agent: *
Disallow: /everyone
`)

	tests := []struct {
		name     string
		path     string
		agent    string
		expected bool
	}{
		{"exact agent section", "/good-only/x", "GoodBot", false},
		{"exact agent ignores star rules", "/everyone/x", "GoodBot", true},
		{"unmatched agent falls back to star", "/everyone/x", "OtherBot", false},
		{"unmatched agent allowed elsewhere", "/good-only/x", "OtherBot", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.IsAllowed(tt.path, tt.agent); got != tt.expected {
				t.Errorf("IsAllowed(%q, %q) = %v, expected %v", tt.path, tt.agent, got, tt.expected)
			}
		})
	}
}

func TestParseRobotsEdgeCases(t *testing.T) {
	t.Run("empty content allows everything", func(t *testing.T) {
		policy := ParseRobots("")
		if !policy.IsAllowed("/anything", "AnyBot") {
			t.Error("empty robots.txt should allow everything")
		}
	})

	t.Run("no star section, no agent match", func(t *testing.T) {
		policy := ParseRobots("User-agent: OnlyBot\nDisallow: /\n")
		if !policy.IsAllowed("/x", "OtherBot") {
			t.Error("agent with no matching section should default to allow")
		}
	})

	t.Run("rules before any user-agent are dropped", func(t *testing.T) {
		policy := ParseRobots("Disallow: /orphan\nUser-agent: *\n")
		if !policy.IsAllowed("/orphan/x", "AnyBot") {
			t.Error("rule before the first User-agent line should be ignored")
		}
	})

	t.Run("comments and blanks skipped", func(t *testing.T) {
		policy := ParseRobots("# header comment\n\nUser-agent: *\n# Disallow: /commented\nDisallow: /real\n")
		if policy.IsAllowed("/real/x", "AnyBot") {
			t.Error("Disallow: /real should apply")
		}
		if !policy.IsAllowed("/commented", "AnyBot") {
			t.Error("commented-out rule should not apply")
		}
	})

	t.Run("empty rule values skipped", func(t *testing.T) {
		policy := ParseRobots("User-agent: *\nDisallow:\n")
		if !policy.IsAllowed("/x", "AnyBot") {
			t.Error("empty Disallow value should not block anything")
		}
	})
}

func TestDomainOf(t *testing.T) {
	tests := []struct {
		rawURL   string
		expected string
		wantErr  bool
	}{
		{"https://a.test/x/y", "a.test", false},
		{"http://a.test:8080/x", "a.test:8080", false},
		{"https://a.test", "a.test", false},
		{"no-scheme/path", "", true},
		{"https:///path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			got, err := DomainOf(tt.rawURL)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedURL) {
					t.Errorf("DomainOf(%q) error = %v, expected ErrMalformedURL", tt.rawURL, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DomainOf(%q) returned error: %v", tt.rawURL, err)
			}
			if got != tt.expected {
				t.Errorf("DomainOf(%q) = %q, expected %q", tt.rawURL, got, tt.expected)
			}
		})
	}
}

func TestPathOf(t *testing.T) {
	tests := []struct {
		rawURL   string
		expected string
	}{
		{"https://a.test/x/y?q=1", "/x/y?q=1"},
		{"https://a.test/", "/"},
		{"https://a.test", "/"},
		{"http://a.test:8080/p", "/p"},
	}

	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			got, err := PathOf(tt.rawURL)
			if err != nil {
				t.Fatalf("PathOf(%q) returned error: %v", tt.rawURL, err)
			}
			if got != tt.expected {
				t.Errorf("PathOf(%q) = %q, expected %q", tt.rawURL, got, tt.expected)
			}
		})
	}

	if _, err := PathOf("no-scheme"); !errors.Is(err, ErrMalformedURL) {
		t.Errorf("PathOf without scheme = %v, expected ErrMalformedURL", err)
	}
}

func TestRobotsCacheFetchAndMemoize(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.bodies["http://a.test/robots.txt"] = "User-agent: *\nDisallow: /private\n"

	cache := NewRobotsCache(fetcher)
	ctx := context.Background()

	allowed, err := cache.Resolve(ctx, "a.test", "https://a.test/public", "Kumo/1.0")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !allowed {
		t.Error("/public should be allowed")
	}

	allowed, err = cache.Resolve(ctx, "a.test", "https://a.test/private/x", "Kumo/1.0")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if allowed {
		t.Error("/private/x should be disallowed")
	}

	if got := fetcher.callCount("http://a.test/robots.txt"); got != 1 {
		t.Errorf("robots.txt fetched %d times, expected 1", got)
	}
}

func TestRobotsCacheNotFoundMeansAllowAll(t *testing.T) {
	fetcher := newStubFetcher() // no entries: every fetch is a 404
	cache := NewRobotsCache(fetcher)
	ctx := context.Background()

	for _, path := range []string{"/", "/anything", "/deep/nested/path"} {
		allowed, err := cache.Resolve(ctx, "missing.test", "https://missing.test"+path, "Kumo/1.0")
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", path, err)
		}
		if !allowed {
			t.Errorf("path %q should be allowed when robots.txt is missing", path)
		}
	}

	// The allow-all verdict must be cached, not refetched per URL.
	if got := fetcher.callCount("http://missing.test/robots.txt"); got != 1 {
		t.Errorf("missing robots.txt fetched %d times, expected 1", got)
	}
}

func TestRobotsCacheFetchErrorPropagates(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.errs["http://down.test/robots.txt"] = ErrFetchFailed

	cache := NewRobotsCache(fetcher)

	_, err := cache.Resolve(context.Background(), "down.test", "https://down.test/x", "Kumo/1.0")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Resolve error = %v, expected ErrFetchFailed", err)
	}
	if cache.Cached("down.test") {
		t.Error("a failed robots fetch must not cache a policy")
	}
}
