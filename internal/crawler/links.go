package crawler

import "strings"

const hrefMarker = `href="`

// ExtractLinks scans HTML content for literal href="..." attributes and
// returns the raw link values in document order.
//
// This is a byte scan, not an HTML parser: it has no awareness of comments,
// scripts, or quoting edge cases, and that limitation is part of the
// contract. Upgrading it to a real parser would change which links are
// discovered on malformed markup.
func ExtractLinks(htmlContent []byte) []string {
	var links []string
	rest := string(htmlContent)
	for {
		start := strings.Index(rest, hrefMarker)
		if start < 0 {
			break
		}
		rest = rest[start+len(hrefMarker):]
		end := strings.Index(rest, `"`)
		if end < 0 {
			break
		}
		links = append(links, rest[:end])
		rest = rest[end+1:]
	}
	return links
}

// IsCandidate reports whether a raw link value is worth resolving. Absolute
// http(s) links are accepted outright; fragment-only and javascript: links
// are rejected; everything else (bare relative and absolute-path links) is
// accepted.
func IsCandidate(link string) bool {
	if link == "" {
		return false
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return true
	}
	if strings.HasPrefix(link, "#") || strings.HasPrefix(link, "javascript:") {
		return false
	}
	return true
}

// ResolveLink turns a raw link into an absolute URL against baseURL.
//
// Links that already carry an http(s) scheme pass through unchanged. A link
// starting with "/" is rebuilt from the base's scheme and host, discarding
// the base's path. Anything else concatenates onto the base's directory: the
// base up to and including its last "/", or the whole base if it has none.
//
// Dot segments are not collapsed and query/fragment components are not
// stripped; the resolver reproduces that simplification deliberately.
func ResolveLink(baseURL, link string) (string, error) {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link, nil
	}

	if strings.HasPrefix(link, "/") {
		idx := strings.Index(baseURL, "://")
		if idx < 0 {
			return "", ErrMalformedURL
		}
		host, err := DomainOf(baseURL)
		if err != nil {
			return "", err
		}
		return baseURL[:idx+len("://")] + host + link, nil
	}

	if slash := strings.LastIndex(baseURL, "/"); slash >= 0 {
		return baseURL[:slash+1] + link, nil
	}
	return baseURL + link, nil
}
