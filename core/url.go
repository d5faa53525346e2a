package core

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for identity purposes: lowercased scheme
// and host, no fragment, no trailing slash on the path. The seen-set and
// document IDs are keyed by the normalized form.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}

// DomainOf extracts the lowercased hostname of a URL, without the port.
// Returns "" for unparseable URLs.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// TLDOf returns the top-level domain of a URL's host ("se" for "www.kth.se"),
// or "" when the host has no dot.
func TLDOf(rawURL string) string {
	host := DomainOf(rawURL)
	idx := strings.LastIndexByte(host, '.')
	if idx < 0 || idx == len(host)-1 {
		return ""
	}
	return host[idx+1:]
}
