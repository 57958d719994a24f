// Package offline decides how the app shell and its remote calls are served
// when the network may be unavailable, and caches the shell assets.
package offline

import (
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Strategy is how a request is served.
type Strategy string

const (
	// NetworkOnly never touches the cache (remote store calls).
	NetworkOnly Strategy = "network-only"
	// NetworkFirst refreshes the cache on success and falls back to it.
	NetworkFirst Strategy = "network-first"
	// CacheFirst serves the cached copy when there is one.
	CacheFirst Strategy = "cache-first"
)

// ShellAssets is the app shell fetched ahead of time.
var ShellAssets = []string{
	"/",
	"/index.html",
	"/style.css",
	"/app.js",
	"/manifest.json",
	"/images/icon-192.png",
	"/images/icon-512.png",
}

// Policy maps request URLs to strategies.
type Policy struct {
	// APIHosts are only ever reached over the network.
	APIHosts []string
	// NetworkFirstHosts are font and CDN hosts with their own cache headers.
	NetworkFirstHosts []string
	// NetworkFirstPaths are glob patterns of same-origin paths that should
	// prefer fresh copies.
	NetworkFirstPaths []string
}

// DefaultPolicy keeps the remote document API off the cache and prefers
// the network for web fonts.
func DefaultPolicy(apiHost string) Policy {
	if apiHost == "" {
		apiHost = "api.github.com"
	}
	return Policy{
		APIHosts:          []string{apiHost},
		NetworkFirstHosts: []string{"fonts.googleapis.com", "fonts.gstatic.com"},
	}
}

// Strategy picks the strategy for rawURL. Unparsable URLs go to the network.
func (p Policy) Strategy(rawURL string) Strategy {
	u, err := url.Parse(rawURL)
	if err != nil {
		return NetworkOnly
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range p.APIHosts {
		if strings.EqualFold(host, h) {
			return NetworkOnly
		}
	}
	for _, h := range p.NetworkFirstHosts {
		if strings.EqualFold(host, h) {
			return NetworkFirst
		}
	}
	for _, pattern := range p.NetworkFirstPaths {
		if ok, _ := doublestar.Match(pattern, strings.TrimPrefix(u.Path, "/")); ok {
			return NetworkFirst
		}
	}
	return CacheFirst
}
