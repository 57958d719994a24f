package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/gin-gonic/gin"
)

const maxAssetBytes = 5 << 20

// ErrNotCached is returned when an asset is neither cached nor reachable.
var ErrNotCached = errors.New("asset not cached")

// Asset is one cached response.
type Asset struct {
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// AssetCache serves the app shell from memory, filled from an upstream
// origin.
type AssetCache struct {
	origin string
	policy Policy
	client *http.Client

	mu      sync.RWMutex
	entries map[string]Asset
}

// NewAssetCache creates an empty cache for origin.
func NewAssetCache(origin string, policy Policy, client *http.Client) *AssetCache {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &AssetCache{
		origin:  strings.TrimRight(origin, "/"),
		policy:  policy,
		client:  client,
		entries: make(map[string]Asset),
	}
}

// Install fetches every shell asset. It is all or nothing: on any failure
// the cache is left as it was.
func (c *AssetCache) Install(ctx context.Context) error {
	fetched := make(map[string]Asset, len(ShellAssets))
	for _, path := range ShellAssets {
		asset, err := c.fetch(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to pre-cache %s: %w", path, err)
		}
		fetched[path] = asset
	}

	c.mu.Lock()
	for path, asset := range fetched {
		c.entries[path] = asset
	}
	c.mu.Unlock()
	middleware.GetLoggerFromCtx(ctx).Info("App shell cached", slog.Int("assets", len(fetched)))
	return nil
}

// Get returns the asset at path following the policy's strategy.
func (c *AssetCache) Get(ctx context.Context, path string) (Asset, error) {
	switch c.policy.Strategy(c.origin + path) {
	case NetworkOnly:
		return c.fetch(ctx, path)
	case NetworkFirst:
		asset, err := c.fetch(ctx, path)
		if err == nil {
			c.put(path, asset)
			return asset, nil
		}
		if cached, ok := c.lookup(path); ok {
			return cached, nil
		}
		return Asset{}, fmt.Errorf("%w: %s: %v", ErrNotCached, path, err)
	default:
		if cached, ok := c.lookup(path); ok {
			return cached, nil
		}
		asset, err := c.fetch(ctx, path)
		if err != nil {
			return Asset{}, fmt.Errorf("%w: %s: %v", ErrNotCached, path, err)
		}
		return asset, nil
	}
}

// Handler serves the cache under a gin wildcard route named "path".
func (c *AssetCache) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.Param("path")
		if path == "" {
			path = "/"
		}
		asset, err := c.Get(ctx.Request.Context(), path)
		if err != nil {
			middleware.GetLoggerFromContext(ctx).Warn("Asset unavailable", slog.String("path", path), slog.String("error", err.Error()))
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		ctx.Data(http.StatusOK, asset.ContentType, asset.Body)
	}
}

func (c *AssetCache) lookup(path string) (Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	asset, ok := c.entries[path]
	return asset, ok
}

func (c *AssetCache) put(path string, asset Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = asset
}

func (c *AssetCache) fetch(ctx context.Context, path string) (Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+path, nil)
	if err != nil {
		return Asset{}, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return Asset{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Asset{}, fmt.Errorf("upstream returned %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxAssetBytes+1))
	if err != nil {
		return Asset{}, err
	}
	if len(body) > maxAssetBytes {
		return Asset{}, fmt.Errorf("asset %s exceeds %d bytes", path, maxAssetBytes)
	}
	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return Asset{ContentType: contentType, Body: body, FetchedAt: time.Now()}, nil
}
