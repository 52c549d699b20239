package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/glosslink/glosslink/internal/logging"
	"github.com/glosslink/glosslink/internal/types"
)

// registryTag groups every registry entry in the shared store so a
// glossary change can invalidate them together.
const registryTag = "glossary"

// BuildFunc produces the rule specs for a registry key on a cold miss.
type BuildFunc func(ctx context.Context) ([]types.RuleSpec, error)

// CompileFunc turns stored rule specs into a compiled registry.
type CompileFunc func(specs []types.RuleSpec) *types.Registry

// RegistryCache is the two-tier registry cache. Lookup order: the
// in-process memo of compiled registries, then the shared store (which
// holds serialized rule specs, compiled on load), then a cold build
// that populates both tiers.
//
// The memo holds compiled patterns, which never round-trip through the
// shared store; only specs are serialized. Concurrent cold builds for
// the same key race benignly: the build is a pure function of the
// stored rows, so the last write wins.
type RegistryCache struct {
	mu      sync.RWMutex
	memo    map[string]*types.Registry
	shared  Store
	ttl     time.Duration
	compile CompileFunc
	logger  logging.Logger
}

// NewRegistryCache creates a registry cache over the shared store.
func NewRegistryCache(shared Store, ttl time.Duration, compile CompileFunc, logger logging.Logger) *RegistryCache {
	return &RegistryCache{
		memo:    make(map[string]*types.Registry),
		shared:  shared,
		ttl:     ttl,
		compile: compile,
		logger:  logger.WithComponent("registry_cache"),
	}
}

// Key builds the registry cache key for a locale/site pair. The site id
// is left out entirely when the request is not a site request.
func Key(locale, siteID string) string {
	if siteID == "" {
		return "glossary_" + locale
	}
	return "glossary_" + locale + "_site_" + siteID
}

// Get returns the compiled registry for key, building it if necessary.
// A failing build yields an empty registry and the error; the caller
// decides whether that is fatal (the engine treats it as "no rules").
func (c *RegistryCache) Get(ctx context.Context, key string, build BuildFunc) (*types.Registry, error) {
	c.mu.RLock()
	reg, ok := c.memo[key]
	c.mu.RUnlock()
	if ok {
		return reg, nil
	}

	if data, ok := c.shared.Load(key); ok {
		var specs []types.RuleSpec
		if err := json.Unmarshal(data, &specs); err == nil {
			reg := c.compile(specs)
			c.memoSet(key, reg)
			return reg, nil
		}
		c.logger.Warn(ctx, nil, "discarding undecodable registry cache entry", "key", key)
	}

	specs, err := build(ctx)
	if err != nil {
		return &types.Registry{}, err
	}

	if data, err := json.Marshal(specs); err == nil {
		c.shared.Save(key, data, []string{registryTag}, c.ttl)
	}

	reg = c.compile(specs)
	c.memoSet(key, reg)
	return reg, nil
}

// IsRegistered reports whether a compiled registry is memoized for key.
func (c *RegistryCache) IsRegistered(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.memo[key]
	return ok
}

// Invalidate drops one key from the memo.
func (c *RegistryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.memo, key)
	c.mu.Unlock()
}

// Clear drops the whole memo and, when the shared store supports tag
// invalidation, the stored registry entries too. Used when glossary
// definitions change.
func (c *RegistryCache) Clear() {
	c.mu.Lock()
	c.memo = make(map[string]*types.Registry)
	c.mu.Unlock()

	if inv, ok := c.shared.(interface{ InvalidateTag(string) int }); ok {
		inv.InvalidateTag(registryTag)
	}
}

func (c *RegistryCache) memoSet(key string, reg *types.Registry) {
	c.mu.Lock()
	c.memo[key] = reg
	c.mu.Unlock()
}
