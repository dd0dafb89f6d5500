package advisor

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/cnc-n3r4/Isaac-sub001/internal/consts"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// CachedGate memoizes gate answers: validation verdicts keyed by command,
// platform and tier, corrections keyed by command and platform under a
// separate key domain. Only successful answers are cached; failures always
// hit the model again.
type CachedGate struct {
	inner Gate
	ttl   time.Duration
	max   int

	mu      sync.Mutex
	entries map[uint64]cacheEntry
}

type cacheEntry struct {
	verdict    *Verdict
	correction *Correction
	expires    time.Time
}

// NewCachedGate wraps a gate with a TTL answer cache.
func NewCachedGate(inner Gate, ttl time.Duration, max int) *CachedGate {
	if ttl <= 0 {
		ttl = consts.DefaultVerdictCacheTTL
	}
	if max <= 0 {
		max = consts.DefaultVerdictCacheSize
	}
	return &CachedGate{
		inner:   inner,
		ttl:     ttl,
		max:     max,
		entries: make(map[uint64]cacheEntry),
	}
}

func (c *CachedGate) Validate(ctx context.Context, command string, p platform.Platform, t tier.Tier) (*Verdict, error) {
	key := verdictKey(command, p, t)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && entry.verdict != nil && time.Now().Before(entry.expires) {
		verdict := entry.verdict.clone()
		c.mu.Unlock()
		return verdict, nil
	}
	c.mu.Unlock()

	verdict, err := c.inner.Validate(ctx, command, p, t)
	if err != nil {
		return nil, err
	}

	c.store(key, cacheEntry{verdict: verdict.clone()})
	return verdict, nil
}

func (c *CachedGate) Correct(ctx context.Context, command string, p platform.Platform) (*Correction, error) {
	key := correctionKey(command, p)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && entry.correction != nil && time.Now().Before(entry.expires) {
		correction := *entry.correction
		c.mu.Unlock()
		return &correction, nil
	}
	c.mu.Unlock()

	correction, err := c.inner.Correct(ctx, command, p)
	if err != nil {
		return nil, err
	}
	if correction == nil {
		return nil, nil
	}

	stored := *correction
	c.store(key, cacheEntry{correction: &stored})
	return correction, nil
}

func (c *CachedGate) store(key uint64, entry cacheEntry) {
	entry.expires = time.Now().Add(c.ttl)

	c.mu.Lock()
	if len(c.entries) >= c.max {
		c.evictLocked()
	}
	c.entries[key] = entry
	c.mu.Unlock()
}

func verdictKey(command string, p platform.Platform, t tier.Tier) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(string(p))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(t.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(command)
	return h.Sum64()
}

// correctionKey lives in its own key domain so a correction can never be
// mistaken for a verdict on the same command.
func correctionKey(command string, p platform.Platform) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString("correct")
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(p))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(command)
	return h.Sum64()
}

// evictLocked drops expired entries first, then arbitrary ones until the
// cache is back under its cap. Called with the mutex held.
func (c *CachedGate) evictLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
	for key := range c.entries {
		if len(c.entries) < c.max {
			break
		}
		delete(c.entries, key)
	}
}
