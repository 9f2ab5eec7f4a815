// Package verifycache memoizes verifier verdicts in Redis, keyed by a hash
// of the query name and the policies it was run against. Verification
// queries are expensive (an SMT solver invocation each) and idempotent, so
// a cache hit saves a full Check call whenever the same pair of policies is
// re-checked — which happens often across a scenario's compile/verify/retry
// loop.
package verifycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/util"
	"github.com/newtron-network/netslice/pkg/verifier"
)

// Entry is the cached form of a verifier.Verdict. Witness models are not
// serializable (they hold live smt.Value handles into a closed solver), so
// only the outcome and, for a violation, the query name are kept; a cache
// hit on a violated query tells the caller to re-run it uncached if it
// needs the witness.
type Entry struct {
	Outcome  verifier.Outcome `json:"outcome"`
	Query    string           `json:"query"`
	CachedAt time.Time        `json:"cached_at"`
}

// Cache wraps a Redis client scoped to one logical database for verdict
// memoization, mirroring pkg/device's ConfigDBClient wrapper.
type Cache struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// New returns a Cache dialing addr. ttl is the expiry on every cached
// verdict; zero means entries never expire.
func New(addr string, ttl time.Duration) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: 7}),
		ctx:    context.Background(),
		ttl:    ttl,
	}
}

// NewFromClient wraps an already-configured *redis.Client, e.g. one dialed
// through an SSH tunnel's LocalAddr (see Tunnel in remote.go).
func NewFromClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ctx: context.Background(), ttl: ttl}
}

// Connect tests the connection.
func (c *Cache) Connect() error {
	return c.client.Ping(c.ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Key derives a stable cache key from a query name and the policies it
// covers, hashing each policy's canonical JSON envelope so the same
// policies produce the same key across processes.
func Key(query string, policies ...*netcore.Policy) string {
	h := sha256.New()
	h.Write([]byte(query))
	for _, p := range policies {
		raw, err := json.Marshal(p)
		if err != nil {
			// Policy trees always marshal; a failure here is a programming
			// error worth surfacing loudly rather than silently colliding.
			panic(fmt.Sprintf("verifycache: marshaling policy for cache key: %v", err))
		}
		h.Write(raw)
		h.Write([]byte{0})
	}
	return "verifycache|" + hex.EncodeToString(h.Sum(nil))
}

// Get looks up a previously cached verdict. ok is false on a miss.
func (c *Cache) Get(key string) (*Entry, bool, error) {
	raw, err := c.client.Get(c.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("verifycache: get %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("verifycache: decode %s: %w", key, err)
	}
	return &e, true, nil
}

// Put stores a verdict under key, overwriting any previous entry.
func (c *Cache) Put(key string, verdict *verifier.Verdict) error {
	query := ""
	if verdict.Witness != nil {
		query = verdict.Witness.Query
	}
	e := Entry{Outcome: verdict.Outcome, Query: query, CachedAt: time.Now()}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("verifycache: encode: %w", err)
	}
	if err := c.client.Set(c.ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("verifycache: put %s: %w", key, err)
	}
	return nil
}

// Memoize wraps a query function with a cache lookup under key: on a hit it
// returns a synthetic Verdict carrying the cached outcome (no witness, even
// for a cached violation — callers needing the counterexample must bypass
// the cache), and on a miss it runs query and caches a successful result.
// A solver-indeterminate result (query returns a non-nil error) is never
// cached, since it reflects a resource limit rather than a stable fact
// about the policies.
func (c *Cache) Memoize(key string, query func() (*verifier.Verdict, error)) (*verifier.Verdict, error) {
	if cached, ok, err := c.Get(key); err != nil {
		util.WithFields(map[string]interface{}{"key": key, "error": err}).Warn("verifycache: lookup failed, falling through to solver")
	} else if ok {
		util.WithField("key", key).Debug("verifycache: hit")
		return &verifier.Verdict{Outcome: cached.Outcome}, nil
	}

	verdict, err := query()
	if err != nil {
		return nil, err
	}
	if err := c.Put(key, verdict); err != nil {
		util.WithFields(map[string]interface{}{"key": key, "error": err}).Warn("verifycache: store failed")
	}
	return verdict, nil
}
