package wotscript

import (
	"crypto/sha256"
	"sync"

	"github.com/cespare/xxhash"
)

// Caches public key sets, which are expensive to generate, by instance and
// master secret.  Only a SHA-256 fingerprint of the master secret is kept.
//
// Safe for concurrent use.  Once full, the oldest entry is evicted.
type KeyCache struct {
	mux     sync.Mutex
	size    int
	entries map[uint64]*keyCacheEntry
	order   []uint64 // keys of entries, oldest first
}

type keyCacheEntry struct {
	params      Params
	fingerprint [sha256.Size]byte
	pks         *PublicKeySet
}

// Creates a cache that holds at most size public key sets.
func NewKeyCache(size int) *KeyCache {
	if size < 1 {
		size = 1
	}
	return &KeyCache{
		size:    size,
		entries: make(map[uint64]*keyCacheEntry),
	}
}

func keyCacheKey(params Params, fingerprint []byte) uint64 {
	buf, _ := params.MarshalBinary()
	h := xxhash.New()
	h.Write(buf)
	h.Write(fingerprint)
	return h.Sum64()
}

// Returns the public key set for master, generating it with
// ctx.GenerateKeys if it is not cached.
func (c *KeyCache) GenerateKeys(ctx *Context, master []byte) (
	*PublicKeySet, Error) {
	fingerprint := sha256.Sum256(master)
	key := keyCacheKey(ctx.p, fingerprint[:])

	c.mux.Lock()
	entry, ok := c.entries[key]
	c.mux.Unlock()
	if ok && entry.params == ctx.p && entry.fingerprint == fingerprint {
		log.Logf("Public keys for %s found in cache", ctx)
		return entry.pks, nil
	}

	pks, err := ctx.GenerateKeys(master)
	if err != nil {
		return nil, err
	}

	c.mux.Lock()
	defer c.mux.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.size {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = &keyCacheEntry{
		params:      ctx.p,
		fingerprint: fingerprint,
		pks:         pks,
	}
	return pks, nil
}

// Number of cached public key sets.
func (c *KeyCache) Len() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return len(c.entries)
}
