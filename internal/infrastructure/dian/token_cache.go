package dian

import (
	"sync"
	"time"
)

// tokenCache guarda el token OAuth2 de la DIAN en memoria con TTL.
// Seguro para uso concurrente; el reloj es inyectable para tests.
type tokenCache struct {
	mu        sync.RWMutex
	now       func() time.Time
	token     string
	expiresAt time.Time
}

func newTokenCache(now func() time.Time) *tokenCache {
	if now == nil {
		now = time.Now
	}
	return &tokenCache{now: now}
}

// Get devuelve el token cacheado si sigue vigente.
func (c *tokenCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" || c.now().After(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

// Set guarda el token con el TTL dado.
func (c *tokenCache) Set(token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = c.now().Add(ttl)
}

// Clear elimina el token cacheado.
func (c *tokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiresAt = time.Time{}
}
