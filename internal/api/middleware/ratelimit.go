// Package middleware provides HTTP middleware for the shockcast API.
package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// DefaultIdleTTL is how long an idle client's limiter is kept.
const DefaultIdleTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client address.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*client
	sweep   time.Time

	// OnReject is called for every rejected request, if set.
	OnReject func(r *http.Request)
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   limit,
		burst:   burst,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow reports whether key may make a request now.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit == rate.Inf {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evictIdle(now)

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// evictIdle drops clients not seen for idleTTL, at most once per idleTTL.
func (rl *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(rl.sweep) < rl.idleTTL {
		return
	}
	rl.sweep = now
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) >= rl.idleTTL {
			delete(rl.clients, key)
		}
	}
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware rejects requests over the limit with 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Allow(ClientKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		if rl.OnReject != nil {
			rl.OnReject(r)
		}
		limited := core.ErrRateLimit("rate limit exceeded")
		w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": limited.Message,
			"code":  limited.Code,
		})
	})
}

func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(rl.limit))))
}

// ClientKey identifies the caller by remote host. Run after chi's RealIP
// middleware so proxies are honoured.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
