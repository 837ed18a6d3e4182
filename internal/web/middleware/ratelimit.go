package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"
)

// idleVisitorTTL is how long an unused client bucket is kept.
const idleVisitorTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	perSecond float64
	burst     int64

	mu       sync.Mutex
	visitors map[string]*visitor

	stop chan struct{}
	once sync.Once
}

type visitor struct {
	bucket   *ratelimit.Bucket
	lastSeen time.Time
}

// NewRateLimiter creates a limiter refilling perMinute tokens a minute into
// buckets holding at most burst. Call Close to stop the cleanup goroutine.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		perSecond: float64(perMinute) / 60,
		burst:     int64(burst),
		visitors:  make(map[string]*visitor),
		stop:      make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow takes a token from ip's bucket. When the bucket is empty it returns
// false and the time until a token is available.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{bucket: ratelimit.NewBucketWithRate(rl.perSecond, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	if v.bucket.TakeAvailable(1) == 1 {
		return true, 0
	}
	return false, time.Duration(float64(time.Second) / rl.perSecond)
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(ClientIP(r))
		if !ok {
			retry := int(math.Ceil(wait.Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeErrorBody(w, http.StatusTooManyRequests, errorBody{
				Error:   "rate limit exceeded",
				Message: "Too many requests",
				Action:  "Please wait a moment and try again",
				Code:    "RATE001",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.prune(now)
		}
	}
}

// prune drops buckets idle for longer than idleVisitorTTL.
func (rl *RateLimiter) prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > idleVisitorTTL {
			delete(rl.visitors, ip)
		}
	}
}
