package main

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/cookieauth/httpauth"
	"github.com/MrEthical07/cookieauth/internal/logx"
	"golang.org/x/time/rate"
)

// ipLimiter is an in-process token bucket per client IP. It sits in front of
// the Redis-backed failure throttle and caps raw request volume.
type ipLimiter struct {
	limit rate.Limit
	burst int

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	return &ipLimiter{
		limit:       rate.Limit(perSecond),
		burst:       burst,
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) > 5*time.Minute {
		// Full buckets belong to idle clients.
		for k, lim := range l.limiters {
			if lim.Tokens() >= float64(l.burst) {
				delete(l.limiters, k)
			}
		}
		l.lastCleanup = time.Now()
	}

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := httpauth.ClientIP(r)
		lim := l.get(key)
		if !lim.Allow() {
			reservation := lim.Reserve()
			delay := reservation.Delay()
			reservation.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(max(int(delay.Seconds()), 1)))
			logx.FromContext(r.Context()).Warn("login rate limit exceeded", "client_ip", key)
			httpauth.WriteCode(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
