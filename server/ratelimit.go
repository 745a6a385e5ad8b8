package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginLimiter throttles login submissions per client IP
type LoginLimiter struct {
	rate    rate.Limit
	burst   int
	nowTime func() time.Time

	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

// NewLoginLimiter allows perMinute attempts per IP, all of which may be used in a burst.
// A non-positive perMinute disables the limit.
func NewLoginLimiter(perMinute int, nowTime func() time.Time) *LoginLimiter {
	l := &LoginLimiter{
		rate:     rate.Inf,
		burst:    perMinute,
		nowTime:  nowTime,
		limiters: make(map[string]*ipLimiter),
	}
	if perMinute > 0 {
		l.rate = rate.Limit(float64(perMinute) / 60.0)
	}
	return l
}

// Allow consumes one attempt for ip
func (l *LoginLimiter) Allow(ip string) bool {
	if l.rate == rate.Inf {
		return true
	}
	now := l.nowTime()

	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastAccess = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// RetryAfter is the whole number of seconds until one attempt is replenished
func (l *LoginLimiter) RetryAfter() int {
	if l.rate == rate.Inf || l.burst <= 0 {
		return 0
	}
	return max(1, int(math.Ceil(60.0/float64(l.burst))))
}

// Sweep forgets limiters idle for longer than limiterIdleTTL
func (l *LoginLimiter) Sweep() int {
	now := l.nowTime()
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastAccess) > limiterIdleTTL {
			delete(l.limiters, ip)
			removed++
		}
	}
	return removed
}

// LoginRateLimitMiddleware re-renders the login page with 429 once an IP runs out of attempts
func (s *Server) LoginRateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.Allow(ip) {
			log.Warn().Str("ip", ip).Msg("login rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(s.limiter.RetryAfter()))
			s.renderLoginPage(w, r, http.StatusTooManyRequests, loginView{
				Email: r.FormValue("email"),
				Error: "Too many login attempts, please wait a minute and try again",
			})
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
