package server

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osse101/RecipeForge_Go/internal/logger"
)

// AuthMiddleware validates the API key on every non-public path
func AuthMiddleware(apiKey string, proxies *TrustedProxies, detector *SuspiciousActivityDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(HeaderAPIKey)
			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				ip := proxies.ClientIP(r)
				detector.RecordFailedAuth(ip)

				logger.FromContext(r.Context()).Warn(LogMsgAuthFailed,
					"path", r.URL.Path,
					"has_key", providedKey != "",
					"ip", ip)

				http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPublicPath(path string) bool {
	for _, p := range PublicPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// DetectorConfig tunes the SuspiciousActivityDetector. Zero fields take
// the defaults.
type DetectorConfig struct {
	Window          time.Duration
	FailedAuthAlert int
	MaxRequests     int
}

func (c DetectorConfig) withDefaults() DetectorConfig {
	if c.Window <= 0 {
		c.Window = DefaultDetectorWindow
	}
	if c.FailedAuthAlert <= 0 {
		c.FailedAuthAlert = DefaultFailedAuthAlert
	}
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequestsPerIP
	}
	return c
}

// SuspiciousActivityDetector counts requests and failed logins per IP in a
// fixed window
type SuspiciousActivityDetector struct {
	cfg DetectorConfig
	now func() time.Time

	mu               sync.Mutex
	failedAuthByIP   map[string]int
	requestCountByIP map[string]int
	windowStart      time.Time
}

func NewSuspiciousActivityDetector(cfg DetectorConfig) *SuspiciousActivityDetector {
	d := &SuspiciousActivityDetector{
		cfg:              cfg.withDefaults(),
		now:              time.Now,
		failedAuthByIP:   make(map[string]int),
		requestCountByIP: make(map[string]int),
	}
	d.windowStart = d.now()
	return d
}

// RecordFailedAuth counts a failed authentication and alerts past the threshold
func (s *SuspiciousActivityDetector) RecordFailedAuth(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollWindow()
	s.failedAuthByIP[ip]++
	if n := s.failedAuthByIP[ip]; n >= s.cfg.FailedAuthAlert {
		slog.Warn(SecurityAlertFailedAuth, "ip", ip, "count", n)
	}
}

// RecordRequest counts a request and returns false once the IP is over its
// limit for the current window
func (s *SuspiciousActivityDetector) RecordRequest(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollWindow()
	s.requestCountByIP[ip]++
	n := s.requestCountByIP[ip]
	if n <= s.cfg.MaxRequests {
		return true
	}
	if n%highRateLogEvery == 0 {
		slog.Warn(SecurityAlertHighRate, "ip", ip, "count_in_window", n, "window", s.cfg.Window)
	}
	return false
}

// rollWindow starts a new window when the current one is over.
// Caller must hold the mutex.
func (s *SuspiciousActivityDetector) rollWindow() {
	now := s.now()
	if now.Sub(s.windowStart) > s.cfg.Window {
		clear(s.requestCountByIP)
		clear(s.failedAuthByIP)
		s.windowStart = now
	}
}

// SecurityLoggingMiddleware enforces the per-IP request limit
func SecurityLoggingMiddleware(proxies *TrustedProxies, detector *SuspiciousActivityDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !detector.RecordRequest(proxies.ClientIP(r)) {
				http.Error(w, ErrMsgTooManyRequests, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedProxies is the set of reverse proxies whose X-Forwarded-For header
// is believed. Entries are single IPs or CIDR ranges.
type TrustedProxies struct {
	ips  []net.IP
	nets []*net.IPNet
}

// NewTrustedProxies parses the proxy list, skipping invalid entries
func NewTrustedProxies(entries []string) *TrustedProxies {
	tp := &TrustedProxies{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if _, n, err := net.ParseCIDR(e); err == nil {
			tp.nets = append(tp.nets, n)
			continue
		}
		if ip := net.ParseIP(e); ip != nil {
			tp.ips = append(tp.ips, ip)
			continue
		}
		slog.Warn(LogMsgBadTrustedProxy, "entry", e)
	}
	return tp
}

// Contains reports whether ip belongs to a trusted proxy
func (tp *TrustedProxies) Contains(ip net.IP) bool {
	if tp == nil || ip == nil {
		return false
	}
	for _, t := range tp.ips {
		if t.Equal(ip) {
			return true
		}
	}
	for _, n := range tp.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address. X-Forwarded-For is only read when
// the direct peer is a trusted proxy, and then its rightmost entry is used:
// that is the hop the proxy itself saw.
func (tp *TrustedProxies) ClientIP(r *http.Request) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	if tp.Contains(net.ParseIP(remoteIP)) {
		if forwarded := r.Header.Get(HeaderForwardedFor); forwarded != "" {
			hops := strings.Split(forwarded, ",")
			return strings.TrimSpace(hops[len(hops)-1])
		}
	}
	return remoteIP
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(HeaderContentType, HeaderValueNoSniff)
			h.Set(HeaderFrameOptions, HeaderValueSameOrigin)
			h.Set(HeaderXSSProtection, HeaderValueXSSBlock)
			h.Set(HeaderReferrerPolicy, HeaderValueReferrerStrictOrigin)
			next.ServeHTTP(w, r)
		})
	}
}
