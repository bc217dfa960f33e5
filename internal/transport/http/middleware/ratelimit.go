package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"empdesk/internal/transport/http/api"
)

// maxPeekBytes bounds how much of a request body is buffered to find the
// email used as a limiter key.
const maxPeekBytes = 16 * 1024

type keyFunc func(r *http.Request) string

type bucket struct {
	hits  int
	reset time.Time
}

// fixedWindow counts hits per key in fixed windows.
type fixedWindow struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	key       keyFunc
	buckets   map[string]*bucket
	nextSweep time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

func newFixedWindow(limit int, window time.Duration, key keyFunc) *fixedWindow {
	return &fixedWindow{limit: limit, window: window, key: key, buckets: map[string]*bucket{}}
}

func (fw *fixedWindow) take(key string, now time.Time) verdict {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if now.After(fw.nextSweep) {
		for k, b := range fw.buckets {
			if now.After(b.reset) {
				delete(fw.buckets, k)
			}
		}
		fw.nextSweep = now.Add(fw.window)
	}

	b, ok := fw.buckets[key]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(fw.window)}
		fw.buckets[key] = b
	}
	b.hits++
	return verdict{
		allowed:   b.hits <= fw.limit,
		remaining: max(fw.limit-b.hits, 0),
		resetIn:   b.reset.Sub(now),
	}
}

// admit writes the rate headers and, when the key is over its limit, the 429
// response. It reports whether the request may proceed.
func (fw *fixedWindow) admit(w http.ResponseWriter, r *http.Request) bool {
	if fw.limit <= 0 {
		return true
	}
	key := fw.key(r)
	if key == "" {
		key = "ip:" + clientIPKey(r)
	}
	v := fw.take(key, time.Now())

	resetSec := ceilSeconds(v.resetIn)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(fw.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if v.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", fw.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// RateLimit caps every request per signed-in account, or per client IP for
// anonymous callers.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	fw := newFixedWindow(limit, window, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fw.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter limits to credential and guest
// endpoints (per IP and per submitted email) and to admin mutations (per actor).
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	authLimit := max(baseLimit/4, 1)
	byIP := newFixedWindow(authLimit, window, func(r *http.Request) string { return "ip:" + clientIPKey(r) })
	byEmail := newFixedWindow(authLimit, window, emailOrIPKey)
	byActor := newFixedWindow(max(baseLimit/2, 1), window, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !byIP.admit(w, r) || !byEmail.admit(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !byActor.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.AccountID > 0 {
		return "account:" + strconv.FormatInt(user.AccountID, 10)
	}
	return "ip:" + clientIPKey(r)
}

func emailOrIPKey(r *http.Request) string {
	if email := peekJSONString(r, "email"); email != "" {
		return "email:" + strings.ToLower(email)
	}
	return "ip:" + clientIPKey(r)
}

// clientIPKey prefers the first X-Forwarded-For hop over the socket address.
func clientIPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

// peekJSONString reads a top-level string field from a JSON body and restores
// the body for the next handler.
func peekJSONString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

var credentialPaths = map[string]bool{
	"/login/":              true,
	"/register/":           true,
	"/reset-password/":     true,
	"/guest-help-support/": true,
}

func sensitiveRateScope(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}
	path := r.URL.Path
	switch {
	case credentialPaths[path], strings.HasPrefix(path, "/reset/"):
		return sensitiveScopeAuth
	case strings.HasPrefix(path, "/admin/"):
		return sensitiveScopeActor
	}
	return sensitiveScopeNone
}
