package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"empdesk/internal/domain/auth"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

type hit struct {
	method string
	path   string
	ip     string
	email  string
	user   int64
}

func (h hit) request() *http.Request {
	var body io.Reader
	if h.email != "" {
		body = bytes.NewBufferString(`{"email":"` + h.email + `"}`)
	}
	method := h.method
	if method == "" {
		method = http.MethodPost
	}
	req := httptest.NewRequest(method, h.path, body)
	if h.email != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = h.ip + ":4000"
	if h.user > 0 {
		req = req.WithContext(WithUser(req.Context(), auth.UserContext{AccountID: h.user}))
	}
	return req
}

func serve(handler http.Handler, h hit) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, h.request())
	return rec
}

func TestRateLimitKeys(t *testing.T) {
	tests := []struct {
		name   string
		first  hit
		second hit
		want   int
	}{
		{
			name:   "account key spans addresses",
			first:  hit{path: "/admin/accounts/3/approval/", ip: "198.51.100.11", user: 7},
			second: hit{path: "/admin/accounts/3/approval/", ip: "198.51.100.12", user: 7},
			want:   http.StatusTooManyRequests,
		},
		{
			name:   "different accounts are independent",
			first:  hit{path: "/view-emp/", ip: "198.51.100.11", user: 7},
			second: hit{path: "/view-emp/", ip: "198.51.100.11", user: 8},
			want:   http.StatusNoContent,
		},
		{
			name:   "anonymous callers share the ip bucket",
			first:  hit{path: "/reset-password/", ip: "203.0.113.10", email: "a@example.com"},
			second: hit{path: "/reset-password/", ip: "203.0.113.10", email: "b@example.com"},
			want:   http.StatusTooManyRequests,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			limited := RateLimit(1, time.Minute)(noContent)
			if rec := serve(limited, tc.first); rec.Code != http.StatusNoContent {
				t.Fatalf("expected first request to pass, got %d", rec.Code)
			}
			if rec := serve(limited, tc.second); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent)
	login := hit{path: "/login/", ip: "192.0.2.20", email: "a@example.com"}

	serve(limited, login)
	if rec := serve(limited, login); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttle inside the window, got %d", rec.Code)
	}
	time.Sleep(50 * time.Millisecond)
	if rec := serve(limited, login); rec.Code != http.StatusNoContent {
		t.Fatalf("expected a fresh window to pass, got %d", rec.Code)
	}
}

func TestRateLimitHeaders(t *testing.T) {
	limited := RateLimit(2, time.Minute)(noContent)
	login := hit{path: "/login/", ip: "192.0.2.30"}

	rec := serve(limited, login)
	if rec.Header().Get("X-RateLimit-Limit") != "2" || rec.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("unexpected headers %v", rec.Header())
	}
	serve(limited, login)
	rec = serve(limited, login)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttled response, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("expected retry metadata, got %v", rec.Header())
	}
}

func TestSensitiveLimitSkipsReads(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent)

	for i := range 6 {
		if rec := serve(limited, hit{method: http.MethodGet, path: "/admin/employees/", ip: "198.51.100.40"}); rec.Code != http.StatusNoContent {
			t.Fatalf("read %d: expected pass, got %d", i+1, rec.Code)
		}
	}

	approve := hit{path: "/admin/accounts/3/approval/", ip: "198.51.100.41", user: 1}
	for i := range 2 {
		if rec := serve(limited, approve); rec.Code != http.StatusNoContent {
			t.Fatalf("mutation %d: expected pass, got %d", i+1, rec.Code)
		}
	}
	if rec := serve(limited, approve); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected third admin mutation to be throttled, got %d", rec.Code)
	}
}

func TestSensitiveAuthLimitKeysOnEmail(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Fatal("expected body to be readable after key extraction")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(ip, email string) int {
		req := httptest.NewRequest(http.MethodPost, "/register/", bytes.NewBufferString(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("192.0.2.1:1", "Ann@Example.com"); code != http.StatusNoContent {
		t.Fatalf("expected first attempt to pass, got %d", code)
	}
	if code := send("192.0.2.2:1", "ann@example.com"); code != http.StatusTooManyRequests {
		t.Fatalf("expected same email from another ip to be throttled, got %d", code)
	}
	if code := send("192.0.2.3:1", "bob@example.com"); code != http.StatusNoContent {
		t.Fatalf("expected a different email to pass, got %d", code)
	}
}

func TestSensitiveRateScope(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   sensitiveScope
	}{
		{http.MethodPost, "/login/", sensitiveScopeAuth},
		{http.MethodPost, "/reset/abc/", sensitiveScopeAuth},
		{http.MethodPost, "/guest-help-support/", sensitiveScopeAuth},
		{http.MethodGet, "/login/", sensitiveScopeNone},
		{http.MethodPost, "/admin/tickets/4/resolve/", sensitiveScopeActor},
		{http.MethodDelete, "/admin/employees/2/9/", sensitiveScopeActor},
		{http.MethodPost, "/add-emp/", sensitiveScopeNone},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := sensitiveRateScope(req); got != tc.want {
			t.Errorf("%s %s: expected %q, got %q", tc.method, tc.path, tc.want, got)
		}
	}
}

func TestFixedWindowSweepsExpiredBuckets(t *testing.T) {
	fw := newFixedWindow(2, time.Minute, actorOrIPKey)
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	fw.take("ip:a", start)
	fw.take("ip:b", start)
	if v := fw.take("ip:a", start.Add(time.Second)); !v.allowed || v.remaining != 0 {
		t.Fatalf("expected second hit allowed with none remaining, got %+v", v)
	}
	if v := fw.take("ip:a", start.Add(2*time.Second)); v.allowed {
		t.Fatal("expected third hit in the window to be refused")
	}

	fw.take("ip:c", start.Add(2*time.Minute))
	if _, ok := fw.buckets["ip:b"]; ok {
		t.Fatal("expected expired bucket to be swept")
	}
	if len(fw.buckets) != 1 {
		t.Fatalf("expected only the fresh bucket, got %d", len(fw.buckets))
	}
}

func TestCeilSeconds(t *testing.T) {
	for d, want := range map[time.Duration]int{0: 0, -time.Second: 0, time.Millisecond: 1, time.Second: 1, 1500 * time.Millisecond: 2} {
		if got := ceilSeconds(d); got != want {
			t.Errorf("ceilSeconds(%v) = %d, want %d", d, got, want)
		}
	}
}
