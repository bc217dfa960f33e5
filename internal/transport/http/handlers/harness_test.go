package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"empdesk/internal/app/server"
	"empdesk/internal/platform/config"
	"empdesk/internal/platform/metrics"
	"empdesk/internal/testfixtures"
)

const (
	adminPassword = "Admin#123"
	userPassword  = "Aa1!aaaa"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

type testApp struct {
	t       *testing.T
	svc     *testfixtures.Services
	router  http.Handler
	metrics *metrics.Collector
}

func testConfig() config.Config {
	return config.Config{
		Environment:        "test",
		JWTSecret:          testfixtures.JWTSecret,
		SessionTTL:         time.Hour,
		PublicBaseURL:      "http://desk.test",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	svc := testfixtures.NewServices()
	collector := metrics.New()
	router := server.NewRouter(testConfig(), server.Deps{
		Services: server.Services{
			Auth:      svc.Auth,
			Employees: svc.Employees,
			Support:   svc.Support,
			Audit:     svc.Audit,
			Notify:    svc.Notify,
		},
		Metrics: collector,
	})
	return &testApp{t: t, svc: svc, router: router, metrics: collector}
}

// do sends a JSON request and decodes the envelope. A nil body sends none.
func (a *testApp) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if ct := rec.Header().Get("Content-Type"); ct == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			a.t.Fatalf("decode envelope for %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func (a *testApp) expect(method, path, token string, body any, status int) envelope {
	a.t.Helper()
	rec, env := a.do(method, path, token, body)
	if rec.Code != status {
		a.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, status, rec.Code, rec.Body.String())
	}
	return env
}

func (a *testApp) expectError(method, path, token string, body any, status int, code string) envelope {
	a.t.Helper()
	env := a.expect(method, path, token, body, status)
	if env.Error == nil || env.Error.Code != code {
		a.t.Fatalf("%s %s: expected error code %q, got %+v", method, path, code, env.Error)
	}
	return env
}

func (a *testApp) admin() string {
	a.t.Helper()
	a.svc.ApprovedAccount(testfixtures.AdminEmail, adminPassword, true)
	return a.svc.Login(testfixtures.AdminEmail, adminPassword)
}

func (a *testApp) user(email string) string {
	a.t.Helper()
	a.svc.ApprovedAccount(email, userPassword, false)
	return a.svc.Login(email, userPassword)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, string(raw))
	}
	return out
}
