package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"empdesk/internal/app/server"
	"empdesk/internal/platform/config"
	"empdesk/internal/testfixtures"
)

func integrationConfig(t *testing.T) config.Config {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		SessionTTL:         time.Hour,
		PublicBaseURL:      "http://desk.test",
		EmailFrom:          "no-reply@test.local",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func TestRegistrationApprovalEmployeeJourney(t *testing.T) {
	cfg := integrationConfig(t)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	email := "journey-" + suffix + "@example.com"

	status, env := call(t, client, http.MethodPost, ts.URL+"/register/", "", map[string]string{
		"email": email, "password1": "Aa1!aaaa", "password2": "Aa1!aaaa",
	})
	if status != http.StatusCreated {
		t.Fatalf("register failed: %d %+v", status, env.Error)
	}
	registered := decode[struct {
		Account struct {
			ID int64 `json:"id"`
		} `json:"account"`
	}](t, env.Data)

	status, env = call(t, client, http.MethodPost, ts.URL+"/login/", "", map[string]string{"email": email, "password": "Aa1!aaaa"})
	if status != http.StatusForbidden || env.Error == nil || env.Error.Code != "not_approved" {
		t.Fatalf("expected not_approved before approval, got %d %+v", status, env.Error)
	}

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	status, _ = call(t, client, http.MethodPost, fmt.Sprintf("%s/admin/accounts/%d/approval/", ts.URL, registered.Account.ID), adminToken, map[string]bool{"approved": true})
	if status != http.StatusOK {
		t.Fatalf("approval failed: %d", status)
	}

	token := login(t, client, ts.URL, email, "Aa1!aaaa")
	input := testfixtures.SampleEmployee(suffix[len(suffix)-6:])
	input.Email = "emp-" + suffix + "@corp.example.com"
	input.Phone = "9" + suffix[len(suffix)-9:]

	status, env = call(t, client, http.MethodPost, ts.URL+"/add-emp/", token, input)
	if status != http.StatusCreated {
		t.Fatalf("add employee failed: %d %+v", status, env.Error)
	}
	created := decode[struct {
		Employee struct {
			Code string `json:"empCode"`
		} `json:"employee"`
	}](t, env.Data)
	if !strings.HasPrefix(created.Employee.Code, "EMP") {
		t.Fatalf("unexpected employee code %q", created.Employee.Code)
	}

	status, env = call(t, client, http.MethodPost, ts.URL+"/add-emp/", token, input)
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "employee_exists" {
		t.Fatalf("expected second add to be blocked, got %d %+v", status, env.Error)
	}

	status, _ = call(t, client, http.MethodPost, ts.URL+"/update-emp/", token, map[string]string{"action": "delete"})
	if status != http.StatusOK {
		t.Fatalf("cleanup delete failed: %d", status)
	}
}

func TestConcurrentCreatesGetDistinctCodes(t *testing.T) {
	cfg := integrationConfig(t)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ctx := context.Background()
	const workers = 5
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	codes := make(chan string, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func(i int) {
			email := fmt.Sprintf("race-%d-%s@example.com", i, suffix)
			account, err := app.Services.Auth.Register(ctx, email, "Aa1!aaaa", "Aa1!aaaa")
			if err != nil {
				errs <- err
				return
			}
			input := testfixtures.SampleEmployee(fmt.Sprintf("%d", i))
			input.Email = fmt.Sprintf("race-emp-%d-%s@corp.example.com", i, suffix[len(suffix)-8:])
			input.Phone = fmt.Sprintf("8%d%s", i, suffix[len(suffix)-8:])
			emp, err := app.Services.Employees.Create(ctx, account.ID, input)
			if err != nil {
				errs <- err
				return
			}
			codes <- emp.Code
		}(i)
	}

	seen := map[string]bool{}
	for i := 0; i < workers; i++ {
		select {
		case err := <-errs:
			t.Fatalf("concurrent create failed: %v", err)
		case code := <-codes:
			if seen[code] {
				t.Fatalf("duplicate code %s", code)
			}
			seen[code] = true
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for concurrent creates")
		}
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	status, env := call(t, client, http.MethodPost, baseURL+"/login/", "", map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login %s failed: %d %+v", email, status, env.Error)
	}
	return decode[struct {
		Token string `json:"token"`
	}](t, env.Data).Token
}

func call(t *testing.T, client *http.Client, method, url, token string, payload any) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, env
}
