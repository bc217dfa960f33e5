package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestValidatorSortsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("subject", " ", "is required")
	v.Required("email", "", "is required")
	v.Enum("action", "archive", []string{"update", "delete"}, "must be update or delete")
	v.Enum("other", "", []string{"x"}, "ignored when empty")

	issues := v.Issues()
	if len(issues) != 3 || issues[0].Field != "action" || issues[2].Field != "subject" {
		t.Fatalf("unexpected issues %+v", issues)
	}

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "r1") || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected rejection, got %d", rec.Code)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com"}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.Email != "a@x.com" {
		t.Fatalf("decode: %v %+v", err, dst)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","admin":true}`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatal("expected unknown field error")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(req, &dst); err != errEmptyBody {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestPathIDAndQueryBool(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	req := httptest.NewRequest(http.MethodGet, "/?resolved=true&bad=maybe", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	if id, ok := PathID(req, "id"); !ok || id != 42 {
		t.Fatalf("unexpected id %d %v", id, ok)
	}
	if _, ok := PathID(req, "missing"); ok {
		t.Fatal("expected missing param to fail")
	}
	if v := QueryBool(req, "resolved"); v == nil || !*v {
		t.Fatalf("expected resolved=true, got %v", v)
	}
	if v := QueryBool(req, "bad"); v != nil {
		t.Fatalf("expected nil for invalid bool, got %v", *v)
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	page := ParsePagination(req, 50, 200)
	if page.Limit != 200 || page.Offset != 20 {
		t.Fatalf("unexpected page %+v", page)
	}
	page = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=-1", nil), 50, 200)
	if page.Limit != 50 || page.Offset != 0 {
		t.Fatalf("unexpected defaults %+v", page)
	}
}
