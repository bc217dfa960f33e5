package authhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"empdesk/internal/domain/audit"
	"empdesk/internal/domain/auth"
	"empdesk/internal/transport/http/api"
	"empdesk/internal/transport/http/middleware"
	"empdesk/internal/transport/http/shared"
)

const (
	msgRegistered      = "Registered successfully. Please wait for admin approval."
	msgPasswordsDiffer = "Passwords do not match"
	msgEmailTaken      = "Email already registered"
	msgInvalidLogin    = "Invalid email or password."
	msgNoProfile       = "No profile found. Contact admin."
	msgNotApproved     = "Your account is not approved yet. Please wait for admin approval."
	msgUnregistered    = "This email is not registered. Please register first."
	msgResetSent       = "We've emailed you instructions for setting your password, if an account exists with the email you entered."
	msgResetComplete   = "Your password has been set. You may go ahead and log in now."
	msgInvalidResetURL = "The password reset link was invalid, possibly because it has already been used."
)

type Handler struct {
	Service      *auth.Service
	Audit        audit.Trail
	BaseURL      string
	CookieSecure bool
}

func NewHandler(service *auth.Service, trail audit.Trail, baseURL string, cookieSecure bool) *Handler {
	return &Handler{Service: service, Audit: trail, BaseURL: baseURL, CookieSecure: cookieSecure}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/register/", h.handleRegisterForm)
	r.Post("/register/", h.handleRegister)
	r.Get("/login/", h.handleLoginForm)
	r.Post("/login/", h.handleLogin)
	r.Get("/logout/", h.handleLogout)
	r.Post("/logout/", h.handleLogout)
	r.Post("/reset-password/", h.handleRequestReset)
	r.Get("/password_reset/done/", h.handleResetRequested)
	r.Get("/reset/done/", h.handleResetComplete)
	r.Get("/reset/{token}/", h.handleResetForm)
	r.Post("/reset/{token}/", h.handleResetConfirm)
}

type registerRequest struct {
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

func (h *Handler) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]any{"fields": []string{"email", "password1", "password2"}}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload registerRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password1", payload.Password1, "is required")
	v.Required("password2", payload.Password2, "is required")
	if v.Reject(w, reqID) {
		return
	}

	account, err := h.Service.Register(r.Context(), payload.Email, payload.Password1, payload.Password2)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, account.ID, audit.ActionAccountRegistered, "account", strconv.FormatInt(account.ID, 10), nil, account)
	api.Created(w, map[string]any{"account": account, "message": msgRegistered}, reqID)
}

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	_, authenticated := middleware.GetUser(r.Context())
	api.Success(w, map[string]any{"authenticated": authenticated}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	session, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	api.Success(w, session, reqID)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok {
		if err := h.Service.Logout(r.Context(), user); err != nil {
			slog.Warn("logout session revoke failed", "accountId", user.AccountID, "err", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	api.Success(w, map[string]string{"status": "logged_out", "next": "/login/"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload resetRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	if _, err := h.Service.RequestPasswordReset(r.Context(), payload.Email, h.BaseURL); err != nil {
		writeAuthError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "reset_requested", "next": "/password_reset/done/"}, reqID)
}

func (h *Handler) handleResetRequested(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"message": msgResetSent}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResetForm(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]any{"fields": []string{"password1", "password2"}}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload resetConfirmRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	accountID, err := h.Service.ResetPassword(r.Context(), chi.URLParam(r, "token"), payload.Password1, payload.Password2)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, accountID, audit.ActionPasswordReset, "account", strconv.FormatInt(accountID, 10), nil, nil)
	api.Success(w, map[string]string{"status": "password_reset", "next": "/reset/done/"}, reqID)
}

func (h *Handler) handleResetComplete(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"message": msgResetComplete, "next": "/login/"}, middleware.GetRequestID(r.Context()))
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var weak *auth.WeakPasswordError
	switch {
	case errors.As(err, &weak):
		api.FailWithDetails(w, http.StatusBadRequest, "weak_password", "password does not meet the policy", map[string]any{"problems": weak.Problems}, reqID)
	case errors.Is(err, auth.ErrPasswordMismatch):
		api.Fail(w, http.StatusBadRequest, "password_mismatch", msgPasswordsDiffer, reqID)
	case errors.Is(err, auth.ErrInvalidEmail):
		shared.FailValidation(w, reqID, "payload validation failed", []shared.ValidationIssue{{Field: "email", Reason: "must be a valid email address"}})
	case errors.Is(err, auth.ErrDuplicateAccount):
		api.Fail(w, http.StatusConflict, "account_exists", msgEmailTaken, reqID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", msgInvalidLogin, reqID)
	case errors.Is(err, auth.ErrProfileMissing):
		api.Fail(w, http.StatusForbidden, "profile_missing", msgNoProfile, reqID)
	case errors.Is(err, auth.ErrNotApproved):
		api.Fail(w, http.StatusForbidden, "not_approved", msgNotApproved, reqID)
	case errors.Is(err, auth.ErrUnregisteredEmail):
		api.Fail(w, http.StatusBadRequest, "unregistered_email", msgUnregistered, reqID)
	case errors.Is(err, auth.ErrInvalidResetToken):
		api.Fail(w, http.StatusBadRequest, "invalid_reset_token", msgInvalidResetURL, reqID)
	default:
		slog.Warn("auth request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
	}
}
