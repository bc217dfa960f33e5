package supporthandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"empdesk/internal/domain/auth"
	"empdesk/internal/domain/employee"
	"empdesk/internal/domain/support"
	"empdesk/internal/transport/http/api"
	"empdesk/internal/transport/http/middleware"
	"empdesk/internal/transport/http/shared"
)

const msgSubmitted = "Your support request has been submitted!"

type Handler struct {
	Service   *support.Service
	Employees *employee.Service
}

func NewHandler(service *support.Service, employees *employee.Service) *Handler {
	return &Handler{Service: service, Employees: employees}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireLogin).Get("/help_support/", h.handleListOwn)
	r.With(middleware.RequireLogin).Post("/help_support/", h.handleSubmit)
	r.Get("/guest-help-support/", h.handleGuestForm)
	r.Post("/guest-help-support/", h.handleGuestSubmit)
}

type ticketRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type guestTicketRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *Handler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	tickets, err := h.Service.ListForAccount(r.Context(), user.AccountID)
	if err != nil {
		writeSupportError(w, r, err)
		return
	}
	api.Success(w, map[string]any{
		"fields":  []string{"subject", "message"},
		"tickets": tickets,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload ticketRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	ticket, err := h.Service.Submit(r.Context(), support.Submitter{
		AccountID:   user.AccountID,
		Email:       user.Email,
		DisplayName: h.displayName(r, user),
	}, payload.Subject, payload.Message)
	if err != nil {
		writeSupportError(w, r, err)
		return
	}
	api.Created(w, map[string]any{"ticket": ticket, "message": msgSubmitted}, reqID)
}

// displayName prefers the caller's employee record name over the email-derived one.
func (h *Handler) displayName(r *http.Request, user auth.UserContext) string {
	if h.Employees != nil {
		emp, err := h.Employees.GetByAccount(r.Context(), user.AccountID)
		if err == nil && emp.FullName() != "" {
			return emp.FullName()
		}
		if err != nil && !errors.Is(err, employee.ErrNotFound) {
			slog.Warn("ticket submitter lookup failed", "accountId", user.AccountID, "err", err)
		}
	}
	return auth.DisplayName(user.Email)
}

func (h *Handler) handleGuestForm(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]any{"fields": []string{"email", "subject", "message"}}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGuestSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload guestTicketRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	ticket, err := h.Service.SubmitGuest(r.Context(), payload.Email, payload.Subject, payload.Message)
	if err != nil {
		writeSupportError(w, r, err)
		return
	}
	api.Created(w, map[string]any{"ticket": ticket, "message": msgSubmitted}, reqID)
}

func writeSupportError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var verr *support.ValidationError
	switch {
	case errors.As(err, &verr):
		issues := make([]shared.ValidationIssue, 0, len(verr.Issues))
		for _, issue := range verr.Issues {
			issues = append(issues, shared.ValidationIssue{Field: issue.Field, Reason: issue.Reason})
		}
		shared.FailValidation(w, reqID, "payload validation failed", issues)
	case errors.Is(err, support.ErrUnauthorized):
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
	case errors.Is(err, support.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "ticket not found", reqID)
	default:
		slog.Warn("support request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
	}
}
