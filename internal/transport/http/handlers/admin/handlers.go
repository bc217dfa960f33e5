package adminhandler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"empdesk/internal/domain/audit"
	"empdesk/internal/domain/auth"
	"empdesk/internal/domain/employee"
	"empdesk/internal/domain/support"
	"empdesk/internal/transport/http/api"
	"empdesk/internal/transport/http/middleware"
	"empdesk/internal/transport/http/shared"
)

// Handler serves the privileged management surface. Callers mount it behind
// middleware.RequireAdmin.
type Handler struct {
	Accounts  *auth.Service
	Employees *employee.Service
	Support   *support.Service
	Audit     audit.Trail
	Now       func() time.Time
}

func NewHandler(accounts *auth.Service, employees *employee.Service, supportSvc *support.Service, trail audit.Trail) *Handler {
	return &Handler{Accounts: accounts, Employees: employees, Support: supportSvc, Audit: trail, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/accounts/", h.handleListAccounts)
	r.Post("/accounts/{accountID}/approval/", h.handleSetApproval)

	r.Get("/employees/", h.handleListEmployees)
	r.Get("/employees/export.pdf", h.handleExportEmployees)
	r.Delete("/employees/{accountID}/{employeeID}/", h.handleDeleteEmployee)

	r.Get("/tickets/", h.handleListTickets)
	r.Post("/tickets/{ticketID}/resolve/", h.handleResolveTicket)
	r.Post("/tickets/{ticketID}/resolution/", h.handleTicketResolution)

	r.Get("/guest-tickets/", h.handleListGuestTickets)
	r.Post("/guest-tickets/{ticketID}/resolve/", h.handleResolveGuestTicket)
	r.Post("/guest-tickets/{ticketID}/resolution/", h.handleGuestTicketResolution)
}

type approvalRequest struct {
	Approved *bool `json:"approved"`
}

type resolutionRequest struct {
	Resolved *bool `json:"resolved"`
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.ListAccounts(r.Context(), auth.AccountFilter{
		Query:    r.URL.Query().Get("q"),
		Approved: shared.QueryBool(r, "approved"),
	})
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(accounts)))
	api.Success(w, accounts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	accountID, ok := shared.PathID(r, "accountID")
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "account not found", reqID)
		return
	}
	var payload approvalRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.Approved == nil {
		shared.FailValidation(w, reqID, "payload validation failed", []shared.ValidationIssue{{Field: "approved", Reason: "is required"}})
		return
	}

	before, err := h.Accounts.Account(r.Context(), accountID)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	account, err := h.Accounts.SetApproved(r.Context(), accountID, *payload.Approved)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, actor.AccountID, audit.ActionAccountApproval, "account", strconv.FormatInt(accountID, 10),
		map[string]bool{"approved": before.Approved}, map[string]bool{"approved": account.Approved})
	api.Success(w, account, reqID)
}

func (h *Handler) employeeFilter(r *http.Request) employee.Filter {
	q := r.URL.Query()
	return employee.Filter{Query: q.Get("q"), Department: q.Get("department"), Designation: q.Get("designation")}
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.Search(r.Context(), h.employeeFilter(r))
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(employees)))
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.Search(r.Context(), h.employeeFilter(r))
	if err != nil {
		writeAdminError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := employee.RenderDirectoryPDF(&buf, employees, h.Now()); err != nil {
		slog.Warn("employee directory export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export employee directory", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=employee-directory.pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("employee directory write failed", "err", err)
	}
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	accountID, okAccount := shared.PathID(r, "accountID")
	employeeID, okEmployee := shared.PathID(r, "employeeID")
	if !okAccount || !okEmployee {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
		return
	}
	deleted, err := h.Employees.DeleteByID(r.Context(), accountID, employeeID)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, actor.AccountID, audit.ActionEmployeeDeleted, "employee", strconv.FormatInt(deleted.ID, 10), deleted, nil)
	api.Success(w, deleted, reqID)
}

func (h *Handler) ticketFilter(r *http.Request) support.Filter {
	return support.Filter{Resolved: shared.QueryBool(r, "resolved"), Query: r.URL.Query().Get("q")}
}

func (h *Handler) handleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Support.ListTickets(r.Context(), h.ticketFilter(r))
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(tickets)))
	api.Success(w, tickets, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResolveTicket(w http.ResponseWriter, r *http.Request) {
	h.setTicketResolved(w, r, true)
}

func (h *Handler) handleTicketResolution(w http.ResponseWriter, r *http.Request) {
	resolved, ok := decodeResolution(w, r)
	if !ok {
		return
	}
	h.setTicketResolved(w, r, resolved)
}

func (h *Handler) setTicketResolved(w http.ResponseWriter, r *http.Request, resolved bool) {
	actor, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	ticketID, ok := shared.PathID(r, "ticketID")
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "ticket not found", reqID)
		return
	}
	ticket, changed, err := h.Support.SetResolved(r.Context(), ticketID, resolved)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	if changed {
		shared.RecordAudit(r, h.Audit, actor.AccountID, audit.ActionTicketResolution, "support_ticket", strconv.FormatInt(ticketID, 10),
			map[string]bool{"resolved": !resolved}, map[string]bool{"resolved": resolved})
	}
	api.Success(w, map[string]any{"ticket": ticket, "changed": changed}, reqID)
}

func (h *Handler) handleListGuestTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Support.ListGuestTickets(r.Context(), h.ticketFilter(r))
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(tickets)))
	api.Success(w, tickets, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResolveGuestTicket(w http.ResponseWriter, r *http.Request) {
	h.setGuestTicketResolved(w, r, true)
}

func (h *Handler) handleGuestTicketResolution(w http.ResponseWriter, r *http.Request) {
	resolved, ok := decodeResolution(w, r)
	if !ok {
		return
	}
	h.setGuestTicketResolved(w, r, resolved)
}

func (h *Handler) setGuestTicketResolved(w http.ResponseWriter, r *http.Request, resolved bool) {
	actor, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	ticketID, ok := shared.PathID(r, "ticketID")
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "ticket not found", reqID)
		return
	}
	ticket, changed, err := h.Support.SetGuestResolved(r.Context(), ticketID, resolved)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	if changed {
		shared.RecordAudit(r, h.Audit, actor.AccountID, audit.ActionGuestResolution, "guest_support_ticket", strconv.FormatInt(ticketID, 10),
			map[string]bool{"resolved": !resolved}, map[string]bool{"resolved": resolved})
	}
	api.Success(w, map[string]any{"ticket": ticket, "changed": changed}, reqID)
}

func decodeResolution(w http.ResponseWriter, r *http.Request) (bool, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload resolutionRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return false, false
	}
	if payload.Resolved == nil {
		shared.FailValidation(w, reqID, "payload validation failed", []shared.ValidationIssue{{Field: "resolved", Reason: "is required"}})
		return false, false
	}
	return *payload.Resolved, true
}

func writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "account not found", reqID)
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, support.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "ticket not found", reqID)
	default:
		slog.Warn("admin request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
	}
}
