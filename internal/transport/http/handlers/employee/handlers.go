package employeehandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"empdesk/internal/domain/audit"
	"empdesk/internal/domain/auth"
	"empdesk/internal/domain/employee"
	"empdesk/internal/transport/http/api"
	"empdesk/internal/transport/http/middleware"
	"empdesk/internal/transport/http/shared"
)

const (
	msgAlreadyAdded  = "You have already added your details. You can edit or delete them instead."
	msgMissingFields = "Please fill all required fields."
	msgAdded         = "Employee added successfully."
	msgNotAddedYet   = "You have not added your employee details yet."
	msgOwnDeleted    = "Your employee record was deleted successfully."
	msgUpdated       = "Your details have been updated successfully."
	msgEmailTaken    = "Email already exists. Please use a different one."
	msgPhoneTaken    = "Phone number already exists. Please use a different one."
	msgDeleted       = "Employee deleted successfully."
)

var createFields = []string{"firstName", "lastName", "gender", "phone", "email", "address", "department", "designation", "joiningDate"}

type Handler struct {
	Service *employee.Service
	Audit   audit.Trail
}

func NewHandler(service *employee.Service, trail audit.Trail) *Handler {
	return &Handler{Service: service, Audit: trail}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/home/", h.handleHome)
	r.Post("/home/", h.handleHome)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin)
		r.Get("/add-emp/", h.handleAddForm)
		r.Post("/add-emp/", h.handleAdd)
		r.Get("/view-emp/", h.handleList)
		r.Get("/update-emp/", h.handleGetOwn)
		r.Post("/update-emp/", h.handleUpdateOrDelete)
		r.Post("/delete-emp/{employeeID}/", h.handleDeleteByID)
	})
}

type homeResponse struct {
	TotalEmployees int                `json:"totalEmployees"`
	DisplayName    string             `json:"displayName"`
	Employee       *employee.Employee `json:"employee"`
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	total, err := h.Service.Count(r.Context())
	if err != nil {
		slog.Warn("employee count failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
		return
	}

	resp := homeResponse{TotalEmployees: total, DisplayName: "Guest"}
	if user, ok := middleware.GetUser(r.Context()); ok {
		resp.DisplayName = auth.DisplayName(user.Email)
		emp, err := h.Service.GetByAccount(r.Context(), user.AccountID)
		switch {
		case err == nil:
			resp.Employee = &emp
		case !errors.Is(err, employee.ErrNotFound):
			slog.Warn("home employee lookup failed", "accountId", user.AccountID, "err", err)
		}
	}
	api.Success(w, resp, reqID)
}

func (h *Handler) handleAddForm(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	if _, err := h.Service.GetByAccount(r.Context(), user.AccountID); err == nil {
		failAlreadyAdded(w, reqID)
		return
	} else if !errors.Is(err, employee.ErrNotFound) {
		writeEmployeeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"canAdd": true, "fields": createFields}, reqID)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload employee.CreateInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	emp, err := h.Service.Create(r.Context(), user.AccountID, payload)
	if err != nil {
		writeEmployeeError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, user.AccountID, audit.ActionEmployeeCreated, "employee", strconv.FormatInt(emp.ID, 10), nil, emp)
	api.Created(w, map[string]any{"employee": emp, "message": msgAdded}, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.List(r.Context())
	if err != nil {
		writeEmployeeError(w, r, err)
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.GetByAccount(r.Context(), user.AccountID)
	if err != nil {
		writeEmployeeError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

type updateRequest struct {
	Action      string `json:"action"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
}

func (h *Handler) handleUpdateOrDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload updateRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	action := strings.ToLower(strings.TrimSpace(payload.Action))
	if action == "" {
		action = "update"
	}
	v := shared.NewValidator()
	v.Enum("action", action, []string{"update", "delete"}, "must be update or delete")
	if v.Reject(w, reqID) {
		return
	}

	if action == "delete" {
		deleted, err := h.Service.DeleteOwn(r.Context(), user.AccountID)
		if err != nil {
			writeEmployeeError(w, r, err)
			return
		}
		shared.RecordAudit(r, h.Audit, user.AccountID, audit.ActionEmployeeDeleted, "employee", strconv.FormatInt(deleted.ID, 10), deleted, nil)
		api.Success(w, map[string]string{"message": msgOwnDeleted, "next": "/home/"}, reqID)
		return
	}

	before, after, err := h.Service.Update(r.Context(), user.AccountID, employee.UpdateInput{
		Phone:       payload.Phone,
		Email:       payload.Email,
		Address:     payload.Address,
		Department:  payload.Department,
		Designation: payload.Designation,
	})
	if err != nil {
		writeEmployeeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user.AccountID, audit.ActionEmployeeUpdated, "employee", strconv.FormatInt(after.ID, 10), before, after)
	api.Success(w, map[string]any{"employee": after, "message": msgUpdated}, reqID)
}

func (h *Handler) handleDeleteByID(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	employeeID, ok := shared.PathID(r, "employeeID")
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
		return
	}
	deleted, err := h.Service.DeleteByID(r.Context(), user.AccountID, employeeID)
	if err != nil {
		writeEmployeeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user.AccountID, audit.ActionEmployeeDeleted, "employee", strconv.FormatInt(deleted.ID, 10), deleted, nil)
	api.Success(w, map[string]string{"message": msgDeleted, "next": "/view-emp/"}, reqID)
}

func failAlreadyAdded(w http.ResponseWriter, reqID string) {
	api.FailWithDetails(w, http.StatusConflict, "employee_exists", msgAlreadyAdded, map[string]any{"next": "/view-emp/"}, reqID)
}

func writeEmployeeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var verr *employee.ValidationError
	switch {
	case errors.As(err, &verr):
		issues := make([]shared.ValidationIssue, 0, len(verr.Issues))
		for _, issue := range verr.Issues {
			issues = append(issues, shared.ValidationIssue{Field: issue.Field, Reason: issue.Reason})
		}
		shared.FailValidation(w, reqID, msgMissingFields, issues)
	case errors.Is(err, employee.ErrAlreadyExists):
		failAlreadyAdded(w, reqID)
	case errors.Is(err, employee.ErrDuplicateEmail):
		api.Fail(w, http.StatusConflict, "duplicate_email", msgEmailTaken, reqID)
	case errors.Is(err, employee.ErrDuplicatePhone):
		api.Fail(w, http.StatusConflict, "duplicate_phone", msgPhoneTaken, reqID)
	case errors.Is(err, employee.ErrNotFound):
		if r.URL.Path == "/update-emp/" {
			api.Fail(w, http.StatusNotFound, "employee_missing", msgNotAddedYet, reqID)
			return
		}
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	default:
		slog.Warn("employee request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
	}
}
