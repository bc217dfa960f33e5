package audithandler

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"empdesk/internal/domain/audit"
	"empdesk/internal/transport/http/api"
	"empdesk/internal/transport/http/middleware"
	"empdesk/internal/transport/http/shared"
)

const exportLimit = 10000

type Handler struct {
	Trail audit.Trail
}

func NewHandler(trail audit.Trail) *Handler {
	return &Handler{Trail: trail}
}

// RegisterRoutes expects to be mounted behind middleware.RequireAdmin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/", h.handleListEvents)
		r.Get("/export.csv", h.handleExportEvents)
	})
}

func parseFilter(r *http.Request) audit.Filter {
	q := r.URL.Query()
	filter := audit.Filter{Action: q.Get("action"), EntityType: q.Get("entityType")}
	if actor, err := strconv.ParseInt(q.Get("actorId"), 10, 64); err == nil && actor > 0 {
		filter.ActorID = actor
	}
	return filter
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	filter := parseFilter(r)
	includeDetails := r.URL.Query().Get("includeDetails") == "true"

	total, err := h.Trail.Count(r.Context(), filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err)
	}
	events, err := h.Trail.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		slog.Warn("audit list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

var csvHeader = []string{"id", "created_at", "actor_account_id", "action", "entity_type", "entity_id", "request_id", "ip"}

func csvRow(evt audit.Event) []string {
	actor := ""
	if evt.ActorID != nil {
		actor = strconv.FormatInt(*evt.ActorID, 10)
	}
	return []string{
		strconv.FormatInt(evt.ID, 10),
		evt.CreatedAt.UTC().Format(time.RFC3339),
		actor,
		evt.Action,
		evt.EntityType,
		evt.EntityID,
		evt.RequestID,
		evt.IP,
	}
}

// handleExportEvents streams up to exportLimit matching events, newest first.
func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Trail.List(r.Context(), parseFilter(r), false, exportLimit, 0)
	if err != nil {
		slog.Warn("audit export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, csvHeader)
	for _, evt := range events {
		rows = append(rows, csvRow(evt))
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	if err := csv.NewWriter(w).WriteAll(rows); err != nil {
		slog.Warn("audit export write failed", "err", err)
	}
}
