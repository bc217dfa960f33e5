package shared

import (
	"net/http"

	"empdesk/internal/domain/audit"
	"empdesk/internal/platform/logging"
	"empdesk/internal/platform/requestctx"
)

func ClientIP(r *http.Request) string {
	return requestctx.GetClientIP(r.Context())
}

// RecordAudit writes an audit event for the request. Failures are logged and
// never fail the request.
func RecordAudit(r *http.Request, trail audit.Trail, actorID int64, action, entityType, entityID string, before, after any) {
	if trail == nil {
		return
	}
	ctx := r.Context()
	if err := trail.Record(ctx, actorID, action, entityType, entityID, requestctx.GetRequestID(ctx), ClientIP(r), before, after); err != nil {
		logging.FromContext(ctx).Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
