package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ActionAccountRegistered = "account.registered"
	ActionAccountApproval   = "account.approval"
	ActionPasswordReset     = "account.password_reset"
	ActionEmployeeCreated   = "employee.created"
	ActionEmployeeUpdated   = "employee.updated"
	ActionEmployeeDeleted   = "employee.deleted"
	ActionTicketResolution  = "ticket.resolution"
	ActionGuestResolution   = "guest_ticket.resolution"
)

type Event struct {
	ID         int64           `json:"id"`
	ActorID    *int64          `json:"actorId,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    int64
}

// Trail is what handlers need from the audit log.
type Trail interface {
	Record(ctx context.Context, actorID int64, action, entityType, entityID, requestID, ip string, before, after any) error
	List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error)
	Count(ctx context.Context, filter Filter) (int, error)
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func marshalSnapshot(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

// Record stores one event; actorID 0 means an anonymous or system actor.
func (s *Service) Record(ctx context.Context, actorID int64, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := marshalSnapshot(before)
	if err != nil {
		return fmt.Errorf("audit before snapshot: %w", err)
	}
	afterJSON, err := marshalSnapshot(after)
	if err != nil {
		return fmt.Errorf("audit after snapshot: %w", err)
	}

	var actor *int64
	if actorID > 0 {
		actor = &actorID
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_account_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES (@actor, @action, @entityType, @entityID, @before, @after, @requestID, @ip)
  `, pgx.NamedArgs{
		"actor":      actor,
		"action":     action,
		"entityType": entityType,
		"entityID":   entityID,
		"before":     beforeJSON,
		"after":      afterJSON,
		"requestID":  requestID,
		"ip":         ip,
	})
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.where()
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events"+where, args).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns matching events newest first. Snapshots are loaded only when
// includeDetails is set.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	cols := "id, actor_account_id, action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		cols += ", before_json, after_json"
	}
	where, args := filter.where()
	args["limit"] = limit
	args["offset"] = offset

	rows, err := s.DB.Query(ctx, "SELECT "+cols+" FROM audit_events"+where+
		" ORDER BY created_at DESC, id DESC LIMIT @limit OFFSET @offset", args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		err := row.Scan(dest...)
		return evt, err
	})
}

// where renders the filter as a WHERE clause over named arguments.
func (f Filter) where() (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{}
	var conds []string
	if f.Action != "" {
		conds = append(conds, "action = @action")
		args["action"] = f.Action
	}
	if f.EntityType != "" {
		conds = append(conds, "entity_type = @entityType")
		args["entityType"] = f.EntityType
	}
	if f.ActorID > 0 {
		conds = append(conds, "actor_account_id = @actorID")
		args["actorID"] = f.ActorID
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
