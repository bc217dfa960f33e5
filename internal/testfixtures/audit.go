package testfixtures

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"empdesk/internal/domain/audit"
)

// AuditTrail is an in-memory audit.Trail.
type AuditTrail struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *AuditTrail) Record(_ context.Context, actorID int64, action, entityType, entityID, requestID, ip string, before, after any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	evt := audit.Event{
		ID:         int64(len(a.events) + 1),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
		IP:         ip,
		CreatedAt:  time.Now(),
	}
	if actorID > 0 {
		id := actorID
		evt.ActorID = &id
	}
	if before != nil {
		evt.Before, _ = json.Marshal(before)
	}
	if after != nil {
		evt.After, _ = json.Marshal(after)
	}
	a.events = append(a.events, evt)
	return nil
}

func (a *AuditTrail) matching(filter audit.Filter) []audit.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []audit.Event
	for i := len(a.events) - 1; i >= 0; i-- {
		evt := a.events[i]
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.ActorID > 0 && (evt.ActorID == nil || *evt.ActorID != filter.ActorID) {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func (a *AuditTrail) List(_ context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	events := a.matching(filter)
	if offset >= len(events) {
		return nil, nil
	}
	events = events[offset:]
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	if !includeDetails {
		for i := range events {
			events[i].Before = nil
			events[i].After = nil
		}
	}
	return events, nil
}

func (a *AuditTrail) Count(_ context.Context, filter audit.Filter) (int, error) {
	return len(a.matching(filter)), nil
}

// Actions lists recorded actions oldest first, for assertions.
func (a *AuditTrail) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, evt := range a.events {
		out = append(out, evt.Action+":"+evt.EntityType+":"+evt.EntityID)
	}
	return out
}

func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
