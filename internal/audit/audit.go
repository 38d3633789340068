package audit

import (
	"context"
	"time"
)

// Action names what the operator did. Stored as-is, filtered on verbatim.
type Action string

const (
	ActionOrderSave     Action = "order.save"
	ActionStatusChange  Action = "order.status_change"
	ActionContentUpload Action = "content.upload"
	ActionContentDelete Action = "content.delete"
	ActionLogin         Action = "auth.login"
	ActionLogout        Action = "auth.logout"
)

// Entry is one recorded operator action. Detail is free-form JSON; the
// back office never interprets it, it exists for the humans reading the log.
type Entry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	EntityID  string    `json:"entity_id"`
	Detail    []byte    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder persists operator actions. Recording failures must never block
// the action being recorded; callers log and move on.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	RecentByEntity(ctx context.Context, entityID string, limit int) ([]Entry, error)
}

// Noop satisfies Recorder for tests and for running without a database.
type Noop struct{}

func (Noop) Record(context.Context, Entry) error { return nil }

func (Noop) RecentByEntity(context.Context, string, int) ([]Entry, error) { return nil, nil }
