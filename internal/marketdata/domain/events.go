package domain

import (
	"context"
	"time"
)

// Action 记录变更动作
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// RecordEvent 记录变更事件，事务提交后发布
type RecordEvent struct {
	EventID    string    `json:"event_id"`
	Entity     string    `json:"entity"`
	Action     Action    `json:"action"`
	Key        int64     `json:"key"`
	Record     any       `json:"record,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher 事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, event *RecordEvent) error
}
