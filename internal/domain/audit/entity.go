package audit

import (
	"time"

	"github.com/google/uuid"
)

// Log は監査ログのエントリを表す
type Log struct {
	ID         string
	ActorEmail string
	Action     string
	EntityType string
	EntityID   string
	Details    string
	CreatedAt  time.Time
}

// NewLog は新しい監査ログエントリを作成する
func NewLog(actorEmail, action, entityType, entityID, details string) *Log {
	return &Log{
		ID:         uuid.NewString(),
		ActorEmail: actorEmail,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
}
