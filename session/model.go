package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is one login's server-side record. A row whose ExpiresAt is not
// after the current time is dead even if it has not been swept yet.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName pins the table to "session".
func (Session) TableName() string {
	return "session"
}
