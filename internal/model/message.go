package model

import "time"

// Message roles. RoleFileContext marks a context-only entry that carries an
// uploaded document's text; it is never sent to the completion API as-is and
// is excluded from conversation listings.
const (
	RoleUser        = "user"
	RoleAssistant   = "assistant"
	RoleSystem      = "system"
	RoleFileContext = "file"
)

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Role      string    `gorm:"size:16;not null;index" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// KnownRole reports whether role is one the completion API accepts.
func KnownRole(role string) bool {
	return role == RoleUser || role == RoleAssistant || role == RoleSystem
}
