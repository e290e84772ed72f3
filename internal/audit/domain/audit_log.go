package domain

import "time"

// AuditLog represents one recorded auth or admin event.
type AuditLog struct {
	ID        string
	UserID    string // empty for events with no resolved identity (e.g. failed login)
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
