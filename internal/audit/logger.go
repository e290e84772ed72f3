// Package audit records a best-effort trail of authentication and admin
// events. Recording never fails the caller: storage errors are logged and
// dropped.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"storehub/backend/internal/audit/domain"
	auditrepo "storehub/backend/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context. It may be nil,
// in which case the IP is recorded as "unknown".
type IPExtractor func(context.Context) string

// Recorder writes a single audit event with explicit action/resource.
// Implementations must be safe for nil receivers in callers' eyes: services
// guard with a nil check before calling.
type Recorder interface {
	Record(ctx context.Context, userID, action, resource, metadata string)
}

// Logger implements Recorder over the audit repository.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns a Recorder that persists to repo and resolves client
// IPs with ipExtractor.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// Record writes one audit entry. Best-effort: errors are logged, not returned.
func (l *Logger) Record(ctx context.Context, userID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Str("resource", resource).Msg("audit write failed")
	}
}
