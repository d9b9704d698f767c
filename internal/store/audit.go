package store

import (
	"context"

	"stock-service/internal/domain"
)

const MaxAuditLimit = 1000

func (s *Store) AppendAudit(ctx context.Context, e domain.AuditEntry) error {
	rec := auditModel{
		UserID:    e.UserID,
		Action:    string(e.Action),
		Details:   e.Details,
		CreatedAt: now(),
	}
	return wrap("append audit", s.db.WithContext(ctx).Create(&rec).Error)
}

// ListAudit returns the newest entries first, optionally for one user.
func (s *Store) ListAudit(ctx context.Context, limit int, userID *int64) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > MaxAuditLimit {
		limit = 100
	}
	q := s.db.WithContext(ctx).
		Table("audit_logs AS a").
		Select("a.log_id, a.user_id, u.username, a.action, a.details, a.created_at").
		Joins("LEFT JOIN users AS u ON u.user_id = a.user_id")
	if userID != nil {
		q = q.Where("a.user_id = ?", *userID)
	}

	var rows []auditRow
	if err := q.Order("a.created_at DESC, a.log_id DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, wrap("list audit", err)
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainAudit(r))
	}
	return out, nil
}
