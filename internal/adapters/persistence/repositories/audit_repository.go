package repositories

import (
	"context"

	"medask-forum/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// auditLogRepository handles audit log data access
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) ListByTopic(ctx context.Context, topicID uint) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	err := r.db.WithContext(ctx).
		Preload("Performer").
		Where("topic_id = ?", topicID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *auditLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	err := r.db.WithContext(ctx).
		Preload("Performer").
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
