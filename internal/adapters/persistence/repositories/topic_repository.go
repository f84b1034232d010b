package repositories

import (
	"context"
	"time"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// topicRepository handles topic data access
type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository creates a new topic repository
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *topicRepository) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("AssignedExpert").
		Preload("Category").
		First(&topic, id).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// GetByIDForUpdate locks the topic row for the remainder of the enclosing
// transaction. Every reply-cap check and status transition goes through
// this lock, which is what makes concurrent submissions on the same topic
// serialize instead of racing.
func (r *topicRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&topic, id).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicRepository) CountOpenByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Topic{}).
		Where("author_id = ? AND status = ?", authorID, domain.StatusOpen).
		Count(&count).Error
	return count, err
}

func (r *topicRepository) List(ctx context.Context, status string, categoryID uint, offset, limit int) ([]*models.Topic, int64, error) {
	var topics []*models.Topic
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Topic{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if categoryID != 0 {
		query = query.Where("category_id = ?", categoryID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Author").
		Preload("AssignedExpert").
		Preload("Category").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&topics).Error

	return topics, total, err
}

func (r *topicRepository) ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]*models.Topic, int64, error) {
	var topics []*models.Topic
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Topic{}).Where("author_id = ?", authorID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("AssignedExpert").
		Preload("Category").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&topics).Error

	return topics, total, err
}

// ListOpenSince returns OPEN topics created before the cutoff, used by the
// unanswered-topic reminder job.
func (r *topicRepository) ListOpenSince(ctx context.Context, cutoff time.Time) ([]*models.Topic, error) {
	var topics []*models.Topic
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Where("status = ? AND created_at < ?", domain.StatusOpen, cutoff).
		Order("created_at ASC").
		Find(&topics).Error
	return topics, err
}

func (r *topicRepository) Update(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Save(topic).Error
}
