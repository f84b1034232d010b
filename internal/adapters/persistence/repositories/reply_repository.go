package repositories

import (
	"context"

	"medask-forum/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// replyRepository handles reply data access
type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	err := r.db.WithContext(ctx).Preload("Author").First(&reply, id).Error
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *replyRepository) ListByTopic(ctx context.Context, topicID uint) ([]*models.Reply, error) {
	var replies []*models.Reply
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("topic_id = ?", topicID).
		Order("created_at ASC").
		Find(&replies).Error
	return replies, err
}

// CountByTopicAndAuthor counts live replies by one author within one
// topic. Deleted replies no longer count against the cap.
func (r *replyRepository) CountByTopicAndAuthor(ctx context.Context, topicID, authorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reply{}).
		Where("topic_id = ? AND author_id = ?", topicID, authorID).
		Count(&count).Error
	return count, err
}

func (r *replyRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Reply{}, id).Error
}
