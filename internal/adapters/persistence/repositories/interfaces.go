package repositories

import (
	"context"
	"time"

	"medask-forum/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ListExperts(ctx context.Context) ([]*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// CategoryRepository defines category master-data repository interface
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByCode(ctx context.Context, code string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

// TopicRepository defines topic repository interface.
// GetByIDForUpdate takes a row lock and is only meaningful inside a
// unit-of-work transaction; it is the serialization point for every
// check-then-write sequence on a topic.
type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) error
	GetByID(ctx context.Context, id uint) (*models.Topic, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Topic, error)
	CountOpenByAuthor(ctx context.Context, authorID uint) (int64, error)
	List(ctx context.Context, status string, categoryID uint, offset, limit int) ([]*models.Topic, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]*models.Topic, int64, error)
	ListOpenSince(ctx context.Context, cutoff time.Time) ([]*models.Topic, error)
	Update(ctx context.Context, topic *models.Topic) error
}

// ReplyRepository defines reply repository interface
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	ListByTopic(ctx context.Context, topicID uint) ([]*models.Reply, error)
	CountByTopicAndAuthor(ctx context.Context, topicID, authorID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

// PaymentRepository defines payment record repository interface
type PaymentRepository interface {
	Create(ctx context.Context, record *models.PaymentRecord) error
	GetByID(ctx context.Context, id uint) (*models.PaymentRecord, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.PaymentRecord, error)
	GetByReference(ctx context.Context, reference string) (*models.PaymentRecord, error)
	GetActiveByUser(ctx context.Context, userID uint) (*models.PaymentRecord, error)
	GetActiveByUserForUpdate(ctx context.Context, userID uint) (*models.PaymentRecord, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.PaymentRecord, error)
	Update(ctx context.Context, record *models.PaymentRecord) error
	CancelPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditLogRepository defines audit log repository interface
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByTopic(ctx context.Context, topicID uint) ([]*models.AuditLog, error)
	ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error)
}

// TxRepositories bundles transaction-scoped repositories handed to a
// unit-of-work callback. Everything accessed through it shares one
// database transaction.
type TxRepositories struct {
	Users    UserRepository
	Topics   TopicRepository
	Replies  ReplyRepository
	Payments PaymentRepository
	Audits   AuditLogRepository
}

// UnitOfWork runs a function atomically: either every write inside the
// callback commits, or none do. Check-then-write sequences (reply cap,
// credit consumption) must go through here, never through bare repos.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r *TxRepositories) error) error
}
