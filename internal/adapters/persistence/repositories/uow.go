package repositories

import (
	"context"

	"gorm.io/gorm"
)

// gormUnitOfWork runs callbacks inside a single database transaction.
type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a transactional unit of work backed by GORM.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

// Do opens a transaction and hands the callback repositories scoped to
// it. Row locks taken via the ForUpdate getters are held until the
// callback returns; a non-nil error rolls everything back.
func (u *gormUnitOfWork) Do(ctx context.Context, fn func(r *TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TxRepositories{
			Users:    NewUserRepository(tx),
			Topics:   NewTopicRepository(tx),
			Replies:  NewReplyRepository(tx),
			Payments: NewPaymentRepository(tx),
			Audits:   NewAuditLogRepository(tx),
		})
	})
}
