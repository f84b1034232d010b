package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/adapters/persistence/repositories"
	"medask-forum/internal/core/domain"

	"github.com/google/uuid"
)

// Credit service errors
var (
	ErrPaymentNotFound    = errors.New("payment record not found")
	ErrAlreadyRefunded    = errors.New("payment record already refunded")
	ErrRefundNotPossible  = errors.New("payment record cannot be refunded")
	ErrDuplicateReference = errors.New("payment reference already confirmed")
)

// CreditService manages the posting-credit ledger: confirmation of
// external payments, moderator grants and refunds, and the consumption
// step performed inside topic creation.
type CreditService struct {
	uow         repositories.UnitOfWork
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
	notify      *NotificationService
}

// NewCreditService creates a new credit service
func NewCreditService(
	uow repositories.UnitOfWork,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	notify *NotificationService,
) *CreditService {
	return &CreditService{
		uow:         uow,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		notify:      notify,
	}
}

// ConfirmPaymentInput represents a payment-provider confirmation callback
type ConfirmPaymentInput struct {
	Reference string  `json:"reference" validate:"required"`
	UserID    uint    `json:"user_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Posts     int     `json:"posts" validate:"required,gt=0"`
}

// ConfirmPayment records a confirmed external payment as an active credit
// bundle. Idempotent on the external reference: replayed webhooks return
// the existing record untouched.
func (s *CreditService) ConfirmPayment(ctx context.Context, input *ConfirmPaymentInput) (*models.PaymentRecord, error) {
	var record *models.PaymentRecord

	err := s.uow.Do(ctx, func(r *repositories.TxRepositories) error {
		existing, err := r.Payments.GetByReference(ctx, input.Reference)
		if err == nil {
			record = existing
			return nil
		}
		if !isNotFound(err) {
			return wrapStore(err)
		}

		user, err := r.Users.GetByIDForUpdate(ctx, input.UserID)
		if err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return wrapStore(err)
		}

		record = &models.PaymentRecord{
			UserID:         input.UserID,
			Reference:      input.Reference,
			Amount:         input.Amount,
			PostsRemaining: input.Posts,
			Status:         models.PaymentStatusActive,
		}
		if err := r.Payments.Create(ctx, record); err != nil {
			return wrapStore(err)
		}

		if !user.CanPost {
			user.CanPost = true
			if err := r.Users.Update(ctx, user); err != nil {
				return wrapStore(err)
			}
		}

		return r.Audits.Create(ctx, &models.AuditLog{
			ActionType:      models.ActionPaymentConfirm,
			PaymentRecordID: &record.ID,
			Description:     fmt.Sprintf("payment %s confirmed: %d posts", input.Reference, input.Posts),
			PerformedBy:     input.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		if user, uerr := s.userRepo.GetByID(ctx, input.UserID); uerr == nil {
			s.notify.NotifyPaymentConfirmed(user.Email, input.Posts, input.Amount)
		}
	}

	return record, nil
}

// GrantInput represents a moderator credit grant
type GrantInput struct {
	UserID uint   `json:"user_id" validate:"required"`
	Posts  int    `json:"posts" validate:"required,gt=0"`
	Remark string `json:"remark,omitempty"`
}

// Grant creates an active zero-amount credit bundle by moderator action.
func (s *CreditService) Grant(ctx context.Context, input *GrantInput, adminID uint, ipAddress string) (*models.PaymentRecord, error) {
	var record *models.PaymentRecord

	err := s.uow.Do(ctx, func(r *repositories.TxRepositories) error {
		user, err := r.Users.GetByIDForUpdate(ctx, input.UserID)
		if err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return wrapStore(err)
		}

		record = &models.PaymentRecord{
			UserID:         input.UserID,
			Reference:      "grant-" + uuid.New().String(),
			Amount:         0,
			PostsRemaining: input.Posts,
			Status:         models.PaymentStatusActive,
		}
		if err := r.Payments.Create(ctx, record); err != nil {
			return wrapStore(err)
		}

		if !user.CanPost {
			user.CanPost = true
			if err := r.Users.Update(ctx, user); err != nil {
				return wrapStore(err)
			}
		}

		return r.Audits.Create(ctx, &models.AuditLog{
			ActionType:      models.ActionCreditGrant,
			PaymentRecordID: &record.ID,
			Description:     input.Remark,
			PerformedBy:     adminID,
			IPAddress:       ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("granted %d posts to user %d", input.Posts, input.UserID)
	return record, nil
}

// Refund marks a record refunded and zeroes its remaining credit. The
// account's can_post flag is recomputed from whatever active records are
// left, in the same transaction.
func (s *CreditService) Refund(ctx context.Context, recordID uint, adminID uint, ipAddress string) (*models.PaymentRecord, error) {
	var record *models.PaymentRecord

	err := s.uow.Do(ctx, func(r *repositories.TxRepositories) error {
		var err error
		record, err = r.Payments.GetByIDForUpdate(ctx, recordID)
		if err != nil {
			if isNotFound(err) {
				return ErrPaymentNotFound
			}
			return wrapStore(err)
		}

		switch record.Status {
		case models.PaymentStatusRefunded:
			return ErrAlreadyRefunded
		case models.PaymentStatusCancelled:
			return ErrRefundNotPossible
		}

		record.Status = models.PaymentStatusRefunded
		record.PostsRemaining = 0
		if err := r.Payments.Update(ctx, record); err != nil {
			return wrapStore(err)
		}

		user, err := r.Users.GetByIDForUpdate(ctx, record.UserID)
		if err != nil {
			return wrapStore(err)
		}
		if err := refreshCanPost(ctx, r, user); err != nil {
			return err
		}

		return r.Audits.Create(ctx, &models.AuditLog{
			ActionType:      models.ActionCreditRefund,
			PaymentRecordID: &record.ID,
			Description:     "refund of " + record.Reference,
			PerformedBy:     adminID,
			IPAddress:       ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		if user, uerr := s.userRepo.GetByID(ctx, record.UserID); uerr == nil {
			s.notify.NotifyCreditRefunded(user.Email, record.Reference)
		}
	}

	return record, nil
}

// CreditSummary represents an account's credit position
type CreditSummary struct {
	CanPost        bool                            `json:"can_post"`
	PostsRemaining int                             `json:"posts_remaining"`
	Records        []*models.PaymentRecordResponse `json:"records"`
}

// Summary returns the account's payment records and remaining credit.
func (s *CreditService) Summary(ctx context.Context, userID uint) (*CreditSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore(err)
	}

	records, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, wrapStore(err)
	}

	summary := &CreditSummary{
		CanPost: user.CanPost,
		Records: make([]*models.PaymentRecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		if rec.Status == models.PaymentStatusActive {
			summary.PostsRemaining += rec.PostsRemaining
		}
		summary.Records = append(summary.Records, rec.ToResponse())
	}

	return summary, nil
}

// ListByUser returns all payment records for a user (moderator view).
func (s *CreditService) ListByUser(ctx context.Context, userID uint) ([]*models.PaymentRecord, error) {
	records, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, wrapStore(err)
	}
	return records, nil
}

// ExpireStalePending cancels pending records older than the given age.
// Invoked by the scheduler.
func (s *CreditService) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	n, err := s.paymentRepo.CancelPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, wrapStore(err)
	}
	return n, nil
}

// consumeCredit debits exactly one credit from the locked active record,
// flipping the record inactive and refreshing the account's can_post flag
// when the last credit goes. Runs inside the caller's transaction so the
// debit commits or rolls back together with the topic write.
func consumeCredit(ctx context.Context, r *repositories.TxRepositories, user *models.User, record *models.PaymentRecord, topicID uint) error {
	if record == nil || record.PostsRemaining <= 0 {
		return domain.ErrInsufficientCredit
	}

	record.PostsRemaining--
	if record.PostsRemaining <= 0 {
		record.Status = models.PaymentStatusInactive
	}
	if err := r.Payments.Update(ctx, record); err != nil {
		return wrapStore(err)
	}

	if err := refreshCanPost(ctx, r, user); err != nil {
		return err
	}

	return r.Audits.Create(ctx, &models.AuditLog{
		ActionType:      models.ActionCreditConsume,
		TopicID:         &topicID,
		PaymentRecordID: &record.ID,
		Description:     fmt.Sprintf("1 post consumed, %d remaining", record.PostsRemaining),
		PerformedBy:     user.ID,
	})
}

// refreshCanPost re-derives can_post from the active records. Must run in
// the same transaction as whatever changed posts_remaining.
func refreshCanPost(ctx context.Context, r *repositories.TxRepositories, user *models.User) error {
	canPost := false
	active, err := r.Payments.GetActiveByUser(ctx, user.ID)
	if err == nil {
		canPost = active.PostsRemaining > 0
	} else if !isNotFound(err) {
		return wrapStore(err)
	}

	if user.CanPost != canPost {
		user.CanPost = canPost
		if err := r.Users.Update(ctx, user); err != nil {
			return wrapStore(err)
		}
	}
	return nil
}
