package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/adapters/persistence/repositories"
	"medask-forum/internal/core/domain"
)

// Topic service errors
var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrOpenTopicExists  = fmt.Errorf("%w: an open topic already exists", domain.ErrPolicyViolation)
)

// TopicService handles topic business logic: posting eligibility, atomic
// creation with credit consumption, and the status lifecycle.
type TopicService struct {
	uow          repositories.UnitOfWork
	topicRepo    repositories.TopicRepository
	categoryRepo repositories.CategoryRepository
	userRepo     repositories.UserRepository
	paymentRepo  repositories.PaymentRepository
	auditRepo    repositories.AuditLogRepository
	notify       *NotificationService
}

// NewTopicService creates a new topic service
func NewTopicService(
	uow repositories.UnitOfWork,
	topicRepo repositories.TopicRepository,
	categoryRepo repositories.CategoryRepository,
	userRepo repositories.UserRepository,
	paymentRepo repositories.PaymentRepository,
	auditRepo repositories.AuditLogRepository,
	notify *NotificationService,
) *TopicService {
	return &TopicService{
		uow:          uow,
		topicRepo:    topicRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		paymentRepo:  paymentRepo,
		auditRepo:    auditRepo,
		notify:       notify,
	}
}

// CanCreateTopic runs the read-only eligibility check: one open topic per
// author, and at least one remaining posting credit. A store failure
// propagates as ErrStoreUnavailable and is never an allow or a deny.
func (s *TopicService) CanCreateTopic(ctx context.Context, userID uint) (*domain.Eligibility, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore(err)
	}

	open, err := s.topicRepo.CountOpenByAuthor(ctx, userID)
	if err != nil {
		return nil, wrapStore(err)
	}

	remaining := 0
	record, err := s.paymentRepo.GetActiveByUser(ctx, userID)
	if err == nil {
		remaining = record.PostsRemaining
	} else if !isNotFound(err) {
		return nil, wrapStore(err)
	}

	elig := domain.CheckTopicCreation(open, user.CanPost, remaining)
	return &elig, nil
}

// CreateTopicInput represents create topic input
type CreateTopicInput struct {
	Title      string `json:"title" validate:"required,max=200"`
	Body       string `json:"body" validate:"required"`
	CategoryID uint   `json:"category_id" validate:"required"`
}

// Create creates a topic and debits one posting credit as a single unit
// of work. The eligibility check is re-run under row locks so two rapid
// requests from the same account cannot both pass it.
func (s *TopicService) Create(ctx context.Context, input *CreateTopicInput, authorID uint, ipAddress string) (*models.Topic, error) {
	if _, err := s.categoryRepo.GetByID(ctx, input.CategoryID); err != nil {
		if isNotFound(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, wrapStore(err)
	}

	var topic *models.Topic

	err := s.uow.Do(ctx, func(r *repositories.TxRepositories) error {
		user, err := r.Users.GetByIDForUpdate(ctx, authorID)
		if err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return wrapStore(err)
		}

		open, err := r.Topics.CountOpenByAuthor(ctx, authorID)
		if err != nil {
			return wrapStore(err)
		}

		var record *models.PaymentRecord
		remaining := 0
		record, err = r.Payments.GetActiveByUserForUpdate(ctx, authorID)
		if err == nil {
			remaining = record.PostsRemaining
		} else if isNotFound(err) {
			record = nil
		} else {
			return wrapStore(err)
		}

		elig := domain.CheckTopicCreation(open, user.CanPost, remaining)
		if !elig.Allowed {
			if elig.Reason == domain.ReasonOpenTopicExists {
				return ErrOpenTopicExists
			}
			return domain.ErrInsufficientCredit
		}

		topic = &models.Topic{
			Title:      input.Title,
			Body:       input.Body,
			CategoryID: input.CategoryID,
			AuthorID:   authorID,
			Status:     domain.StatusOpen,
		}
		if err := r.Topics.Create(ctx, topic); err != nil {
			return wrapStore(err)
		}

		// Debit happens only after the topic write succeeded, in the
		// same transaction: no free topics, no charge without a topic.
		if err := consumeCredit(ctx, r, user, record, topic.ID); err != nil {
			return err
		}

		status := domain.StatusOpen
		return r.Audits.Create(ctx, &models.AuditLog{
			ActionType:  models.ActionTopicCreate,
			TopicID:     &topic.ID,
			ToStatus:    &status,
			Description: "topic created: " + input.Title,
			PerformedBy: authorID,
			IPAddress:   ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.NotifyTopicCreated(topic)
	}

	return topic, nil
}

// GetByID gets a topic by ID
func (s *TopicService) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	topic, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTopicNotFound
		}
		return nil, wrapStore(err)
	}
	return topic, nil
}

// ListInput represents list input
type ListInput struct {
	Page       int
	Limit      int
	Status     string
	CategoryID uint
	AuthorID   *uint
}

// ListOutput represents list output
type ListOutput struct {
	Topics     []*models.Topic `json:"topics"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// List lists topics
func (s *TopicService) List(ctx context.Context, input *ListInput) (*ListOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.Status != "" && !domain.ValidStatus(input.Status) {
		return nil, fmt.Errorf("%w: unknown status %s", domain.ErrInvalidInput, input.Status)
	}

	offset := (input.Page - 1) * input.Limit
	var topics []*models.Topic
	var total int64
	var err error

	if input.AuthorID != nil {
		topics, total, err = s.topicRepo.ListByAuthor(ctx, *input.AuthorID, offset, input.Limit)
	} else {
		topics, total, err = s.topicRepo.List(ctx, input.Status, input.CategoryID, offset, input.Limit)
	}
	if err != nil {
		return nil, wrapStore(err)
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListOutput{
		Topics:     topics,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// AssignExpert moves an OPEN topic to IN_PROGRESS with the acting expert
// recorded on it.
func (s *TopicService) AssignExpert(ctx context.Context, topicID uint, actorID uint, ipAddress string) (*models.Topic, error) {
	var topic *models.Topic

	err := s.uow.Do(ctx, func(r *repositories.TxRepositories) error {
		var err error
		topic, err = r.Topics.GetByIDForUpdate(ctx, topicID)
		if err != nil {
			if isNotFound(err) {
				return ErrTopicNotFound
			}
			return wrapStore(err)
		}

		actor, err := r.Users.GetByID(ctx, actorID)
		if err != nil {
			return wrapStore(err)
		}

		if err := domain.CanAssign(topic.Status, actor.RoleSet()); err != nil {
			return err
		}

		from := topic.Status
		topic.Status = domain.StatusInProgress
		topic.AssignedExpertID = &actorID
		if err := r.Topics.Update(ctx, topic); err != nil {
			return wrapStore(err)
		}

		to := domain.StatusInProgress
		return r.Audits.Create(ctx, &models.AuditLog{
			ActionType:  models.ActionTopicAssign,
			TopicID:     &topic.ID,
			FromStatus:  &from,
			ToStatus:    &to,
			Description: "expert self-assigned",
			PerformedBy: actorID,
			IPAddress:   ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		if author, aerr := s.userRepo.GetByID(ctx, topic.AuthorID); aerr == nil {
			s.notify.NotifyExpertAssigned(topic, author.Email)
		}
	}

	return topic, nil
}

// Close closes a topic. Allowed for the author and for moderators;
// closing a closed topic is a policy violation.
func (s *TopicService) Close(ctx context.Context, topicID uint, actorID uint, ipAddress string) (*models.Topic, error) {
	var topic *models.Topic

	err := s.uow.Do(ctx, func(r *repositories.TxRepositories) error {
		var err error
		topic, err = r.Topics.GetByIDForUpdate(ctx, topicID)
		if err != nil {
			if isNotFound(err) {
				return ErrTopicNotFound
			}
			return wrapStore(err)
		}

		actor, err := r.Users.GetByID(ctx, actorID)
		if err != nil {
			return wrapStore(err)
		}

		if err := domain.CanClose(topic.Status, actor.RoleSet(), topic.AuthorID == actorID); err != nil {
			return err
		}

		from := topic.Status
		topic.Status = domain.StatusClosed
		if err := r.Topics.Update(ctx, topic); err != nil {
			return wrapStore(err)
		}

		to := domain.StatusClosed
		return r.Audits.Create(ctx, &models.AuditLog{
			ActionType:  models.ActionStatusChange,
			TopicID:     &topic.ID,
			FromStatus:  &from,
			ToStatus:    &to,
			Description: "topic closed",
			PerformedBy: actorID,
			IPAddress:   ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return topic, nil
}

// Transition applies a requested status change. Only IN_PROGRESS (expert
// self-assignment) and CLOSED are reachable through a direct request;
// ANSWERED happens via expert replies and OPEN via answer deletion, so
// asking for either here is a policy violation.
func (s *TopicService) Transition(ctx context.Context, topicID uint, target string, actorID uint, ipAddress string) (*models.Topic, error) {
	switch target {
	case domain.StatusInProgress:
		return s.AssignExpert(ctx, topicID, actorID, ipAddress)
	case domain.StatusClosed:
		return s.Close(ctx, topicID, actorID, ipAddress)
	case domain.StatusAnswered, domain.StatusOpen:
		return nil, fmt.Errorf("%w: status %s is not directly requestable", domain.ErrPolicyViolation, target)
	default:
		return nil, fmt.Errorf("%w: unknown status %s", domain.ErrInvalidInput, target)
	}
}

// History returns the audit trail of a topic.
func (s *TopicService) History(ctx context.Context, topicID uint) ([]*models.AuditLog, error) {
	if _, err := s.topicRepo.GetByID(ctx, topicID); err != nil {
		if isNotFound(err) {
			return nil, ErrTopicNotFound
		}
		return nil, wrapStore(err)
	}

	entries, err := s.auditRepo.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, wrapStore(err)
	}
	return entries, nil
}

// ListUnanswered returns OPEN topics older than the cutoff, for the
// reminder job.
func (s *TopicService) ListUnanswered(ctx context.Context, olderThan time.Duration) ([]*models.Topic, error) {
	topics, err := s.topicRepo.ListOpenSince(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return nil, wrapStore(err)
	}
	return topics, nil
}
