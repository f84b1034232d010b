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

// Reply service errors
var (
	ErrReplyNotFound = errors.New("reply not found")
	ErrTopicClosed   = fmt.Errorf("%w: topic is closed", domain.ErrPolicyViolation)
	ErrReplyCap      = fmt.Errorf("%w: reply limit reached for this topic", domain.ErrPolicyViolation)
	ErrNotThread     = fmt.Errorf("%w: only the topic author and experts may reply", domain.ErrPolicyViolation)
)

// ReplyService handles thread replies: the per-author cap, the ANSWERED
// transition triggered by an expert reply, and the moderator deletion
// that can reopen an answered topic.
type ReplyService struct {
	uow       repositories.UnitOfWork
	replyRepo repositories.ReplyRepository
	topicRepo repositories.TopicRepository
	userRepo  repositories.UserRepository
	notify    *NotificationService
}

// NewReplyService creates a new reply service
func NewReplyService(
	uow repositories.UnitOfWork,
	replyRepo repositories.ReplyRepository,
	topicRepo repositories.TopicRepository,
	userRepo repositories.UserRepository,
	notify *NotificationService,
) *ReplyService {
	return &ReplyService{
		uow:       uow,
		replyRepo: replyRepo,
		topicRepo: topicRepo,
		userRepo:  userRepo,
		notify:    notify,
	}
}

// CanReply runs the read-only eligibility check for submitting a reply.
// Advisory only: submission re-checks under the topic row lock.
func (s *ReplyService) CanReply(ctx context.Context, topicID, userID uint) (*domain.Eligibility, error) {
	topic, err := s.topicRepo.GetByID(ctx, topicID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTopicNotFound
		}
		return nil, wrapStore(err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore(err)
	}

	prior, err := s.replyRepo.CountByTopicAndAuthor(ctx, topicID, userID)
	if err != nil {
		return nil, wrapStore(err)
	}

	allowed := domain.CanReply(user.RoleSet(), topic.AuthorID == userID, topic.Status, prior)
	return &domain.Eligibility{Allowed: allowed}, nil
}

// CreateReplyInput represents create reply input
type CreateReplyInput struct {
	Body string `json:"body" validate:"required"`
}

// Create submits a reply. The whole check-then-insert runs under the
// topic's row lock, so two concurrent submissions from the same author
// serialize and the cap holds. An expert reply to an OPEN or IN_PROGRESS
// topic marks it ANSWERED in the same transaction.
func (s *ReplyService) Create(ctx context.Context, topicID uint, input *CreateReplyInput, authorID uint, ipAddress string) (*models.Reply, error) {
	var reply *models.Reply
	var answered bool
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

		author, err := r.Users.GetByID(ctx, authorID)
		if err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return wrapStore(err)
		}

		prior, err := r.Replies.CountByTopicAndAuthor(ctx, topicID, authorID)
		if err != nil {
			return wrapStore(err)
		}

		roles := author.RoleSet()
		isAuthor := topic.AuthorID == authorID
		if !domain.CanReply(roles, isAuthor, topic.Status, prior) {
			switch {
			case topic.Status == domain.StatusClosed:
				return ErrTopicClosed
			case !isAuthor && !domain.HasRole(roles, domain.RoleExpert):
				return ErrNotThread
			default:
				return ErrReplyCap
			}
		}

		reply = &models.Reply{
			TopicID:  topicID,
			AuthorID: authorID,
			Body:     input.Body,
		}
		if err := r.Replies.Create(ctx, reply); err != nil {
			return wrapStore(err)
		}

		var from, to *string
		if domain.HasRole(roles, domain.RoleExpert) && topic.Status != domain.StatusAnswered {
			if err := domain.CanAnswer(topic.Status, roles); err != nil {
				return err
			}
			prev := topic.Status
			now := time.Now()
			topic.Status = domain.StatusAnswered
			topic.AnsweredAt = &now
			topic.AssignedExpertID = &authorID
			if err := r.Topics.Update(ctx, topic); err != nil {
				return wrapStore(err)
			}
			next := domain.StatusAnswered
			from, to = &prev, &next
			answered = true
		}

		return r.Audits.Create(ctx, &models.AuditLog{
			ActionType:  models.ActionReplyCreate,
			TopicID:     &topicID,
			ReplyID:     &reply.ID,
			FromStatus:  from,
			ToStatus:    to,
			Description: "reply posted",
			PerformedBy: authorID,
			IPAddress:   ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil && answered {
		if author, aerr := s.userRepo.GetByID(ctx, topic.AuthorID); aerr == nil {
			s.notify.NotifyTopicAnswered(topic, author.Email)
		}
	}

	return reply, nil
}

// ListByTopic lists the replies of a topic in posting order.
func (s *ReplyService) ListByTopic(ctx context.Context, topicID uint) ([]*models.Reply, error) {
	if _, err := s.topicRepo.GetByID(ctx, topicID); err != nil {
		if isNotFound(err) {
			return nil, ErrTopicNotFound
		}
		return nil, wrapStore(err)
	}

	replies, err := s.replyRepo.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, wrapStore(err)
	}
	return replies, nil
}

// Delete removes a reply by moderator action. When the deleted reply was
// the assigned expert's last one on an ANSWERED topic, the answer is gone
// and the topic reverts to OPEN, in the same transaction.
func (s *ReplyService) Delete(ctx context.Context, replyID uint, actorID uint, ipAddress string) error {
	return s.uow.Do(ctx, func(r *repositories.TxRepositories) error {
		reply, err := r.Replies.GetByID(ctx, replyID)
		if err != nil {
			if isNotFound(err) {
				return ErrReplyNotFound
			}
			return wrapStore(err)
		}

		actor, err := r.Users.GetByID(ctx, actorID)
		if err != nil {
			return wrapStore(err)
		}
		if !domain.IsModerator(actor.RoleSet()) {
			return domain.ErrForbidden
		}

		topic, err := r.Topics.GetByIDForUpdate(ctx, reply.TopicID)
		if err != nil {
			return wrapStore(err)
		}

		if err := r.Replies.Delete(ctx, replyID); err != nil {
			return wrapStore(err)
		}

		var from, to *string
		if topic.Status == domain.StatusAnswered &&
			topic.AssignedExpertID != nil && *topic.AssignedExpertID == reply.AuthorID {
			left, err := r.Replies.CountByTopicAndAuthor(ctx, topic.ID, reply.AuthorID)
			if err != nil {
				return wrapStore(err)
			}
			if left == 0 {
				if err := domain.CanReopen(topic.Status, actor.RoleSet()); err != nil {
					return err
				}
				prev := topic.Status
				topic.Status = domain.StatusOpen
				topic.AssignedExpertID = nil
				topic.AnsweredAt = nil
				if err := r.Topics.Update(ctx, topic); err != nil {
					return wrapStore(err)
				}
				next := domain.StatusOpen
				from, to = &prev, &next
			}
		}

		return r.Audits.Create(ctx, &models.AuditLog{
			ActionType:  models.ActionReplyDelete,
			TopicID:     &topic.ID,
			ReplyID:     &replyID,
			FromStatus:  from,
			ToStatus:    to,
			Description: "reply removed by moderator",
			PerformedBy: actorID,
			IPAddress:   ipAddress,
		})
	})
}
