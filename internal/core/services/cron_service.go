package services

import (
	"context"
	"log"
	"time"

	"medask-forum/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// Stale thresholds for background jobs
const (
	pendingPaymentMaxAge  = 24 * time.Hour
	unansweredReminderAge = 48 * time.Hour
)

// CronService runs scheduled background jobs
type CronService struct {
	cron          *cron.Cron
	creditService *CreditService
	topicService  *TopicService
	tokenRepo     repositories.RefreshTokenRepository
	notify        *NotificationService
}

// NewCronService creates a new cron service
func NewCronService(
	creditService *CreditService,
	topicService *TopicService,
	tokenRepo repositories.RefreshTokenRepository,
	notify *NotificationService,
) *CronService {
	return &CronService{
		cron:          cron.New(),
		creditService: creditService,
		topicService:  topicService,
		tokenRepo:     tokenRepo,
		notify:        notify,
	}
}

// Start registers and launches all scheduled jobs
func (s *CronService) Start() {
	// Cancel payment records stuck in pending, nightly at 02:00
	s.cron.AddFunc("0 2 * * *", s.expireStalePayments)

	// Remind the expert inbox about long-unanswered questions, daily at 09:00
	s.cron.AddFunc("0 9 * * *", s.remindUnansweredTopics)

	// Purge expired refresh tokens, hourly
	s.cron.AddFunc("@hourly", s.cleanupExpiredTokens)

	s.cron.Start()
	log.Println("cron service started")
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("cron service stopped")
}

func (s *CronService) expireStalePayments() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.creditService.ExpireStalePending(ctx, pendingPaymentMaxAge)
	if err != nil {
		log.Printf("expire stale payments: %v", err)
		return
	}
	if n > 0 {
		log.Printf("cancelled %d stale pending payments", n)
	}
}

func (s *CronService) remindUnansweredTopics() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topics, err := s.topicService.ListUnanswered(ctx, unansweredReminderAge)
	if err != nil {
		log.Printf("unanswered reminder query: %v", err)
		return
	}

	for _, topic := range topics {
		s.notify.NotifyUnansweredTopic(topic)
	}

	if len(topics) > 0 {
		log.Printf("sent %d unanswered-topic reminders", len(topics))
	}
}

func (s *CronService) cleanupExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.tokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("token cleanup: %v", err)
	}
}
