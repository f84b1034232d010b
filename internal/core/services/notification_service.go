package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"medask-forum/internal/adapters/persistence/models"
)

// NotificationService sends email notifications through the mail relay.
// Delivery is best effort: a relay failure never fails the request that
// triggered it.
type NotificationService struct {
	relayURL    string
	relayToken  string
	from        string
	expertInbox string
	enabled     bool
	client      *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService() *NotificationService {
	relayURL := os.Getenv("MAIL_RELAY_URL")
	return &NotificationService{
		relayURL:    relayURL,
		relayToken:  os.Getenv("MAIL_RELAY_TOKEN"),
		from:        os.Getenv("MAIL_FROM"),
		expertInbox: os.Getenv("MAIL_EXPERT_INBOX"),
		enabled:     relayURL != "",
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

type mailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// sendMail posts a message to the mail relay
func (s *NotificationService) sendMail(to, subject, body string) error {
	if !s.enabled || to == "" {
		return nil
	}

	payload, err := json.Marshal(mailMessage{
		From:    s.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", s.relayURL, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.relayToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}

// NotifyTopicCreated alerts the expert inbox about a new question
func (s *NotificationService) NotifyTopicCreated(topic *models.Topic) {
	body := fmt.Sprintf(`A new question is waiting for an expert.

Topic: #%d
Title: %s

Please review it in the expert console.`,
		topic.ID,
		topic.Title,
	)

	s.sendMail(s.expertInbox, fmt.Sprintf("New question #%d", topic.ID), body)
}

// NotifyExpertAssigned tells the asker an expert took their question
func (s *NotificationService) NotifyExpertAssigned(topic *models.Topic, authorEmail string) {
	body := fmt.Sprintf(`An expert is now working on your question.

Topic: #%d
Title: %s`,
		topic.ID,
		topic.Title,
	)

	s.sendMail(authorEmail, fmt.Sprintf("Your question #%d is in progress", topic.ID), body)
}

// NotifyTopicAnswered tells the asker their question has an answer
func (s *NotificationService) NotifyTopicAnswered(topic *models.Topic, authorEmail string) {
	body := fmt.Sprintf(`An expert has answered your question.

Topic: #%d
Title: %s

You can read the answer and follow up in the thread.`,
		topic.ID,
		topic.Title,
	)

	s.sendMail(authorEmail, fmt.Sprintf("Your question #%d was answered", topic.ID), body)
}

// NotifyPaymentConfirmed confirms a credit purchase
func (s *NotificationService) NotifyPaymentConfirmed(email string, posts int, amount float64) {
	body := fmt.Sprintf(`Your payment was confirmed.

Amount: %.2f
Posting credits added: %d

You can now post a new question.`,
		amount,
		posts,
	)

	s.sendMail(email, "Payment confirmed", body)
}

// NotifyCreditRefunded confirms a refund
func (s *NotificationService) NotifyCreditRefunded(email string, reference string) {
	body := fmt.Sprintf(`Your payment %s has been refunded.

Any unused posting credits from it were removed.`,
		reference,
	)

	s.sendMail(email, "Payment refunded", body)
}

// NotifyUnansweredTopic reminds the expert inbox about a stale question
func (s *NotificationService) NotifyUnansweredTopic(topic *models.Topic) {
	body := fmt.Sprintf(`A question has been waiting without an answer.

Topic: #%d
Title: %s
Opened: %s`,
		topic.ID,
		topic.Title,
		topic.CreatedAt.Format("2006-01-02 15:04"),
	)

	s.sendMail(s.expertInbox, fmt.Sprintf("Reminder: question #%d is unanswered", topic.ID), body)
}
