package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment record statuses
const (
	PaymentStatusActive    = "active"
	PaymentStatusPending   = "pending"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusInactive  = "inactive"
)

// PaymentRecord a bundle of posting credits bought through the payment
// provider or granted by a moderator. posts_remaining only ever decreases
// while the record is active; reaching zero forces status -> inactive.
type PaymentRecord struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	Reference      string         `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	Amount         float64        `gorm:"type:decimal(10,2);not null" json:"amount"`
	PostsRemaining int            `gorm:"not null" json:"posts_remaining"`
	Status         string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

// PaymentRecordResponse DTO
type PaymentRecordResponse struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	Reference      string    `json:"reference"`
	Amount         float64   `json:"amount"`
	PostsRemaining int       `json:"posts_remaining"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func (p *PaymentRecord) ToResponse() *PaymentRecordResponse {
	return &PaymentRecordResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		Reference:      p.Reference,
		Amount:         p.Amount,
		PostsRemaining: p.PostsRemaining,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
	}
}

// Audit action types
const (
	ActionTopicCreate    = "TOPIC_CREATE"
	ActionTopicAssign    = "TOPIC_ASSIGN"
	ActionStatusChange   = "STATUS_CHANGE"
	ActionReplyCreate    = "REPLY_CREATE"
	ActionReplyDelete    = "REPLY_DELETE"
	ActionCreditConsume  = "CREDIT_CONSUME"
	ActionCreditGrant    = "CREDIT_GRANT"
	ActionCreditRefund   = "CREDIT_REFUND"
	ActionPaymentConfirm = "PAYMENT_CONFIRM"
)

// AuditLog history of every state-changing action
type AuditLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ActionType      string    `gorm:"size:50;not null;index" json:"action_type"`
	TopicID         *uint     `gorm:"index" json:"topic_id"`
	ReplyID         *uint     `json:"reply_id"`
	PaymentRecordID *uint     `json:"payment_record_id"`
	FromStatus      *string   `gorm:"size:20" json:"from_status"`
	ToStatus        *string   `gorm:"size:20" json:"to_status"`
	Description     string    `gorm:"type:text" json:"description"`
	PerformedBy     uint      `gorm:"not null;index" json:"performed_by"`
	IPAddress       string    `gorm:"size:50" json:"ip_address"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Topic     *Topic `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	Performer *User  `gorm:"foreignKey:PerformedBy" json:"performer,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
