package models

import (
	"strings"
	"time"

	"medask-forum/internal/core/domain"

	"gorm.io/gorm"
)

// User represents users table. Roles are stored as a comma-separated set
// since they are additive (EXPERT and ADMIN may co-occur).
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Roles     string         `gorm:"size:100;default:'PARTICIPANT'" json:"roles"`
	CanPost   bool           `gorm:"default:false" json:"can_post"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// RoleSet parses the stored role string into domain roles.
func (u *User) RoleSet() []domain.Role {
	parts := strings.Split(u.Roles, ",")
	roles := make([]domain.Role, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, domain.Role(p))
		}
	}
	return roles
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role domain.Role) bool {
	return domain.HasRole(u.RoleSet(), role)
}

// SetRoles stores the given role set.
func (u *User) SetRoles(roles []domain.Role) {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	u.Roles = strings.Join(parts, ",")
}

// UserResponse DTO
type UserResponse struct {
	ID        uint          `json:"id"`
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	Roles     []domain.Role `json:"roles"`
	CanPost   bool          `json:"can_post"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Roles:     u.RoleSet(),
		CanPost:   u.CanPost,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// Category question category (master data)
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Code        string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}

// Topic a paid question thread between its author and an expert
type Topic struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"size:200;not null" json:"title"`
	Body             string         `gorm:"type:text;not null" json:"body"`
	CategoryID       uint           `gorm:"not null;index" json:"category_id"`
	AuthorID         uint           `gorm:"not null;index" json:"author_id"`
	Status           string         `gorm:"size:20;not null;default:'OPEN';index" json:"status"`
	AssignedExpertID *uint          `gorm:"index" json:"assigned_expert_id"`
	AnsweredAt       *time.Time     `json:"answered_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Author         *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	AssignedExpert *User     `gorm:"foreignKey:AssignedExpertID" json:"assigned_expert,omitempty"`
	Category       *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Replies        []Reply   `gorm:"foreignKey:TopicID" json:"replies,omitempty"`
}

func (Topic) TableName() string {
	return "topics"
}

// TopicResponse DTO
type TopicResponse struct {
	ID                 uint       `json:"id"`
	Title              string     `json:"title"`
	Body               string     `json:"body"`
	CategoryID         uint       `json:"category_id"`
	CategoryName       string     `json:"category_name,omitempty"`
	AuthorID           uint       `json:"author_id"`
	AuthorName         string     `json:"author_name,omitempty"`
	Status             string     `json:"status"`
	AssignedExpertID   *uint      `json:"assigned_expert_id"`
	AssignedExpertName string     `json:"assigned_expert_name,omitempty"`
	AnsweredAt         *time.Time `json:"answered_at"`
	ReplyCount         int        `json:"reply_count"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (t *Topic) ToResponse() *TopicResponse {
	resp := &TopicResponse{
		ID:               t.ID,
		Title:            t.Title,
		Body:             t.Body,
		CategoryID:       t.CategoryID,
		AuthorID:         t.AuthorID,
		Status:           t.Status,
		AssignedExpertID: t.AssignedExpertID,
		AnsweredAt:       t.AnsweredAt,
		ReplyCount:       len(t.Replies),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}

	if t.Author != nil {
		resp.AuthorName = t.Author.Username
	}
	if t.AssignedExpert != nil {
		resp.AssignedExpertName = t.AssignedExpert.Username
	}
	if t.Category != nil {
		resp.CategoryName = t.Category.Name
	}

	return resp
}

// Reply a message inside a topic thread. Immutable once created except
// for moderator deletion (soft delete).
type Reply struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TopicID   uint           `gorm:"not null;index" json:"topic_id"`
	AuthorID  uint           `gorm:"not null;index" json:"author_id"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Topic  *Topic `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	Author *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Reply) TableName() string {
	return "replies"
}

// ReplyResponse DTO
type ReplyResponse struct {
	ID         uint          `json:"id"`
	TopicID    uint          `json:"topic_id"`
	AuthorID   uint          `json:"author_id"`
	AuthorName string        `json:"author_name,omitempty"`
	Roles      []domain.Role `json:"author_roles,omitempty"`
	Body       string        `json:"body"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (r *Reply) ToResponse() *ReplyResponse {
	resp := &ReplyResponse{
		ID:        r.ID,
		TopicID:   r.TopicID,
		AuthorID:  r.AuthorID,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
	}
	if r.Author != nil {
		resp.AuthorName = r.Author.Username
		resp.Roles = r.Author.RoleSet()
	}
	return resp
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Category{},
		&Topic{},
		&Reply{},
		&PaymentRecord{},
		&AuditLog{},
	)
}
