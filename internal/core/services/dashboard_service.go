package services

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// User statistics
	TotalUsers   int64 `json:"total_users"`
	TotalExperts int64 `json:"total_experts"`
	ActiveUsers  int64 `json:"active_users"`

	// Topic statistics
	TotalTopics      int64 `json:"total_topics"`
	OpenTopics       int64 `json:"open_topics"`
	InProgressTopics int64 `json:"in_progress_topics"`
	AnsweredTopics   int64 `json:"answered_topics"`
	ClosedTopics     int64 `json:"closed_topics"`

	// Revenue statistics
	TotalRevenue     float64 `json:"total_revenue"`
	RevenueThisMonth float64 `json:"revenue_this_month"`
	CreditsOutstanding int64 `json:"credits_outstanding"`

	// Monthly statistics
	TopicsThisMonth int64 `json:"topics_this_month"`

	// Recent activity
	RecentTopics  []TopicSummary `json:"recent_topics"`
	BusiestExperts []ExpertStats `json:"busiest_experts"`
}

// TopicSummary represents topic summary
type TopicSummary struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	AuthorName string    `json:"author_name"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExpertStats represents per-expert workload statistics
type ExpertStats struct {
	ExpertID   uint   `json:"expert_id"`
	Username   string `json:"username"`
	TotalTaken int64  `json:"total_taken"`
	Answered   int64  `json:"answered"`
	InProgress int64  `json:"in_progress"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}

	// User counts
	s.db.WithContext(ctx).Table("users").Where("deleted_at IS NULL").Count(&data.TotalUsers)
	s.db.WithContext(ctx).Table("users").Where("roles LIKE ? AND deleted_at IS NULL", "%EXPERT%").Count(&data.TotalExperts)
	s.db.WithContext(ctx).Table("users").Where("is_active = ? AND deleted_at IS NULL", true).Count(&data.ActiveUsers)

	// Topic counts by status
	s.db.WithContext(ctx).Table("topics").Where("deleted_at IS NULL").Count(&data.TotalTopics)
	s.db.WithContext(ctx).Table("topics").Where("status = ? AND deleted_at IS NULL", "OPEN").Count(&data.OpenTopics)
	s.db.WithContext(ctx).Table("topics").Where("status = ? AND deleted_at IS NULL", "IN_PROGRESS").Count(&data.InProgressTopics)
	s.db.WithContext(ctx).Table("topics").Where("status = ? AND deleted_at IS NULL", "ANSWERED").Count(&data.AnsweredTopics)
	s.db.WithContext(ctx).Table("topics").Where("status = ? AND deleted_at IS NULL", "CLOSED").Count(&data.ClosedTopics)

	// Revenue from confirmed payments; grants carry zero amount
	s.db.WithContext(ctx).Table("payment_records").
		Where("status NOT IN ? AND deleted_at IS NULL", []string{"pending", "cancelled", "refunded"}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.TotalRevenue)

	// Unused credits still owed to users
	s.db.WithContext(ctx).Table("payment_records").
		Where("status = ? AND deleted_at IS NULL", "active").
		Select("COALESCE(SUM(posts_remaining), 0)").
		Scan(&data.CreditsOutstanding)

	// This month statistics
	startOfMonth := time.Now().AddDate(0, 0, -time.Now().Day()+1).Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Table("topics").
		Where("created_at >= ? AND deleted_at IS NULL", startOfMonth).
		Count(&data.TopicsThisMonth)

	s.db.WithContext(ctx).Table("payment_records").
		Where("created_at >= ? AND status NOT IN ? AND deleted_at IS NULL", startOfMonth, []string{"pending", "cancelled", "refunded"}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.RevenueThisMonth)

	// Recent topics
	var recentTopics []struct {
		ID         uint
		Title      string
		AuthorName string
		Category   string
		Status     string
		CreatedAt  time.Time
	}
	s.db.WithContext(ctx).Table("topics").
		Select("topics.id, topics.title, users.username as author_name, categories.name as category, topics.status, topics.created_at").
		Joins("LEFT JOIN users ON topics.author_id = users.id").
		Joins("LEFT JOIN categories ON topics.category_id = categories.id").
		Where("topics.deleted_at IS NULL").
		Order("topics.created_at DESC").
		Limit(10).
		Scan(&recentTopics)

	data.RecentTopics = make([]TopicSummary, len(recentTopics))
	for i, t := range recentTopics {
		data.RecentTopics[i] = TopicSummary{
			ID:         t.ID,
			Title:      t.Title,
			AuthorName: t.AuthorName,
			Category:   t.Category,
			Status:     t.Status,
			CreatedAt:  t.CreatedAt,
		}
	}

	// Busiest experts
	var busiest []struct {
		ExpertID   uint
		Username   string
		TotalTaken int64
		Answered   int64
		InProgress int64
	}
	s.db.WithContext(ctx).Table("topics").
		Select(`
			topics.assigned_expert_id as expert_id,
			users.username,
			COUNT(*) as total_taken,
			SUM(CASE WHEN topics.status = 'ANSWERED' THEN 1 ELSE 0 END) as answered,
			SUM(CASE WHEN topics.status = 'IN_PROGRESS' THEN 1 ELSE 0 END) as in_progress
		`).
		Joins("LEFT JOIN users ON topics.assigned_expert_id = users.id").
		Where("topics.deleted_at IS NULL AND topics.assigned_expert_id IS NOT NULL").
		Group("topics.assigned_expert_id, users.username").
		Order("total_taken DESC").
		Limit(5).
		Scan(&busiest)

	data.BusiestExperts = make([]ExpertStats, len(busiest))
	for i, e := range busiest {
		data.BusiestExperts[i] = ExpertStats{
			ExpertID:   e.ExpertID,
			Username:   e.Username,
			TotalTaken: e.TotalTaken,
			Answered:   e.Answered,
			InProgress: e.InProgress,
		}
	}

	return data, nil
}

// ExpertDashboardData represents expert dashboard data
type ExpertDashboardData struct {
	OpenQueue       int64          `json:"open_queue"`
	MyInProgress    int64          `json:"my_in_progress"`
	MyAnswered      int64          `json:"my_answered"`
	WaitingTopics   []TopicSummary `json:"waiting_topics"`
	MyActiveTopics  []TopicSummary `json:"my_active_topics"`
}

// GetExpertDashboard returns expert dashboard data
func (s *DashboardService) GetExpertDashboard(ctx context.Context, expertID uint) (*ExpertDashboardData, error) {
	data := &ExpertDashboardData{}

	s.db.WithContext(ctx).Table("topics").
		Where("status = ? AND deleted_at IS NULL", "OPEN").
		Count(&data.OpenQueue)

	s.db.WithContext(ctx).Table("topics").
		Where("assigned_expert_id = ? AND status = ? AND deleted_at IS NULL", expertID, "IN_PROGRESS").
		Count(&data.MyInProgress)

	s.db.WithContext(ctx).Table("topics").
		Where("assigned_expert_id = ? AND status = ? AND deleted_at IS NULL", expertID, "ANSWERED").
		Count(&data.MyAnswered)

	// Oldest waiting questions first
	var waiting []struct {
		ID         uint
		Title      string
		AuthorName string
		Category   string
		Status     string
		CreatedAt  time.Time
	}
	s.db.WithContext(ctx).Table("topics").
		Select("topics.id, topics.title, users.username as author_name, categories.name as category, topics.status, topics.created_at").
		Joins("LEFT JOIN users ON topics.author_id = users.id").
		Joins("LEFT JOIN categories ON topics.category_id = categories.id").
		Where("topics.status = ? AND topics.deleted_at IS NULL", "OPEN").
		Order("topics.created_at ASC").
		Limit(10).
		Scan(&waiting)

	data.WaitingTopics = make([]TopicSummary, len(waiting))
	for i, t := range waiting {
		data.WaitingTopics[i] = TopicSummary{
			ID:         t.ID,
			Title:      t.Title,
			AuthorName: t.AuthorName,
			Category:   t.Category,
			Status:     t.Status,
			CreatedAt:  t.CreatedAt,
		}
	}

	var active []struct {
		ID         uint
		Title      string
		AuthorName string
		Category   string
		Status     string
		CreatedAt  time.Time
	}
	s.db.WithContext(ctx).Table("topics").
		Select("topics.id, topics.title, users.username as author_name, categories.name as category, topics.status, topics.created_at").
		Joins("LEFT JOIN users ON topics.author_id = users.id").
		Joins("LEFT JOIN categories ON topics.category_id = categories.id").
		Where("topics.assigned_expert_id = ? AND topics.status = ? AND topics.deleted_at IS NULL", expertID, "IN_PROGRESS").
		Order("topics.created_at ASC").
		Scan(&active)

	data.MyActiveTopics = make([]TopicSummary, len(active))
	for i, t := range active {
		data.MyActiveTopics[i] = TopicSummary{
			ID:         t.ID,
			Title:      t.Title,
			AuthorName: t.AuthorName,
			Category:   t.Category,
			Status:     t.Status,
			CreatedAt:  t.CreatedAt,
		}
	}

	return data, nil
}

// UserDashboardData represents participant dashboard data
type UserDashboardData struct {
	TotalTopics    int64          `json:"total_topics"`
	OpenTopics     int64          `json:"open_topics"`
	AnsweredTopics int64          `json:"answered_topics"`
	PostsRemaining int64          `json:"posts_remaining"`
	MyTopics       []TopicSummary `json:"my_topics"`
}

// GetUserDashboard returns participant dashboard data
func (s *DashboardService) GetUserDashboard(ctx context.Context, userID uint) (*UserDashboardData, error) {
	data := &UserDashboardData{}

	s.db.WithContext(ctx).Table("topics").
		Where("author_id = ? AND deleted_at IS NULL", userID).
		Count(&data.TotalTopics)

	s.db.WithContext(ctx).Table("topics").
		Where("author_id = ? AND status = ? AND deleted_at IS NULL", userID, "OPEN").
		Count(&data.OpenTopics)

	s.db.WithContext(ctx).Table("topics").
		Where("author_id = ? AND status = ? AND deleted_at IS NULL", userID, "ANSWERED").
		Count(&data.AnsweredTopics)

	s.db.WithContext(ctx).Table("payment_records").
		Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, "active").
		Select("COALESCE(SUM(posts_remaining), 0)").
		Scan(&data.PostsRemaining)

	var mine []struct {
		ID         uint
		Title      string
		AuthorName string
		Category   string
		Status     string
		CreatedAt  time.Time
	}
	s.db.WithContext(ctx).Table("topics").
		Select("topics.id, topics.title, users.username as author_name, categories.name as category, topics.status, topics.created_at").
		Joins("LEFT JOIN users ON topics.author_id = users.id").
		Joins("LEFT JOIN categories ON topics.category_id = categories.id").
		Where("topics.author_id = ? AND topics.deleted_at IS NULL", userID).
		Order("topics.created_at DESC").
		Scan(&mine)

	data.MyTopics = make([]TopicSummary, len(mine))
	for i, t := range mine {
		data.MyTopics[i] = TopicSummary{
			ID:         t.ID,
			Title:      t.Title,
			AuthorName: t.AuthorName,
			Category:   t.Category,
			Status:     t.Status,
			CreatedAt:  t.CreatedAt,
		}
	}

	return data, nil
}
