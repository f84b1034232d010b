package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/adapters/persistence/repositories"
	"medask-forum/internal/core/domain"

	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the database. The unit-of-work
// fake serializes callbacks on one mutex and restores a snapshot on
// error, mirroring the lock-and-rollback behavior the services rely on.
type memStore struct {
	mu         sync.Mutex
	users      map[uint]models.User
	topics     map[uint]models.Topic
	replies    map[uint]models.Reply
	payments   map[uint]models.PaymentRecord
	categories map[uint]models.Category
	audits     []models.AuditLog
	nextID     uint

	failPaymentUpdate bool
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[uint]models.User),
		topics:     make(map[uint]models.Topic),
		replies:    make(map[uint]models.Reply),
		payments:   make(map[uint]models.PaymentRecord),
		categories: make(map[uint]models.Category),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	snap.nextID = s.nextID
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.topics {
		snap.topics[k] = v
	}
	for k, v := range s.replies {
		snap.replies[k] = v
	}
	for k, v := range s.payments {
		snap.payments[k] = v
	}
	for k, v := range s.categories {
		snap.categories[k] = v
	}
	snap.audits = append(snap.audits, s.audits...)
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.nextID = snap.nextID
	s.users = snap.users
	s.topics = snap.topics
	s.replies = snap.replies
	s.payments = snap.payments
	s.categories = snap.categories
	s.audits = snap.audits
}

func (s *memStore) addUser(u models.User) *models.User {
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = u
	return &u
}

func (s *memStore) addTopic(t models.Topic) *models.Topic {
	if t.ID == 0 {
		t.ID = s.id()
	}
	s.topics[t.ID] = t
	return &t
}

func (s *memStore) addPayment(p models.PaymentRecord) *models.PaymentRecord {
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.payments[p.ID] = p
	return &p
}

func (s *memStore) addCategory(c models.Category) *models.Category {
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.categories[c.ID] = c
	return &c
}

func (s *memStore) repos() *repositories.TxRepositories {
	return &repositories.TxRepositories{
		Users:    &memUserRepo{s: s},
		Topics:   &memTopicRepo{s: s},
		Replies:  &memReplyRepo{s: s},
		Payments: &memPaymentRepo{s: s},
		Audits:   &memAuditRepo{s: s},
	}
}

// memUnitOfWork serializes callbacks and rolls back on error
type memUnitOfWork struct {
	s *memStore
}

func (u *memUnitOfWork) Do(_ context.Context, fn func(r *repositories.TxRepositories) error) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	snap := u.s.snapshot()
	if err := fn(u.s.repos()); err != nil {
		u.s.restore(snap)
		return err
	}
	return nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = r.s.id()
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *memUserRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uint) error {
	delete(r.s.users, id)
	return nil
}

func (r *memUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	users := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u := u
		users = append(users, &u)
	}
	return users, int64(len(users)), nil
}

func (r *memUserRepo) ListExperts(_ context.Context) ([]*models.User, error) {
	var experts []*models.User
	for _, u := range r.s.users {
		if strings.Contains(u.Roles, "EXPERT") {
			u := u
			experts = append(experts, &u)
		}
	}
	return experts, nil
}

func (r *memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

type memCategoryRepo struct{ s *memStore }

func (r *memCategoryRepo) Create(_ context.Context, category *models.Category) error {
	category.ID = r.s.id()
	r.s.categories[category.ID] = *category
	return nil
}

func (r *memCategoryRepo) GetByID(_ context.Context, id uint) (*models.Category, error) {
	c, ok := r.s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *memCategoryRepo) GetByCode(_ context.Context, code string) (*models.Category, error) {
	for _, c := range r.s.categories {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCategoryRepo) List(_ context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	for _, c := range r.s.categories {
		c := c
		categories = append(categories, &c)
	}
	return categories, nil
}

func (r *memCategoryRepo) Update(_ context.Context, category *models.Category) error {
	if _, ok := r.s.categories[category.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r *memCategoryRepo) Delete(_ context.Context, id uint) error {
	delete(r.s.categories, id)
	return nil
}

type memTopicRepo struct{ s *memStore }

func (r *memTopicRepo) Create(_ context.Context, topic *models.Topic) error {
	topic.ID = r.s.id()
	topic.CreatedAt = time.Now()
	r.s.topics[topic.ID] = *topic
	return nil
}

func (r *memTopicRepo) GetByID(_ context.Context, id uint) (*models.Topic, error) {
	t, ok := r.s.topics[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (r *memTopicRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Topic, error) {
	return r.GetByID(ctx, id)
}

func (r *memTopicRepo) CountOpenByAuthor(_ context.Context, authorID uint) (int64, error) {
	var n int64
	for _, t := range r.s.topics {
		if t.AuthorID == authorID && t.Status == domain.StatusOpen {
			n++
		}
	}
	return n, nil
}

func (r *memTopicRepo) List(_ context.Context, status string, categoryID uint, offset, limit int) ([]*models.Topic, int64, error) {
	var topics []*models.Topic
	for _, t := range r.s.topics {
		if status != "" && t.Status != status {
			continue
		}
		if categoryID != 0 && t.CategoryID != categoryID {
			continue
		}
		t := t
		topics = append(topics, &t)
	}
	return topics, int64(len(topics)), nil
}

func (r *memTopicRepo) ListByAuthor(_ context.Context, authorID uint, offset, limit int) ([]*models.Topic, int64, error) {
	var topics []*models.Topic
	for _, t := range r.s.topics {
		if t.AuthorID == authorID {
			t := t
			topics = append(topics, &t)
		}
	}
	return topics, int64(len(topics)), nil
}

func (r *memTopicRepo) ListOpenSince(_ context.Context, cutoff time.Time) ([]*models.Topic, error) {
	var topics []*models.Topic
	for _, t := range r.s.topics {
		if t.Status == domain.StatusOpen && t.CreatedAt.Before(cutoff) {
			t := t
			topics = append(topics, &t)
		}
	}
	return topics, nil
}

func (r *memTopicRepo) Update(_ context.Context, topic *models.Topic) error {
	if _, ok := r.s.topics[topic.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.topics[topic.ID] = *topic
	return nil
}

type memReplyRepo struct{ s *memStore }

func (r *memReplyRepo) Create(_ context.Context, reply *models.Reply) error {
	reply.ID = r.s.id()
	reply.CreatedAt = time.Now()
	r.s.replies[reply.ID] = *reply
	return nil
}

func (r *memReplyRepo) GetByID(_ context.Context, id uint) (*models.Reply, error) {
	rep, ok := r.s.replies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rep, nil
}

func (r *memReplyRepo) ListByTopic(_ context.Context, topicID uint) ([]*models.Reply, error) {
	var replies []*models.Reply
	for _, rep := range r.s.replies {
		if rep.TopicID == topicID {
			rep := rep
			replies = append(replies, &rep)
		}
	}
	return replies, nil
}

func (r *memReplyRepo) CountByTopicAndAuthor(_ context.Context, topicID, authorID uint) (int64, error) {
	var n int64
	for _, rep := range r.s.replies {
		if rep.TopicID == topicID && rep.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (r *memReplyRepo) Delete(_ context.Context, id uint) error {
	delete(r.s.replies, id)
	return nil
}

type memPaymentRepo struct{ s *memStore }

func (r *memPaymentRepo) Create(_ context.Context, record *models.PaymentRecord) error {
	for _, p := range r.s.payments {
		if p.Reference == record.Reference {
			return errors.New("duplicate reference")
		}
	}
	record.ID = r.s.id()
	record.CreatedAt = time.Now()
	r.s.payments[record.ID] = *record
	return nil
}

func (r *memPaymentRepo) GetByID(_ context.Context, id uint) (*models.PaymentRecord, error) {
	p, ok := r.s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *memPaymentRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.PaymentRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *memPaymentRepo) GetByReference(_ context.Context, reference string) (*models.PaymentRecord, error) {
	for _, p := range r.s.payments {
		if p.Reference == reference {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPaymentRepo) GetActiveByUser(_ context.Context, userID uint) (*models.PaymentRecord, error) {
	for _, p := range r.s.payments {
		if p.UserID == userID && p.Status == models.PaymentStatusActive {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPaymentRepo) GetActiveByUserForUpdate(ctx context.Context, userID uint) (*models.PaymentRecord, error) {
	return r.GetActiveByUser(ctx, userID)
}

func (r *memPaymentRepo) ListByUser(_ context.Context, userID uint) ([]*models.PaymentRecord, error) {
	var records []*models.PaymentRecord
	for _, p := range r.s.payments {
		if p.UserID == userID {
			p := p
			records = append(records, &p)
		}
	}
	return records, nil
}

func (r *memPaymentRepo) Update(_ context.Context, record *models.PaymentRecord) error {
	if r.s.failPaymentUpdate {
		return errors.New("injected payment update failure")
	}
	if _, ok := r.s.payments[record.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.payments[record.ID] = *record
	return nil
}

func (r *memPaymentRepo) CancelPendingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, p := range r.s.payments {
		if p.Status == models.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			p.Status = models.PaymentStatusCancelled
			r.s.payments[id] = p
			n++
		}
	}
	return n, nil
}

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	entry.ID = r.s.id()
	entry.CreatedAt = time.Now()
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

func (r *memAuditRepo) ListByTopic(_ context.Context, topicID uint) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	for _, e := range r.s.audits {
		if e.TopicID != nil && *e.TopicID == topicID {
			e := e
			entries = append(entries, &e)
		}
	}
	return entries, nil
}

func (r *memAuditRepo) ListRecent(_ context.Context, limit int) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	for _, e := range r.s.audits {
		e := e
		entries = append(entries, &e)
	}
	return entries, nil
}
