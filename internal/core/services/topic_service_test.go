package services

import (
	"context"
	"testing"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopicTestEnv() (*memStore, *TopicService) {
	s := newMemStore()
	r := s.repos()
	svc := NewTopicService(&memUnitOfWork{s: s}, r.Topics, &memCategoryRepo{s: s}, r.Users, r.Payments, r.Audits, nil)
	return s, svc
}

func seedAuthor(s *memStore, credits int) (*models.User, *models.Category) {
	user := s.addUser(models.User{Username: "alice", Email: "alice@example.com", Roles: "PARTICIPANT", CanPost: credits > 0, IsActive: true})
	cat := s.addCategory(models.Category{Code: "GENERAL", Name: "General", IsActive: true})
	if credits > 0 {
		s.addPayment(models.PaymentRecord{UserID: user.ID, Reference: "ref-seed", Amount: 500, PostsRemaining: credits, Status: models.PaymentStatusActive})
	}
	return user, cat
}

func TestCanCreateTopicAllowed(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, _ := seedAuthor(s, 2)

	elig, err := svc.CanCreateTopic(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, elig.Allowed)
	assert.Empty(t, elig.Reason)
}

func TestCanCreateTopicNoCredit(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, _ := seedAuthor(s, 0)

	elig, err := svc.CanCreateTopic(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
	assert.Equal(t, domain.ReasonNoCredit, elig.Reason)
}

func TestCanCreateTopicOpenTopicMasksMissingCredit(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 0)
	s.addTopic(models.Topic{Title: "first question", Body: "?", CategoryID: cat.ID, AuthorID: user.ID, Status: domain.StatusOpen})

	// An open topic must be reported even when the credit check would
	// also fail, so the user finishes the current thread before paying.
	elig, err := svc.CanCreateTopic(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
	assert.Equal(t, domain.ReasonOpenTopicExists, elig.Reason)
}

func TestCanCreateTopicUnknownUser(t *testing.T) {
	_, svc := newTopicTestEnv()

	_, err := svc.CanCreateTopic(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateTopicConsumesOneCredit(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 2)

	topic, err := svc.Create(context.Background(), &CreateTopicInput{
		Title:      "persistent headache",
		Body:       "three days now",
		CategoryID: cat.ID,
	}, user.ID, "10.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, domain.StatusOpen, topic.Status)
	assert.Equal(t, user.ID, topic.AuthorID)

	stored := s.topics[topic.ID]
	assert.Equal(t, "persistent headache", stored.Title)

	record, err := s.repos().Payments.GetActiveByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, record.PostsRemaining)

	debited := s.users[user.ID]
	assert.True(t, debited.CanPost)

	actions := auditActions(s)
	assert.Contains(t, actions, models.ActionTopicCreate)
	assert.Contains(t, actions, models.ActionCreditConsume)
}

func TestCreateTopicLastCreditDisablesPosting(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 1)

	_, err := svc.Create(context.Background(), &CreateTopicInput{
		Title:      "rash on forearm",
		Body:       "photos attached",
		CategoryID: cat.ID,
	}, user.ID, "10.0.0.1")
	require.NoError(t, err)

	// Last credit gone: record flips inactive, can_post recomputed false.
	_, err = s.repos().Payments.GetActiveByUser(context.Background(), user.ID)
	assert.Error(t, err)

	debited := s.users[user.ID]
	assert.False(t, debited.CanPost)

	for _, p := range s.payments {
		assert.Equal(t, models.PaymentStatusInactive, p.Status)
		assert.Equal(t, 0, p.PostsRemaining)
	}
}

func TestCreateTopicWithoutCredit(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 0)

	_, err := svc.Create(context.Background(), &CreateTopicInput{
		Title:      "no credit",
		Body:       "should fail",
		CategoryID: cat.ID,
	}, user.ID, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrInsufficientCredit)
	assert.Empty(t, s.topics)
}

func TestCreateTopicSecondOpenDenied(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 5)

	_, err := svc.Create(context.Background(), &CreateTopicInput{
		Title: "first", Body: "q", CategoryID: cat.ID,
	}, user.ID, "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &CreateTopicInput{
		Title: "second", Body: "q", CategoryID: cat.ID,
	}, user.ID, "10.0.0.1")
	assert.ErrorIs(t, err, ErrOpenTopicExists)
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	// No credit was taken for the denied attempt.
	record, err := s.repos().Payments.GetActiveByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, record.PostsRemaining)
	assert.Len(t, s.topics, 1)
}

func TestCreateTopicUnknownCategory(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, _ := seedAuthor(s, 1)

	_, err := svc.Create(context.Background(), &CreateTopicInput{
		Title: "q", Body: "q", CategoryID: 999,
	}, user.ID, "10.0.0.1")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCreateTopicRollsBackWhenDebitFails(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 3)
	s.failPaymentUpdate = true

	_, err := svc.Create(context.Background(), &CreateTopicInput{
		Title: "doomed", Body: "q", CategoryID: cat.ID,
	}, user.ID, "10.0.0.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	// Atomicity: no topic without a debit, no audit trail either.
	assert.Empty(t, s.topics)
	assert.Empty(t, s.audits)
	record, gerr := s.repos().Payments.GetActiveByUser(context.Background(), user.ID)
	require.NoError(t, gerr)
	assert.Equal(t, 3, record.PostsRemaining)
}

func TestAssignExpert(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 1)
	expert := s.addUser(models.User{Username: "dr.bob", Email: "bob@example.com", Roles: "EXPERT", IsActive: true})
	topic := s.addTopic(models.Topic{Title: "q", Body: "q", CategoryID: cat.ID, AuthorID: user.ID, Status: domain.StatusOpen})

	got, err := svc.AssignExpert(context.Background(), topic.ID, expert.ID, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	require.NotNil(t, got.AssignedExpertID)
	assert.Equal(t, expert.ID, *got.AssignedExpertID)

	// Already taken: a second expert cannot assign again.
	other := s.addUser(models.User{Username: "dr.eve", Email: "eve@example.com", Roles: "EXPERT", IsActive: true})
	_, err = svc.AssignExpert(context.Background(), topic.ID, other.ID, "10.0.0.3")
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
}

func TestAssignByNonExpertDenied(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 1)
	topic := s.addTopic(models.Topic{Title: "q", Body: "q", CategoryID: cat.ID, AuthorID: user.ID, Status: domain.StatusOpen})

	_, err := svc.AssignExpert(context.Background(), topic.ID, user.ID, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	unchanged := s.topics[topic.ID]
	assert.Equal(t, domain.StatusOpen, unchanged.Status)
}

func TestCloseIsTerminal(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 1)
	topic := s.addTopic(models.Topic{Title: "q", Body: "q", CategoryID: cat.ID, AuthorID: user.ID, Status: domain.StatusAnswered})

	got, err := svc.Close(context.Background(), topic.ID, user.ID, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)

	// Closing twice is a violation, not a silent no-op.
	_, err = svc.Close(context.Background(), topic.ID, user.ID, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
}

func TestCloseByStrangerDenied(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 1)
	stranger := s.addUser(models.User{Username: "carol", Email: "carol@example.com", Roles: "PARTICIPANT", IsActive: true})
	topic := s.addTopic(models.Topic{Title: "q", Body: "q", CategoryID: cat.ID, AuthorID: user.ID, Status: domain.StatusOpen})

	_, err := svc.Close(context.Background(), topic.ID, stranger.ID, "10.0.0.9")
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
}

func TestTransitionDirectRequests(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 1)
	topic := s.addTopic(models.Topic{Title: "q", Body: "q", CategoryID: cat.ID, AuthorID: user.ID, Status: domain.StatusOpen})

	// ANSWERED and OPEN only happen as side effects, never on request.
	_, err := svc.Transition(context.Background(), topic.ID, domain.StatusAnswered, user.ID, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	_, err = svc.Transition(context.Background(), topic.ID, domain.StatusOpen, user.ID, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	_, err = svc.Transition(context.Background(), topic.ID, "ARCHIVED", user.ID, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := svc.Transition(context.Background(), topic.ID, domain.StatusClosed, user.ID, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
}

func TestHistoryRecordsLifecycle(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 2)

	topic, err := svc.Create(context.Background(), &CreateTopicInput{
		Title: "q", Body: "q", CategoryID: cat.ID,
	}, user.ID, "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), topic.ID, user.ID, "10.0.0.1")
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), topic.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var actions []string
	for _, e := range entries {
		actions = append(actions, e.ActionType)
	}
	assert.Contains(t, actions, models.ActionTopicCreate)
	assert.Contains(t, actions, models.ActionCreditConsume)
	assert.Contains(t, actions, models.ActionStatusChange)
}

func TestHistoryUnknownTopic(t *testing.T) {
	_, svc := newTopicTestEnv()

	_, err := svc.History(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTopicNotFound)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	_, svc := newTopicTestEnv()

	_, err := svc.List(context.Background(), &ListInput{Status: "PENDING"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListFiltersByStatus(t *testing.T) {
	s, svc := newTopicTestEnv()
	user, cat := seedAuthor(s, 1)
	s.addTopic(models.Topic{Title: "a", Body: "a", CategoryID: cat.ID, AuthorID: user.ID, Status: domain.StatusOpen})
	s.addTopic(models.Topic{Title: "b", Body: "b", CategoryID: cat.ID, AuthorID: user.ID, Status: domain.StatusClosed})

	out, err := svc.List(context.Background(), &ListInput{Status: domain.StatusOpen})
	require.NoError(t, err)
	require.Len(t, out.Topics, 1)
	assert.Equal(t, "a", out.Topics[0].Title)
	assert.Equal(t, int64(1), out.Total)
}

func auditActions(s *memStore) []string {
	actions := make([]string, 0, len(s.audits))
	for _, e := range s.audits {
		actions = append(actions, e.ActionType)
	}
	return actions
}
