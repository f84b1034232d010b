package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReplyTestEnv() (*memStore, *ReplyService) {
	s := newMemStore()
	r := s.repos()
	svc := NewReplyService(&memUnitOfWork{s: s}, r.Replies, r.Topics, r.Users, nil)
	return s, svc
}

type replyFixture struct {
	author *models.User
	expert *models.User
	admin  *models.User
	topic  *models.Topic
}

func seedThread(s *memStore, status string) replyFixture {
	author := s.addUser(models.User{Username: "alice", Email: "alice@example.com", Roles: "PARTICIPANT", IsActive: true})
	expert := s.addUser(models.User{Username: "dr.bob", Email: "bob@example.com", Roles: "EXPERT", IsActive: true})
	admin := s.addUser(models.User{Username: "root", Email: "root@example.com", Roles: "ADMIN", IsActive: true})
	cat := s.addCategory(models.Category{Code: "GENERAL", Name: "General", IsActive: true})
	topic := s.addTopic(models.Topic{Title: "q", Body: "q", CategoryID: cat.ID, AuthorID: author.ID, Status: status})
	return replyFixture{author: author, expert: expert, admin: admin, topic: topic}
}

func TestReplyAuthorCap(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	for i := 0; i < domain.ReplyCap; i++ {
		_, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: fmt.Sprintf("follow-up %d", i+1)}, fx.author.ID, "10.0.0.1")
		require.NoError(t, err)
	}

	_, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "one too many"}, fx.author.ID, "10.0.0.1")
	assert.ErrorIs(t, err, ErrReplyCap)
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
	assert.Len(t, s.replies, domain.ReplyCap)
}

func TestReplyCapUnderConcurrentSubmissions(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	// One slot left under the cap.
	for i := 0; i < domain.ReplyCap-1; i++ {
		_, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "prior"}, fx.author.ID, "10.0.0.1")
		require.NoError(t, err)
	}

	var ok, denied int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "race"}, fx.author.ID, "10.0.0.1")
			if err == nil {
				atomic.AddInt32(&ok, 1)
			} else {
				atomic.AddInt32(&denied, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(3), denied)
	assert.Len(t, s.replies, domain.ReplyCap)
}

func TestExpertReplyAnswersTopic(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	reply, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "take paracetamol"}, fx.expert.ID, "10.0.0.2")
	require.NoError(t, err)
	require.NotNil(t, reply)

	topic := s.topics[fx.topic.ID]
	assert.Equal(t, domain.StatusAnswered, topic.Status)
	require.NotNil(t, topic.AssignedExpertID)
	assert.Equal(t, fx.expert.ID, *topic.AssignedExpertID)
	assert.NotNil(t, topic.AnsweredAt)
}

func TestExpertReplyOnAnsweredStaysAnswered(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	_, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "first answer"}, fx.expert.ID, "10.0.0.2")
	require.NoError(t, err)

	// Experts stay uncapped on ANSWERED topics; no second transition fires.
	_, err = svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "clarification"}, fx.expert.ID, "10.0.0.2")
	require.NoError(t, err)

	topic := s.topics[fx.topic.ID]
	assert.Equal(t, domain.StatusAnswered, topic.Status)
	assert.Len(t, s.replies, 2)
}

func TestAuthorReplyOnAnsweredAllowedWithinCap(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusAnswered)

	_, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "thanks, one more thing"}, fx.author.ID, "10.0.0.1")
	require.NoError(t, err)

	topic := s.topics[fx.topic.ID]
	assert.Equal(t, domain.StatusAnswered, topic.Status)
}

func TestReplyOnClosedTopicDenied(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusClosed)

	for _, userID := range []uint{fx.author.ID, fx.expert.ID, fx.admin.ID} {
		_, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "too late"}, userID, "10.0.0.1")
		assert.ErrorIs(t, err, ErrTopicClosed)
	}
	assert.Empty(t, s.replies)
}

func TestReplyByStrangerDenied(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)
	stranger := s.addUser(models.User{Username: "carol", Email: "carol@example.com", Roles: "PARTICIPANT", IsActive: true})

	_, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "me too"}, stranger.ID, "10.0.0.9")
	assert.ErrorIs(t, err, ErrNotThread)

	// ADMIN without EXPERT moderates but does not participate in threads.
	_, err = svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "admin note"}, fx.admin.ID, "10.0.0.9")
	assert.ErrorIs(t, err, ErrNotThread)
}

func TestCanReplyAdvisoryCheck(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusClosed)

	elig, err := svc.CanReply(context.Background(), fx.topic.ID, fx.expert.ID)
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
}

func TestDeleteAnswerReopensTopic(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	reply, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "the answer"}, fx.expert.ID, "10.0.0.2")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), reply.ID, fx.admin.ID, "10.0.0.3")
	require.NoError(t, err)

	topic := s.topics[fx.topic.ID]
	assert.Equal(t, domain.StatusOpen, topic.Status)
	assert.Nil(t, topic.AssignedExpertID)
	assert.Nil(t, topic.AnsweredAt)
	assert.Empty(t, s.replies)
}

func TestDeleteOneOfSeveralExpertRepliesKeepsAnswered(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	first, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "answer"}, fx.expert.ID, "10.0.0.2")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "addendum"}, fx.expert.ID, "10.0.0.2")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), first.ID, fx.admin.ID, "10.0.0.3")
	require.NoError(t, err)

	// The expert still has a reply on record, so the answer stands.
	topic := s.topics[fx.topic.ID]
	assert.Equal(t, domain.StatusAnswered, topic.Status)
}

func TestDeleteAuthorReplyKeepsAnswered(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	authored, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "details"}, fx.author.ID, "10.0.0.1")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "answer"}, fx.expert.ID, "10.0.0.2")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), authored.ID, fx.admin.ID, "10.0.0.3")
	require.NoError(t, err)

	topic := s.topics[fx.topic.ID]
	assert.Equal(t, domain.StatusAnswered, topic.Status)
}

func TestDeleteByNonModeratorForbidden(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	reply, err := svc.Create(context.Background(), fx.topic.ID, &CreateReplyInput{Body: "mine"}, fx.author.ID, "10.0.0.1")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), reply.ID, fx.author.ID, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Len(t, s.replies, 1)
}

func TestDeleteUnknownReply(t *testing.T) {
	s, svc := newReplyTestEnv()
	fx := seedThread(s, domain.StatusOpen)

	err := svc.Delete(context.Background(), 404, fx.admin.ID, "10.0.0.3")
	assert.ErrorIs(t, err, ErrReplyNotFound)
}

func TestListByTopicUnknownTopic(t *testing.T) {
	_, svc := newReplyTestEnv()

	_, err := svc.ListByTopic(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTopicNotFound)
}
