package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTopicCreation(t *testing.T) {
	tests := []struct {
		name      string
		open      int64
		canPost   bool
		remaining int
		allowed   bool
		reason    ReasonCode
	}{
		{"allowed with credit", 0, true, 2, true, ""},
		{"open topic blocks even with credit", 1, true, 5, false, ReasonOpenTopicExists},
		{"no credit flag blocks regardless of open count", 0, false, 3, false, ReasonNoCredit},
		{"zero remaining blocks", 0, true, 0, false, ReasonNoCredit},
		{"negative remaining blocks", 0, true, -1, false, ReasonNoCredit},
		{"open topic reported before credit", 2, false, 0, false, ReasonOpenTopicExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckTopicCreation(tt.open, tt.canPost, tt.remaining)
			assert.Equal(t, tt.allowed, got.Allowed)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestCheckTopicCreationNoCreditIgnoresOpenCount(t *testing.T) {
	// can_post = false must yield NO_CREDIT regardless of open-topic count
	// when there is no open topic to report first.
	got := CheckTopicCreation(0, false, 10)
	assert.False(t, got.Allowed)
	assert.Equal(t, ReasonNoCredit, got.Reason)
}

func TestCanReplyExpert(t *testing.T) {
	// Experts are uncapped and may reply to OPEN, IN_PROGRESS and ANSWERED.
	for _, status := range []string{StatusOpen, StatusInProgress, StatusAnswered} {
		assert.True(t, CanReply(expert, false, status, 99), status)
	}
	assert.False(t, CanReply(expert, false, StatusClosed, 0))
}

func TestCanReplyAuthorCap(t *testing.T) {
	assert.True(t, CanReply(participant, true, StatusOpen, 0))
	assert.True(t, CanReply(participant, true, StatusOpen, ReplyCap-1))
	assert.False(t, CanReply(participant, true, StatusOpen, ReplyCap))
	assert.False(t, CanReply(participant, true, StatusOpen, ReplyCap+1))
}

func TestCanReplyClosedDeniesEveryone(t *testing.T) {
	assert.False(t, CanReply(participant, true, StatusClosed, 0))
	assert.False(t, CanReply(admin, false, StatusClosed, 0))
	assert.False(t, CanReply(expert, true, StatusClosed, 0))
}

func TestCanReplyNonAuthorParticipant(t *testing.T) {
	// Threads are private between asker and expert.
	assert.False(t, CanReply(participant, false, StatusOpen, 0))
	assert.False(t, CanReply(admin, false, StatusOpen, 0))
}

func TestIsModerator(t *testing.T) {
	assert.True(t, IsModerator(expert))
	assert.True(t, IsModerator(admin))
	assert.False(t, IsModerator(participant))
	assert.False(t, IsModerator(nil))
}
