package domain

// ReplyCap is the maximum number of replies a non-expert participant may
// post within a single topic. The cap counts Reply rows only; the original
// topic post is never counted against it.
const ReplyCap = 3

// Eligibility is the outcome of a posting-eligibility check.
type Eligibility struct {
	Allowed bool       `json:"allowed"`
	Reason  ReasonCode `json:"reason,omitempty"`
}

// CheckTopicCreation decides whether an account may create a new topic.
// Pure read-then-decide: credit consumption is a separate step performed
// only after the topic write has succeeded, inside the same transaction.
//
// Rule order matters: an existing open topic masks a missing credit, so a
// user is told to finish their current question before being sent to the
// payment flow.
func CheckTopicCreation(openTopics int64, canPost bool, postsRemaining int) Eligibility {
	if openTopics > 0 {
		return Eligibility{Reason: ReasonOpenTopicExists}
	}
	if !canPost || postsRemaining <= 0 {
		return Eligibility{Reason: ReasonNoCredit}
	}
	return Eligibility{Allowed: true}
}

// CanReply decides whether an account may submit a reply to a topic right
// now. priorReplies is the number of Reply rows the account already
// authored within the topic. Must be re-evaluated on every submission
// attempt under the topic's row lock; a cached result would let concurrent
// submissions bypass the cap.
func CanReply(roles []Role, isAuthor bool, topicStatus string, priorReplies int64) bool {
	if topicStatus == StatusClosed {
		return false
	}
	// Experts are never capped and may reply to ANSWERED topics, the one
	// case where that is legal. Threads stay private between asker and
	// expert, so everyone else is denied outright.
	if HasRole(roles, RoleExpert) {
		return true
	}
	if !isAuthor {
		return false
	}
	return priorReplies < ReplyCap
}
