package domain

import "fmt"

// Topic status values. IN_PROGRESS is reachable only through expert
// self-assignment; an expert may also answer straight from OPEN.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusAnswered   = "ANSWERED"
	StatusClosed     = "CLOSED"
)

// ValidStatus reports whether s is a known topic status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusAnswered, StatusClosed:
		return true
	}
	return false
}

// CanAssign guards the OPEN -> IN_PROGRESS transition (expert self-assigns).
func CanAssign(from string, roles []Role) error {
	if from == StatusClosed {
		return fmt.Errorf("%w: topic is closed", ErrPolicyViolation)
	}
	if from != StatusOpen {
		return fmt.Errorf("%w: cannot assign topic in status %s", ErrPolicyViolation, from)
	}
	if !HasRole(roles, RoleExpert) {
		return fmt.Errorf("%w: only experts may take a topic", ErrPolicyViolation)
	}
	return nil
}

// CanAnswer guards the OPEN/IN_PROGRESS -> ANSWERED transition, triggered
// by an expert reply being recorded. It is never reachable through a direct
// status-change request.
func CanAnswer(from string, roles []Role) error {
	if from != StatusOpen && from != StatusInProgress {
		return fmt.Errorf("%w: cannot answer topic in status %s", ErrPolicyViolation, from)
	}
	if !HasRole(roles, RoleExpert) {
		return fmt.Errorf("%w: only experts may answer", ErrPolicyViolation)
	}
	return nil
}

// CanClose guards closing a topic. The author or a moderator may close any
// non-closed topic. CLOSED is terminal: closing twice is a violation, not
// a silent no-op.
func CanClose(from string, roles []Role, isAuthor bool) error {
	if from == StatusClosed {
		return fmt.Errorf("%w: topic already closed", ErrPolicyViolation)
	}
	if !isAuthor && !IsModerator(roles) {
		return fmt.Errorf("%w: only the author or a moderator may close", ErrPolicyViolation)
	}
	return nil
}

// CanReopen guards the ANSWERED -> OPEN transition. It happens only as a
// side effect of a moderator deleting the expert's answering reply.
func CanReopen(from string, roles []Role) error {
	if from != StatusAnswered {
		return fmt.Errorf("%w: cannot reopen topic in status %s", ErrPolicyViolation, from)
	}
	if !IsModerator(roles) {
		return fmt.Errorf("%w: only moderators may reopen", ErrPolicyViolation)
	}
	return nil
}
