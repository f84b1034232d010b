package domain

import "errors"

// Error taxonomy. Policy and credit errors are deterministic business
// outcomes; only ErrStoreUnavailable is eligible for automatic retry.
var (
	ErrPolicyViolation    = errors.New("policy violation")
	ErrInsufficientCredit = errors.New("insufficient posting credit")
	ErrConflict           = errors.New("conflicting concurrent update")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// ReasonCode identifies why an eligibility check denied an action.
type ReasonCode string

const (
	ReasonOpenTopicExists ReasonCode = "OPEN_TOPIC_EXISTS"
	ReasonNoCredit        ReasonCode = "NO_CREDIT"
)
