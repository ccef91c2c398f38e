package domain

import "errors"

var (
	ErrFeatureNotFound = errors.New("feature not found")
	ErrAlreadyVoted    = errors.New("already voted for this feature")
	ErrRateLimited     = errors.New("vote limit reached, try again later")
	ErrPersistence     = errors.New("failed to persist vote")
	ErrNotifyFailed    = errors.New("failed to relay vote notification")
)
