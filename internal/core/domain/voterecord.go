package domain

import "time"

// VoteRecord is the persisted voting state of one installation.
// DailyVoteCount is only meaningful together with DailyCounterDay: when
// the current local day differs from DailyCounterDay the effective count
// is zero, regardless of the stored value.
type VoteRecord struct {
	VotedFeatureIDs []string
	LastVoteTime    time.Time // zero before any vote
	DailyVoteCount  int
	DailyCounterDay time.Time // start of local day, epoch before any vote
}

func (r VoteRecord) HasVoted(featureID string) bool {
	for _, id := range r.VotedFeatureIDs {
		if id == featureID {
			return true
		}
	}
	return false
}

// RateLimitPolicy caps how often an installation may vote. Immutable for
// the lifetime of a ledger.
type RateLimitPolicy struct {
	MaxVotesPerDay      int
	MinTimeBetweenVotes time.Duration
}

// DefaultRateLimitPolicy mirrors the product defaults: ten votes per
// local day, thirty seconds between consecutive votes.
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{
		MaxVotesPerDay:      10,
		MinTimeBetweenVotes: 30 * time.Second,
	}
}
