package ports

import (
	"context"
	"time"

	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
)

// FeatureStatus pairs a catalog entry with whether this installation has
// already voted for it.
type FeatureStatus struct {
	Feature domain.Feature
	Voted   bool
}

// VoteReceipt reports the outcome of a successful vote. NotifyErr is set
// when the vote was durably recorded but the relay to the external
// notification endpoint failed; the vote still counts.
type VoteReceipt struct {
	FeatureID string
	VotedAt   time.Time
	Notified  bool
	NotifyErr error
}

type VoteService interface {
	// AttemptVote runs one end-to-end vote attempt for the feature.
	// Rejections are reported as domain.ErrFeatureNotFound,
	// domain.ErrAlreadyVoted, domain.ErrRateLimited or
	// domain.ErrPersistence.
	AttemptVote(ctx context.Context, featureID string) (VoteReceipt, error)

	// Features returns the catalog in display order with vote status.
	Features(ctx context.Context) ([]FeatureStatus, error)

	// VotedFeatureIDs returns the ids this installation has voted for.
	VotedFeatureIDs(ctx context.Context) ([]string, error)

	// Reload re-reads the catalog and rebuilds the vote status index
	// from the ledger.
	Reload(ctx context.Context) error
}
