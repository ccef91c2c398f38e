package ports

import (
	"context"
	"time"
)

// VoteLedger is the single source of truth for whether this installation
// may vote right now, and for durably remembering that it just did.
//
// Callers own the serialization discipline: RecordVote does not re-check
// eligibility, so the IsEligible/RecordVote pair for one installation
// must execute as a single critical section.
type VoteLedger interface {
	// IsEligible evaluates the three gates (already voted, cooldown,
	// daily quota) against the persisted record. Read-only: a quota
	// check on a new local day never writes the rolled-over counter.
	IsEligible(ctx context.Context, featureID string, now time.Time) (bool, error)

	// RecordVote persists the updated record: append the feature id,
	// set the last-vote time, then roll or increment the daily bucket.
	RecordVote(ctx context.Context, featureID string, now time.Time) error

	// VotedFeatureIDs returns a snapshot of every feature id this
	// installation has voted for.
	VotedFeatureIDs(ctx context.Context) ([]string, error)

	// InstallationID returns the stable identifier of this store
	// instance, generating and persisting one on first use.
	InstallationID(ctx context.Context) (string, error)
}
