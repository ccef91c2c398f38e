package ports

import (
	"context"
	"time"

	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
)

// VoteEvent is what gets relayed to an external system after a vote has
// been durably recorded.
type VoteEvent struct {
	InstallationID string
	Feature        domain.Feature
	VotedAt        time.Time
}

// Notifier delivers a vote event to an external system. Delivery is best
// effort: a failure never unwinds the recorded vote.
type Notifier interface {
	Notify(ctx context.Context, event VoteEvent) error
}
