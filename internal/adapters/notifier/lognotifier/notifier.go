// Package lognotifier writes vote events to the application log instead
// of an external endpoint. Useful when no webhook is configured.
package lognotifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
)

type Notifier struct {
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

var _ ports.Notifier = (*Notifier)(nil)

func (n *Notifier) Notify(ctx context.Context, event ports.VoteEvent) error {
	n.logger.Info("vote event",
		zap.String("installation_id", event.InstallationID),
		zap.String("feature_id", event.Feature.ID),
		zap.String("feature_title", event.Feature.Title),
		zap.Time("voted_at", event.VotedAt))
	return nil
}
