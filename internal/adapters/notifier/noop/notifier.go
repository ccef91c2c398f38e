// Package noop provides a notifier that discards every event.
package noop

import (
	"context"

	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
)

type Notifier struct{}

func NewNotifier() *Notifier {
	return &Notifier{}
}

var _ ports.Notifier = (*Notifier)(nil)

func (n *Notifier) Notify(ctx context.Context, event ports.VoteEvent) error {
	return nil
}
