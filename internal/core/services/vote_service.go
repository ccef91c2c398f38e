package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
	"github.com/nchatharoo/FeaturesVote/internal/metrics"
)

// voteService sequences one end-to-end vote attempt and keeps the
// in-memory vote status index consistent with the ledger.
//
// The mutex is the serialization point required by the ledger: it spans
// the eligibility check and the record step so two near-simultaneous
// attempts cannot both pass the daily-quota gate before either
// increments the counter. The notifier call deliberately runs outside
// the critical section; a slow relay must not block the next attempt.
type voteService struct {
	mu       sync.Mutex
	ledger   ports.VoteLedger
	notifier ports.Notifier
	loader   ports.CatalogLoader
	logger   *zap.Logger
	now      func() time.Time

	catalog domain.Catalog
	voted   map[string]bool
}

func NewVoteService(ledger ports.VoteLedger, notifier ports.Notifier, loader ports.CatalogLoader, logger *zap.Logger) ports.VoteService {
	return &voteService{
		ledger:   ledger,
		notifier: notifier,
		loader:   loader,
		logger:   logger,
		now:      time.Now,
		voted:    make(map[string]bool),
	}
}

func (s *voteService) Reload(ctx context.Context) error {
	catalog, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	votedIDs, err := s.ledger.VotedFeatureIDs(ctx)
	if err != nil {
		return fmt.Errorf("reading voted features: %w", err)
	}

	voted := make(map[string]bool, len(catalog))
	for _, f := range catalog {
		voted[f.ID] = false
	}
	for _, id := range votedIDs {
		if _, ok := voted[id]; ok {
			voted[id] = true
		}
	}

	s.mu.Lock()
	s.catalog = catalog
	s.voted = voted
	s.mu.Unlock()

	s.logger.Info("catalog loaded",
		zap.Int("features", len(catalog)),
		zap.Int("voted", len(votedIDs)))
	return nil
}

func (s *voteService) AttemptVote(ctx context.Context, featureID string) (ports.VoteReceipt, error) {
	now := s.now()

	s.mu.Lock()
	feature, ok := s.catalog.ByID(featureID)
	if !ok {
		s.mu.Unlock()
		metrics.VotesTotal.WithLabelValues("not_found").Inc()
		return ports.VoteReceipt{}, domain.ErrFeatureNotFound
	}

	// Fast local check, catches the common double-tap without a store
	// round trip.
	if s.voted[featureID] {
		s.mu.Unlock()
		metrics.VotesTotal.WithLabelValues("already_voted").Inc()
		return ports.VoteReceipt{}, domain.ErrAlreadyVoted
	}

	eligible, err := s.ledger.IsEligible(ctx, featureID, now)
	if err != nil {
		s.mu.Unlock()
		return ports.VoteReceipt{}, fmt.Errorf("checking eligibility: %w", err)
	}
	if !eligible {
		s.mu.Unlock()
		metrics.VotesTotal.WithLabelValues("rate_limited").Inc()
		return ports.VoteReceipt{}, domain.ErrRateLimited
	}

	// Mark before recording so a concurrent attempt for the same
	// feature fails fast at the index check instead of racing on the
	// ledger. Rolled back if the write fails.
	s.voted[featureID] = true

	if err := s.ledger.RecordVote(ctx, featureID, now); err != nil {
		s.voted[featureID] = false
		s.mu.Unlock()
		metrics.VotesTotal.WithLabelValues("persistence_error").Inc()
		s.logger.Error("vote not recorded", zap.String("feature_id", featureID), zap.Error(err))
		return ports.VoteReceipt{}, err
	}
	s.mu.Unlock()

	metrics.VotesTotal.WithLabelValues("recorded").Inc()
	s.logger.Info("vote recorded", zap.String("feature_id", featureID))

	receipt := ports.VoteReceipt{FeatureID: featureID, VotedAt: now, Notified: true}

	installationID, err := s.ledger.InstallationID(ctx)
	if err != nil {
		// The vote is durable; a missing installation id only degrades
		// the relayed event.
		s.logger.Warn("installation id unavailable", zap.Error(err))
	}

	event := ports.VoteEvent{
		InstallationID: installationID,
		Feature:        feature,
		VotedAt:        now,
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		metrics.NotifyTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("vote recorded but relay failed",
			zap.String("feature_id", featureID), zap.Error(err))
		receipt.Notified = false
		receipt.NotifyErr = fmt.Errorf("%w: %w", domain.ErrNotifyFailed, err)
		return receipt, nil
	}

	metrics.NotifyTotal.WithLabelValues("delivered").Inc()
	return receipt, nil
}

func (s *voteService) Features(ctx context.Context) ([]ports.FeatureStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]ports.FeatureStatus, 0, len(s.catalog))
	for _, f := range s.catalog {
		statuses = append(statuses, ports.FeatureStatus{Feature: f, Voted: s.voted[f.ID]})
	}
	return statuses, nil
}

func (s *voteService) VotedFeatureIDs(ctx context.Context) ([]string, error) {
	return s.ledger.VotedFeatureIDs(ctx)
}
