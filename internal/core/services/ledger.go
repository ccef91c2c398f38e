package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
)

// voteLedger persists the per-installation vote record as four values in
// the key-value store, namespaced by the application identifier:
//
//	<ns>.votedFeatures   JSON string array
//	<ns>.lastVoteTime    JSON RFC3339 timestamp
//	<ns>.votesCountToday JSON integer
//	<ns>.lastVoteDate    JSON RFC3339 timestamp, start of local day
//
// Reads degrade: a store error or malformed payload is treated as "no
// prior state" so a corrupted record can never block the eligibility
// check. Writes are hard failures.
//
// The ledger itself does not lock. RecordVote trusts that the caller has
// already confirmed eligibility and serializes mutations.
type voteLedger struct {
	store  ports.KeyValueStore
	policy domain.RateLimitPolicy
	loc    *time.Location
	logger *zap.Logger

	votedFeaturesKey   string
	lastVoteTimeKey    string
	votesCountTodayKey string
	lastVoteDateKey    string
	installationIDKey  string
}

type LedgerOption func(*voteLedger)

// WithLocation overrides the time zone used for local-day comparisons.
// Defaults to time.Local.
func WithLocation(loc *time.Location) LedgerOption {
	return func(l *voteLedger) { l.loc = loc }
}

func NewVoteLedger(store ports.KeyValueStore, namespace string, policy domain.RateLimitPolicy, logger *zap.Logger, opts ...LedgerOption) ports.VoteLedger {
	l := &voteLedger{
		store:  store,
		policy: policy,
		loc:    time.Local,
		logger: logger,

		votedFeaturesKey:   namespace + ".votedFeatures",
		lastVoteTimeKey:    namespace + ".lastVoteTime",
		votesCountTodayKey: namespace + ".votesCountToday",
		lastVoteDateKey:    namespace + ".lastVoteDate",
		installationIDKey:  namespace + ".installationID",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *voteLedger) IsEligible(ctx context.Context, featureID string, now time.Time) (bool, error) {
	if featureID == "" {
		return false, errors.New("feature id must not be empty")
	}

	record := l.loadRecord(ctx)

	// Gate 1: one vote per feature, ever.
	if record.HasVoted(featureID) {
		return false, nil
	}

	// Gate 2: minimum spacing between consecutive votes.
	if !record.LastVoteTime.IsZero() && now.Sub(record.LastVoteTime) < l.policy.MinTimeBetweenVotes {
		return false, nil
	}

	// Gate 3: daily quota, against the local calendar day. A day that
	// differs from the stored counter day means the count has
	// implicitly reset; the rolled-over counter is only written by
	// RecordVote, never here.
	if l.sameLocalDay(now, record.DailyCounterDay) && record.DailyVoteCount >= l.policy.MaxVotesPerDay {
		return false, nil
	}

	return true, nil
}

func (l *voteLedger) RecordVote(ctx context.Context, featureID string, now time.Time) error {
	if featureID == "" {
		return errors.New("feature id must not be empty")
	}

	record := l.loadRecord(ctx)

	voted := append(record.VotedFeatureIDs, featureID)
	if err := l.putJSON(ctx, l.votedFeaturesKey, voted); err != nil {
		return err
	}

	if err := l.putJSON(ctx, l.lastVoteTimeKey, now); err != nil {
		return err
	}

	if l.sameLocalDay(now, record.DailyCounterDay) {
		return l.putJSON(ctx, l.votesCountTodayKey, record.DailyVoteCount+1)
	}

	// New day: reset the counter to this vote and roll the day forward.
	if err := l.putJSON(ctx, l.votesCountTodayKey, 1); err != nil {
		return err
	}
	return l.putJSON(ctx, l.lastVoteDateKey, l.startOfDay(now))
}

func (l *voteLedger) VotedFeatureIDs(ctx context.Context) ([]string, error) {
	return l.loadStringSlice(ctx, l.votedFeaturesKey), nil
}

func (l *voteLedger) InstallationID(ctx context.Context) (string, error) {
	raw, err := l.store.Get(ctx, l.installationIDKey)
	if err == nil && len(raw) > 0 {
		var id string
		if jsonErr := json.Unmarshal(raw, &id); jsonErr == nil && id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := l.putJSON(ctx, l.installationIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}

// loadRecord assembles the persisted record, substituting the zero value
// for any field that cannot be read or decoded.
func (l *voteLedger) loadRecord(ctx context.Context) domain.VoteRecord {
	return domain.VoteRecord{
		VotedFeatureIDs: l.loadStringSlice(ctx, l.votedFeaturesKey),
		LastVoteTime:    l.loadTime(ctx, l.lastVoteTimeKey),
		DailyVoteCount:  l.loadInt(ctx, l.votesCountTodayKey),
		DailyCounterDay: l.loadTime(ctx, l.lastVoteDateKey),
	}
}

func (l *voteLedger) loadStringSlice(ctx context.Context, key string) []string {
	var out []string
	l.loadJSON(ctx, key, &out)
	return out
}

func (l *voteLedger) loadTime(ctx context.Context, key string) time.Time {
	var out time.Time
	l.loadJSON(ctx, key, &out)
	return out
}

func (l *voteLedger) loadInt(ctx context.Context, key string) int {
	var out int
	l.loadJSON(ctx, key, &out)
	return out
}

func (l *voteLedger) loadJSON(ctx context.Context, key string, out any) {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn("store read failed, treating as empty", zap.String("key", key), zap.Error(err))
		return
	}
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, out); err != nil {
		l.logger.Warn("malformed record, treating as empty", zap.String("key", key), zap.Error(err))
	}
}

func (l *voteLedger) putJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", domain.ErrPersistence, key, err)
	}
	if err := l.store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: writing %s: %w", domain.ErrPersistence, key, err)
	}
	return nil
}

func (l *voteLedger) sameLocalDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	al, bl := a.In(l.loc), b.In(l.loc)
	return al.Year() == bl.Year() && al.YearDay() == bl.YearDay()
}

func (l *voteLedger) startOfDay(t time.Time) time.Time {
	tl := t.In(l.loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, l.loc)
}
