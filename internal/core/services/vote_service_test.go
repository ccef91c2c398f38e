package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nchatharoo/FeaturesVote/internal/adapters/store/memory"
	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
)

type staticCatalog struct {
	catalog domain.Catalog
	err     error
}

func (s *staticCatalog) Load(ctx context.Context) (domain.Catalog, error) {
	return s.catalog, s.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []ports.VoteEvent
	err    error
}

func (n *fakeNotifier) Notify(ctx context.Context, event ports.VoteEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

// fakeClock lets tests move wall-clock time by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type fixture struct {
	service  *voteService
	store    ports.KeyValueStore
	notifier *fakeNotifier
	clock    *fakeClock
}

func newFixture(t *testing.T, policy domain.RateLimitPolicy, catalog domain.Catalog) *fixture {
	t.Helper()

	store := memory.NewStore()
	return newFixtureWithStore(t, store, policy, catalog)
}

func newFixtureWithStore(t *testing.T, store ports.KeyValueStore, policy domain.RateLimitPolicy, catalog domain.Catalog) *fixture {
	t.Helper()

	ledger := NewVoteLedger(store, testNamespace, policy, zap.NewNop(), WithLocation(time.UTC))
	notifier := &fakeNotifier{}
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	service := NewVoteService(ledger, notifier, &staticCatalog{catalog: catalog}, zap.NewNop()).(*voteService)
	service.now = clock.Now
	require.NoError(t, service.Reload(context.Background()))

	return &fixture{service: service, store: store, notifier: notifier, clock: clock}
}

func twoFeatures() domain.Catalog {
	return domain.Catalog{
		{ID: "f1", Title: "Dark mode", Description: "A dark theme"},
		{ID: "f2", Title: "Offline sync", Description: "Work without network"},
	}
}

func TestAttemptVoteSuccess(t *testing.T) {
	f := newFixture(t, domain.DefaultRateLimitPolicy(), twoFeatures())

	receipt, err := f.service.AttemptVote(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", receipt.FeatureID)
	assert.True(t, receipt.Notified)
	assert.NoError(t, receipt.NotifyErr)

	ids, err := f.service.VotedFeatureIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "Dark mode", f.notifier.events[0].Feature.Title)
	assert.NotEmpty(t, f.notifier.events[0].InstallationID)

	statuses, err := f.service.Features(context.Background())
	require.NoError(t, err)
	assert.True(t, statuses[0].Voted)
	assert.False(t, statuses[1].Voted)
}

func TestAttemptVoteFeatureNotFound(t *testing.T) {
	f := newFixture(t, domain.DefaultRateLimitPolicy(), twoFeatures())

	_, err := f.service.AttemptVote(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrFeatureNotFound)
}

func TestAttemptVoteAlreadyVoted(t *testing.T) {
	f := newFixture(t, domain.RateLimitPolicy{MaxVotesPerDay: 10, MinTimeBetweenVotes: 0}, twoFeatures())

	_, err := f.service.AttemptVote(context.Background(), "f1")
	require.NoError(t, err)

	// No amount of elapsed time reopens a voted feature.
	f.clock.Advance(72 * time.Hour)
	_, err = f.service.AttemptVote(context.Background(), "f1")
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
}

func TestAttemptVoteCooldown(t *testing.T) {
	policy := domain.RateLimitPolicy{MaxVotesPerDay: 10, MinTimeBetweenVotes: 30 * time.Second}
	f := newFixture(t, policy, twoFeatures())

	_, err := f.service.AttemptVote(context.Background(), "f1")
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	_, err = f.service.AttemptVote(context.Background(), "f2")
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	f.clock.Advance(21 * time.Second)
	_, err = f.service.AttemptVote(context.Background(), "f2")
	assert.NoError(t, err)
}

func TestDailyQuotaThenNextDay(t *testing.T) {
	policy := domain.RateLimitPolicy{MaxVotesPerDay: 1, MinTimeBetweenVotes: 0}
	f := newFixture(t, policy, twoFeatures())

	_, err := f.service.AttemptVote(context.Background(), "f1")
	require.NoError(t, err)

	ids, err := f.service.VotedFeatureIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids)

	// Same local day, quota of one exhausted.
	f.clock.Advance(time.Hour)
	_, err = f.service.AttemptVote(context.Background(), "f2")
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	// Next local day.
	f.clock.Set(time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC))
	_, err = f.service.AttemptVote(context.Background(), "f2")
	assert.NoError(t, err)
}

func TestPersistenceFailureRollsBackIndex(t *testing.T) {
	store := &failingStore{KeyValueStore: memory.NewStore(), failures: 1}
	f := newFixtureWithStore(t, store, domain.RateLimitPolicy{MaxVotesPerDay: 10, MinTimeBetweenVotes: 0}, twoFeatures())

	_, err := f.service.AttemptVote(context.Background(), "f1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	// The optimistic index mark must have been reverted, so the retry
	// goes through once the store recovers.
	receipt, err := f.service.AttemptVote(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", receipt.FeatureID)
}

func TestNotifierFailureDoesNotUnwindVote(t *testing.T) {
	f := newFixture(t, domain.DefaultRateLimitPolicy(), twoFeatures())
	f.notifier.err = errors.New("webhook down")

	receipt, err := f.service.AttemptVote(context.Background(), "f1")
	require.NoError(t, err, "a relay failure is not a vote failure")
	assert.False(t, receipt.Notified)
	assert.ErrorIs(t, receipt.NotifyErr, domain.ErrNotifyFailed)

	// The vote is durable and keeps blocking the feature.
	ids, err := f.service.VotedFeatureIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids)

	_, err = f.service.AttemptVote(context.Background(), "f1")
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
}

func TestConcurrentAttemptsNeverDoubleVote(t *testing.T) {
	policy := domain.RateLimitPolicy{MaxVotesPerDay: 2, MinTimeBetweenVotes: 0}
	f := newFixture(t, policy, twoFeatures())

	// One slot left in the quota.
	_, err := f.service.AttemptVote(context.Background(), "f2")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.AttemptVote(context.Background(), "f1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejects int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		require.True(t,
			errors.Is(err, domain.ErrAlreadyVoted) || errors.Is(err, domain.ErrRateLimited),
			"unexpected error: %v", err)
		rejects++
	}
	assert.Equal(t, 1, successes, "exactly one of the racing attempts may win")
	assert.Equal(t, 1, rejects)

	ids, err := f.service.VotedFeatureIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"f1", "f2"}, ids)
}

func TestReloadSeedsStatusFromLedger(t *testing.T) {
	store := memory.NewStore()
	f := newFixtureWithStore(t, store, domain.DefaultRateLimitPolicy(), twoFeatures())

	_, err := f.service.AttemptVote(context.Background(), "f1")
	require.NoError(t, err)

	// A second service over the same store picks up the voted state.
	restarted := newFixtureWithStore(t, store, domain.DefaultRateLimitPolicy(), twoFeatures())
	statuses, err := restarted.service.Features(context.Background())
	require.NoError(t, err)
	assert.True(t, statuses[0].Voted)
	assert.False(t, statuses[1].Voted)
}

func TestReloadPropagatesCatalogError(t *testing.T) {
	ledger := NewVoteLedger(memory.NewStore(), testNamespace, domain.DefaultRateLimitPolicy(), zap.NewNop())
	service := NewVoteService(ledger, &fakeNotifier{}, &staticCatalog{err: errors.New("bad blob")}, zap.NewNop())

	err := service.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading catalog")
}
