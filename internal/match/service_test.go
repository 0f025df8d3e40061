package match_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/docstore"
	"github.com/coolmes833/swapskills/internal/logger"
	"github.com/coolmes833/swapskills/internal/match"
)

//
// Test helpers
//

var errUnavailable = errors.New("store unavailable")

// faultyStore wraps a store and fails writes to chosen documents.
type faultyStore struct {
	docstore.Store

	mu         sync.Mutex
	failSet    map[string]bool // "collection|id"
	failDelete map[string]bool
	setCalls   map[string]int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		Store:      docstore.NewMemoryStore(),
		failSet:    map[string]bool{},
		failDelete: map[string]bool{},
		setCalls:   map[string]int{},
	}
}

func key(collection, id string) string { return collection + "|" + id }

func (f *faultyStore) breakSet(collection, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key(collection, id)] = true
}

func (f *faultyStore) breakDelete(collection, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete[key(collection, id)] = true
}

func (f *faultyStore) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = map[string]bool{}
	f.failDelete = map[string]bool{}
}

func (f *faultyStore) sets(collection, id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls[key(collection, id)]
}

func (f *faultyStore) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	f.mu.Lock()
	f.setCalls[key(collection, id)]++
	fail := f.failSet[key(collection, id)]
	f.mu.Unlock()
	if fail {
		return errUnavailable
	}
	return f.Store.Set(ctx, collection, id, fields)
}

func (f *faultyStore) Delete(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	fail := f.failDelete[key(collection, id)]
	f.mu.Unlock()
	if fail {
		return errUnavailable
	}
	return f.Store.Delete(ctx, collection, id)
}

func setupService(t *testing.T, opts match.Options) (*match.Service, *faultyStore) {
	t.Helper()
	store := newFaultyStore()
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 3
	}
	opts.RetryInterval = time.Millisecond
	return match.NewService(store, logger.Discard(), opts), store
}

func defaultOptions() match.Options {
	return match.Options{ReofferRevoked: true}
}

func sess(id string) auth.Session { return auth.Session{UserID: id} }

// record reads owner→target straight from the store.
func record(t *testing.T, store docstore.Store, owner, target string) (match.Status, bool) {
	t.Helper()
	doc, err := store.Get(context.Background(), match.LikesCollection(owner), target)
	if errors.Is(err, docstore.ErrNotFound) {
		return "", false
	}
	require.NoError(t, err)
	return match.Status(doc.Fields.String("status")), true
}

func countRecords(t *testing.T, store docstore.Store, owner string) int {
	t.Helper()
	docs, err := store.List(context.Background(), match.LikesCollection(owner))
	require.NoError(t, err)
	return len(docs)
}

//
// Tests
//

func TestRecordInterest_FirstLikeIsPending(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	st, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, match.StatusPending, st)

	status, ok := record(t, store, "a", "b")
	require.True(t, ok)
	assert.Equal(t, match.StatusPending, status)
	assert.Equal(t, 1, countRecords(t, store, "a"))
	assert.Equal(t, 0, countRecords(t, store, "b"))
}

func TestRecordInterest_MutualLikeMatchesBoth(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	st, err := svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	assert.Equal(t, match.StatusMatched, st)

	ab, _ := record(t, store, "a", "b")
	ba, _ := record(t, store, "b", "a")
	assert.Equal(t, match.StatusMatched, ab)
	assert.Equal(t, match.StatusMatched, ba)
}

func TestRecordInterest_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	first, err := store.Get(ctx, match.LikesCollection("a"), "b")
	require.NoError(t, err)

	st, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, match.StatusPending, st)

	second, err := store.Get(ctx, match.LikesCollection("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, first.Fields, second.Fields, "re-liking must not reset the record")
	assert.Equal(t, 1, store.sets(match.LikesCollection("a"), "b"))
	assert.Equal(t, 1, countRecords(t, store, "a"))

	// once matched, repeated likes from either side change nothing
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	writesAB := store.sets(match.LikesCollection("a"), "b")
	writesBA := store.sets(match.LikesCollection("b"), "a")
	for _, s := range []string{"a", "b"} {
		other := map[string]string{"a": "b", "b": "a"}[s]
		st, err := svc.RecordInterest(ctx, sess(s), other)
		require.NoError(t, err)
		assert.Equal(t, match.StatusMatched, st)
	}
	assert.Equal(t, writesAB, store.sets(match.LikesCollection("a"), "b"))
	assert.Equal(t, writesBA, store.sets(match.LikesCollection("b"), "a"))
}

func TestRecordInterest_Preconditions(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "a")
	assert.ErrorIs(t, err, match.ErrSelfInterest)

	_, err = svc.RecordInterest(ctx, auth.Session{}, "b")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = svc.RecordInterest(ctx, sess("a"), "")
	assert.ErrorIs(t, err, match.ErrInvalidTarget)

	_, err = svc.RecordInterest(ctx, sess("a"), "b/users/c")
	assert.ErrorIs(t, err, match.ErrInvalidTarget)

	assert.Equal(t, 0, countRecords(t, store, "a"), "rejected calls write nothing")
}

func TestRecordInterest_ConcurrentLikesConvergeOnNextLike(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	// both clients read "no counterpart" and wrote pending
	now := time.Now().UnixMilli()
	require.NoError(t, store.Store.Set(ctx, match.LikesCollection("a"), "b", docstore.Fields{"status": "pending", "timestamp": now}))
	require.NoError(t, store.Store.Set(ctx, match.LikesCollection("b"), "a", docstore.Fields{"status": "pending", "timestamp": now}))

	c, err := svc.EvaluateStatus(ctx, sess("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, match.AwaitingResponse, c)

	st, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, match.StatusMatched, st)

	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordInterest_PartialPromotionSelfHeals(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)

	// b's own write fails after a's record was promoted
	store.breakSet(match.LikesCollection("b"), "a")
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.ErrorIs(t, err, match.ErrPartialPromotion)
	assert.Equal(t, 3, store.sets(match.LikesCollection("b"), "a"), "bounded retries")

	ab, _ := record(t, store, "a", "b")
	assert.Equal(t, match.StatusMatched, ab)
	_, exists := record(t, store, "b", "a")
	assert.False(t, exists)

	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok, "no chat until both sides are matched")

	// the next like heals the asymmetry
	store.heal()
	st, err := svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	assert.Equal(t, match.StatusMatched, st)

	ok, err = svc.CanChat(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordInterest_FailedCounterpartPromotionChangesNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)

	store.breakSet(match.LikesCollection("a"), "b")
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.ErrorIs(t, err, errUnavailable)
	assert.NotErrorIs(t, err, match.ErrPartialPromotion)

	ab, _ := record(t, store, "a", "b")
	assert.Equal(t, match.StatusPending, ab)
	_, exists := record(t, store, "b", "a")
	assert.False(t, exists)

	// caller-level retry completes the match
	store.heal()
	st, err := svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	assert.Equal(t, match.StatusMatched, st)
}

func TestEvaluateStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t, defaultOptions())

	c, err := svc.EvaluateStatus(ctx, sess("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, match.Unseen, c)

	_, err = svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)

	c, err = svc.EvaluateStatus(ctx, sess("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, match.AwaitingResponse, c)

	c, err = svc.EvaluateStatus(ctx, sess("b"), "a")
	require.NoError(t, err)
	assert.Equal(t, match.IncomingRequest, c)

	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		c, err = svc.EvaluateStatus(ctx, sess(pair[0]), pair[1])
		require.NoError(t, err)
		assert.Equal(t, match.Matched, c)
	}
}

func TestCancelRequest(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	require.NoError(t, svc.CancelRequest(ctx, sess("a"), "b"), "no record is a no-op")

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	require.NoError(t, svc.CancelRequest(ctx, sess("a"), "b"))
	_, exists := record(t, store, "a", "b")
	assert.False(t, exists)

	_, err = svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.CancelRequest(ctx, sess("a"), "b"), match.ErrAlreadyMatched)
}

func TestScenario_LikeMatchRevoke(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	st, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, match.StatusPending, st)

	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.RevokeMatch(ctx, sess("a"), "b"))

	assert.Equal(t, 0, countRecords(t, store, "a"))
	assert.Equal(t, 0, countRecords(t, store, "b"))
	ok, err = svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		c, err := svc.EvaluateStatus(ctx, sess(pair[0]), pair[1])
		require.NoError(t, err)
		assert.Equal(t, match.Unseen, c)
	}

	// default policy: revoked users are offered again
	cands, err := svc.Discover(ctx, sess("b"), []string{"a"})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "a", cands[0].UserID)

	repairs, err := svc.PendingRepairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, repairs)
}

func TestRevokeMatch_PartialFailureIsSurfacedAndSwept(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)

	store.breakDelete(match.LikesCollection("b"), "a")
	err = svc.RevokeMatch(ctx, sess("a"), "b")
	require.ErrorIs(t, err, match.ErrPartialRevocation)

	// chat is closed from the revoking side right away
	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.CanChat(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	repairs, err := svc.PendingRepairs(ctx)
	require.NoError(t, err)
	require.Len(t, repairs, 1)
	assert.Equal(t, match.IntentRevoke, repairs[0].Intent)

	// sweep while still broken keeps the entry
	res, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	store.heal()
	res, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Repaired)

	_, exists := record(t, store, "b", "a")
	assert.False(t, exists, "ghost match removed")
	repairs, err = svc.PendingRepairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, repairs)
}

func TestSweep_CompletesHalfPromotion(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	store.breakSet(match.LikesCollection("b"), "a")
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.ErrorIs(t, err, match.ErrPartialPromotion)

	store.heal()
	res, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Repaired)

	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSweep_PromoteRepairDroppedAfterRevoke(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	// stale promote entry for a pair whose counterpart is gone
	require.NoError(t, store.Set(ctx, "repairs", match.PairKey("a", "b"), docstore.Fields{
		"ownerId": "b", "targetId": "a", "intent": "promote", "createdAt": time.Now().UnixMilli(),
	}))
	require.NoError(t, store.Set(ctx, "repairs", "junk", docstore.Fields{"intent": "explode"}))

	res, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Repaired)
	assert.Equal(t, 1, res.Dropped)
	_, exists := record(t, store, "b", "a")
	assert.False(t, exists, "no record resurrected")
}

func TestDiscover_FiltersActedUponUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t, defaultOptions())

	// a → b pending, a ↔ c matched, d → a pending (incoming)
	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("a"), "c")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("c"), "a")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("d"), "a")
	require.NoError(t, err)

	cands, err := svc.Discover(ctx, sess("a"), []string{"a", "b", "c", "d", "e", "e", "x/y"})
	require.NoError(t, err)

	require.Len(t, cands, 2)
	assert.Equal(t, match.Candidate{UserID: "d", Status: match.IncomingRequest}, cands[0])
	assert.Equal(t, match.Candidate{UserID: "e", Status: match.Unseen}, cands[1])
}

func TestDiscover_HideRevokedPolicy(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t, match.Options{ReofferRevoked: false})

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	require.NoError(t, svc.RevokeMatch(ctx, sess("b"), "a"))

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		cands, err := svc.Discover(ctx, sess(pair[0]), []string{pair[1], "z"})
		require.NoError(t, err)
		require.Len(t, cands, 1)
		assert.Equal(t, "z", cands[0].UserID)
	}
}

func TestCanChat_Guards(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t, defaultOptions())

	for _, pair := range [][2]string{{"", "b"}, {"a", ""}, {"a", "a"}} {
		ok, err := svc.CanChat(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, ok)
	}

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok, "pending is not a match")
}

func TestCountMatched(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t, defaultOptions())

	for _, other := range []string{"b", "c"} {
		_, err := svc.RecordInterest(ctx, sess("a"), other)
		require.NoError(t, err)
	}
	_, err := svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)

	n, err := svc.CountMatched(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSweeper_RunRepairsInBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)

	store.breakDelete(match.LikesCollection("b"), "a")
	require.ErrorIs(t, svc.RevokeMatch(ctx, sess("a"), "b"), match.ErrPartialRevocation)
	store.heal()

	done := make(chan error, 1)
	go func() { done <- match.NewSweeper(svc, 5*time.Millisecond, logger.Discard()).Run(ctx) }()

	assert.Eventually(t, func() bool {
		repairs, err := svc.PendingRepairs(context.Background())
		return err == nil && len(repairs) == 0
	}, 2*time.Second, 10*time.Millisecond)
	_, exists := record(t, store, "b", "a")
	assert.False(t, exists)

	cancel()
	assert.NoError(t, <-done)
}

func TestRecordInterest_FinishesPartialRevocationFirst(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)

	store.breakDelete(match.LikesCollection("b"), "a")
	require.ErrorIs(t, svc.RevokeMatch(ctx, sess("a"), "b"), match.ErrPartialRevocation)
	store.heal()

	// the leftover b→a match must not be healed by a's new like
	st, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, match.StatusPending, st)

	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
	_, exists := record(t, store, "b", "a")
	assert.False(t, exists)

	repairs, err := svc.PendingRepairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, repairs)

	// b liking back is a fresh match that a sweep leaves alone
	st, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	assert.Equal(t, match.StatusMatched, st)
	_, err = svc.Sweep(ctx)
	require.NoError(t, err)
	ok, err = svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordInterest_StaleRevokeRepairKeepsRematch(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(t, defaultOptions())

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)

	// revocation succeeds but its outbox entry cannot be cleared
	store.breakDelete("repairs", match.PairKey("a", "b"))
	require.NoError(t, svc.RevokeMatch(ctx, sess("a"), "b"))
	store.heal()

	repairs, err := svc.PendingRepairs(ctx)
	require.NoError(t, err)
	require.Len(t, repairs, 1)

	_, err = svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	st, err := svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)
	require.Equal(t, match.StatusMatched, st)

	_, err = svc.Sweep(ctx)
	require.NoError(t, err)
	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok, "a match made after the revocation survives the sweep")
}

func TestSweep_RevokeSkipsRecordsNewerThanRepair(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	opts := defaultOptions()
	opts.Now = func() time.Time { return clock }
	svc, store := setupService(t, opts)

	_, err := svc.RecordInterest(ctx, sess("a"), "b")
	require.NoError(t, err)
	_, err = svc.RecordInterest(ctx, sess("b"), "a")
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	store.breakDelete("repairs", match.PairKey("a", "b"))
	require.NoError(t, svc.RevokeMatch(ctx, sess("a"), "b"))
	store.heal()

	// records rewritten after the revocation without going through the
	// service, as a concurrent like would
	later := clock.Add(time.Minute).UnixMilli()
	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		require.NoError(t, store.Set(ctx, match.LikesCollection(pair[0]), pair[1],
			docstore.Fields{"status": "matched", "timestamp": later}))
	}

	res, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Repaired)
	ok, err := svc.CanChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}
