package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/docstore"
	"github.com/coolmes833/swapskills/internal/logger"
)

func TestClassify(t *testing.T) {
	pending := &InterestRecord{Status: StatusPending}
	matched := &InterestRecord{Status: StatusMatched}

	tests := []struct {
		name        string
		own         *InterestRecord
		counterpart *InterestRecord
		want        Classification
	}{
		{"nothing", nil, nil, Unseen},
		{"own pending", pending, nil, AwaitingResponse},
		{"own pending, counterpart pending", pending, pending, AwaitingResponse},
		{"own matched", matched, matched, Matched},
		{"incoming", nil, pending, IncomingRequest},
		{"half applied", nil, matched, Unseen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.own, tt.counterpart))
		})
	}
}

func TestDeriveView(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := func(id, status string, at time.Time) docstore.Document {
		return docstore.Document{
			Collection: LikesCollection("me"),
			ID:         id,
			Fields:     docstore.Fields{fieldStatus: status, fieldTimestamp: at.UnixMilli()},
			UpdatedAt:  at,
		}
	}

	v := DeriveView("me", []docstore.Document{
		doc("old", "pending", base),
		doc("new", "pending", base.Add(time.Hour)),
		doc("m1", "matched", base.Add(time.Minute)),
		doc("bad", "weird", base),
	})

	require.Len(t, v.Pending, 2)
	assert.Equal(t, "new", v.Pending[0].TargetID)
	assert.Equal(t, "old", v.Pending[1].TargetID)
	require.Len(t, v.Matched, 1)
	assert.Equal(t, "me", v.Matched[0].OwnerID)
	assert.Equal(t, 1, v.Skipped)

	// same snapshot twice derives the same view
	again := DeriveView("me", []docstore.Document{
		doc("bad", "weird", base),
		doc("m1", "matched", base.Add(time.Minute)),
		doc("new", "pending", base.Add(time.Hour)),
		doc("old", "pending", base),
	})
	assert.Equal(t, v, again)
}

func TestRecordFromDoc_FallsBackToUpdatedAt(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	rec, err := recordFromDoc("me", docstore.Document{
		ID:        "you",
		Fields:    docstore.Fields{fieldStatus: "pending"},
		UpdatedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, "you", rec.TargetID)
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, "alice_bob", PairKey("bob", "alice"))
	assert.Equal(t, PairKey("x", "y"), ThreadID("y", "x"))
	assert.Equal(t, "likes/u1/users", LikesCollection("u1"))
}

func TestWatch_DeliversViewsUntilCancelled(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := NewService(store, logger.Discard(), Options{RetryInterval: time.Millisecond, ReofferRevoked: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := svc.Watch(ctx, auth.Session{UserID: "a"})
	require.NoError(t, err)

	waitView := func(pred func(View) bool) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case v, ok := <-views:
				require.True(t, ok, "view stream closed early")
				if pred(v) {
					return
				}
			case <-deadline:
				t.Fatal("timed out waiting for view")
			}
		}
	}

	// initial snapshot
	waitView(func(v View) bool { return len(v.Pending) == 0 && len(v.Matched) == 0 })

	_, err = svc.RecordInterest(ctx, auth.Session{UserID: "a"}, "b")
	require.NoError(t, err)
	waitView(func(v View) bool { return len(v.Pending) == 1 })

	_, err = svc.RecordInterest(ctx, auth.Session{UserID: "b"}, "a")
	require.NoError(t, err)
	waitView(func(v View) bool { return len(v.Pending) == 0 && len(v.Matched) == 1 })

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-views:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	// writes after cancel still land
	_, err = svc.RecordInterest(context.Background(), auth.Session{UserID: "a"}, "c")
	require.NoError(t, err)
	n, err := svc.CountMatched(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestWatch_RequiresSession(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), logger.Discard(), Options{})
	_, err := svc.Watch(context.Background(), auth.Session{})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}
