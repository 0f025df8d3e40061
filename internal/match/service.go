// Package match decides whether two users are matched from two
// independently written interest records.
//
// Records live in a document store with single-document atomicity only.
// Operations that touch both sides of a pair (promotion, revocation) are
// sequences of single writes that may stop half way; they are ordered so the
// next interaction, or the repair sweeper, can finish the job.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/config"
	"github.com/coolmes833/swapskills/internal/docstore"
)

var (
	ErrSelfInterest      = errors.New("cannot record interest in yourself")
	ErrInvalidTarget     = errors.New("invalid target user id")
	ErrAlreadyMatched    = errors.New("already matched, revoke the match instead")
	ErrNotMatched        = errors.New("users are not matched")
	ErrPartialPromotion  = errors.New("match promotion partially applied")
	ErrPartialRevocation = errors.New("match revocation partially applied")
)

type Options struct {
	// RetryAttempts bounds the tries of each write in a multi-write operation.
	RetryAttempts uint
	RetryInterval time.Duration
	// ReofferRevoked lets users whose match was revoked appear in each
	// other's discovery again. When false, revocation leaves tombstones.
	ReofferRevoked bool
	Now            func() time.Time
}

func OptionsFromConfig(cfg *config.Config) Options {
	attempts := cfg.Match.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return Options{
		RetryAttempts:  uint(attempts),
		RetryInterval:  cfg.Match.RetryInterval,
		ReofferRevoked: cfg.Match.ReofferRevoked,
	}
}

// Service is the match reconciliation service. It keeps no state of its own;
// everything lives in the store.
type Service struct {
	store docstore.Store
	log   *slog.Logger
	opts  Options
}

func NewService(store docstore.Store, log *slog.Logger, opts Options) *Service {
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 1
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{store: store, log: log, opts: opts}
}

// RecordInterest records that the session user likes targetID and returns
// the resulting status of the caller's record.
//
// Behavior:
//   - No counterpart record → caller's record is written pending.
//   - Counterpart pending → mutual match: counterpart promoted first, then
//     the caller's record written matched.
//   - Counterpart already matched (earlier partial promotion) → caller's record
//     written matched, healing the pair.
//   - An unfinished revocation of the pair is completed first, so a leftover
//     matched record from it is never healed.
//   - Caller's record already present → nothing is rewritten; a pending record
//     is only promoted when the counterpart turns out to be pending or matched
//     (both sides liked concurrently and each saw no counterpart).
func (s *Service) RecordInterest(ctx context.Context, sess auth.Session, targetID string) (Status, error) {
	ownerID, targetID, err := s.precheck(sess, targetID)
	if err != nil {
		return "", err
	}
	if err := s.settleRevocation(ctx, ownerID, targetID); err != nil {
		return "", err
	}

	own, err := s.find(ctx, ownerID, targetID)
	if err != nil {
		return "", err
	}
	if own != nil && own.Status == StatusMatched {
		s.log.Debug("interest already matched", "owner", ownerID, "target", targetID)
		return StatusMatched, nil
	}

	counterpart, err := s.find(ctx, targetID, ownerID)
	if err != nil {
		return "", err
	}

	now := s.opts.Now()
	switch {
	case counterpart == nil:
		if own != nil {
			s.log.Debug("interest already pending", "owner", ownerID, "target", targetID)
			return StatusPending, nil
		}
		rec := InterestRecord{OwnerID: ownerID, TargetID: targetID, Status: StatusPending, Timestamp: now}
		if err := s.put(ctx, rec); err != nil {
			return "", fmt.Errorf("record interest: %w", err)
		}
		s.log.Debug("interest recorded", "owner", ownerID, "target", targetID)
		return StatusPending, nil

	case counterpart.Status == StatusPending:
		if err := s.promote(ctx, ownerID, *counterpart, now); err != nil {
			return "", err
		}
		s.log.Info("match promoted", "owner", ownerID, "target", targetID)
		return StatusMatched, nil

	default:
		rec := InterestRecord{OwnerID: ownerID, TargetID: targetID, Status: StatusMatched, Timestamp: now}
		if err := s.retry(ctx, "heal", func() error { return s.put(ctx, rec) }); err != nil {
			return "", fmt.Errorf("heal match: %w", err)
		}
		s.log.Info("asymmetric match healed", "owner", ownerID, "target", targetID)
		return StatusMatched, nil
	}
}

// promote turns a pending counterpart into a match. The counterpart is
// written first: if the caller's own write then fails, the pair is left as
// "counterpart matched, caller absent", which the caller's next like or the
// sweeper completes.
func (s *Service) promote(ctx context.Context, ownerID string, counterpart InterestRecord, now time.Time) error {
	targetID := counterpart.OwnerID

	promoted := counterpart
	promoted.Status = StatusMatched
	promoted.Timestamp = now
	if err := s.retry(ctx, "promote counterpart", func() error { return s.put(ctx, promoted) }); err != nil {
		return fmt.Errorf("promote %s->%s: %w", targetID, ownerID, err)
	}

	own := InterestRecord{OwnerID: ownerID, TargetID: targetID, Status: StatusMatched, Timestamp: now}
	if err := s.retry(ctx, "promote own", func() error { return s.put(ctx, own) }); err != nil {
		s.log.Warn("promotion left half applied", "owner", ownerID, "target", targetID, "err", err)
		s.enqueueRepair(ctx, Repair{OwnerID: ownerID, TargetID: targetID, Intent: IntentPromote, CreatedAt: now})
		return fmt.Errorf("%w: %w", ErrPartialPromotion, err)
	}
	return nil
}

// EvaluateStatus classifies targetID from the session user's side. The
// counterpart record is only read when the caller has none.
func (s *Service) EvaluateStatus(ctx context.Context, sess auth.Session, targetID string) (Classification, error) {
	ownerID, targetID, err := s.precheck(sess, targetID)
	if err != nil {
		return "", err
	}

	own, err := s.find(ctx, ownerID, targetID)
	if err != nil {
		return "", err
	}
	if own != nil {
		return Classify(own, nil), nil
	}

	counterpart, err := s.find(ctx, targetID, ownerID)
	if err != nil {
		return "", err
	}
	return Classify(nil, counterpart), nil
}

// Candidate is one discovery entry.
type Candidate struct {
	UserID string
	// Status is Unseen or IncomingRequest; acted-upon users never appear.
	Status Classification
}

// Discover filters candidateIDs down to users the caller has not acted upon,
// keeping their order. Self, duplicates, matched and awaiting-response
// targets are dropped; so are revoked pairs unless ReofferRevoked is set.
func (s *Service) Discover(ctx context.Context, sess auth.Session, candidateIDs []string) ([]Candidate, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	ownerID := sess.UserID

	docs, err := s.store.List(ctx, LikesCollection(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	acted := make(map[string]bool, len(docs))
	for _, d := range docs {
		acted[d.ID] = true
	}

	if !s.opts.ReofferRevoked {
		revoked, err := s.store.List(ctx, RevokedCollection(ownerID))
		if err != nil {
			return nil, fmt.Errorf("list revoked: %w", err)
		}
		for _, d := range revoked {
			acted[d.ID] = true
		}
	}

	out := make([]Candidate, 0, len(candidateIDs))
	seen := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == "" || id == ownerID || seen[id] || acted[id] || !validID(id) {
			continue
		}
		seen[id] = true

		counterpart, err := s.find(ctx, id, ownerID)
		if err != nil {
			return nil, err
		}
		out = append(out, Candidate{UserID: id, Status: Classify(nil, counterpart)})
	}
	return out, nil
}

// CancelRequest withdraws the caller's pending interest in targetID.
// Absent records are a no-op; matched ones must be revoked instead.
func (s *Service) CancelRequest(ctx context.Context, sess auth.Session, targetID string) error {
	ownerID, targetID, err := s.precheck(sess, targetID)
	if err != nil {
		return err
	}

	own, err := s.find(ctx, ownerID, targetID)
	if err != nil {
		return err
	}
	if own == nil {
		return nil
	}
	if own.Status == StatusMatched {
		return ErrAlreadyMatched
	}

	if err := s.retry(ctx, "cancel", func() error {
		return s.store.Delete(ctx, LikesCollection(ownerID), targetID)
	}); err != nil {
		return fmt.Errorf("cancel request: %w", err)
	}
	s.log.Debug("request cancelled", "owner", ownerID, "target", targetID)
	return nil
}

// RevokeMatch deletes both records of the pair.
//
// Behavior:
//   - A revoke repair entry is written before any delete, so an interrupted
//     revocation is finished by the sweeper.
//   - The caller's record goes first: chat is closed for the caller as soon
//     as this call passes that step, whatever happens to the counterpart.
//   - If the counterpart delete keeps failing, ErrPartialRevocation is
//     returned; the user may retry and the sweeper keeps trying.
//   - Revoking a pair with no records succeeds.
func (s *Service) RevokeMatch(ctx context.Context, sess auth.Session, targetID string) error {
	ownerID, targetID, err := s.precheck(sess, targetID)
	if err != nil {
		return err
	}

	now := s.opts.Now()
	rep := Repair{OwnerID: ownerID, TargetID: targetID, Intent: IntentRevoke, CreatedAt: now}
	if err := s.saveRepair(ctx, rep); err != nil {
		return fmt.Errorf("revoke: record intent: %w", err)
	}

	if err := s.retry(ctx, "revoke own", func() error {
		return s.store.Delete(ctx, LikesCollection(ownerID), targetID)
	}); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}

	if !s.opts.ReofferRevoked {
		s.tombstone(ctx, ownerID, targetID, now)
	}

	if err := s.retry(ctx, "revoke counterpart", func() error {
		return s.store.Delete(ctx, LikesCollection(targetID), ownerID)
	}); err != nil {
		s.log.Warn("revocation left half applied", "owner", ownerID, "target", targetID, "err", err)
		return fmt.Errorf("%w: %w", ErrPartialRevocation, err)
	}

	if err := s.store.Delete(ctx, repairsCollection, rep.ID()); err != nil {
		// both records are gone; a later sweep or like of the pair clears it
		// without touching records written after now
		s.log.Warn("failed to clear revoke intent", "pair", rep.ID(), "err", err)
	}
	s.log.Info("match revoked", "owner", ownerID, "target", targetID)
	return nil
}

// CanChat reports whether a and b form a MatchPair. The records are read in
// order a→b then b→a.
func (s *Service) CanChat(ctx context.Context, a, b string) (bool, error) {
	if a == "" || b == "" || a == b || !validID(a) || !validID(b) {
		return false, nil
	}
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		rec, err := s.find(ctx, pair[0], pair[1])
		if err != nil {
			return false, err
		}
		if rec == nil || rec.Status != StatusMatched {
			return false, nil
		}
	}
	return true, nil
}

// RequireMatch is CanChat returning ErrNotMatched instead of false.
func (s *Service) RequireMatch(ctx context.Context, a, b string) error {
	ok, err := s.CanChat(ctx, a, b)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMatched
	}
	return nil
}

// CurrentView derives userID's View from the current records.
func (s *Service) CurrentView(ctx context.Context, userID string) (View, error) {
	docs, err := s.store.List(ctx, LikesCollection(userID))
	if err != nil {
		return View{}, err
	}
	return DeriveView(userID, docs), nil
}

// CountMatched counts userID's own matched records.
func (s *Service) CountMatched(ctx context.Context, userID string) (int64, error) {
	v, err := s.CurrentView(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(v.Matched)), nil
}

// find returns the record owner→target, or nil when absent.
func (s *Service) find(ctx context.Context, ownerID, targetID string) (*InterestRecord, error) {
	doc, err := s.store.Get(ctx, LikesCollection(ownerID), targetID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s->%s: %w", ownerID, targetID, err)
	}
	rec, err := recordFromDoc(ownerID, doc)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) put(ctx context.Context, rec InterestRecord) error {
	return s.store.Set(ctx, LikesCollection(rec.OwnerID), rec.TargetID, rec.fields())
}

func (s *Service) tombstone(ctx context.Context, ownerID, targetID string, now time.Time) {
	for _, pair := range [][2]string{{ownerID, targetID}, {targetID, ownerID}} {
		err := s.store.Set(ctx, RevokedCollection(pair[0]), pair[1], docstore.Fields{fieldTimestamp: now.UnixMilli()})
		if err != nil {
			s.log.Warn("failed to write revocation tombstone", "owner", pair[0], "target", pair[1], "err", err)
		}
	}
}

// retry runs fn with exponential backoff, at most RetryAttempts times.
// Context errors stop immediately.
func (s *Service) retry(ctx context.Context, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.RetryInterval
	b.MaxInterval = 20 * s.opts.RetryInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.opts.RetryAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.log.Debug("retrying store write", "op", op, "wait", wait, "err", err)
		}),
	)
	return err
}

func (s *Service) precheck(sess auth.Session, targetID string) (string, string, error) {
	if err := sess.Validate(); err != nil {
		return "", "", err
	}
	targetID = strings.TrimSpace(targetID)
	if !validID(sess.UserID) || targetID == "" || !validID(targetID) {
		return "", "", ErrInvalidTarget
	}
	if targetID == sess.UserID {
		return "", "", ErrSelfInterest
	}
	return sess.UserID, targetID, nil
}

// validID rejects ids that would escape their collection path.
func validID(id string) bool {
	return !strings.ContainsAny(id, "/")
}
