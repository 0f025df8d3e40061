package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coolmes833/swapskills/internal/docstore"
)

// Intent of a pending repair.
type Intent string

const (
	// IntentPromote: the counterpart was promoted but the owner's record was not written.
	IntentPromote Intent = "promote"
	// IntentRevoke: both records of the pair must be deleted.
	IntentRevoke Intent = "revoke"
)

const repairsCollection = "repairs"

// Repair is an outbox entry for a two-document operation that may not have
// completed. One entry per unordered pair; a later intent overwrites an
// earlier one, so a revocation supersedes a pending promotion repair.
type Repair struct {
	OwnerID   string
	TargetID  string
	Intent    Intent
	CreatedAt time.Time
}

func (r Repair) ID() string { return PairKey(r.OwnerID, r.TargetID) }

func (r Repair) fields() docstore.Fields {
	return docstore.Fields{
		fieldOwner:  r.OwnerID,
		fieldTarget: r.TargetID,
		"intent":    string(r.Intent),
		"createdAt": r.CreatedAt.UnixMilli(),
	}
}

func repairFromDoc(d docstore.Document) (Repair, error) {
	r := Repair{
		OwnerID:   d.Fields.String(fieldOwner),
		TargetID:  d.Fields.String(fieldTarget),
		Intent:    Intent(d.Fields.String("intent")),
		CreatedAt: d.Fields.Time("createdAt"),
	}
	if r.OwnerID == "" || r.TargetID == "" {
		return Repair{}, fmt.Errorf("repair %s: missing pair", d.ID)
	}
	if r.Intent != IntentPromote && r.Intent != IntentRevoke {
		return Repair{}, fmt.Errorf("repair %s: unknown intent %q", d.ID, r.Intent)
	}
	return r, nil
}

func (s *Service) saveRepair(ctx context.Context, r Repair) error {
	return s.store.Set(ctx, repairsCollection, r.ID(), r.fields())
}

// enqueueRepair is best effort: the store is likely the thing failing.
func (s *Service) enqueueRepair(ctx context.Context, r Repair) {
	if err := s.saveRepair(ctx, r); err != nil {
		s.log.Warn("failed to enqueue repair", "pair", r.ID(), "intent", r.Intent, "err", err)
	}
}

// PendingRepairs lists outstanding repair entries.
func (s *Service) PendingRepairs(ctx context.Context) ([]Repair, error) {
	docs, err := s.store.List(ctx, repairsCollection)
	if err != nil {
		return nil, err
	}
	out := make([]Repair, 0, len(docs))
	for _, d := range docs {
		if r, err := repairFromDoc(d); err == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Repaired int
	Failed   int
	Dropped  int
}

// Sweep applies every outstanding repair once. Entries that fail stay for
// the next sweep; undecodable entries are dropped.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	docs, err := s.store.List(ctx, repairsCollection)
	if err != nil {
		return res, fmt.Errorf("list repairs: %w", err)
	}

	for _, d := range docs {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		r, err := repairFromDoc(d)
		if err != nil {
			s.log.Warn("dropping malformed repair", "id", d.ID, "err", err)
			if err := s.store.Delete(ctx, repairsCollection, d.ID); err == nil {
				res.Dropped++
			}
			continue
		}

		if err := s.applyRepair(ctx, r); err != nil {
			s.log.Warn("repair failed", "pair", r.ID(), "intent", r.Intent, "err", err)
			res.Failed++
			continue
		}
		if err := s.store.Delete(ctx, repairsCollection, d.ID); err != nil {
			res.Failed++
			continue
		}
		s.log.Info("repair applied", "pair", r.ID(), "intent", r.Intent)
		res.Repaired++
	}
	return res, nil
}

func (s *Service) applyRepair(ctx context.Context, r Repair) error {
	switch r.Intent {
	case IntentRevoke:
		return errors.Join(
			s.deleteUnlessNewer(ctx, r.OwnerID, r.TargetID, r.CreatedAt),
			s.deleteUnlessNewer(ctx, r.TargetID, r.OwnerID, r.CreatedAt),
		)

	case IntentPromote:
		counterpart, err := s.find(ctx, r.TargetID, r.OwnerID)
		if err != nil {
			return err
		}
		// counterpart gone or never promoted: the match was revoked or
		// cancelled meanwhile, nothing to complete
		if counterpart == nil || counterpart.Status != StatusMatched {
			return nil
		}
		own, err := s.find(ctx, r.OwnerID, r.TargetID)
		if err != nil {
			return err
		}
		if own != nil && own.Status == StatusMatched {
			return nil
		}
		return s.put(ctx, InterestRecord{
			OwnerID:   r.OwnerID,
			TargetID:  r.TargetID,
			Status:    StatusMatched,
			Timestamp: s.opts.Now(),
		})
	}
	return fmt.Errorf("unknown intent %q", r.Intent)
}

// deleteUnlessNewer deletes owner→target unless it was written after cutoff,
// which means the pair liked again after the revocation.
func (s *Service) deleteUnlessNewer(ctx context.Context, ownerID, targetID string, cutoff time.Time) error {
	rec, err := s.find(ctx, ownerID, targetID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if rec.Timestamp.After(cutoff) {
		s.log.Debug("keeping record newer than revocation", "owner", ownerID, "target", targetID)
		return nil
	}
	return s.store.Delete(ctx, LikesCollection(ownerID), targetID)
}

// settleRevocation finishes an outstanding revocation of the pair before a
// new like is written, so the like starts from a clean pair instead of
// healing against a leftover matched record.
func (s *Service) settleRevocation(ctx context.Context, ownerID, targetID string) error {
	doc, err := s.store.Get(ctx, repairsCollection, PairKey(ownerID, targetID))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read repair: %w", err)
	}
	r, err := repairFromDoc(doc)
	if err != nil || r.Intent != IntentRevoke {
		return nil
	}

	if err := s.retry(ctx, "settle revocation", func() error { return s.applyRepair(ctx, r) }); err != nil {
		return fmt.Errorf("settle revocation: %w", err)
	}
	if err := s.retry(ctx, "clear revocation", func() error {
		return s.store.Delete(ctx, repairsCollection, r.ID())
	}); err != nil {
		return fmt.Errorf("clear revocation: %w", err)
	}
	s.log.Info("outstanding revocation settled", "pair", r.ID())
	return nil
}

// Sweeper runs Sweep periodically.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(svc *Service, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{svc: svc, interval: interval, log: log}
}

// Run blocks until ctx is done. A non-positive interval disables sweeping.
func (w *Sweeper) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.log.Info("repair sweeper disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			res, err := w.svc.Sweep(ctx)
			if err != nil && ctx.Err() == nil {
				w.log.Error("repair sweep failed", "err", err)
				continue
			}
			if res.Repaired+res.Failed+res.Dropped > 0 {
				w.log.Info("repair sweep done", "repaired", res.Repaired, "failed", res.Failed, "dropped", res.Dropped)
			}
		}
	}
}
