package match

import (
	"context"

	"github.com/coolmes833/swapskills/internal/auth"
)

// Watch streams the session user's View, re-derived from every snapshot of
// their likes collection. The channel closes when ctx is cancelled; call
// Watch again to restart. Cancelling never affects writes already issued.
func (s *Service) Watch(ctx context.Context, sess auth.Session) (<-chan View, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	ownerID := sess.UserID

	sub, err := s.store.Subscribe(ctx, LikesCollection(ownerID))
	if err != nil {
		return nil, err
	}

	out := make(chan View)
	go func() {
		defer close(out)
		defer sub.Close()

		for snap := range sub.Updates() {
			v := DeriveView(ownerID, snap.Docs)
			v.Err = snap.Err
			if v.Skipped > 0 {
				s.log.Warn("undecodable interest records", "owner", ownerID, "count", v.Skipped)
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
