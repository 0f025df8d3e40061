package matching

import (
	"context"

	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"

	"github.com/coolmes833/swapskills/internal/api"
	"github.com/coolmes833/swapskills/internal/app"
	"github.com/coolmes833/swapskills/internal/auth"
	svcErr "github.com/coolmes833/swapskills/internal/errors"
	"github.com/coolmes833/swapskills/internal/match"
	"github.com/coolmes833/swapskills/internal/repository"
)

const (
	defaultDiscoverLimit = 20
	maxDiscoverLimit     = 100
)

// Service implements the MatchService gRPC API on top of the match
// reconciliation core. The caller is always the session user put on the
// context by the auth interceptor.
type Service struct {
	appCtx   *app.AppContext
	matcher  *match.Service
	userRepo *repository.UserRepository

	// dedupes concurrent cache misses of the same counter
	countFlight singleflight.Group
}

// NewMatchingService creates a new Match service with dependencies from AppContext.
// Dependencies include:
//   - the match reconciliation service (AppContext.Matcher)
//   - UserRepository for discovery candidates
//   - RedisCache for match counters
func NewMatchingService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		matcher:  appCtx.Matcher,
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// RecordInterest likes the target user.
//
// Behavior:
//   - First like → caller's record pending.
//   - Target already liked the caller → both records matched.
//   - Repeating a like never changes state.
//   - Cached match counts of both users are dropped when the result is a match.
//
// Example:
//
//	svc.RecordInterest(ctx, &api.TargetRequest{TargetUserID: "b7c1..."})
func (s *Service) RecordInterest(ctx context.Context, req *api.TargetRequest) (*api.RecordInterestResponse, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Debug("RecordInterest called", "owner", sess.UserID, "target", req.TargetUserID)

	if err := s.requireUser(ctx, req.TargetUserID); err != nil {
		return nil, err
	}

	st, err := s.matcher.RecordInterest(ctx, sess, req.TargetUserID)
	if err != nil {
		s.appCtx.Logger.Error("RecordInterest failed", "owner", sess.UserID, "target", req.TargetUserID, "err", err)
		return nil, svcErr.Map(err)
	}
	if st == match.StatusMatched {
		s.invalidateCounts(ctx, sess.UserID, req.TargetUserID)
	}

	return &api.RecordInterestResponse{Status: string(st), Matched: st == match.StatusMatched}, nil
}

// CancelRequest withdraws a pending like. Matched pairs must be revoked.
func (s *Service) CancelRequest(ctx context.Context, req *api.TargetRequest) (*api.Empty, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.matcher.CancelRequest(ctx, sess, req.TargetUserID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

// RevokeMatch ends a match from either side. Aborted means the other side's
// record is still there; the call is safe to retry.
func (s *Service) RevokeMatch(ctx context.Context, req *api.TargetRequest) (*api.Empty, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Debug("RevokeMatch called", "owner", sess.UserID, "target", req.TargetUserID)

	err = s.matcher.RevokeMatch(ctx, sess, req.TargetUserID)
	// the caller's side is gone even on partial failure
	s.invalidateCounts(ctx, sess.UserID, req.TargetUserID)
	if err != nil {
		s.appCtx.Logger.Error("RevokeMatch failed", "owner", sess.UserID, "target", req.TargetUserID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

func (s *Service) EvaluateStatus(ctx context.Context, req *api.TargetRequest) (*api.EvaluateStatusResponse, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	c, err := s.matcher.EvaluateStatus(ctx, sess, req.TargetUserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.EvaluateStatusResponse{Classification: string(c)}, nil
}

// Discover returns profiles the caller has not acted upon yet.
//
// Behavior:
//   - Candidates are users with a complete profile, most recently updated first.
//   - Profiles are read page by page until limit candidates survive or no
//     profiles are left.
//   - Matched and awaiting-response users are filtered by the match core.
//   - Users who already liked the caller are flagged IncomingRequest.
func (s *Service) Discover(ctx context.Context, req *api.DiscoverRequest) (*api.DiscoverResponse, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	limit := int(req.Limit)
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}
	if limit > maxDiscoverLimit {
		limit = maxDiscoverLimit
	}

	// page through profiles until enough survive the match filter
	resp := &api.DiscoverResponse{Candidates: make([]api.Candidate, 0, limit)}
	seen := make(map[string]bool)
	pageSize := limit * 3
	for offset := 0; len(resp.Candidates) < limit; offset += pageSize {
		users, more, err := s.userRepo.ListOthers(ctx, sess.UserID, offset, pageSize)
		if err != nil {
			s.appCtx.Logger.Error("ListOthers failed", "err", err)
			return nil, svcErr.Map(err)
		}

		ids := make([]string, 0, len(users))
		byID := make(map[string]api.Profile, len(users))
		for _, u := range users {
			// rows can shift between pages when profiles are updated
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			ids = append(ids, u.ID)
			byID[u.ID] = api.Profile{UserID: u.ID, Name: u.Name, Description: u.Description, Skills: u.Skills}
		}

		cands, err := s.matcher.Discover(ctx, sess, ids)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		for _, c := range cands {
			if len(resp.Candidates) == limit {
				break
			}
			resp.Candidates = append(resp.Candidates, api.Candidate{
				Profile:         byID[c.UserID],
				IncomingRequest: c.Status == match.IncomingRequest,
			})
		}
		if !more {
			break
		}
	}

	s.appCtx.Logger.Debug("Discover result", "owner", sess.UserID, "candidates", len(resp.Candidates))
	return resp, nil
}

// CanChat reports whether the caller and the peer form a match.
func (s *Service) CanChat(ctx context.Context, req *api.CanChatRequest) (*api.CanChatResponse, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	ok, err := s.matcher.CanChat(ctx, sess.UserID, req.PeerUserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CanChatResponse{Allowed: ok}, nil
}

// CountMatches returns how many matches the caller has.
// Cache-first strategy:
//  1. Attempts to read from Redis (matches:count:userID).
//  2. On a miss, counts the matched records in the store.
//  3. Stores the count in Redis with a 1h TTL.
//
// Example:
//
//	svc.CountMatches(ctx, &api.Empty{})
func (s *Service) CountMatches(ctx context.Context, _ *api.Empty) (*api.CountMatchesResponse, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if n, ok, err := s.appCtx.RedisCache.GetMatchCount(ctx, sess.UserID); err == nil && ok {
		return &api.CountMatchesResponse{Count: n}, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("match count cache read failed", "user", sess.UserID, "err", err)
	}

	// shared by every waiter, so one caller going away must not fail the rest
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.countFlight.Do(sess.UserID, func() (any, error) {
		n, err := s.matcher.CountMatched(flightCtx, sess.UserID)
		if err != nil {
			return int64(0), err
		}
		if err := s.appCtx.RedisCache.SetMatchCount(flightCtx, sess.UserID, n); err != nil {
			s.appCtx.Logger.Warn("match count cache write failed", "user", sess.UserID, "err", err)
		}
		return n, nil
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CountMatchesResponse{Count: v.(int64)}, nil
}

// WatchRequests streams the caller's requests view: a full pending/matched
// state on subscribe and after every change, until the client goes away.
func (s *Service) WatchRequests(_ *api.Empty, stream grpc.ServerStreamingServer[api.RequestsView]) error {
	ctx := stream.Context()
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return svcErr.Map(err)
	}

	views, err := s.matcher.Watch(ctx, sess)
	if err != nil {
		return svcErr.Map(err)
	}

	for v := range views {
		if v.Err != nil {
			s.appCtx.Logger.Warn("requests snapshot failed", "user", sess.UserID, "err", v.Err)
			continue
		}
		if err := stream.Send(toRequestsView(v)); err != nil {
			return err
		}
	}
	return nil
}

func toRequestsView(v match.View) *api.RequestsView {
	out := &api.RequestsView{
		Pending: make([]api.Interest, 0, len(v.Pending)),
		Matched: make([]api.Interest, 0, len(v.Matched)),
	}
	for _, r := range v.Pending {
		out.Pending = append(out.Pending, toInterest(r))
	}
	for _, r := range v.Matched {
		out.Matched = append(out.Matched, toInterest(r))
	}
	return out
}

func toInterest(r match.InterestRecord) api.Interest {
	return api.Interest{UserID: r.TargetID, Status: string(r.Status), UnixMillis: r.Timestamp.UnixMilli()}
}

// requireUser rejects likes of accounts that do not exist.
func (s *Service) requireUser(ctx context.Context, id string) error {
	if id == "" {
		return svcErr.InvalidArgument("target_user_id", "is required")
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

func (s *Service) invalidateCounts(ctx context.Context, ids ...string) {
	if err := s.appCtx.RedisCache.InvalidateMatchCounts(ctx, ids...); err != nil {
		s.appCtx.Logger.Warn("match count invalidation failed", "users", ids, "err", err)
	}
}
