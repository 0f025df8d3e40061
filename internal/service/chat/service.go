package chat

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/coolmes833/swapskills/internal/api"
	"github.com/coolmes833/swapskills/internal/app"
	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/docstore"
	svcErr "github.com/coolmes833/swapskills/internal/errors"
	"github.com/coolmes833/swapskills/internal/logger"
	"github.com/coolmes833/swapskills/internal/match"
	"github.com/coolmes833/swapskills/internal/utils/pagination"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxTextLen      = 2000

	fieldSender    = "senderId"
	fieldText      = "text"
	fieldCreatedAt = "createdAt"
)

// MessagesCollection holds the messages of one thread.
func MessagesCollection(threadID string) string {
	return docstore.Path("chats", threadID, "messages")
}

// Service implements the ChatService gRPC API. Every call is gated on the
// caller and the peer forming a match.
type Service struct {
	appCtx  *app.AppContext
	store   docstore.Store
	matcher *match.Service
	now     func() time.Time
}

// NewChatService creates a new Chat service with dependencies from AppContext.
func NewChatService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		store:   appCtx.Store,
		matcher: appCtx.Matcher,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage appends a message to the thread shared with the peer.
//
// Behavior:
//   - PermissionDenied unless caller and peer are matched.
//   - Blank text is rejected; text is trimmed.
//   - Message ids are time-ordered uuids (v7).
//
// Example:
//
//	svc.SendMessage(ctx, &api.SendMessageRequest{PeerUserID: "b7c1...", Text: "hi!"})
func (s *Service) SendMessage(ctx context.Context, req *api.SendMessageRequest) (*api.Message, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, svcErr.InvalidArgument("text", "must not be blank")
	}
	if utf8.RuneCountInString(text) > maxTextLen {
		return nil, svcErr.InvalidArgument("text", "too long")
	}

	if err := s.matcher.RequireMatch(ctx, sess.UserID, req.PeerUserID); err != nil {
		return nil, svcErr.Map(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, svcErr.Map(err)
	}
	msg := api.Message{
		ID:          id.String(),
		ThreadID:    match.ThreadID(sess.UserID, req.PeerUserID),
		SenderID:    sess.UserID,
		Text:        text,
		CreatedUnix: s.now().UnixMilli(),
	}
	err = s.store.Set(ctx, MessagesCollection(msg.ThreadID), msg.ID, docstore.Fields{
		fieldSender:    msg.SenderID,
		fieldText:      msg.Text,
		fieldCreatedAt: msg.CreatedUnix,
	})
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("store message failed", "thread", msg.ThreadID, "err", err)
		return nil, svcErr.Map(err)
	}

	logger.FromContext(ctx, s.appCtx.Logger).Debug("message sent", "thread", msg.ThreadID, "id", msg.ID)
	return &msg, nil
}

// ListMessages returns the thread oldest first, one page at a time.
func (s *Service) ListMessages(ctx context.Context, req *api.ListMessagesRequest) (*api.ListMessagesResponse, error) {
	sess, err := auth.FromContext(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	cursor, err := pagination.Decode(req.PageToken)
	if err != nil {
		return nil, svcErr.InvalidArgument("page_token", err.Error())
	}
	size := int(req.PageSize)
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	if err := s.matcher.RequireMatch(ctx, sess.UserID, req.PeerUserID); err != nil {
		return nil, svcErr.Map(err)
	}

	threadID := match.ThreadID(sess.UserID, req.PeerUserID)
	docs, err := s.store.List(ctx, MessagesCollection(threadID))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	all := toMessages(threadID, docs)

	resp := &api.ListMessagesResponse{Messages: make([]api.Message, 0, min(size, len(all)))}
	for _, m := range all {
		if !cursor.After(m.CreatedUnix, m.ID) {
			continue
		}
		if len(resp.Messages) == size {
			last := resp.Messages[size-1]
			token, err := pagination.Encode(pagination.Cursor{ID: last.ID, CreatedUnix: last.CreatedUnix})
			if err != nil {
				return nil, svcErr.Map(err)
			}
			resp.NextPageToken = token
			break
		}
		resp.Messages = append(resp.Messages, m)
	}
	return resp, nil
}

// WatchMessages streams the whole ordered thread on subscribe and after each
// change. The stream ends with PermissionDenied once the match is revoked.
func (s *Service) WatchMessages(req *api.WatchMessagesRequest, stream grpc.ServerStreamingServer[api.MessageBatch]) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	sess, err := auth.FromContext(ctx)
	if err != nil {
		return svcErr.Map(err)
	}
	if err := s.matcher.RequireMatch(ctx, sess.UserID, req.PeerUserID); err != nil {
		return svcErr.Map(err)
	}

	threadID := match.ThreadID(sess.UserID, req.PeerUserID)
	log := logger.FromContext(ctx, s.appCtx.Logger).With("thread", threadID)
	msgs, err := s.store.Subscribe(ctx, MessagesCollection(threadID))
	if err != nil {
		return svcErr.Map(err)
	}
	defer msgs.Close()

	// a revocation deletes one record first, which may be either side's
	own, err := s.store.Subscribe(ctx, match.LikesCollection(sess.UserID))
	if err != nil {
		return svcErr.Map(err)
	}
	defer own.Close()
	peer, err := s.store.Subscribe(ctx, match.LikesCollection(req.PeerUserID))
	if err != nil {
		return svcErr.Map(err)
	}
	defer peer.Close()

	gate := func() error {
		allowed, err := s.matcher.CanChat(ctx, sess.UserID, req.PeerUserID)
		if err != nil {
			log.Warn("chat gate check failed", "err", err)
			return nil
		}
		if !allowed {
			log.Debug("closing chat stream, match revoked")
			return svcErr.Map(match.ErrNotMatched)
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case snap, ok := <-msgs.Updates():
			if !ok {
				return nil
			}
			if snap.Err != nil {
				log.Warn("thread snapshot failed", "err", snap.Err)
				continue
			}
			if err := stream.Send(&api.MessageBatch{Messages: toMessages(threadID, snap.Docs)}); err != nil {
				return err
			}

		case _, ok := <-own.Updates():
			if !ok {
				return nil
			}
			if err := gate(); err != nil {
				return err
			}

		case _, ok := <-peer.Updates():
			if !ok {
				return nil
			}
			if err := gate(); err != nil {
				return err
			}
		}
	}
}

func toMessages(threadID string, docs []docstore.Document) []api.Message {
	out := make([]api.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, api.Message{
			ID:          d.ID,
			ThreadID:    threadID,
			SenderID:    d.Fields.String(fieldSender),
			Text:        d.Fields.String(fieldText),
			CreatedUnix: d.Fields.Int64(fieldCreatedAt),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedUnix != out[j].CreatedUnix {
			return out[i].CreatedUnix < out[j].CreatedUnix
		}
		return out[i].ID < out[j].ID
	})
	return out
}
