// Package approval owns the pending-media queue and the admin decision
// flow. An item leaves the queue exactly once, through Approve or Reject;
// a second decision on the same id is reported as a no-op so both admins
// see a consistent outcome.
package approval

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/worstlover/telegrambot/internal/domain/enums"
	"github.com/worstlover/telegrambot/internal/domain/model"
	"github.com/worstlover/telegrambot/internal/pkg/channelfmt"
	pgrepo "github.com/worstlover/telegrambot/internal/repo/postgres"
)

// DefaultRejectReason is used when the rejecting admin gives none.
const DefaultRejectReason = "violates channel rules"

type PendingRepo interface {
	Create(ctx context.Context, item model.PendingItem) (int64, error)
	GetByID(ctx context.Context, id int64) (model.PendingItem, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountPending(ctx context.Context) (int, error)
}

// Publisher posts approved content to the public channel.
type Publisher interface {
	PublishMedia(ctx context.Context, kind enums.ContentKind, fileID, caption string) error
}

// Notifier delivers decision outcomes to the submitting user. Both calls
// are best-effort; the decision stands whether or not the user is
// reachable.
type Notifier interface {
	NotifyApproved(ctx context.Context, userTelegramID int64)
	NotifyRejected(ctx context.Context, userTelegramID int64, reason string)
}

// IdentityLookup resolves the submitter's display name for the caption.
type IdentityLookup interface {
	ResolveOrCreate(ctx context.Context, telegramID int64) (model.User, error)
}

// CaptionChecker reports whether a caption contains a banned word. It
// runs again at decision time; the word list may have grown since
// enqueue.
type CaptionChecker interface {
	Check(ctx context.Context, text string) bool
}

type Logbook interface {
	Record(ctx context.Context, userTelegramID int64, kind, status, reason string) error
}

type Service struct {
	pending         PendingRepo
	publisher       Publisher
	notifier        Notifier
	identities      IdentityLookup
	captions        CaptionChecker
	logbook         Logbook
	channelUsername string
	logger          *zap.Logger
}

func NewService(
	pending PendingRepo,
	publisher Publisher,
	notifier Notifier,
	identities IdentityLookup,
	captions CaptionChecker,
	logbook Logbook,
	channelUsername string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pending:         pending,
		publisher:       publisher,
		notifier:        notifier,
		identities:      identities,
		captions:        captions,
		logbook:         logbook,
		channelUsername: channelUsername,
		logger:          logger,
	}
}

// Enqueue stores a media submission for review and returns its queue id.
func (s *Service) Enqueue(ctx context.Context, userTelegramID int64, kind enums.ContentKind, fileID, caption string) (int64, error) {
	id, err := s.pending.Create(ctx, model.PendingItem{
		UserTelegramID: userTelegramID,
		Kind:           kind,
		FileID:         fileID,
		Caption:        caption,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("enqueued pending item",
		zap.Int64("pending_id", id),
		zap.Int64("telegram_id", userTelegramID),
		zap.String("kind", string(kind)))
	return id, nil
}

// Approve publishes the item and removes it from the queue. It returns
// false with a nil error when the item is already gone, which is how a
// second admin's click on the same item resolves. Publish runs before
// removal: an item must never vanish unpublished.
func (s *Service) Approve(ctx context.Context, id int64) (bool, error) {
	item, err := s.pending.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPendingItemNotFound) {
			return false, nil
		}
		return false, err
	}

	user, err := s.identities.ResolveOrCreate(ctx, item.UserTelegramID)
	if err != nil {
		return false, err
	}

	// The word list may have changed while the item sat in the queue.
	caption := item.Caption
	if caption != "" && s.captions != nil && s.captions.Check(ctx, caption) {
		s.logger.Info("stripped caption at approval",
			zap.Int64("pending_id", id),
			zap.Int64("telegram_id", item.UserTelegramID))
		caption = ""
	}

	formatted := channelfmt.Caption(caption, user.DisplayName, s.channelUsername)
	if err := s.publisher.PublishMedia(ctx, item.Kind, item.FileID, formatted); err != nil {
		return false, err
	}

	if _, err := s.pending.Delete(ctx, id); err != nil {
		// Published but still queued; log loudly and let a second
		// decision clean up. Re-publishing is the admin's call.
		s.logger.Error("remove approved item", zap.Int64("pending_id", id), zap.Error(err))
	}

	s.record(ctx, item, "approved", "")
	if s.notifier != nil {
		s.notifier.NotifyApproved(ctx, item.UserTelegramID)
	}

	s.logger.Info("approved pending item",
		zap.Int64("pending_id", id),
		zap.Int64("telegram_id", item.UserTelegramID),
		zap.String("kind", string(item.Kind)))
	return true, nil
}

// Reject discards the item and tells the submitter why. A blank reason
// falls back to DefaultRejectReason. Like Approve, a missing item is a
// (false, nil) no-op.
func (s *Service) Reject(ctx context.Context, id int64, reason string) (bool, error) {
	item, err := s.pending.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPendingItemNotFound) {
			return false, nil
		}
		return false, err
	}

	removed, err := s.pending.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	if reason == "" {
		reason = DefaultRejectReason
	}

	s.record(ctx, item, "rejected", reason)
	if s.notifier != nil {
		s.notifier.NotifyRejected(ctx, item.UserTelegramID, reason)
	}

	s.logger.Info("rejected pending item",
		zap.Int64("pending_id", id),
		zap.Int64("telegram_id", item.UserTelegramID),
		zap.String("reason", reason))
	return true, nil
}

// QueueDepth reports how many items await a decision.
func (s *Service) QueueDepth(ctx context.Context) (int, error) {
	return s.pending.CountPending(ctx)
}

func (s *Service) record(ctx context.Context, item model.PendingItem, status, reason string) {
	if s.logbook == nil {
		return
	}
	if err := s.logbook.Record(ctx, item.UserTelegramID, string(item.Kind), status, reason); err != nil {
		s.logger.Warn("record decision", zap.Int64("pending_id", item.ID), zap.Error(err))
	}
}
