// Package pipeline runs every inbound submission through the moderation
// checks in a fixed order and produces exactly one decision.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/worstlover/telegrambot/internal/domain/enums"
	"github.com/worstlover/telegrambot/internal/domain/model"
	"github.com/worstlover/telegrambot/internal/domain/rules"
	"github.com/worstlover/telegrambot/internal/infra/metrics"
	"github.com/worstlover/telegrambot/internal/pkg/channelfmt"
	"github.com/worstlover/telegrambot/internal/services/policy"
)

// Decision is the terminal state of one submission.
type Decision string

const (
	DecisionPublished    Decision = "published"
	DecisionQueued       Decision = "queued"
	DecisionRateLimited  Decision = "rate_limited"
	DecisionInactive     Decision = "inactive"
	DecisionFiltered     Decision = "filtered"
	DecisionStorageError Decision = "storage_error"
	DecisionPublishError Decision = "publish_error"
)

// Submission is one inbound item. A zero Kind means text; otherwise the
// item is media and Body carries the caption.
type Submission struct {
	SenderTelegramID int64
	Kind             enums.ContentKind
	Body             string
	FileID           string
}

func (s Submission) isText() bool { return s.Kind == "" }

// Result reports the decision plus the context the transport layer needs
// to word the user's reply.
type Result struct {
	Decision  Decision
	User      model.User
	PendingID int64

	// Wait is the configured cooldown window when rate-limited. It is
	// the full window, not the remaining time.
	Wait time.Duration

	// StartHour and EndHour echo the configured window when inactive.
	StartHour int
	EndHour   int
}

type Identities interface {
	ResolveOrCreate(ctx context.Context, telegramID int64) (model.User, error)
	TouchLastSubmission(ctx context.Context, telegramID int64, at time.Time)
}

type RateGate interface {
	MaySubmit(ctx context.Context, telegramID int64) (bool, time.Duration, error)
	RecordSubmission(ctx context.Context, telegramID int64) error
}

type SettingsSource interface {
	Current() policy.Settings
}

// ProfanityChecker reports whether the text contains a banned word.
type ProfanityChecker interface {
	Check(ctx context.Context, text string) bool
}

type Publisher interface {
	PublishText(ctx context.Context, text string) error
	PublishMedia(ctx context.Context, kind enums.ContentKind, fileID, caption string) error
}

type Queue interface {
	Enqueue(ctx context.Context, userTelegramID int64, kind enums.ContentKind, fileID, caption string) (int64, error)
	QueueDepth(ctx context.Context) (int, error)
}

// AdminNotifier delivers a review request for one queued item to one
// admin. Fan-out across admins lives in the pipeline.
type AdminNotifier interface {
	RequestApproval(ctx context.Context, adminTelegramID, pendingID int64, kind enums.ContentKind, fileID, caption, displayName string) error
}

type AdminSource interface {
	ListAdmins(ctx context.Context) ([]int64, error)
}

type Logbook interface {
	Record(ctx context.Context, userTelegramID int64, kind, status, reason string) error
}

type Service struct {
	identities      Identities
	rateGate        RateGate
	settings        SettingsSource
	profanity       ProfanityChecker
	publisher       Publisher
	queue           Queue
	adminNotifier   AdminNotifier
	admins          AdminSource
	logbook         Logbook
	channelUsername string
	logger          *zap.Logger
	now             func() time.Time
}

type Config struct {
	Identities      Identities
	RateGate        RateGate
	Settings        SettingsSource
	Profanity       ProfanityChecker
	Publisher       Publisher
	Queue           Queue
	AdminNotifier   AdminNotifier
	Admins          AdminSource
	Logbook         Logbook
	ChannelUsername string
	Logger          *zap.Logger
}

func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		identities:      cfg.Identities,
		rateGate:        cfg.RateGate,
		settings:        cfg.Settings,
		profanity:       cfg.Profanity,
		publisher:       cfg.Publisher,
		queue:           cfg.Queue,
		adminNotifier:   cfg.AdminNotifier,
		admins:          cfg.Admins,
		logbook:         cfg.Logbook,
		channelUsername: cfg.ChannelUsername,
		logger:          logger,
		now:             time.Now,
	}
}

// Submit runs the checks in order: identity, rate gate, activity window,
// then the content branch. The submission timestamp is recorded before
// the profanity check runs, so a filtered message still consumes the
// cooldown window.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	user, err := s.identities.ResolveOrCreate(ctx, sub.SenderTelegramID)
	if err != nil {
		s.logger.Error("resolve identity", zap.Int64("telegram_id", sub.SenderTelegramID), zap.Error(err))
		metrics.ObserveDecision(string(DecisionStorageError))
		return Result{Decision: DecisionStorageError}, err
	}
	result := Result{User: user}

	ok, wait, err := s.rateGate.MaySubmit(ctx, sub.SenderTelegramID)
	if err != nil {
		metrics.ObserveDecision(string(DecisionStorageError))
		result.Decision = DecisionStorageError
		return result, err
	}
	if !ok {
		result.Decision = DecisionRateLimited
		result.Wait = wait
		s.finish(ctx, sub, result, "rate limited")
		return result, nil
	}

	settings := s.settings.Current()
	if !rules.IsActiveHour(s.now(), settings.ActivityStartHour, settings.ActivityEndHour) {
		result.Decision = DecisionInactive
		result.StartHour = settings.ActivityStartHour
		result.EndHour = settings.ActivityEndHour
		s.finish(ctx, sub, result, "outside activity hours")
		return result, nil
	}

	// The stamp must land before any publish; an unstamped publish would
	// let the sender bypass the gate entirely.
	if err := s.rateGate.RecordSubmission(ctx, sub.SenderTelegramID); err != nil {
		s.logger.Error("record cooldown", zap.Int64("telegram_id", sub.SenderTelegramID), zap.Error(err))
		metrics.ObserveDecision(string(DecisionStorageError))
		result.Decision = DecisionStorageError
		return result, err
	}
	s.identities.TouchLastSubmission(ctx, sub.SenderTelegramID, s.now())

	if sub.isText() {
		return s.submitText(ctx, sub, result)
	}
	return s.submitMedia(ctx, sub, result, settings.RequireApproval)
}

func (s *Service) submitText(ctx context.Context, sub Submission, result Result) (Result, error) {
	if s.profanity.Check(ctx, sub.Body) {
		result.Decision = DecisionFiltered
		s.finish(ctx, sub, result, "profanity")
		return result, nil
	}

	post := channelfmt.Text(sub.Body, result.User.DisplayName, s.channelUsername)
	if err := s.publisher.PublishText(ctx, post); err != nil {
		s.logger.Error("publish text", zap.Int64("telegram_id", sub.SenderTelegramID), zap.Error(err))
		metrics.ObservePublishError()
		result.Decision = DecisionPublishError
		s.finish(ctx, sub, result, err.Error())
		return result, err
	}

	result.Decision = DecisionPublished
	s.finish(ctx, sub, result, "")
	return result, nil
}

func (s *Service) submitMedia(ctx context.Context, sub Submission, result Result, requireApproval bool) (Result, error) {
	if !requireApproval {
		// Direct publish keeps the media even when the caption trips
		// the filter; only the caption is dropped.
		caption := sub.Body
		if caption != "" && s.profanity.Check(ctx, caption) {
			s.logger.Info("stripped caption", zap.Int64("telegram_id", sub.SenderTelegramID))
			caption = ""
		}
		formatted := channelfmt.Caption(caption, result.User.DisplayName, s.channelUsername)
		if err := s.publisher.PublishMedia(ctx, sub.Kind, sub.FileID, formatted); err != nil {
			s.logger.Error("publish media",
				zap.Int64("telegram_id", sub.SenderTelegramID),
				zap.String("kind", string(sub.Kind)),
				zap.Error(err))
			metrics.ObservePublishError()
			result.Decision = DecisionPublishError
			s.finish(ctx, sub, result, err.Error())
			return result, err
		}
		result.Decision = DecisionPublished
		s.finish(ctx, sub, result, "")
		return result, nil
	}

	pendingID, err := s.queue.Enqueue(ctx, sub.SenderTelegramID, sub.Kind, sub.FileID, sub.Body)
	if err != nil {
		metrics.ObserveDecision(string(DecisionStorageError))
		result.Decision = DecisionStorageError
		return result, err
	}
	result.Decision = DecisionQueued
	result.PendingID = pendingID

	s.notifyAdmins(ctx, sub, pendingID, result.User.DisplayName)
	s.finish(ctx, sub, result, "")
	if depth, err := s.queue.QueueDepth(ctx); err == nil {
		metrics.SetPendingDepth(depth)
	}
	return result, nil
}

// notifyAdmins fans the review request out to every admin. One admin
// being unreachable never blocks the others or the submitter's ack.
func (s *Service) notifyAdmins(ctx context.Context, sub Submission, pendingID int64, displayName string) {
	if s.adminNotifier == nil || s.admins == nil {
		return
	}
	adminIDs, err := s.admins.ListAdmins(ctx)
	if err != nil {
		s.logger.Error("list admins for review", zap.Int64("pending_id", pendingID), zap.Error(err))
		return
	}
	for _, adminID := range adminIDs {
		if err := s.adminNotifier.RequestApproval(ctx, adminID, pendingID, sub.Kind, sub.FileID, sub.Body, displayName); err != nil {
			s.logger.Warn("notify admin",
				zap.Int64("admin_id", adminID),
				zap.Int64("pending_id", pendingID),
				zap.Error(err))
		}
	}
}

func (s *Service) finish(ctx context.Context, sub Submission, result Result, reason string) {
	metrics.ObserveDecision(string(result.Decision))
	if s.logbook == nil {
		return
	}
	kind := string(sub.Kind)
	if sub.isText() {
		kind = "text"
	}
	if err := s.logbook.Record(ctx, sub.SenderTelegramID, kind, string(result.Decision), reason); err != nil {
		s.logger.Warn("record submission log", zap.Int64("telegram_id", sub.SenderTelegramID), zap.Error(err))
	}
}
