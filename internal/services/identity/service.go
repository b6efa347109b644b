// Package identity resolves a Telegram account to a stable anonymous
// sender identity and handles the one-time rename.
package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/worstlover/telegrambot/internal/domain/model"
	pgrepo "github.com/worstlover/telegrambot/internal/repo/postgres"
)

var (
	ErrInvalidName = errors.New("display name is invalid")

	// ErrNameTaken and ErrNameAlreadySet mirror the repo sentinels so
	// transport code depends on this package only.
	ErrNameTaken      = pgrepo.ErrNameTaken
	ErrNameAlreadySet = pgrepo.ErrNameAlreadySet
)

const (
	maxNameRunes = 50

	// nameGenAttempts bounds the collision retry loop; the counter only
	// moves forward so a handful of retries always lands on a free slot.
	nameGenAttempts = 50
)

// namePattern allows letters, digits, ZWNJ/ZWJ joiners, spaces and a few
// separators. Joiners matter for Persian names.
var namePattern = regexp.MustCompile(`^[\p{L}\p{N}\x{200C}\x{200D} \-_.]+$`)

type UserRepo interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error)
	CountUsers(ctx context.Context) (int, error)
	CreateWithName(ctx context.Context, telegramID int64, displayName string) (model.User, error)
	SetDisplayName(ctx context.Context, telegramID int64, name string) error
	TouchLastSubmission(ctx context.Context, telegramID int64, at time.Time) error
}

type Service struct {
	users      UserRepo
	namePrefix string
	logger     *zap.Logger
}

func NewService(users UserRepo, namePrefix string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if namePrefix == "" {
		namePrefix = "anon"
	}
	return &Service{users: users, namePrefix: namePrefix, logger: logger}
}

// ResolveOrCreate returns the caller's identity, creating one with a
// generated name on first contact. Generated names are the prefix plus an
// ordinal; collisions bump the ordinal and retry.
func (s *Service) ResolveOrCreate(ctx context.Context, telegramID int64) (model.User, error) {
	user, err := s.users.FindByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgrepo.ErrUserNotFound) {
		return model.User{}, err
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return model.User{}, err
	}

	ordinal := count + 1
	for attempt := 0; attempt < nameGenAttempts; attempt++ {
		candidate := s.namePrefix + strconv.Itoa(ordinal)
		user, err := s.users.CreateWithName(ctx, telegramID, candidate)
		if err == nil {
			s.logger.Info("created identity",
				zap.Int64("telegram_id", telegramID),
				zap.String("display_name", candidate))
			return user, nil
		}
		if errors.Is(err, pgrepo.ErrNameTaken) {
			ordinal++
			continue
		}
		if errors.Is(err, pgrepo.ErrUserExists) {
			// Lost the race to a concurrent first message.
			return s.users.FindByTelegramID(ctx, telegramID)
		}
		return model.User{}, err
	}

	return model.User{}, fmt.Errorf("generate display name: no free name after %d attempts", nameGenAttempts)
}

// SetDisplayName claims a caller-chosen name. The rename is one-time; a
// second attempt surfaces ErrNameAlreadySet.
func (s *Service) SetDisplayName(ctx context.Context, telegramID int64, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	return s.users.SetDisplayName(ctx, telegramID, name)
}

// TouchLastSubmission is best-effort audit; failures are logged and
// swallowed so they never block a submission.
func (s *Service) TouchLastSubmission(ctx context.Context, telegramID int64, at time.Time) {
	if err := s.users.TouchLastSubmission(ctx, telegramID, at); err != nil {
		s.logger.Warn("touch last submission", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}
}

// ValidName reports whether a proposed display name is acceptable.
func ValidName(name string) bool {
	if name == "" || utf8.RuneCountInString(name) > maxNameRunes {
		return false
	}
	return namePattern.MatchString(name)
}
