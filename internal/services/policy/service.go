// Package policy owns the relay's durable knobs: the typed settings
// snapshot, the admin set and the banned-word set. The settings snapshot
// is loaded once at startup and reloaded after every admin mutation, so
// check paths never read the store key by key.
package policy

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/worstlover/telegrambot/internal/repo/postgres"
	"github.com/worstlover/telegrambot/internal/services/profanity"
)

const (
	DefaultRequireApproval   = true
	DefaultRateLimitMinutes  = 5
	DefaultActivityStartHour = 0
	DefaultActivityEndHour   = 23
)

// Settings is the typed view of the recognized settings keys.
type Settings struct {
	RequireApproval   bool
	RateLimitMinutes  int
	ActivityStartHour int
	ActivityEndHour   int
}

type SettingsRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	EnsureDefaults(ctx context.Context, defaults map[string]string) error
}

type AdminRepo interface {
	Add(ctx context.Context, telegramID, addedBy int64) error
	Remove(ctx context.Context, telegramID int64) (bool, error)
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
	List(ctx context.Context) ([]int64, error)
}

type WordsRepo interface {
	Add(ctx context.Context, word string, addedBy int64) error
	Remove(ctx context.Context, word string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Seed(ctx context.Context, words []string) error
}

type Service struct {
	settingsRepo SettingsRepo
	adminRepo    AdminRepo
	wordsRepo    WordsRepo
	logger       *zap.Logger

	mu      sync.RWMutex
	current Settings
}

func NewService(settingsRepo SettingsRepo, adminRepo AdminRepo, wordsRepo WordsRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settingsRepo: settingsRepo,
		adminRepo:    adminRepo,
		wordsRepo:    wordsRepo,
		logger:       logger,
		current: Settings{
			RequireApproval:   DefaultRequireApproval,
			RateLimitMinutes:  DefaultRateLimitMinutes,
			ActivityStartHour: DefaultActivityStartHour,
			ActivityEndHour:   DefaultActivityEndHour,
		},
	}
}

// Init seeds defaults into the store and loads the first snapshot.
// It must run before the pipeline accepts submissions.
func (s *Service) Init(ctx context.Context, seedWords []string) error {
	if s.settingsRepo == nil {
		return fmt.Errorf("settings repo is not configured")
	}

	defaults := map[string]string{
		pgrepo.SettingRequireApproval:   strconv.FormatBool(DefaultRequireApproval),
		pgrepo.SettingRateLimitMinutes:  strconv.Itoa(DefaultRateLimitMinutes),
		pgrepo.SettingActivityStartHour: strconv.Itoa(DefaultActivityStartHour),
		pgrepo.SettingActivityEndHour:   strconv.Itoa(DefaultActivityEndHour),
	}
	if err := s.settingsRepo.EnsureDefaults(ctx, defaults); err != nil {
		return err
	}

	if s.wordsRepo != nil && len(seedWords) > 0 {
		normalized := make([]string, 0, len(seedWords))
		for _, word := range seedWords {
			if w := profanity.Normalize(word); w != "" {
				normalized = append(normalized, w)
			}
		}
		if err := s.wordsRepo.Seed(ctx, normalized); err != nil {
			return err
		}
	}

	return s.Reload(ctx)
}

// Reload reads the snapshot from the store. Missing or malformed values
// fall back to defaults and are logged, never propagated: a check must
// always see a full settings set.
func (s *Service) Reload(ctx context.Context) error {
	if s.settingsRepo == nil {
		return fmt.Errorf("settings repo is not configured")
	}

	next := Settings{
		RequireApproval:   s.loadBool(ctx, pgrepo.SettingRequireApproval, DefaultRequireApproval),
		RateLimitMinutes:  s.loadInt(ctx, pgrepo.SettingRateLimitMinutes, DefaultRateLimitMinutes, 0, -1),
		ActivityStartHour: s.loadInt(ctx, pgrepo.SettingActivityStartHour, DefaultActivityStartHour, 0, 23),
		ActivityEndHour:   s.loadInt(ctx, pgrepo.SettingActivityEndHour, DefaultActivityEndHour, 0, 23),
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	return nil
}

// Current returns the settings snapshot last loaded from the store.
func (s *Service) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// RateLimitWindow returns the cooldown as a duration; zero disables the
// gate.
func (s *Service) RateLimitWindow() time.Duration {
	return time.Duration(s.Current().RateLimitMinutes) * time.Minute
}

func (s *Service) SetRateLimitMinutes(ctx context.Context, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("rate limit minutes must be non-negative")
	}
	if err := s.settingsRepo.Set(ctx, pgrepo.SettingRateLimitMinutes, strconv.Itoa(minutes)); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func (s *Service) SetActivityHours(ctx context.Context, startHour, endHour int) error {
	if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 23 {
		return fmt.Errorf("activity hours must be between 0 and 23")
	}
	if err := s.settingsRepo.Set(ctx, pgrepo.SettingActivityStartHour, strconv.Itoa(startHour)); err != nil {
		return err
	}
	if err := s.settingsRepo.Set(ctx, pgrepo.SettingActivityEndHour, strconv.Itoa(endHour)); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// ToggleRequireApproval flips the approval flag and returns the new
// value.
func (s *Service) ToggleRequireApproval(ctx context.Context) (bool, error) {
	next := !s.Current().RequireApproval
	if err := s.settingsRepo.Set(ctx, pgrepo.SettingRequireApproval, strconv.FormatBool(next)); err != nil {
		return false, err
	}
	if err := s.Reload(ctx); err != nil {
		return false, err
	}
	return next, nil
}

func (s *Service) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	if s.adminRepo == nil {
		return false, fmt.Errorf("admin repo is not configured")
	}
	return s.adminRepo.IsAdmin(ctx, telegramID)
}

func (s *Service) AddAdmin(ctx context.Context, telegramID, addedBy int64) error {
	if s.adminRepo == nil {
		return fmt.Errorf("admin repo is not configured")
	}
	return s.adminRepo.Add(ctx, telegramID, addedBy)
}

func (s *Service) RemoveAdmin(ctx context.Context, telegramID int64) (bool, error) {
	if s.adminRepo == nil {
		return false, fmt.Errorf("admin repo is not configured")
	}
	return s.adminRepo.Remove(ctx, telegramID)
}

func (s *Service) ListAdmins(ctx context.Context) ([]int64, error) {
	if s.adminRepo == nil {
		return nil, fmt.Errorf("admin repo is not configured")
	}
	return s.adminRepo.List(ctx)
}

// AddBannedWord normalizes the entry before storing it so the matcher
// compares like with like.
func (s *Service) AddBannedWord(ctx context.Context, word string, addedBy int64) error {
	if s.wordsRepo == nil {
		return fmt.Errorf("words repo is not configured")
	}
	normalized := profanity.Normalize(word)
	if normalized == "" {
		return fmt.Errorf("banned word is empty after normalization")
	}
	return s.wordsRepo.Add(ctx, normalized, addedBy)
}

func (s *Service) RemoveBannedWord(ctx context.Context, word string) (bool, error) {
	if s.wordsRepo == nil {
		return false, fmt.Errorf("words repo is not configured")
	}
	normalized := profanity.Normalize(word)
	if normalized == "" {
		return false, nil
	}
	return s.wordsRepo.Remove(ctx, normalized)
}

// ListBannedWords satisfies profanity.WordSource.
func (s *Service) ListBannedWords(ctx context.Context) ([]string, error) {
	if s.wordsRepo == nil {
		return nil, fmt.Errorf("words repo is not configured")
	}
	return s.wordsRepo.List(ctx)
}

func (s *Service) loadBool(ctx context.Context, key string, fallback bool) bool {
	raw, err := s.settingsRepo.Get(ctx, key)
	if err != nil {
		s.logger.Warn("read setting, using default", zap.String("key", key), zap.Error(err))
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.Warn("malformed setting, using default", zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return value
}

// loadInt bounds the value to [min, max]; max < 0 means unbounded above.
func (s *Service) loadInt(ctx context.Context, key string, fallback, min, max int) int {
	raw, err := s.settingsRepo.Get(ctx, key)
	if err != nil {
		s.logger.Warn("read setting, using default", zap.String("key", key), zap.Error(err))
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || (max >= 0 && value > max) {
		s.logger.Warn("malformed setting, using default", zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return value
}
