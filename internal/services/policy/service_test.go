package policy

import (
	"context"
	"testing"

	"go.uber.org/zap"

	pgrepo "github.com/worstlover/telegrambot/internal/repo/postgres"
)

type fakeSettings struct {
	values map[string]string
	sets   int
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: map[string]string{}}
}

func (f *fakeSettings) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", pgrepo.ErrSettingNotFound
	}
	return value, nil
}

func (f *fakeSettings) Set(_ context.Context, key, value string) error {
	f.values[key] = value
	f.sets++
	return nil
}

func (f *fakeSettings) EnsureDefaults(_ context.Context, defaults map[string]string) error {
	for key, value := range defaults {
		if _, ok := f.values[key]; !ok {
			f.values[key] = value
		}
	}
	return nil
}

type fakeWords struct {
	words map[string]bool
}

func newFakeWords() *fakeWords {
	return &fakeWords{words: map[string]bool{}}
}

func (f *fakeWords) Add(_ context.Context, word string, _ int64) error {
	f.words[word] = true
	return nil
}

func (f *fakeWords) Remove(_ context.Context, word string) (bool, error) {
	if !f.words[word] {
		return false, nil
	}
	delete(f.words, word)
	return true, nil
}

func (f *fakeWords) List(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(f.words))
	for word := range f.words {
		out = append(out, word)
	}
	return out, nil
}

func (f *fakeWords) Seed(_ context.Context, words []string) error {
	for _, word := range words {
		f.words[word] = true
	}
	return nil
}

type fakeAdmins struct {
	ids map[int64]bool
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{ids: map[int64]bool{}}
}

func (f *fakeAdmins) Add(_ context.Context, telegramID, _ int64) error {
	f.ids[telegramID] = true
	return nil
}

func (f *fakeAdmins) Remove(_ context.Context, telegramID int64) (bool, error) {
	if !f.ids[telegramID] {
		return false, nil
	}
	delete(f.ids, telegramID)
	return true, nil
}

func (f *fakeAdmins) IsAdmin(_ context.Context, telegramID int64) (bool, error) {
	return f.ids[telegramID], nil
}

func (f *fakeAdmins) List(_ context.Context) ([]int64, error) {
	out := make([]int64, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	return out, nil
}

func newTestService(settings *fakeSettings) (*Service, *fakeWords, *fakeAdmins) {
	words := newFakeWords()
	admins := newFakeAdmins()
	return NewService(settings, admins, words, zap.NewNop()), words, admins
}

func TestInitSeedsDefaults(t *testing.T) {
	settings := newFakeSettings()
	svc, words, _ := newTestService(settings)

	if err := svc.Init(context.Background(), []string{"BadWord", "  "}); err != nil {
		t.Fatalf("init: %v", err)
	}

	current := svc.Current()
	if !current.RequireApproval {
		t.Fatalf("expected approval required by default")
	}
	if current.RateLimitMinutes != DefaultRateLimitMinutes {
		t.Fatalf("rate limit = %d, want %d", current.RateLimitMinutes, DefaultRateLimitMinutes)
	}
	if current.ActivityStartHour != 0 || current.ActivityEndHour != 23 {
		t.Fatalf("activity window = %d..%d, want 0..23", current.ActivityStartHour, current.ActivityEndHour)
	}
	if !words.words["badword"] {
		t.Fatalf("seed word was not normalized and stored")
	}
}

func TestInitKeepsExistingValues(t *testing.T) {
	settings := newFakeSettings()
	settings.values[pgrepo.SettingRateLimitMinutes] = "15"
	svc, _, _ := newTestService(settings)

	if err := svc.Init(context.Background(), nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := svc.Current().RateLimitMinutes; got != 15 {
		t.Fatalf("rate limit = %d, want 15", got)
	}
}

func TestReloadFallsBackOnMalformedValue(t *testing.T) {
	settings := newFakeSettings()
	settings.values[pgrepo.SettingRequireApproval] = "definitely"
	settings.values[pgrepo.SettingActivityStartHour] = "25"
	svc, _, _ := newTestService(settings)

	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	current := svc.Current()
	if current.RequireApproval != DefaultRequireApproval {
		t.Fatalf("malformed bool did not fall back to default")
	}
	if current.ActivityStartHour != DefaultActivityStartHour {
		t.Fatalf("out-of-range hour did not fall back to default")
	}
}

func TestMutationsReloadSnapshot(t *testing.T) {
	settings := newFakeSettings()
	svc, _, _ := newTestService(settings)
	ctx := context.Background()
	if err := svc.Init(ctx, nil); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := svc.SetRateLimitMinutes(ctx, 10); err != nil {
		t.Fatalf("set rate limit: %v", err)
	}
	if got := svc.Current().RateLimitMinutes; got != 10 {
		t.Fatalf("snapshot rate limit = %d, want 10", got)
	}

	if err := svc.SetActivityHours(ctx, 8, 22); err != nil {
		t.Fatalf("set activity hours: %v", err)
	}
	current := svc.Current()
	if current.ActivityStartHour != 8 || current.ActivityEndHour != 22 {
		t.Fatalf("snapshot window = %d..%d, want 8..22", current.ActivityStartHour, current.ActivityEndHour)
	}

	next, err := svc.ToggleRequireApproval(ctx)
	if err != nil {
		t.Fatalf("toggle approval: %v", err)
	}
	if next || svc.Current().RequireApproval {
		t.Fatalf("toggle did not flip approval off")
	}
}

func TestSetRateLimitRejectsNegative(t *testing.T) {
	svc, _, _ := newTestService(newFakeSettings())
	if err := svc.SetRateLimitMinutes(context.Background(), -1); err == nil {
		t.Fatalf("expected error for negative rate limit")
	}
}

func TestSetActivityHoursValidatesRange(t *testing.T) {
	svc, _, _ := newTestService(newFakeSettings())
	for _, pair := range [][2]int{{-1, 10}, {0, 24}, {30, 2}} {
		if err := svc.SetActivityHours(context.Background(), pair[0], pair[1]); err == nil {
			t.Fatalf("expected error for hours %d..%d", pair[0], pair[1])
		}
	}
}

func TestBannedWordsNormalizedOnMutation(t *testing.T) {
	svc, words, _ := newTestService(newFakeSettings())
	ctx := context.Background()

	if err := svc.AddBannedWord(ctx, "  B4dWord ", 1); err != nil {
		t.Fatalf("add word: %v", err)
	}
	if !words.words["badword"] {
		t.Fatalf("stored word was not normalized, have %v", words.words)
	}

	removed, err := svc.RemoveBannedWord(ctx, "BADWORD")
	if err != nil {
		t.Fatalf("remove word: %v", err)
	}
	if !removed {
		t.Fatalf("normalized removal did not match stored word")
	}

	if err := svc.AddBannedWord(ctx, "   ", 1); err == nil {
		t.Fatalf("expected error for word empty after normalization")
	}
}

func TestAdminSet(t *testing.T) {
	svc, _, _ := newTestService(newFakeSettings())
	ctx := context.Background()

	if err := svc.AddAdmin(ctx, 42, 1); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	ok, err := svc.IsAdmin(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("IsAdmin(42) = %v, %v; want true", ok, err)
	}

	removed, err := svc.RemoveAdmin(ctx, 42)
	if err != nil || !removed {
		t.Fatalf("RemoveAdmin(42) = %v, %v; want true", removed, err)
	}
	removed, err = svc.RemoveAdmin(ctx, 42)
	if err != nil || removed {
		t.Fatalf("second RemoveAdmin(42) = %v, %v; want false", removed, err)
	}
}
