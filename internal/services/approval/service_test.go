package approval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/worstlover/telegrambot/internal/domain/enums"
	"github.com/worstlover/telegrambot/internal/domain/model"
	pgrepo "github.com/worstlover/telegrambot/internal/repo/postgres"
)

type fakePending struct {
	items     map[int64]model.PendingItem
	nextID    int64
	deleteErr error
}

func newFakePending() *fakePending {
	return &fakePending{items: map[int64]model.PendingItem{}, nextID: 1}
}

func (f *fakePending) Create(_ context.Context, item model.PendingItem) (int64, error) {
	item.ID = f.nextID
	f.nextID++
	f.items[item.ID] = item
	return item.ID, nil
}

func (f *fakePending) GetByID(_ context.Context, id int64) (model.PendingItem, error) {
	item, ok := f.items[id]
	if !ok {
		return model.PendingItem{}, pgrepo.ErrPendingItemNotFound
	}
	return item, nil
}

func (f *fakePending) Delete(_ context.Context, id int64) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakePending) CountPending(_ context.Context) (int, error) {
	return len(f.items), nil
}

type published struct {
	kind    enums.ContentKind
	fileID  string
	caption string
}

type fakePublisher struct {
	posts []published
	err   error
}

func (f *fakePublisher) PublishMedia(_ context.Context, kind enums.ContentKind, fileID, caption string) error {
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, published{kind: kind, fileID: fileID, caption: caption})
	return nil
}

type fakeNotifier struct {
	approved []int64
	rejected map[int64]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{rejected: map[int64]string{}}
}

func (f *fakeNotifier) NotifyApproved(_ context.Context, userTelegramID int64) {
	f.approved = append(f.approved, userTelegramID)
}

func (f *fakeNotifier) NotifyRejected(_ context.Context, userTelegramID int64, reason string) {
	f.rejected[userTelegramID] = reason
}

type fakeIdentities struct{}

func (fakeIdentities) ResolveOrCreate(_ context.Context, telegramID int64) (model.User, error) {
	return model.User{TelegramID: telegramID, DisplayName: "anon7"}, nil
}

type captionChecker struct{ banned string }

func (c captionChecker) Check(_ context.Context, text string) bool {
	return c.banned != "" && strings.Contains(strings.ToLower(text), c.banned)
}

type fakeLogbook struct {
	entries []string
}

func (f *fakeLogbook) Record(_ context.Context, _ int64, kind, status, reason string) error {
	f.entries = append(f.entries, kind+"/"+status+"/"+reason)
	return nil
}

type testEnv struct {
	svc       *Service
	pending   *fakePending
	publisher *fakePublisher
	notifier  *fakeNotifier
	logbook   *fakeLogbook
}

func newTestEnv(banned string) *testEnv {
	env := &testEnv{
		pending:   newFakePending(),
		publisher: &fakePublisher{},
		notifier:  newFakeNotifier(),
		logbook:   &fakeLogbook{},
	}
	env.svc = NewService(
		env.pending, env.publisher, env.notifier,
		fakeIdentities{}, captionChecker{banned: banned}, env.logbook,
		"mychannel", zap.NewNop())
	return env
}

func enqueue(t *testing.T, env *testEnv, caption string) int64 {
	t.Helper()
	id, err := env.svc.Enqueue(context.Background(), 100, enums.ContentKindPhoto, "file-1", caption)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return id
}

func TestApprovePublishesAndRemoves(t *testing.T) {
	env := newTestEnv("")
	id := enqueue(t, env, "sunset at the beach")

	done, err := env.svc.Approve(context.Background(), id)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !done {
		t.Fatalf("approve reported no-op for a live item")
	}
	if len(env.publisher.posts) != 1 {
		t.Fatalf("published %d posts, want 1", len(env.publisher.posts))
	}
	post := env.publisher.posts[0]
	if post.kind != enums.ContentKindPhoto || post.fileID != "file-1" {
		t.Fatalf("published %+v", post)
	}
	if !strings.Contains(post.caption, "sunset at the beach") ||
		!strings.Contains(post.caption, "anon7") ||
		!strings.Contains(post.caption, "@mychannel") {
		t.Fatalf("caption = %q", post.caption)
	}
	if depth, _ := env.svc.QueueDepth(context.Background()); depth != 0 {
		t.Fatalf("queue depth = %d after approve, want 0", depth)
	}
	if len(env.notifier.approved) != 1 || env.notifier.approved[0] != 100 {
		t.Fatalf("approved notifications = %v", env.notifier.approved)
	}
}

func TestApproveStripsBannedCaption(t *testing.T) {
	env := newTestEnv("badword")
	id := enqueue(t, env, "look at this badword")

	done, err := env.svc.Approve(context.Background(), id)
	if err != nil || !done {
		t.Fatalf("approve = (%v, %v)", done, err)
	}
	caption := env.publisher.posts[0].caption
	if strings.Contains(caption, "badword") {
		t.Fatalf("banned caption survived approval: %q", caption)
	}
	if !strings.Contains(caption, "anon7") {
		t.Fatalf("signature missing from stripped caption: %q", caption)
	}
}

func TestApproveMissingItemIsNoOp(t *testing.T) {
	env := newTestEnv("")

	done, err := env.svc.Approve(context.Background(), 999)
	if err != nil {
		t.Fatalf("approve missing: %v", err)
	}
	if done {
		t.Fatalf("approve of missing item reported success")
	}
	if len(env.publisher.posts) != 0 {
		t.Fatalf("missing item was published")
	}
}

func TestApproveTwiceSecondIsNoOp(t *testing.T) {
	env := newTestEnv("")
	id := enqueue(t, env, "")
	ctx := context.Background()

	if done, err := env.svc.Approve(ctx, id); err != nil || !done {
		t.Fatalf("first approve = (%v, %v)", done, err)
	}
	done, err := env.svc.Approve(ctx, id)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if done {
		t.Fatalf("second approve must be a no-op")
	}
	if len(env.publisher.posts) != 1 {
		t.Fatalf("item published %d times", len(env.publisher.posts))
	}
}

func TestApprovePublishFailureKeepsItem(t *testing.T) {
	env := newTestEnv("")
	env.publisher.err = errors.New("telegram: bad gateway")
	id := enqueue(t, env, "caption")

	done, err := env.svc.Approve(context.Background(), id)
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if done {
		t.Fatalf("failed approve reported success")
	}
	if depth, _ := env.svc.QueueDepth(context.Background()); depth != 1 {
		t.Fatalf("item removed despite failed publish")
	}
}

func TestApproveRemoveFailureStillCounts(t *testing.T) {
	env := newTestEnv("")
	id := enqueue(t, env, "caption")
	env.pending.deleteErr = errors.New("connection reset")

	done, err := env.svc.Approve(context.Background(), id)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !done {
		t.Fatalf("published approve must report success even if cleanup failed")
	}
	if len(env.publisher.posts) != 1 {
		t.Fatalf("publish count = %d", len(env.publisher.posts))
	}
}

func TestRejectRemovesAndNotifies(t *testing.T) {
	env := newTestEnv("")
	id := enqueue(t, env, "caption")

	done, err := env.svc.Reject(context.Background(), id, "off topic")
	if err != nil || !done {
		t.Fatalf("reject = (%v, %v)", done, err)
	}
	if len(env.publisher.posts) != 0 {
		t.Fatalf("rejected item was published")
	}
	if depth, _ := env.svc.QueueDepth(context.Background()); depth != 0 {
		t.Fatalf("rejected item still queued")
	}
	if env.notifier.rejected[100] != "off topic" {
		t.Fatalf("reject reason = %q", env.notifier.rejected[100])
	}
}

func TestRejectDefaultReason(t *testing.T) {
	env := newTestEnv("")
	id := enqueue(t, env, "caption")

	if done, err := env.svc.Reject(context.Background(), id, ""); err != nil || !done {
		t.Fatalf("reject = (%v, %v)", done, err)
	}
	if env.notifier.rejected[100] != DefaultRejectReason {
		t.Fatalf("reason = %q, want default", env.notifier.rejected[100])
	}
}

func TestRejectTwiceSecondIsNoOp(t *testing.T) {
	env := newTestEnv("")
	id := enqueue(t, env, "caption")
	ctx := context.Background()

	if done, err := env.svc.Reject(ctx, id, ""); err != nil || !done {
		t.Fatalf("first reject = (%v, %v)", done, err)
	}
	done, err := env.svc.Reject(ctx, id, "")
	if err != nil {
		t.Fatalf("second reject: %v", err)
	}
	if done {
		t.Fatalf("second reject must be a no-op")
	}
}

func TestDecisionsAreLogged(t *testing.T) {
	env := newTestEnv("")
	ctx := context.Background()

	approveID := enqueue(t, env, "")
	rejectID := enqueue(t, env, "")

	if _, err := env.svc.Approve(ctx, approveID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := env.svc.Reject(ctx, rejectID, "spam"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	want := []string{"photo/approved/", "photo/rejected/spam"}
	if len(env.logbook.entries) != len(want) {
		t.Fatalf("log entries = %v", env.logbook.entries)
	}
	for i, entry := range want {
		if env.logbook.entries[i] != entry {
			t.Fatalf("log entry %d = %q, want %q", i, env.logbook.entries[i], entry)
		}
	}
}
