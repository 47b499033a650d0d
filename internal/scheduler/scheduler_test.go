package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/withmates/activity-service/internal/models"
	"github.com/withmates/activity-service/internal/notify"
	"gorm.io/gorm"
)

// fakeStore is a stateful in-memory stand-in for both repositories, so a
// sweep's second invocation sees the writes made by the first.
type fakeStore struct {
	mu           sync.Mutex
	activities   map[uint]*models.Activity
	participants []models.Participant

	updateStatusErr map[uint]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		activities:      make(map[uint]*models.Activity),
		updateStatusErr: make(map[uint]error),
	}
}

func (f *fakeStore) Create(ctx context.Context, activity *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities[activity.ID] = activity
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id uint) (*models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.activities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *a
	return &clone, nil
}

func (f *fakeStore) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Activity, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeStore) FindAll(ctx context.Context) ([]models.Activity, error) { return nil, nil }

func (f *fakeStore) FindByCreator(ctx context.Context, creatorID uint, status *models.ActivityStatus) ([]models.Activity, error) {
	return nil, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, tx *gorm.DB, activityID uint, status models.ActivityStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateStatusErr[activityID]; err != nil {
		return err
	}
	f.activities[activityID].Status = status
	return nil
}

func (f *fakeStore) MarkReminderSent(ctx context.Context, tx *gorm.DB, activityID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities[activityID].ReminderSent = true
	return nil
}

func (f *fakeStore) FindExpiredOpen(ctx context.Context, now time.Time) ([]models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Activity
	for _, a := range f.activities {
		if a.Status == models.ActivityOpen && a.ActivityDate.Before(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindNeedingReminder(ctx context.Context, from, to time.Time) ([]models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Activity
	for _, a := range f.activities {
		if a.Status == models.ActivityOpen && !a.ReminderSent &&
			!a.ActivityDate.Before(from) && a.ActivityDate.Before(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, activityID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.activities, activityID)
	return nil
}

// Ledger reads for the sweeps; they never write participant rows.

func (f *fakeStore) FindByActivity(ctx context.Context, activityID uint, status *models.ParticipantStatus) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Participant
	for _, p := range f.participants {
		if p.ActivityID != activityID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// participantAdapter exposes the fakeStore through the ParticipantRepository
// interface without name collisions with the activity side.
type participantAdapter struct{ store *fakeStore }

func (a participantAdapter) Create(ctx context.Context, tx *gorm.DB, p *models.Participant) error {
	return nil
}
func (a participantAdapter) Save(ctx context.Context, tx *gorm.DB, p *models.Participant) error {
	return nil
}
func (a participantAdapter) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Participant, error) {
	return nil, gorm.ErrRecordNotFound
}
func (a participantAdapter) FindByActivityAndUser(ctx context.Context, tx *gorm.DB, activityID, userID uint) (*models.Participant, error) {
	return nil, gorm.ErrRecordNotFound
}
func (a participantAdapter) FindByActivity(ctx context.Context, activityID uint, status *models.ParticipantStatus) ([]models.Participant, error) {
	return a.store.FindByActivity(ctx, activityID, status)
}
func (a participantAdapter) FindByUser(ctx context.Context, userID uint, status *models.ParticipantStatus) ([]models.Participant, error) {
	return nil, nil
}
func (a participantAdapter) CountHoldingSpot(ctx context.Context, tx *gorm.DB, activityID uint) (int64, error) {
	return 0, nil
}
func (a participantAdapter) CountHoldingSpotExcluding(ctx context.Context, tx *gorm.DB, activityID, participantID uint) (int64, error) {
	return 0, nil
}
func (a participantAdapter) Delete(ctx context.Context, p *models.Participant) error { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(ctx context.Context, event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) byKind(kind notify.EventKind) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestScheduler(store *fakeStore, notifier *recordingNotifier, now time.Time) *Scheduler {
	return New(store, participantAdapter{store}, notifier, Config{
		Now: func() time.Time { return now },
	})
}

// --- Completion sweep ---

func TestCompleteExpired_MarksAndNotifies(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.activities[1] = &models.Activity{
		ID: 1, CreatorID: 10, Title: "Sunrise Hike",
		TotalSpots: 4, Status: models.ActivityOpen,
		ActivityDate: now.Add(-time.Hour),
	}
	store.participants = []models.Participant{
		{ID: 1, ActivityID: 1, UserID: 20, Status: models.StatusJoined},
		{ID: 2, ActivityID: 1, UserID: 21, Status: models.StatusAccepted},
	}
	notifier := &recordingNotifier{}

	s := newTestScheduler(store, notifier, now)
	assert.NoError(t, s.CompleteExpired(context.Background()))

	assert.Equal(t, models.ActivityCompleted, store.activities[1].Status)
	completed := notifier.byKind(notify.ActivityCompleted)
	assert.Len(t, completed, 3, "one for the creator, one per participant")
	assert.Equal(t, uint(10), completed[0].RecipientUserID)
}

func TestCompleteExpired_SecondSweepIsNoOp(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.activities[1] = &models.Activity{
		ID: 1, CreatorID: 10, Title: "Sunrise Hike",
		TotalSpots: 4, Status: models.ActivityOpen,
		ActivityDate: now.Add(-time.Hour),
	}
	notifier := &recordingNotifier{}

	s := newTestScheduler(store, notifier, now)
	assert.NoError(t, s.CompleteExpired(context.Background()))
	first := len(notifier.events)

	// Completed rows no longer match the selection predicate.
	assert.NoError(t, s.CompleteExpired(context.Background()))
	assert.Equal(t, first, len(notifier.events))
}

func TestCompleteExpired_SkipsFutureAndNonOpen(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.activities[1] = &models.Activity{
		ID: 1, CreatorID: 10, Status: models.ActivityOpen, TotalSpots: 2,
		ActivityDate: now.Add(time.Hour),
	}
	store.activities[2] = &models.Activity{
		ID: 2, CreatorID: 10, Status: models.ActivityCancelled, TotalSpots: 2,
		ActivityDate: now.Add(-time.Hour),
	}

	s := newTestScheduler(store, &recordingNotifier{}, now)
	assert.NoError(t, s.CompleteExpired(context.Background()))

	assert.Equal(t, models.ActivityOpen, store.activities[1].Status)
	assert.Equal(t, models.ActivityCancelled, store.activities[2].Status)
}

func TestCompleteExpired_OneBadRowDoesNotAbortBatch(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.activities[1] = &models.Activity{
		ID: 1, CreatorID: 10, Status: models.ActivityOpen, TotalSpots: 2,
		ActivityDate: now.Add(-2 * time.Hour),
	}
	store.activities[2] = &models.Activity{
		ID: 2, CreatorID: 10, Status: models.ActivityOpen, TotalSpots: 2,
		ActivityDate: now.Add(-time.Hour),
	}
	store.updateStatusErr[1] = errors.New("deadlock detected")

	s := newTestScheduler(store, &recordingNotifier{}, now)
	assert.NoError(t, s.CompleteExpired(context.Background()))

	assert.Equal(t, models.ActivityOpen, store.activities[1].Status)
	assert.Equal(t, models.ActivityCompleted, store.activities[2].Status)
}

func TestCompleteExpired_ConcurrentCancelSkipsNotifications(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.activities[1] = &models.Activity{
		ID: 1, CreatorID: 10, Title: "Sunrise Hike",
		TotalSpots: 2, Status: models.ActivityCancelled,
		ActivityDate: now.Add(-time.Hour),
	}
	store.participants = []models.Participant{
		{ID: 1, ActivityID: 1, UserID: 20, Status: models.StatusJoined},
	}
	notifier := &recordingNotifier{}
	s := newTestScheduler(store, notifier, now)

	// The sweep's list query raced a creator cancel: the snapshot still says
	// open, the row no longer does.
	stale := *store.activities[1]
	stale.Status = models.ActivityOpen
	assert.NoError(t, s.completeOne(context.Background(), &stale, now))

	assert.Equal(t, models.ActivityCancelled, store.activities[1].Status)
	assert.Empty(t, notifier.events, "bailing out of the re-check must not announce a completion")
}

// --- Reminder sweep ---

func TestSendReminders_LatchPreventsResend(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.activities[1] = &models.Activity{
		ID: 1, CreatorID: 10, Title: "Sunrise Hike",
		TotalSpots: 4, Status: models.ActivityOpen,
		ActivityDate: now.Add(45 * time.Minute),
	}
	store.participants = []models.Participant{
		{ID: 1, ActivityID: 1, UserID: 20, Status: models.StatusJoined},
		{ID: 2, ActivityID: 1, UserID: 21, Status: models.StatusAccepted},
		{ID: 3, ActivityID: 1, UserID: 22, Status: models.StatusInterested},
	}
	notifier := &recordingNotifier{}

	s := newTestScheduler(store, notifier, now)
	assert.NoError(t, s.SendReminders(context.Background()))

	reminders := notifier.byKind(notify.ActivityReminder)
	assert.Len(t, reminders, 3, "creator plus the two spot holders")
	assert.True(t, store.activities[1].ReminderSent)

	// Second sweep inside the window: the latch is the only guard.
	assert.NoError(t, s.SendReminders(context.Background()))
	assert.Len(t, notifier.byKind(notify.ActivityReminder), 3)
}

func TestSendReminders_OnlyWithinWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.activities[1] = &models.Activity{
		ID: 1, CreatorID: 10, Status: models.ActivityOpen, TotalSpots: 2,
		ActivityDate: now.Add(2 * time.Hour),
	}
	notifier := &recordingNotifier{}

	s := newTestScheduler(store, notifier, now)
	assert.NoError(t, s.SendReminders(context.Background()))

	assert.Empty(t, notifier.events)
	assert.False(t, store.activities[1].ReminderSent)
}

func TestSendReminders_CountdownPhrasing(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.activities[1] = &models.Activity{
		ID: 1, CreatorID: 10, Title: "Sunrise Hike",
		TotalSpots: 2, Status: models.ActivityOpen,
		ActivityDate: now.Add(20 * time.Minute),
	}
	notifier := &recordingNotifier{}

	s := newTestScheduler(store, notifier, now)
	assert.NoError(t, s.SendReminders(context.Background()))

	reminders := notifier.byKind(notify.ActivityReminder)
	assert.Len(t, reminders, 1)
	assert.Contains(t, reminders[0].Body, "in 20 minutes")
}

func TestTimeUntilStart(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "in 15 minutes", timeUntilStart(now, now.Add(15*time.Minute)))
	assert.Equal(t, "in 30 minutes", timeUntilStart(now, now.Add(30*time.Minute)))
	assert.Equal(t, "in about 1 hour", timeUntilStart(now, now.Add(45*time.Minute)))
	assert.Equal(t, "in about 1 hour", timeUntilStart(now, now.Add(60*time.Minute)))
	assert.Equal(t, "soon", timeUntilStart(now, now.Add(90*time.Minute)))
}

// --- Maintenance sweep ---

func TestDailyMaintenance_NoOp(t *testing.T) {
	now := time.Date(2026, 8, 30, 2, 0, 0, 0, time.UTC)
	s := newTestScheduler(newFakeStore(), &recordingNotifier{}, now)

	assert.NoError(t, s.DailyMaintenance(context.Background()))
}
