package service

import (
	"context"
	"time"

	"github.com/withmates/activity-service/internal/models"
	"github.com/withmates/activity-service/internal/notify"
	"gorm.io/gorm"
)

// --- Mock ActivityRepository ---

type mockActivityRepo struct {
	createFn         func(ctx context.Context, activity *models.Activity) error
	findByIDFn       func(ctx context.Context, id uint) (*models.Activity, error)
	findAllFn        func(ctx context.Context) ([]models.Activity, error)
	findByCreatorFn  func(ctx context.Context, creatorID uint, status *models.ActivityStatus) ([]models.Activity, error)
	updateStatusFn   func(ctx context.Context, activityID uint, status models.ActivityStatus) error
	markReminderFn   func(ctx context.Context, activityID uint) error
	findExpiredFn    func(ctx context.Context, now time.Time) ([]models.Activity, error)
	findNeedReminder func(ctx context.Context, from, to time.Time) ([]models.Activity, error)
	deleteFn         func(ctx context.Context, activityID uint) error
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	return m.createFn(ctx, activity)
}

func (m *mockActivityRepo) FindByID(ctx context.Context, id uint) (*models.Activity, error) {
	return m.findByIDFn(ctx, id)
}

// The unit-test transaction is a no-op wrapper; locking behaviour is covered
// by the integration tests against a real database.
func (m *mockActivityRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Activity, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockActivityRepo) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *mockActivityRepo) FindAll(ctx context.Context) ([]models.Activity, error) {
	return m.findAllFn(ctx)
}

func (m *mockActivityRepo) FindByCreator(ctx context.Context, creatorID uint, status *models.ActivityStatus) ([]models.Activity, error) {
	return m.findByCreatorFn(ctx, creatorID, status)
}

func (m *mockActivityRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, activityID uint, status models.ActivityStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, activityID, status)
	}
	return nil
}

func (m *mockActivityRepo) MarkReminderSent(ctx context.Context, tx *gorm.DB, activityID uint) error {
	if m.markReminderFn != nil {
		return m.markReminderFn(ctx, activityID)
	}
	return nil
}

func (m *mockActivityRepo) FindExpiredOpen(ctx context.Context, now time.Time) ([]models.Activity, error) {
	return m.findExpiredFn(ctx, now)
}

func (m *mockActivityRepo) FindNeedingReminder(ctx context.Context, from, to time.Time) ([]models.Activity, error) {
	return m.findNeedReminder(ctx, from, to)
}

func (m *mockActivityRepo) Delete(ctx context.Context, activityID uint) error {
	return m.deleteFn(ctx, activityID)
}

// --- Mock ParticipantRepository ---

type mockParticipantRepo struct {
	createFn         func(ctx context.Context, participant *models.Participant) error
	saveFn           func(ctx context.Context, participant *models.Participant) error
	findByIDFn       func(ctx context.Context, id uint) (*models.Participant, error)
	findPairFn       func(ctx context.Context, activityID, userID uint) (*models.Participant, error)
	findByActivityFn func(ctx context.Context, activityID uint, status *models.ParticipantStatus) ([]models.Participant, error)
	findByUserFn     func(ctx context.Context, userID uint, status *models.ParticipantStatus) ([]models.Participant, error)
	countFn          func(ctx context.Context, activityID uint) (int64, error)
	countExclFn      func(ctx context.Context, activityID, participantID uint) (int64, error)
	deleteFn         func(ctx context.Context, participant *models.Participant) error
}

func (m *mockParticipantRepo) Create(ctx context.Context, tx *gorm.DB, participant *models.Participant) error {
	if m.createFn != nil {
		return m.createFn(ctx, participant)
	}
	participant.ID = 1
	return nil
}

func (m *mockParticipantRepo) Save(ctx context.Context, tx *gorm.DB, participant *models.Participant) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, participant)
	}
	return nil
}

func (m *mockParticipantRepo) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Participant, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockParticipantRepo) FindByActivityAndUser(ctx context.Context, tx *gorm.DB, activityID, userID uint) (*models.Participant, error) {
	if m.findPairFn != nil {
		return m.findPairFn(ctx, activityID, userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockParticipantRepo) FindByActivity(ctx context.Context, activityID uint, status *models.ParticipantStatus) ([]models.Participant, error) {
	if m.findByActivityFn != nil {
		return m.findByActivityFn(ctx, activityID, status)
	}
	return nil, nil
}

func (m *mockParticipantRepo) FindByUser(ctx context.Context, userID uint, status *models.ParticipantStatus) ([]models.Participant, error) {
	return m.findByUserFn(ctx, userID, status)
}

func (m *mockParticipantRepo) CountHoldingSpot(ctx context.Context, tx *gorm.DB, activityID uint) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, activityID)
	}
	return 0, nil
}

func (m *mockParticipantRepo) CountHoldingSpotExcluding(ctx context.Context, tx *gorm.DB, activityID, participantID uint) (int64, error) {
	if m.countExclFn != nil {
		return m.countExclFn(ctx, activityID, participantID)
	}
	return 0, nil
}

func (m *mockParticipantRepo) Delete(ctx context.Context, participant *models.Participant) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, participant)
	}
	return nil
}

// --- Mock Notifier ---

type mockNotifier struct {
	events []notify.Event
}

func (m *mockNotifier) Notify(ctx context.Context, event notify.Event) {
	m.events = append(m.events, event)
}
