package repository

import (
	"context"
	"time"

	"github.com/withmates/activity-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindByID(ctx context.Context, id uint) (*models.Activity, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Activity, error)
	FindAll(ctx context.Context) ([]models.Activity, error)
	FindByCreator(ctx context.Context, creatorID uint, status *models.ActivityStatus) ([]models.Activity, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, activityID uint, status models.ActivityStatus) error
	MarkReminderSent(ctx context.Context, tx *gorm.DB, activityID uint) error
	FindExpiredOpen(ctx context.Context, now time.Time) ([]models.Activity, error)
	FindNeedingReminder(ctx context.Context, from, to time.Time) ([]models.Activity, error)
	Delete(ctx context.Context, activityID uint) error
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// WithTx runs fn inside a database transaction. Every capacity-guarded
// transition goes through here so the FOR UPDATE lock and the status write
// commit or roll back together.
func (r *activityRepository) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) FindByID(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// FindByIDForUpdate acquires a row-level lock on the activity within the given
// transaction. This serializes concurrent accept/confirm attempts on the same
// activity.
func (r *activityRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Activity, error) {
	var activity models.Activity
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&activity, id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) FindAll(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.db.WithContext(ctx).Order("activity_date ASC").Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepository) FindByCreator(ctx context.Context, creatorID uint, status *models.ActivityStatus) ([]models.Activity, error) {
	var activities []models.Activity
	q := r.db.WithContext(ctx).Where("creator_id = ?", creatorID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("activity_date ASC").Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, activityID uint, status models.ActivityStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ?", activityID).
		Update("status", status).Error
}

func (r *activityRepository) MarkReminderSent(ctx context.Context, tx *gorm.DB, activityID uint) error {
	return tx.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ?", activityID).
		Update("reminder_sent", true).Error
}

// FindExpiredOpen returns open activities whose date has already passed.
// Completed rows drop out of the predicate, which is what makes the
// completion sweep idempotent.
func (r *activityRepository) FindExpiredOpen(ctx context.Context, now time.Time) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("status = ? AND activity_date < ?", models.ActivityOpen, now).
		Order("activity_date ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// FindNeedingReminder returns open activities starting inside [from, to) that
// have not had their one-shot reminder sent yet.
func (r *activityRepository) FindNeedingReminder(ctx context.Context, from, to time.Time) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("status = ? AND activity_date >= ? AND activity_date < ? AND reminder_sent = ?",
			models.ActivityOpen, from, to, false).
		Order("activity_date ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepository) Delete(ctx context.Context, activityID uint) error {
	return r.db.WithContext(ctx).Delete(&models.Activity{}, activityID).Error
}
