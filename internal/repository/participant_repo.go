package repository

import (
	"context"

	"github.com/withmates/activity-service/internal/models"
	"gorm.io/gorm"
)

type ParticipantRepository interface {
	Create(ctx context.Context, tx *gorm.DB, participant *models.Participant) error
	Save(ctx context.Context, tx *gorm.DB, participant *models.Participant) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Participant, error)
	FindByActivityAndUser(ctx context.Context, tx *gorm.DB, activityID, userID uint) (*models.Participant, error)
	FindByActivity(ctx context.Context, activityID uint, status *models.ParticipantStatus) ([]models.Participant, error)
	FindByUser(ctx context.Context, userID uint, status *models.ParticipantStatus) ([]models.Participant, error)
	CountHoldingSpot(ctx context.Context, tx *gorm.DB, activityID uint) (int64, error)
	CountHoldingSpotExcluding(ctx context.Context, tx *gorm.DB, activityID, participantID uint) (int64, error)
	Delete(ctx context.Context, participant *models.Participant) error
}

type participantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

// conn returns the transaction handle when one is in flight, otherwise the
// base connection. Read-only projections pass nil.
func (r *participantRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *participantRepository) Create(ctx context.Context, tx *gorm.DB, participant *models.Participant) error {
	return r.conn(tx).WithContext(ctx).Create(participant).Error
}

func (r *participantRepository) Save(ctx context.Context, tx *gorm.DB, participant *models.Participant) error {
	return r.conn(tx).WithContext(ctx).Save(participant).Error
}

func (r *participantRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Participant, error) {
	var participant models.Participant
	if err := r.conn(tx).WithContext(ctx).First(&participant, id).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) FindByActivityAndUser(ctx context.Context, tx *gorm.DB, activityID, userID uint) (*models.Participant, error) {
	var participant models.Participant
	err := r.conn(tx).WithContext(ctx).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) FindByActivity(ctx context.Context, activityID uint, status *models.ParticipantStatus) ([]models.Participant, error) {
	var participants []models.Participant
	q := r.db.WithContext(ctx).Where("activity_id = ?", activityID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("id ASC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepository) FindByUser(ctx context.Context, userID uint, status *models.ParticipantStatus) ([]models.Participant, error) {
	var participants []models.Participant
	q := r.db.WithContext(ctx).Preload("Activity").Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("id ASC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// CountHoldingSpot counts the rows that consume capacity (accepted or joined).
// Always called under the activity row lock when the result gates a write.
func (r *participantRepository) CountHoldingSpot(ctx context.Context, tx *gorm.DB, activityID uint) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&models.Participant{}).
		Where("activity_id = ? AND status IN ?", activityID,
			[]models.ParticipantStatus{models.StatusAccepted, models.StatusJoined}).
		Count(&count).Error
	return count, err
}

func (r *participantRepository) CountHoldingSpotExcluding(ctx context.Context, tx *gorm.DB, activityID, participantID uint) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&models.Participant{}).
		Where("activity_id = ? AND id <> ? AND status IN ?", activityID, participantID,
			[]models.ParticipantStatus{models.StatusAccepted, models.StatusJoined}).
		Count(&count).Error
	return count, err
}

func (r *participantRepository) Delete(ctx context.Context, participant *models.Participant) error {
	return r.db.WithContext(ctx).Delete(participant).Error
}
