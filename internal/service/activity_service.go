package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/withmates/activity-service/internal/models"
	"github.com/withmates/activity-service/internal/notify"
	"github.com/withmates/activity-service/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidSpots       = errors.New("total spots must be at least 1")
	ErrActivityDateInPast = errors.New("activity date must be in the future")
	ErrActivityNotOpenYet = errors.New("only an open activity can change status")
)

type ActivityService interface {
	CreateActivity(ctx context.Context, activity *models.Activity) (*models.Activity, error)
	GetActivity(ctx context.Context, id uint) (*models.Activity, error)
	ListActivities(ctx context.Context) ([]models.Activity, error)
	ListByCreator(ctx context.Context, creatorID uint, status *models.ActivityStatus) ([]models.Activity, error)
	CancelActivity(ctx context.Context, id, callerID uint) (*models.Activity, error)
	CompleteActivity(ctx context.Context, id, callerID uint) (*models.Activity, error)
	DeleteActivity(ctx context.Context, id, callerID uint) error
}

type activityService struct {
	activityRepo    repository.ActivityRepository
	participantRepo repository.ParticipantRepository
	notifier        notify.Notifier
}

func NewActivityService(
	activityRepo repository.ActivityRepository,
	participantRepo repository.ParticipantRepository,
	notifier notify.Notifier,
) ActivityService {
	return &activityService{
		activityRepo:    activityRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
	}
}

func (s *activityService) CreateActivity(ctx context.Context, activity *models.Activity) (*models.Activity, error) {
	if activity.TotalSpots < 1 {
		return nil, ErrInvalidSpots
	}
	if activity.ReservedForFriendsSpots < 0 {
		return nil, ErrInvalidSpots
	}
	if !activity.ActivityDate.After(time.Now()) {
		return nil, ErrActivityDateInPast
	}

	activity.Status = models.ActivityOpen
	activity.ReminderSent = false
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	return activity, nil
}

func (s *activityService) GetActivity(ctx context.Context, id uint) (*models.Activity, error) {
	activity, err := s.activityRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return activity, nil
}

func (s *activityService) ListActivities(ctx context.Context) ([]models.Activity, error) {
	return s.activityRepo.FindAll(ctx)
}

func (s *activityService) ListByCreator(ctx context.Context, creatorID uint, status *models.ActivityStatus) ([]models.Activity, error) {
	return s.activityRepo.FindByCreator(ctx, creatorID, status)
}

func (s *activityService) CancelActivity(ctx context.Context, id, callerID uint) (*models.Activity, error) {
	activity, err := s.setStatus(ctx, id, callerID, models.ActivityCancelled)
	if err != nil {
		return nil, err
	}

	// Tell everyone who was holding a spot.
	holders, err := s.participantRepo.FindByActivity(ctx, id, nil)
	if err == nil {
		for i := range holders {
			p := holders[i]
			if !p.Status.CountsAgainstCapacity() {
				continue
			}
			s.notifier.Notify(ctx, notify.Event{
				RecipientUserID: p.UserID,
				Title:           "Activity Cancelled",
				Body:            fmt.Sprintf("The activity \"%s\" was cancelled by its creator.", activity.Title),
				Kind:            notify.ActivityCancelled,
				ActivityID:      activity.ID,
				ParticipantID:   &p.ID,
			})
		}
	}

	return activity, nil
}

func (s *activityService) CompleteActivity(ctx context.Context, id, callerID uint) (*models.Activity, error) {
	return s.setStatus(ctx, id, callerID, models.ActivityCompleted)
}

func (s *activityService) setStatus(ctx context.Context, id, callerID uint, status models.ActivityStatus) (*models.Activity, error) {
	var activity *models.Activity

	err := s.activityRepo.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		activity, err = s.activityRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActivityNotFound
			}
			return err
		}
		if activity.CreatorID != callerID {
			return ErrNotCreator
		}
		if activity.Status != models.ActivityOpen {
			return ErrActivityNotOpenYet
		}
		if err := s.activityRepo.UpdateStatus(ctx, tx, id, status); err != nil {
			return err
		}
		activity.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *activityService) DeleteActivity(ctx context.Context, id, callerID uint) error {
	activity, err := s.activityRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return err
	}
	if activity.CreatorID != callerID {
		return ErrNotCreator
	}
	// Participant rows cascade with the activity.
	return s.activityRepo.Delete(ctx, id)
}
