package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/withmates/activity-service/internal/models"
	"github.com/withmates/activity-service/internal/notify"
	"github.com/withmates/activity-service/internal/repository"
	"gorm.io/gorm"
)

// DefaultMaxApplicationAttempts caps how many times one user may become
// INTERESTED in the same activity across withdraw/leave cycles.
const DefaultMaxApplicationAttempts = 3

type ParticipationService interface {
	ExpressInterest(ctx context.Context, activityID, userID uint) (*models.Participant, error)
	UpdateParticipantStatus(ctx context.Context, participantID uint, newStatus models.ParticipantStatus, callerID uint) (*models.Participant, error)
	ConfirmJoining(ctx context.Context, participantID, callerID uint) (*models.Participant, error)
	LeaveActivity(ctx context.Context, activityID, userID uint) (*models.Participant, error)
	DeleteInterest(ctx context.Context, activityID, userID uint) error
	GetActivityParticipants(ctx context.Context, activityID uint) ([]models.Participant, error)
	GetInterestedUsers(ctx context.Context, activityID, creatorID uint) ([]models.Participant, error)
	GetMyParticipations(ctx context.Context, userID uint, status *models.ParticipantStatus) ([]models.Participant, error)
}

type participationService struct {
	participantRepo repository.ParticipantRepository
	activityRepo    repository.ActivityRepository
	notifier        notify.Notifier
	maxAttempts     int
}

func NewParticipationService(
	participantRepo repository.ParticipantRepository,
	activityRepo repository.ActivityRepository,
	notifier notify.Notifier,
	maxAttempts int,
) ParticipationService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxApplicationAttempts
	}
	return &participationService{
		participantRepo: participantRepo,
		activityRepo:    activityRepo,
		notifier:        notifier,
		maxAttempts:     maxAttempts,
	}
}

func (s *participationService) ExpressInterest(ctx context.Context, activityID, userID uint) (*models.Participant, error) {
	var result *models.Participant
	var creatorID uint

	err := s.activityRepo.WithTx(ctx, func(tx *gorm.DB) error {
		// The activity row lock serializes all ledger writes for this
		// activity, including concurrent reapplications for the same pair.
		activity, err := s.activityRepo.FindByIDForUpdate(ctx, tx, activityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActivityNotFound
			}
			return err
		}
		creatorID = activity.CreatorID

		if activity.CreatorID == userID {
			return ErrOwnActivity
		}
		if activity.Status != models.ActivityOpen {
			return ErrActivityNotOpen
		}
		// Capacity is deliberately not checked here: interest is allowed on a
		// full activity because spots may free up before acceptance.

		existing, err := s.participantRepo.FindByActivityAndUser(ctx, tx, activityID, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			participant := &models.Participant{
				ActivityID:          activityID,
				UserID:              userID,
				Status:              models.StatusInterested,
				ApplicationAttempts: 1,
			}
			if err := s.participantRepo.Create(ctx, tx, participant); err != nil {
				// The unique pair index backs the first-insert race; losing
				// it is the same outcome as finding an active row.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateApplication
				}
				return err
			}
			result = participant
			return nil
		}

		switch {
		case existing.Status.Active():
			return ErrDuplicateApplication
		case existing.Status == models.StatusDeclined:
			return ErrPermanentlyDeclined
		default: // withdrawn or left: the row is reused, never duplicated
			if existing.ApplicationAttempts >= s.maxAttempts {
				return ErrAttemptLimitReached
			}
			existing.Status = models.StatusInterested
			existing.ApplicationAttempts++
			if err := s.participantRepo.Save(ctx, tx, existing); err != nil {
				return err
			}
			result = existing
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.Event{
		RecipientUserID: creatorID,
		Title:           "New Interest in Your Activity",
		Body:            fmt.Sprintf("User %d is interested in your activity", userID),
		Kind:            notify.ParticipantInterested,
		ActivityID:      activityID,
		ParticipantID:   &result.ID,
	})

	return result, nil
}

func (s *participationService) UpdateParticipantStatus(ctx context.Context, participantID uint, newStatus models.ParticipantStatus, callerID uint) (*models.Participant, error) {
	if newStatus != models.StatusAccepted && newStatus != models.StatusDeclined {
		return nil, ErrInvalidTransition
	}

	var result *models.Participant

	err := s.activityRepo.WithTx(ctx, func(tx *gorm.DB) error {
		participant, err := s.participantRepo.FindByID(ctx, tx, participantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}

		activity, err := s.activityRepo.FindByIDForUpdate(ctx, tx, participant.ActivityID)
		if err != nil {
			return err
		}
		if activity.CreatorID != callerID {
			return ErrNotCreator
		}

		// Re-read under the lock: a concurrent caller may have moved this row
		// while we were waiting on the activity.
		participant, err = s.participantRepo.FindByID(ctx, tx, participantID)
		if err != nil {
			return err
		}
		if participant.Status != models.StatusInterested {
			return ErrInvalidTransition
		}

		if newStatus == models.StatusAccepted {
			held, err := s.participantRepo.CountHoldingSpot(ctx, tx, activity.ID)
			if err != nil {
				return err
			}
			if int(held) >= activity.TotalSpots {
				return ErrCapacityExceeded
			}
		}

		participant.Status = newStatus
		if err := s.participantRepo.Save(ctx, tx, participant); err != nil {
			return err
		}
		result = participant
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newStatus == models.StatusAccepted {
		s.notifier.Notify(ctx, notify.Event{
			RecipientUserID: result.UserID,
			Title:           "Interest Accepted!",
			Body:            "Your interest was accepted. Confirm your participation!",
			Kind:            notify.ParticipantAccepted,
			ActivityID:      result.ActivityID,
			ParticipantID:   &result.ID,
		})
	} else {
		s.notifier.Notify(ctx, notify.Event{
			RecipientUserID: result.UserID,
			Title:           "Interest Declined",
			Body:            "Your interest was declined.",
			Kind:            notify.ParticipantDeclined,
			ActivityID:      result.ActivityID,
			ParticipantID:   &result.ID,
		})
	}

	return result, nil
}

func (s *participationService) ConfirmJoining(ctx context.Context, participantID, callerID uint) (*models.Participant, error) {
	var result *models.Participant
	var creatorID uint

	err := s.activityRepo.WithTx(ctx, func(tx *gorm.DB) error {
		participant, err := s.participantRepo.FindByID(ctx, tx, participantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}
		if participant.UserID != callerID {
			return ErrNotParticipant
		}

		activity, err := s.activityRepo.FindByIDForUpdate(ctx, tx, participant.ActivityID)
		if err != nil {
			return err
		}
		creatorID = activity.CreatorID

		participant, err = s.participantRepo.FindByID(ctx, tx, participantID)
		if err != nil {
			return err
		}
		if participant.Status != models.StatusAccepted {
			return ErrInvalidTransition
		}
		if activity.Status != models.ActivityOpen {
			return ErrActivityNotOpen
		}

		// The accepted row already holds its spot, so the re-check counts the
		// other holders only. It can only fail if the ledger was overbooked
		// out of band.
		held, err := s.participantRepo.CountHoldingSpotExcluding(ctx, tx, activity.ID, participant.ID)
		if err != nil {
			return err
		}
		if int(held) >= activity.TotalSpots {
			return ErrCapacityExceeded
		}

		participant.Status = models.StatusJoined
		if err := s.participantRepo.Save(ctx, tx, participant); err != nil {
			return err
		}
		result = participant
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.Event{
		RecipientUserID: creatorID,
		Title:           "Participant Confirmed!",
		Body:            fmt.Sprintf("User %d has joined your activity", result.UserID),
		Kind:            notify.ParticipantJoined,
		ActivityID:      result.ActivityID,
		ParticipantID:   &result.ID,
	})

	return result, nil
}

func (s *participationService) LeaveActivity(ctx context.Context, activityID, userID uint) (*models.Participant, error) {
	var result *models.Participant
	var creatorID uint
	var wasJoined bool

	err := s.activityRepo.WithTx(ctx, func(tx *gorm.DB) error {
		activity, err := s.activityRepo.FindByIDForUpdate(ctx, tx, activityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActivityNotFound
			}
			return err
		}
		creatorID = activity.CreatorID

		participant, err := s.participantRepo.FindByActivityAndUser(ctx, tx, activityID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}

		switch participant.Status {
		case models.StatusInterested, models.StatusAccepted:
			participant.Status = models.StatusWithdrawn
		case models.StatusJoined:
			participant.Status = models.StatusLeft
			wasJoined = true
		default:
			return ErrInvalidTransition
		}

		if err := s.participantRepo.Save(ctx, tx, participant); err != nil {
			return err
		}
		result = participant
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Withdrawing before joining is silent; only a joined participant leaving
	// is worth telling the creator about.
	if wasJoined {
		s.notifier.Notify(ctx, notify.Event{
			RecipientUserID: creatorID,
			Title:           "Participant Left",
			Body:            fmt.Sprintf("User %d has left your activity", userID),
			Kind:            notify.ParticipantLeft,
			ActivityID:      activityID,
			ParticipantID:   &result.ID,
		})
	}

	return result, nil
}

func (s *participationService) DeleteInterest(ctx context.Context, activityID, userID uint) error {
	participant, err := s.participantRepo.FindByActivityAndUser(ctx, nil, activityID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}

	// Only a withdrawn row may be removed; anything else still carries
	// attempt history the ledger must keep.
	if participant.Status != models.StatusWithdrawn {
		return ErrInvalidTransition
	}

	return s.participantRepo.Delete(ctx, participant)
}

func (s *participationService) GetActivityParticipants(ctx context.Context, activityID uint) ([]models.Participant, error) {
	if _, err := s.activityRepo.FindByID(ctx, activityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return s.participantRepo.FindByActivity(ctx, activityID, nil)
}

func (s *participationService) GetInterestedUsers(ctx context.Context, activityID, creatorID uint) ([]models.Participant, error) {
	activity, err := s.activityRepo.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if activity.CreatorID != creatorID {
		return nil, ErrNotCreator
	}
	status := models.StatusInterested
	return s.participantRepo.FindByActivity(ctx, activityID, &status)
}

func (s *participationService) GetMyParticipations(ctx context.Context, userID uint, status *models.ParticipantStatus) ([]models.Participant, error) {
	return s.participantRepo.FindByUser(ctx, userID, status)
}
