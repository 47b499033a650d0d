package dto

import (
	"time"

	"github.com/withmates/activity-service/internal/models"
)

type ParticipantResponse struct {
	ID                  uint                     `json:"id"`
	ActivityID          uint                     `json:"activity_id"`
	UserID              uint                     `json:"user_id"`
	Status              models.ParticipantStatus `json:"status"`
	IsFriend            bool                     `json:"is_friend"`
	ApplicationAttempts int                      `json:"application_attempts"`
	JoinedAt            time.Time                `json:"joined_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

type ActivityResponse struct {
	ID                      uint                  `json:"id"`
	CreatorID               uint                  `json:"creator_id"`
	Title                   string                `json:"title"`
	Description             string                `json:"description,omitempty"`
	Location                string                `json:"location,omitempty"`
	Category                string                `json:"category,omitempty"`
	TotalSpots              int                   `json:"total_spots"`
	ReservedForFriendsSpots int                   `json:"reserved_for_friends_spots"`
	MinParticipants         *int                  `json:"min_participants,omitempty"`
	Status                  models.ActivityStatus `json:"status"`
	ActivityDate            time.Time             `json:"activity_date"`
	CreatedAt               time.Time             `json:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at"`
}

// ActivityStatusResponse carries the derived capacity figures. Fullness is
// always computed from the ledger, never read from a stored flag.
type ActivityStatusResponse struct {
	ActivityResponse
	SpotsHeld      int64 `json:"spots_held"`
	AvailableSpots int   `json:"available_spots"`
	Full           bool  `json:"full"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToParticipantResponse(p *models.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:                  p.ID,
		ActivityID:          p.ActivityID,
		UserID:              p.UserID,
		Status:              p.Status,
		IsFriend:            p.IsFriend,
		ApplicationAttempts: p.ApplicationAttempts,
		JoinedAt:            p.JoinedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func ToActivityResponse(a *models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:                      a.ID,
		CreatorID:               a.CreatorID,
		Title:                   a.Title,
		Description:             a.Description,
		Location:                a.Location,
		Category:                a.Category,
		TotalSpots:              a.TotalSpots,
		ReservedForFriendsSpots: a.ReservedForFriendsSpots,
		MinParticipants:         a.MinParticipants,
		Status:                  a.Status,
		ActivityDate:            a.ActivityDate,
		CreatedAt:               a.CreatedAt,
		UpdatedAt:               a.UpdatedAt,
	}
}
