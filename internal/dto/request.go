package dto

import (
	"time"

	"github.com/withmates/activity-service/internal/models"
)

type CreateActivityRequest struct {
	Title                   string    `json:"title"`
	Description             string    `json:"description"`
	Location                string    `json:"location"`
	Category                string    `json:"category"`
	TotalSpots              int       `json:"total_spots"`
	ReservedForFriendsSpots int       `json:"reserved_for_friends_spots"`
	MinParticipants         *int      `json:"min_participants,omitempty"`
	ActivityDate            time.Time `json:"activity_date"`
}

func (r *CreateActivityRequest) ToModel(creatorID uint) *models.Activity {
	return &models.Activity{
		CreatorID:               creatorID,
		Title:                   r.Title,
		Description:             r.Description,
		Location:                r.Location,
		Category:                r.Category,
		TotalSpots:              r.TotalSpots,
		ReservedForFriendsSpots: r.ReservedForFriendsSpots,
		MinParticipants:         r.MinParticipants,
		ActivityDate:            r.ActivityDate,
	}
}

type UpdateParticipantStatusRequest struct {
	Status models.ParticipantStatus `json:"status"`
}
