package models

import "time"

type ParticipantStatus string

const (
	StatusInterested ParticipantStatus = "interested"
	StatusAccepted   ParticipantStatus = "accepted"
	StatusDeclined   ParticipantStatus = "declined"
	StatusJoined     ParticipantStatus = "joined"
	StatusLeft       ParticipantStatus = "left"
	StatusWithdrawn  ParticipantStatus = "withdrawn"
)

// CountsAgainstCapacity reports whether a row in this status holds a spot.
// Acceptance consumes the spot immediately; the joined confirmation does not
// consume a second one.
func (s ParticipantStatus) CountsAgainstCapacity() bool {
	return s == StatusAccepted || s == StatusJoined
}

// Active reports whether the row represents a live application, i.e. one that
// blocks a new ExpressInterest for the same pair.
func (s ParticipantStatus) Active() bool {
	return s == StatusInterested || s == StatusAccepted || s == StatusJoined
}

type Participant struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ActivityID uint `gorm:"not null;uniqueIndex:idx_participant_pair" json:"activity_id"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_participant_pair;index" json:"user_id"`

	Status              ParticipantStatus `gorm:"type:varchar(20);not null;default:'interested';index" json:"status"`
	IsFriend            bool              `gorm:"not null;default:false" json:"is_friend"`
	ApplicationAttempts int               `gorm:"not null;default:1" json:"application_attempts"`

	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Activity *Activity `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
}
