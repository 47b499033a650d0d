package models

import "time"

type ActivityStatus string

const (
	ActivityOpen      ActivityStatus = "open"
	ActivityCancelled ActivityStatus = "cancelled"
	ActivityCompleted ActivityStatus = "completed"
)

type Activity struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CreatorID   uint   `gorm:"not null;index" json:"creator_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"size:1000" json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Category    string `gorm:"index" json:"category,omitempty"`

	TotalSpots              int  `gorm:"not null" json:"total_spots"`
	ReservedForFriendsSpots int  `gorm:"not null;default:0" json:"reserved_for_friends_spots"`
	MinParticipants         *int `json:"min_participants,omitempty"`

	Status       ActivityStatus `gorm:"type:varchar(20);not null;default:'open';index:idx_activity_status_date" json:"status"`
	ActivityDate time.Time      `gorm:"not null;index:idx_activity_status_date" json:"activity_date"`
	ReminderSent bool           `gorm:"not null;default:false" json:"reminder_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Participants []Participant `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
}

// AvailableSpots is always derived from the loaded participant rows so it can
// never drift from the ledger. Callers that need an authoritative value must
// load participants (or use the repository count) first.
func (a *Activity) AvailableSpots() int {
	held := 0
	for _, p := range a.Participants {
		if p.Status.CountsAgainstCapacity() {
			held++
		}
	}
	return a.TotalSpots - held
}

func (a *Activity) IsFull() bool {
	return a.AvailableSpots() <= 0
}
