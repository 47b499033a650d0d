package notify

import (
	"context"
	"log"

	"github.com/withmates/activity-service/pkg/rabbitmq"
)

type EventKind string

const (
	ParticipantInterested EventKind = "participant.interested"
	ParticipantAccepted   EventKind = "participant.accepted"
	ParticipantDeclined   EventKind = "participant.declined"
	ParticipantJoined     EventKind = "participant.joined"
	ParticipantLeft       EventKind = "participant.left"
	ActivityReminder      EventKind = "activity.reminder"
	ActivityCompleted     EventKind = "activity.completed"
	ActivityCancelled     EventKind = "activity.cancelled"
)

// Event is the fire-and-forget payload handed to the notification collaborator.
// Delivery semantics are its problem, not ours.
type Event struct {
	RecipientUserID uint      `json:"recipient_user_id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Kind            EventKind `json:"kind"`
	ActivityID      uint      `json:"activity_id"`
	ParticipantID   *uint     `json:"participant_id,omitempty"`
	ReviewID        *uint     `json:"review_id,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// AMQPNotifier publishes notification events to the notifications topic
// exchange. Publish failures are logged and dropped: notification emission is
// never transactional with the state change that triggered it.
type AMQPNotifier struct {
	publisher *rabbitmq.Publisher
}

func NewAMQPNotifier(publisher *rabbitmq.Publisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

func (n *AMQPNotifier) Notify(ctx context.Context, event Event) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish("notification."+string(event.Kind), event); err != nil {
		log.Printf("[Notify] failed to publish %s for user %d: %v", event.Kind, event.RecipientUserID, err)
	}
}
