package service

import "errors"

var (
	ErrActivityNotFound    = errors.New("activity not found")
	ErrParticipantNotFound = errors.New("participant not found")

	ErrNotCreator     = errors.New("only the activity creator can perform this action")
	ErrNotParticipant = errors.New("only the participant can perform this action")

	ErrOwnActivity     = errors.New("cannot apply to your own activity")
	ErrActivityNotOpen = errors.New("activity is not open")

	ErrDuplicateApplication = errors.New("user already has an active application for this activity")
	ErrPermanentlyDeclined  = errors.New("application was declined and cannot be resubmitted")
	ErrAttemptLimitReached  = errors.New("application attempt limit reached")

	ErrInvalidTransition = errors.New("status change is not allowed from the current state")
	ErrCapacityExceeded  = errors.New("no available spots in this activity")
)
