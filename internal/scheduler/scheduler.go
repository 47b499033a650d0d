package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/withmates/activity-service/internal/models"
	"github.com/withmates/activity-service/internal/notify"
	"github.com/withmates/activity-service/internal/repository"
	"gorm.io/gorm"
)

// reminderWindow is how far ahead of its start an activity gets its one-shot
// reminder.
const reminderWindow = time.Hour

type Config struct {
	CompletionInterval  time.Duration // default 5m
	ReminderInterval    time.Duration // default 5m
	MaintenanceInterval time.Duration // default 24h
	Now                 func() time.Time
}

// Scheduler advances activity status purely as a function of time. Each sweep
// is idempotent and best-effort: a failure is logged and never stops the next
// scheduled run.
type Scheduler struct {
	activityRepo    repository.ActivityRepository
	participantRepo repository.ParticipantRepository
	notifier        notify.Notifier
	cfg             Config

	completionMu  sync.Mutex
	reminderMu    sync.Mutex
	maintenanceMu sync.Mutex
}

func New(
	activityRepo repository.ActivityRepository,
	participantRepo repository.ParticipantRepository,
	notifier notify.Notifier,
	cfg Config,
) *Scheduler {
	if cfg.CompletionInterval <= 0 {
		cfg.CompletionInterval = 5 * time.Minute
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = 5 * time.Minute
	}
	if cfg.MaintenanceInterval <= 0 {
		cfg.MaintenanceInterval = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		activityRepo:    activityRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
		cfg:             cfg,
	}
}

// Run starts the three sweep loops and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.runEvery(ctx, "completion sweep", s.cfg.CompletionInterval, &s.completionMu, s.CompleteExpired)
	}()
	go func() {
		defer wg.Done()
		s.runEvery(ctx, "reminder sweep", s.cfg.ReminderInterval, &s.reminderMu, s.SendReminders)
	}()
	go func() {
		defer wg.Done()
		s.runEvery(ctx, "maintenance sweep", s.cfg.MaintenanceInterval, &s.maintenanceMu, s.DailyMaintenance)
	}()
	wg.Wait()
}

// runEvery fires sweep on a fixed cadence. A tick that arrives while the
// previous invocation of the same sweep is still running is skipped, never
// run concurrently with it.
func (s *Scheduler) runEvery(ctx context.Context, name string, every time.Duration, mu *sync.Mutex, sweep func(context.Context) error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !mu.TryLock() {
				log.Printf("[Scheduler] %s still running, skipping tick", name)
				continue
			}
			func() {
				defer mu.Unlock()
				defer func() {
					if r := recover(); r != nil {
						log.Printf("[Scheduler] %s panicked: %v", name, r)
					}
				}()
				if err := sweep(ctx); err != nil {
					log.Printf("[Scheduler] %s: %v", name, err)
				}
			}()
		}
	}
}

// CompleteExpired marks every open activity whose date has passed as
// completed. Once a row flips it no longer matches the selection predicate,
// so a repeat sweep is a no-op.
func (s *Scheduler) CompleteExpired(ctx context.Context) error {
	now := s.cfg.Now()
	expired, err := s.activityRepo.FindExpiredOpen(ctx, now)
	if err != nil {
		return fmt.Errorf("find expired activities: %w", err)
	}

	completed := 0
	for i := range expired {
		activity := expired[i]
		if err := s.completeOne(ctx, &activity, now); err != nil {
			// One bad row must not abort the rest of the batch.
			log.Printf("[Scheduler] failed to complete activity %d: %v", activity.ID, err)
			continue
		}
		completed++
	}
	if completed > 0 {
		log.Printf("[Scheduler] marked %d expired activities as completed", completed)
	}
	return nil
}

func (s *Scheduler) completeOne(ctx context.Context, activity *models.Activity, now time.Time) error {
	updated := false
	err := s.activityRepo.WithTx(ctx, func(tx *gorm.DB) error {
		// Re-check under the lock: a creator may be cancelling concurrently.
		current, err := s.activityRepo.FindByIDForUpdate(ctx, tx, activity.ID)
		if err != nil {
			return err
		}
		if current.Status != models.ActivityOpen || !current.ActivityDate.Before(now) {
			return nil
		}
		if err := s.activityRepo.UpdateStatus(ctx, tx, activity.ID, models.ActivityCompleted); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return err
	}
	// The completion burst belongs to whichever writer flipped the status. If
	// the re-check bailed out, that was not us.
	if !updated {
		return nil
	}

	s.notifier.Notify(ctx, notify.Event{
		RecipientUserID: activity.CreatorID,
		Title:           "Activity Completed",
		Body:            fmt.Sprintf("Your activity \"%s\" has been marked as completed. Don't forget to leave reviews for your participants.", activity.Title),
		Kind:            notify.ActivityCompleted,
		ActivityID:      activity.ID,
	})

	participants, err := s.participantRepo.FindByActivity(ctx, activity.ID, nil)
	if err != nil {
		return fmt.Errorf("load participants for activity %d: %w", activity.ID, err)
	}
	for i := range participants {
		p := participants[i]
		s.notifier.Notify(ctx, notify.Event{
			RecipientUserID: p.UserID,
			Title:           "Activity Completed - Leave a Review",
			Body:            fmt.Sprintf("The activity \"%s\" has ended. Please leave reviews for other participants!", activity.Title),
			Kind:            notify.ActivityCompleted,
			ActivityID:      activity.ID,
			ParticipantID:   &p.ID,
		})
	}
	return nil
}

// SendReminders notifies the creator and every accepted/joined participant of
// activities starting within the next hour. The reminder_sent latch is the
// sole idempotency guard; without it every sweep inside the window would
// re-send.
func (s *Scheduler) SendReminders(ctx context.Context) error {
	now := s.cfg.Now()
	due, err := s.activityRepo.FindNeedingReminder(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return fmt.Errorf("find activities needing reminder: %w", err)
	}

	sent := 0
	for i := range due {
		activity := due[i]
		if err := s.remindOne(ctx, &activity, now); err != nil {
			log.Printf("[Scheduler] failed to send reminder for activity %d: %v", activity.ID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("[Scheduler] sent reminders for %d upcoming activities", sent)
	}
	return nil
}

func (s *Scheduler) remindOne(ctx context.Context, activity *models.Activity, now time.Time) error {
	countdown := timeUntilStart(now, activity.ActivityDate)

	s.notifier.Notify(ctx, notify.Event{
		RecipientUserID: activity.CreatorID,
		Title:           "Activity Starting Soon!",
		Body:            fmt.Sprintf("Your activity \"%s\" is starting %s. Get ready!", activity.Title, countdown),
		Kind:            notify.ActivityReminder,
		ActivityID:      activity.ID,
	})

	participants, err := s.participantRepo.FindByActivity(ctx, activity.ID, nil)
	if err != nil {
		return fmt.Errorf("load participants for activity %d: %w", activity.ID, err)
	}
	for i := range participants {
		p := participants[i]
		if !p.Status.CountsAgainstCapacity() {
			continue
		}
		s.notifier.Notify(ctx, notify.Event{
			RecipientUserID: p.UserID,
			Title:           "Activity Starting Soon!",
			Body:            fmt.Sprintf("The activity \"%s\" is starting %s. Don't forget!", activity.Title, countdown),
			Kind:            notify.ActivityReminder,
			ActivityID:      activity.ID,
			ParticipantID:   &p.ID,
		})
	}

	return s.activityRepo.WithTx(ctx, func(tx *gorm.DB) error {
		return s.activityRepo.MarkReminderSent(ctx, tx, activity.ID)
	})
}

// DailyMaintenance is a hook for archival of old terminal-state activities.
// Currently a no-op; it shares the sweep contract so adding cleanup later
// needs no scheduling changes.
func (s *Scheduler) DailyMaintenance(ctx context.Context) error {
	log.Printf("[Scheduler] daily maintenance completed at %s", s.cfg.Now().Format(time.RFC3339))
	return nil
}

// timeUntilStart renders a human-readable countdown for reminder messages.
func timeUntilStart(now, start time.Time) string {
	minutes := int(start.Sub(now).Minutes())
	switch {
	case minutes <= 30:
		return fmt.Sprintf("in %d minutes", minutes)
	case minutes <= 60:
		return "in about 1 hour"
	default:
		return "soon"
	}
}
