package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"

	"github.com/google/uuid"
)

// AlarmHandler receives every firing; it decides by alarm name whether to
// act. Handlers run on the scheduler goroutine and must not block for long.
type AlarmHandler func(alarm models.Alarm, firingID string)

// maxSchedulerSleep caps how long the scheduler sleeps so alarms registered
// by another process (CLI install against the same database) are picked up.
const maxSchedulerSleep = time.Minute

// Scheduler drives the persistent alarms table: it sleeps until the earliest
// next_fire_at, records the firing, advances the schedule and dispatches to
// the registered handlers.
type Scheduler struct {
	clock Clock

	mu       sync.Mutex
	handlers []AlarmHandler

	wake chan struct{}
}

func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// OnAlarm registers a handler. Registration happens once during startup,
// before Run; there is no unsubscription.
func (s *Scheduler) OnAlarm(h AlarmHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Wake prods the scheduler to re-read the alarms table, after an alarm was
// added or changed outside the run loop.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, firing alarms as they come due.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info("Scheduler: started.")
	for {
		sleep := s.fireDueAlarms()

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Scheduler: stopped.")
			return nil
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// fireDueAlarms fires everything at or past its next_fire_at and returns how
// long to sleep until the next one.
func (s *Scheduler) fireDueAlarms() time.Duration {
	alarms, err := database.GetAllAlarms()
	if err != nil {
		logger.Error("Scheduler: failed to load alarms: %v", err)
		return maxSchedulerSleep
	}

	now := s.clock.Now()
	sleep := maxSchedulerSleep
	for _, alarm := range alarms {
		if !alarm.NextFireAt.After(now) {
			if err := s.fire(alarm, now); err != nil {
				logger.Error("Scheduler: firing alarm '%s' failed: %v", alarm.Name, err)
			}
			continue
		}
		if until := alarm.NextFireAt.Sub(now); until < sleep {
			sleep = until
		}
	}
	return sleep
}

// fire records one firing and dispatches it. For repeating alarms the next
// fire time is advanced past now so a missed window (machine asleep at noon)
// produces a single catch-up firing, not a burst.
func (s *Scheduler) fire(alarm models.Alarm, now time.Time) error {
	firingID := uuid.New().String()

	var next time.Time
	if alarm.PeriodMinutes > 0 {
		period := time.Duration(alarm.PeriodMinutes) * time.Minute
		next = alarm.NextFireAt.Add(period)
		for !next.After(now) {
			next = next.Add(period)
		}
	}

	if err := database.MarkAlarmFired(alarm.Name, firingID, now, next); err != nil {
		return err
	}

	logger.Info("Scheduler: alarm '%s' fired (firing %s). Next fire: %s", alarm.Name, firingID, next.Format(time.RFC3339))
	s.dispatch(alarm, firingID)
	return nil
}

func (s *Scheduler) dispatch(alarm models.Alarm, firingID string) {
	s.mu.Lock()
	handlers := make([]AlarmHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(alarm, firingID)
	}
}

// Fire triggers a named alarm immediately, outside its schedule. The firing
// is dispatched and recorded; the regular schedule is left untouched.
func (s *Scheduler) Fire(name string) error {
	alarm, err := database.GetAlarmByName(name)
	if err != nil {
		return err
	}
	if alarm == nil {
		return fmt.Errorf("alarm '%s' not registered", name)
	}

	firingID := uuid.New().String()
	logger.Info("Scheduler: alarm '%s' fired manually (firing %s).", name, firingID)
	s.dispatch(*alarm, firingID)
	return nil
}
