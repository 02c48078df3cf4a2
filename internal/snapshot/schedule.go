package snapshot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"store-monitor-backend/internal/metrics"
	"store-monitor-backend/internal/model"
	"store-monitor-backend/internal/store"
)

// Bounds for the capture interval, in minutes.
const (
	MinIntervalMinutes = 5
	MaxIntervalMinutes = 1440
)

// StoreCapturer abstracts the capture primitive for the controller.
type StoreCapturer interface {
	CaptureStore(ctx context.Context, st model.Store, runID string) (int, error)
}

// Controller owns the global capture schedule: whether automatic capture is
// active, its interval, and the run history. An external driver invokes
// RunTick on a fixed coarse tick; the tick itself decides whether capture
// actually runs, so the check cadence and the capture interval stay
// independent.
type Controller struct {
	store    store.Store
	capturer StoreCapturer
	now      func() time.Time
}

// NewController creates a schedule controller.
func NewController(st store.Store, capturer StoreCapturer) *Controller {
	return &Controller{
		store:    st,
		capturer: capturer,
		now:      time.Now,
	}
}

// TickResult summarizes one tick invocation.
type TickResult struct {
	Ran              bool     `json:"ran"`
	RunID            string   `json:"run_id,omitempty"`
	StoresProcessed  int      `json:"stores_processed"`
	ReadingsCaptured int      `json:"readings_captured"`
	Errors           []string `json:"errors,omitempty"`
}

// IsDue reports whether the schedule calls for a run at now. A null next-run
// timestamp on an active schedule counts as immediately due.
func IsDue(sched *model.Schedule, now time.Time) bool {
	if !sched.IsActive {
		return false
	}
	return sched.NextRunAt == nil || !sched.NextRunAt.After(now)
}

// Schedule returns the current schedule record.
func (sc *Controller) Schedule(ctx context.Context) (*model.Schedule, error) {
	return sc.store.LoadOrCreateSchedule(ctx)
}

// Toggle flips the active flag. Activating sets the next run to now, so the
// next tick captures immediately; deactivating clears it.
func (sc *Controller) Toggle(ctx context.Context) (*model.Schedule, error) {
	sched, err := sc.store.LoadOrCreateSchedule(ctx)
	if err != nil {
		return nil, err
	}

	sched.IsActive = !sched.IsActive
	if sched.IsActive {
		now := sc.now().UTC()
		sched.NextRunAt = &now
	} else {
		sched.NextRunAt = nil
	}

	if err := sc.store.SaveSchedule(ctx, sched); err != nil {
		return nil, err
	}
	log.Printf("schedule toggled: active=%v", sched.IsActive)
	return sched, nil
}

// SetInterval changes the capture interval. It does not change due-ness.
func (sc *Controller) SetInterval(ctx context.Context, minutes int) (*model.Schedule, error) {
	if minutes < MinIntervalMinutes || minutes > MaxIntervalMinutes {
		return nil, fmt.Errorf("interval must be between %d and %d minutes", MinIntervalMinutes, MaxIntervalMinutes)
	}

	sched, err := sc.store.LoadOrCreateSchedule(ctx)
	if err != nil {
		return nil, err
	}
	sched.IntervalMinutes = minutes
	if err := sc.store.SaveSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// RunTick performs one scheduling decision. Unless forced, it is a no-op when
// the schedule is not due. Otherwise it captures every active store, records
// the outcome on the schedule, and advances the next run time by one interval
// from the tick's start regardless of success, so a persistently failing
// schedule keeps retrying instead of stalling. Forced runs ignore due-ness and
// the active flag but never change them.
func (sc *Controller) RunTick(ctx context.Context, force bool) (*TickResult, error) {
	sched, err := sc.store.LoadOrCreateSchedule(ctx)
	if err != nil {
		return nil, err
	}

	start := sc.now().UTC()
	if !force && !IsDue(sched, start) {
		return &TickResult{Ran: false}, nil
	}

	runID := uuid.NewString()
	result := &TickResult{Ran: true, RunID: runID}
	log.Printf("starting capture run %s (force=%v)", runID, force)

	stores, err := sc.store.ListActiveStoresWithDevices(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	for _, st := range stores {
		count, err := sc.capturer.CaptureStore(ctx, st, runID)
		result.StoresProcessed++
		result.ReadingsCaptured += count
		if err != nil {
			log.Printf("capture failed for store %q: %v", st.Name, err)
			result.Errors = append(result.Errors, fmt.Sprintf("store %s: %v", st.Name, err))
		}
	}

	if len(result.Errors) > 0 {
		sc.markFailed(sched, start, strings.Join(result.Errors, "; "))
		metrics.CaptureRuns.WithLabelValues("failure").Inc()
	} else {
		sc.markRanSuccessfully(sched, start)
		metrics.CaptureRuns.WithLabelValues("success").Inc()
	}

	if err := sc.store.SaveSchedule(ctx, sched); err != nil {
		return result, fmt.Errorf("save schedule after run: %w", err)
	}

	log.Printf("capture run %s finished: stores=%d readings=%d errors=%d",
		runID, result.StoresProcessed, result.ReadingsCaptured, len(result.Errors))
	return result, nil
}

func (sc *Controller) markRanSuccessfully(sched *model.Schedule, start time.Time) {
	next := start.Add(time.Duration(sched.IntervalMinutes) * time.Minute)
	sched.LastRunAt = &start
	sched.NextRunAt = &next
	sched.TotalRuns++
	sched.ConsecutiveFailures = 0
	sched.LastError = nil
}

func (sc *Controller) markFailed(sched *model.Schedule, start time.Time, msg string) {
	next := start.Add(time.Duration(sched.IntervalMinutes) * time.Minute)
	sched.LastRunAt = &start
	sched.NextRunAt = &next
	sched.TotalRuns++
	sched.ConsecutiveFailures++
	sched.LastError = &msg
}

// Run drives the controller until ctx is done, invoking one non-forced tick
// per interval of the coarse driver clock.
func (sc *Controller) Run(ctx context.Context, tick time.Duration) {
	log.Println("Starting schedule driver...")

	if _, err := sc.RunTick(ctx, false); err != nil {
		log.Printf("tick failed: %v", err)
	}

	timer := time.NewTimer(tick)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Schedule driver shutting down.")
			return
		case <-timer.C:
			if _, err := sc.RunTick(ctx, false); err != nil {
				log.Printf("tick failed: %v", err)
			}
			timer.Reset(tick)
		}
	}
}
