package application

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// DefaultQueueSize is the work queue capacity used when none is configured.
const DefaultQueueSize = 256

// QueueItem requests one ingestion run for a user on a source.
type QueueItem struct {
	Source string
	UserID int64
}

type scheduleKey struct {
	source string
	userID int64
}

// Worker consumes queued user runs one at a time, so two runs for the same
// user never overlap. It refills the queue on a schedule that adapts to each
// user's contribution activity.
type Worker struct {
	manager *ContributionManager
	users   driven.UserStore
	sources map[string]ContributionSource
	order   []string
	floor   time.Duration
	tick    time.Duration
	queue   chan QueueItem
	now     func() time.Time

	mu        sync.Mutex
	pending   map[scheduleKey]bool
	schedules map[scheduleKey]*userSchedule
}

// NewWorker creates a Worker. floor is the shortest interval between two
// scheduled runs for one user.
func NewWorker(
	manager *ContributionManager,
	users driven.UserStore,
	sources []ContributionSource,
	floor time.Duration,
	queueSize int,
) *Worker {
	if floor <= 0 {
		floor = time.Minute
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	byName := make(map[string]ContributionSource, len(sources))
	order := make([]string, 0, len(sources))
	for _, src := range sources {
		byName[src.Name()] = src
		order = append(order, src.Name())
	}

	return &Worker{
		manager:   manager,
		users:     users,
		sources:   byName,
		order:     order,
		floor:     floor,
		tick:      min(floor, time.Minute),
		queue:     make(chan QueueItem, queueSize),
		now:       time.Now,
		pending:   make(map[scheduleKey]bool),
		schedules: make(map[scheduleKey]*userSchedule),
	}
}

// Start schedules every due user immediately, then re-checks schedules on
// every tick while consuming the queue. Start blocks until the context is
// canceled.
func (w *Worker) Start(ctx context.Context) {
	w.scheduleDue(ctx)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped")
			return
		case <-ticker.C:
			w.scheduleDue(ctx)
		case item := <-w.queue:
			w.process(ctx, item)
		}
	}
}

// Enqueue adds a run to the queue. A run already waiting for the same user
// and source absorbs the request. It returns ErrQueueFull instead of
// blocking.
func (w *Worker) Enqueue(item QueueItem) error {
	if _, ok := w.sources[item.Source]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, item.Source)
	}

	key := scheduleKey{source: item.Source, userID: item.UserID}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending[key] {
		return nil
	}

	select {
	case w.queue <- item:
		w.pending[key] = true
		return nil
	default:
		return ErrQueueFull
	}
}

// RunAll processes every user of every source once, in order, bypassing the
// queue. Per-user failures are logged; only a failure to list users is
// returned.
func (w *Worker) RunAll(ctx context.Context) error {
	start := w.now()
	var errs []error
	var runs int

	for _, name := range w.order {
		users, err := w.sources[name].Users(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s users: %w", name, err))
			continue
		}
		for _, u := range users {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.process(ctx, QueueItem{Source: name, UserID: u.ID})
			runs++
		}
	}

	slog.Info("ingestion pass complete",
		"runs", runs,
		"duration", w.now().Sub(start).Round(time.Millisecond),
	)
	return errors.Join(errs...)
}

// Schedules returns the current polling schedule of every known user,
// ordered by source and user ID.
func (w *Worker) Schedules() []ScheduleInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]ScheduleInfo, 0, len(w.schedules))
	for key, s := range w.schedules {
		out = append(out, ScheduleInfo{
			Source:     key.source,
			UserID:     key.userID,
			Tier:       s.tier,
			NextPollAt: s.nextPollAt,
			LastPolled: s.lastPolled,
		})
	}
	slices.SortFunc(out, func(a, b ScheduleInfo) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.UserID, b.UserID))
	})
	return out
}

// scheduleDue queues every user whose next poll time has passed.
func (w *Worker) scheduleDue(ctx context.Context) {
	now := w.now()
	var queued int

	for _, name := range w.order {
		users, err := w.sources[name].Users(ctx)
		if err != nil {
			slog.Error("list users failed", "source", name, "error", err)
			continue
		}

		for _, u := range users {
			key := scheduleKey{source: name, userID: u.ID}

			w.mu.Lock()
			sched := w.schedules[key]
			w.mu.Unlock()

			if sched != nil && now.Before(sched.nextPollAt) {
				continue
			}

			if err := w.Enqueue(QueueItem{Source: name, UserID: u.ID}); err != nil {
				slog.Warn("deferring scheduled runs", "source", name, "user", u.ID, "error", err)
				return
			}
			queued++
		}
	}

	if queued > 0 {
		slog.Debug("scheduled runs queued", "count", queued)
	}
}

// process runs one queue item and reschedules the user.
func (w *Worker) process(ctx context.Context, item QueueItem) {
	key := scheduleKey{source: item.Source, userID: item.UserID}

	w.mu.Lock()
	delete(w.pending, key)
	w.mu.Unlock()

	src, ok := w.sources[item.Source]
	if !ok {
		slog.Error("dropping queue item", "source", item.Source, "user", item.UserID, "error", ErrUnknownSource)
		return
	}

	user, err := w.users.GetByID(ctx, item.UserID)
	if err != nil {
		slog.Error("load user failed", "user", item.UserID, "error", err)
		return
	}
	if user == nil {
		slog.Warn("dropping queue item for unknown user", "source", item.Source, "user", item.UserID)
		return
	}

	result, err := w.manager.ProcessUser(ctx, src, *user)
	switch {
	case err == nil:
	case errors.Is(err, driven.ErrUserNotFound):
		slog.Error("user not found on source", "source", item.Source, "user", user.ID, "error", err)
	case errors.Is(err, ErrDataIncomplete):
		slog.Warn("user skipped", "source", item.Source, "user", user.ID, "reason", err)
	default:
		slog.Error("user run failed", "source", item.Source, "user", user.ID, "error", err)
	}

	last := user.LastContributionAt
	if result.ContributionsStored > 0 {
		if fresh, err := w.users.GetByID(ctx, user.ID); err == nil && fresh != nil {
			last = fresh.LastContributionAt
		}
	}
	w.reschedule(key, last)
}

func (w *Worker) reschedule(key scheduleKey, lastContribution time.Time) {
	now := w.now()
	tier := classifyActivity(lastContribution, now)

	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.schedules[key]
	if prev != nil && prev.tier != tier {
		slog.Info("activity tier changed",
			"source", key.source,
			"user", key.userID,
			"from", prev.tier.String(),
			"to", tier.String(),
		)
	}

	w.schedules[key] = &userSchedule{
		tier:       tier,
		nextPollAt: now.Add(pollInterval(tier, w.floor)),
		lastPolled: now,
	}
}
