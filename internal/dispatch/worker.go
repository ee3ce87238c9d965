package dispatch

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// WorkerConfig controls polling cadence.
type WorkerConfig struct {
	// Tolerance is the dispatch window for one-shot calls, the recurring
	// firing window, and the reminder drift bound.
	Tolerance time.Duration
	// ReminderPoll is the interval between reminder sweeps.
	ReminderPoll time.Duration
}

// Worker drives the two dispatch loops: a per-minute pass that selects due
// calls and recurring users, and a ticker that fires due reminders.
type Worker struct {
	store      store.Store
	selector   *DueSelector
	dispatcher *Dispatcher
	cfg        WorkerConfig
	log        zerolog.Logger
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(s store.Store, selector *DueSelector, dispatcher *Dispatcher, cfg WorkerConfig, log zerolog.Logger) *Worker {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 5 * time.Minute
	}
	if cfg.ReminderPoll <= 0 {
		cfg.ReminderPoll = 30 * time.Second
	}
	return &Worker{store: s, selector: selector, dispatcher: dispatcher, cfg: cfg, log: log}
}

// Run starts both loops and blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().
		Dur("tolerance", w.cfg.Tolerance).
		Dur("reminder_poll", w.cfg.ReminderPoll).
		Msg("dispatch worker starting")

	c := cron.New()
	_, err := c.AddFunc("* * * * *", func() {
		w.callPass(ctx, time.Now().UTC())
	})
	if err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	ticker := time.NewTicker(w.cfg.ReminderPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("dispatch worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.reminderPass(ctx, time.Now().UTC())
		}
	}
}

// callPass executes due one-shot calls, then creates and executes calls for
// users whose daily call time has arrived.
func (w *Worker) callPass(ctx context.Context, now time.Time) {
	due, err := w.selector.DueCalls(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("due call selection failed")
	}
	for _, call := range due {
		if err := w.dispatcher.ExecuteCall(ctx, call); err != nil {
			w.log.Error().Err(err).Str("call_id", call.ID).Msg("call dispatch failed")
		}
	}

	users, err := w.selector.DueRecurringUsers(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("recurring user selection failed")
		return
	}
	for _, user := range users {
		if err := w.recurringCall(ctx, user, now); err != nil {
			w.log.Error().Err(err).Str("user_id", user.UserID).Msg("recurring call failed")
		}
	}
}

// recurringCall creates today's call record for the user and executes it. The
// same-day guard keeps repeated polls inside the firing window from dialing
// twice.
func (w *Worker) recurringCall(ctx context.Context, user *model.User, now time.Time) error {
	has, err := w.selector.HasCallToday(ctx, user, now)
	if err != nil {
		return err
	}
	if has {
		w.log.Debug().Str("user_id", user.UserID).Msg("user already called today")
		return nil
	}

	call, err := w.store.Calls().Create(ctx, &model.ScheduledCall{
		UserID:      user.UserID,
		ScheduledAt: now,
	})
	if err != nil {
		return err
	}
	return w.dispatcher.ExecuteCall(ctx, call)
}

func (w *Worker) reminderPass(ctx context.Context, now time.Time) {
	due, err := w.store.Reminders().Due(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("due reminder selection failed")
		return
	}
	for _, rem := range due {
		if err := w.dispatcher.ExecuteReminder(ctx, rem); err != nil {
			w.log.Error().Err(err).Str("reminder_id", rem.ID).Msg("reminder dispatch failed")
		}
	}
}
