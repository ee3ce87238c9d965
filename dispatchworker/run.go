// Package dispatchworker boots the background call and reminder dispatcher.
package dispatchworker

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/callward/callward/internal/availability"
	"github.com/callward/callward/internal/calendar"
	"github.com/callward/callward/internal/config"
	"github.com/callward/callward/internal/dispatch"
	"github.com/callward/callward/internal/factory"
	"github.com/callward/callward/internal/logger"
	"github.com/callward/callward/internal/services"
	"github.com/callward/callward/internal/voice"
)

// Run starts the dispatch worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("dispatch-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("dispatch_tolerance_minutes", cfg.DispatchToleranceMinutes).
		Int("reminder_poll_seconds", cfg.ReminderPollSeconds).
		Msg("Dispatch worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}

	dialer := voice.New(cfg.VoiceAPIURL, cfg.VoiceAPIKey, cfg.VoiceAgentID, cfg.VoiceFromNumber)

	tokens := calendar.NewTokens(cfg.GoogleClientID, cfg.GoogleClientSecret, st.Tokens())
	provider := calendar.NewGoogleProvider(tokens, st.Users(), cfg.DefaultCalendarID)

	// The availability service doubles as the dynamic-variable source so
	// every outbound call carries the user's schedule for the day.
	vars := services.NewAvailabilityService(st, provider,
		time.Duration(cfg.MinFreeSlotMinutes)*time.Minute,
		availability.BusinessHours{StartHour: cfg.BusinessHoursStart, EndHour: cfg.BusinessHoursEnd},
		log)

	tolerance := time.Duration(cfg.DispatchToleranceMinutes) * time.Minute
	selector := dispatch.NewDueSelector(st, tolerance, log)
	dispatcher := dispatch.NewDispatcher(st, dialer, vars, tolerance, log)
	worker := dispatch.NewWorker(st, selector, dispatcher, dispatch.WorkerConfig{
		Tolerance:    tolerance,
		ReminderPoll: time.Duration(cfg.ReminderPollSeconds) * time.Second,
	}, log)

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Stack().Err(err).Msg("Dispatch worker failed")
		return err
	}

	log.Info().Msg("Dispatch worker exited")
	return nil
}
