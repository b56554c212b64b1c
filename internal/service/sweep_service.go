package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/metrics"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier delivers a text message to a phone number. Delivery is best
// effort; callers never roll back state because of a failed Send.
type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

type SweepConfig struct {
	ReminderAfter time.Duration
	CancelAfter   time.Duration
	// CancelRequiresReminder restricts cancellation to reservations whose
	// reminder has been recorded as sent.
	CancelRequiresReminder bool
	// MarkReminderOnAttempt records the reminder even when Send failed, so it
	// is never retried. When false a failed reminder stays eligible.
	MarkReminderOnAttempt bool
}

type SweepReport struct {
	Reminded         int `json:"reminded"`
	ReminderFailures int `json:"reminder_failures"`
	Cancelled        int `json:"cancelled"`
}

type SweepService struct {
	txr          repository.Transactor
	reservations repository.ReservationRepository
	allocator    *Allocator
	notifier     Notifier
	cfg          SweepConfig
	clock        Clock
	log          *zap.Logger
	metrics      *metrics.Metrics
}

func NewSweepService(
	txr repository.Transactor,
	reservations repository.ReservationRepository,
	allocator *Allocator,
	notifier Notifier,
	cfg SweepConfig,
	opts Options,
) *SweepService {
	opts = opts.withDefaults()
	return &SweepService{
		txr:          txr,
		reservations: reservations,
		allocator:    allocator,
		notifier:     notifier,
		cfg:          cfg,
		clock:        opts.Clock,
		log:          opts.Logger,
		metrics:      opts.Metrics,
	}
}

// Run performs one reminder pass followed by one cancellation pass against
// the clock's current time. It holds no state between runs and is safe to
// repeat. Storage failures on single reservations are collected and returned
// after both passes; notification failures are only logged and counted.
func (s *SweepService) Run(ctx context.Context) (SweepReport, error) {
	start := time.Now()
	now := s.clock.Now()
	var report SweepReport

	remindErr := s.remind(ctx, now, &report)
	cancelErr := s.cancelExpired(ctx, now, &report)

	s.metrics.Cancelled(report.Cancelled)
	s.metrics.SweepDone(time.Since(start))
	s.log.Info("sweep_completed",
		zap.Time("now", now),
		zap.Int("reminded", report.Reminded),
		zap.Int("reminder_failures", report.ReminderFailures),
		zap.Int("cancelled", report.Cancelled),
	)
	return report, errors.Join(remindErr, cancelErr)
}

func (s *SweepService) remind(ctx context.Context, now time.Time, report *SweepReport) error {
	due, err := s.reservations.FindDueForReminder(ctx, now.Add(-s.cfg.ReminderAfter))
	if err != nil {
		return fmt.Errorf("find reservations due for reminder: %w", err)
	}

	var errs []error
	for _, r := range due {
		var (
			marked bool
			err    error
		)
		if s.cfg.MarkReminderOnAttempt {
			// claim the reminder first; a reservation paid since the scan is not claimed
			marked, err = s.reservations.MarkReminderSent(ctx, r.ID)
		} else {
			marked, err = s.stillAwaitingReminder(ctx, r.ID)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder for reservation %d: %w", r.ID, err))
			continue
		}
		if !marked {
			s.log.Debug("reminder_skipped", zap.Uint("reservation_id", r.ID))
			continue
		}

		sendErr := s.send(ctx, &r, fmt.Sprintf(
			"Reminder: reservation %d is awaiting payment of %s. Unpaid reservations are cancelled after %s.",
			r.ID, r.TotalCost.StringFixed(2), s.cfg.CancelAfter))
		if sendErr != nil {
			report.ReminderFailures++
			s.metrics.Reminder("failed")
			s.log.Warn("reminder_failed", zap.Uint("reservation_id", r.ID), zap.Error(sendErr))
			continue
		}

		if !s.cfg.MarkReminderOnAttempt {
			marked, err = s.reservations.MarkReminderSent(ctx, r.ID)
			if err != nil {
				errs = append(errs, fmt.Errorf("mark reminder for reservation %d: %w", r.ID, err))
				continue
			}
			if !marked {
				// paid or cancelled while the message was in flight
				s.log.Debug("reminder_mark_skipped", zap.Uint("reservation_id", r.ID))
				continue
			}
		}
		report.Reminded++
		s.metrics.Reminder("sent")
	}
	return errors.Join(errs...)
}

// stillAwaitingReminder rereads the reservation so one paid or cancelled
// after the scan is not reminded.
func (s *SweepService) stillAwaitingReminder(ctx context.Context, id uint) (bool, error) {
	current, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return current.Status == models.StatusPending && !current.ReminderSent, nil
}

func (s *SweepService) cancelExpired(ctx context.Context, now time.Time, report *SweepReport) error {
	expired, err := s.reservations.FindExpired(ctx, now.Add(-s.cfg.CancelAfter), s.cfg.CancelRequiresReminder)
	if err != nil {
		return fmt.Errorf("find expired reservations: %w", err)
	}

	var errs []error
	for _, r := range expired {
		var cancelled bool
		err := s.txr.Transaction(ctx, func(tx *gorm.DB) error {
			ok, err := s.reservations.TransitionStatus(ctx, tx, r.ID, models.StatusPending, models.StatusCancelled)
			if err != nil || !ok {
				return err
			}
			if r.RoomID != nil {
				if err := s.allocator.ReleaseRoom(ctx, tx, *r.RoomID); err != nil {
					return err
				}
			}
			cancelled = true
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("cancel reservation %d: %w", r.ID, err))
			continue
		}
		if !cancelled {
			continue
		}

		report.Cancelled++
		s.log.Info("reservation_cancelled",
			zap.Uint("reservation_id", r.ID),
			zap.String("reason", "payment_timeout"),
		)
		if err := s.send(ctx, &r, fmt.Sprintf(
			"Reservation %d was cancelled because payment was not received in time.", r.ID)); err != nil {
			s.log.Warn("cancellation_notice_failed", zap.Uint("reservation_id", r.ID), zap.Error(err))
		}
	}
	return errors.Join(errs...)
}

func (s *SweepService) send(ctx context.Context, r *models.Reservation, text string) error {
	if r.Guest == nil || r.Guest.Phone == "" {
		return fmt.Errorf("reservation %d has no guest phone", r.ID)
	}
	return s.notifier.Send(ctx, r.Guest.Phone, text)
}
