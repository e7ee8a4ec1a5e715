package bookings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/campus-triage-bot/internal/catalog"
	"github.com/wolfman30/campus-triage-bot/internal/conversation"
	"github.com/wolfman30/campus-triage-bot/internal/observability/metrics"
	"github.com/wolfman30/campus-triage-bot/internal/scheduling"
	"github.com/wolfman30/campus-triage-bot/pkg/logging"
)

var bookingsTracer = otel.Tracer("triage.internal.bookings")

const dateLayout = "2006-01-02"

// Notifier is told about every successful booking.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt Appointment, doctor catalog.Doctor) error
}

// Clinic is the place patients are sent to.
type Clinic struct {
	Name     string
	Location string
}

// Config wires a Service.
type Config struct {
	Sessions conversation.Store
	Log      AppointmentLog
	Doctors  catalog.Roster
	Notifier Notifier
	Metrics  *metrics.TriageMetrics
	Logger   *logging.Logger
	Clinic   Clinic
	// Location is the clinic time zone; "today" and "in the past" use it.
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
}

// Result describes a booking attempt. It is set for every expected outcome,
// including the ones reported through an error.
type Result struct {
	// Name is the patient the session belongs to, for rendering the reply.
	Name        string
	Outcome     Outcome
	Appointment *Appointment
	Date        string
	Requested   string
	Closest     string

	doctor catalog.Doctor
}

// Service books same-day appointments for a session.
type Service struct {
	sessions conversation.Store
	log      AppointmentLog
	doctors  catalog.Roster
	notifier Notifier
	metrics  *metrics.TriageMetrics
	logger   *logging.Logger
	clinic   Clinic
	loc      *time.Location
	now      func() time.Time
	newID    func() string
}

// NewService constructs a booking service.
func NewService(cfg Config) *Service {
	if cfg.Sessions == nil || cfg.Log == nil {
		panic("bookings: session store and appointment log required")
	}
	s := &Service{
		sessions: cfg.Sessions,
		log:      cfg.Log,
		doctors:  cfg.Doctors,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		clinic:   cfg.Clinic,
		loc:      cfg.Location,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return "APPT-" + uuid.NewString() }
	}
	return s
}

// Book tries to reserve preferredTime today for the session's patient. When
// the slot is not free the closest free slot is stored as the session's
// pending offer and ErrSlotUnavailable is returned with it in the Result.
func (s *Service) Book(ctx context.Context, sessionID, preferredTime string) (*Result, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("triage.session_id", sessionID),
		attribute.String("triage.preferred_time", preferredTime),
	)

	return s.run(ctx, sessionID, func(st *conversation.State) (*Result, error) {
		return s.book(ctx, st, preferredTime)
	})
}

// Confirm answers the session's pending offer. A "no" drops the offer; any
// other answer books it.
func (s *Service) Confirm(ctx context.Context, sessionID, answer string) (*Result, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("triage.session_id", sessionID))

	return s.run(ctx, sessionID, func(st *conversation.State) (*Result, error) {
		if st.PendingSlot == nil {
			return &Result{Outcome: OutcomeNoPending}, ErrNoPendingSlot
		}
		if isNo(answer) {
			date := st.PendingSlot.Date
			st.PendingSlot = nil
			return &Result{Outcome: OutcomeDeclined, Date: date}, nil
		}
		return s.confirmPending(ctx, st)
	})
}

// ConfirmPending books the offer held in st. The conversation engine calls it
// from inside its own session update when the user answers "yes"; the doctor
// is notified from AfterCommit once that update is saved.
func (s *Service) ConfirmPending(ctx context.Context, st *conversation.State) (conversation.Confirmation, error) {
	res, err := s.confirmPending(ctx, st)
	outcome, expected := outcomeOf(err)
	if !expected {
		return conversation.Confirmation{}, err
	}
	s.metrics.ObserveBooking(string(outcome))
	c := conversation.Confirmation{Reply: s.Reply(st.Name, res, err)}
	if res != nil && res.Outcome == OutcomeBooked {
		c.AfterCommit = func(ctx context.Context) { s.notify(ctx, res) }
	}
	return c, nil
}

// run applies fn inside a session update. Expected outcomes still persist
// the state (a new pending offer, a cleared one); anything else discards it.
// The doctor is notified after the update, with the session unlocked.
func (s *Service) run(ctx context.Context, sessionID string, fn func(*conversation.State) (*Result, error)) (*Result, error) {
	var (
		res        *Result
		outcomeErr error
	)
	err := s.sessions.Update(ctx, sessionID, func(st *conversation.State) error {
		r, err := fn(st)
		if _, expected := outcomeOf(err); !expected {
			return err
		}
		if r != nil {
			r.Name = st.Name
		}
		res, outcomeErr = r, err
		return nil
	})
	if err != nil {
		s.metrics.ObserveError("book")
		s.metrics.ObserveBooking(string(OutcomeInternalFail))
		s.logger.Error("bookings: request failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	outcome := res.Outcome
	if outcome == "" {
		outcome, _ = outcomeOf(outcomeErr)
	}
	s.metrics.ObserveBooking(string(outcome))
	if outcome == OutcomeBooked {
		s.notify(ctx, res)
	}
	return res, outcomeErr
}

func (s *Service) book(ctx context.Context, st *conversation.State, preferred string) (*Result, error) {
	preferred = strings.TrimSpace(preferred)
	if st.Name == "" || st.Condition == "" || preferred == "" {
		return &Result{Outcome: OutcomeMissingInfo}, ErrMissingInformation
	}
	clock, err := scheduling.NormalizeClock(preferred)
	if err != nil {
		return &Result{Outcome: OutcomeInvalidTime, Requested: preferred}, err
	}

	now := s.now().In(s.loc)
	date := now.Format(dateLayout)
	res := &Result{Date: date, Requested: clock}
	if !s.at(now, clock).After(now) {
		res.Outcome = OutcomeTimeInPast
		return res, ErrTimeInPast
	}
	return s.reserveOrOffer(ctx, st, now, clock, res)
}

func (s *Service) confirmPending(ctx context.Context, st *conversation.State) (*Result, error) {
	pending := st.PendingSlot
	if pending == nil {
		return &Result{Outcome: OutcomeNoPending}, ErrNoPendingSlot
	}
	if st.Name == "" || st.Condition == "" {
		return &Result{Outcome: OutcomeMissingInfo}, ErrMissingInformation
	}

	now := s.now().In(s.loc)
	res := &Result{Date: pending.Date, Requested: pending.Time}
	if pending.Date != now.Format(dateLayout) || !s.at(now, pending.Time).After(now) {
		st.PendingSlot = nil
		res.Outcome = OutcomeTimeInPast
		return res, ErrTimeInPast
	}
	return s.reserveOrOffer(ctx, st, now, pending.Time, res)
}

// reserveOrOffer books clock today if it is free, otherwise offers the
// closest free slot. A slot lost to a concurrent booking becomes an offer.
func (s *Service) reserveOrOffer(ctx context.Context, st *conversation.State, now time.Time, clock string, res *Result) (*Result, error) {
	date := res.Date
	bookable, err := s.bookable(ctx, date, now)
	if err != nil {
		return nil, err
	}
	if len(bookable) == 0 {
		st.PendingSlot = nil
		res.Outcome = OutcomeFullyBooked
		return res, scheduling.ErrNoSlotsAvailable
	}
	if !scheduling.Contains(bookable, clock) {
		return s.offer(st, clock, bookable, res)
	}

	doctor, err := s.doctors.First()
	if err != nil {
		return nil, err
	}
	appt := NewAppointment(s.newID(), st.Name, st.Condition, doctor.Name, date, clock)
	if err := s.log.Reserve(ctx, appt); err != nil {
		if !errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		s.logger.Warn("bookings: slot taken concurrently", "date", date, "time", clock)
		bookable, err = s.bookable(ctx, date, now)
		if err != nil {
			return nil, err
		}
		if len(bookable) == 0 {
			st.PendingSlot = nil
			res.Outcome = OutcomeFullyBooked
			return res, scheduling.ErrNoSlotsAvailable
		}
		return s.offer(st, clock, bookable, res)
	}

	st.PendingSlot = nil
	res.Outcome = OutcomeBooked
	res.Appointment = &appt
	res.doctor = doctor
	s.logger.Info("bookings: appointment booked", "appointment_id", appt.ID, "date", appt.Date, "time", appt.Time, "doctor", appt.DoctorName)
	return res, nil
}

func (s *Service) offer(st *conversation.State, clock string, bookable []string, res *Result) (*Result, error) {
	closest, err := scheduling.ClosestSlot(clock, bookable)
	if err != nil {
		return nil, err
	}
	st.PendingSlot = &conversation.PendingSlot{Date: res.Date, Time: closest, Requested: clock}
	res.Outcome = OutcomeOffered
	res.Closest = closest
	return res, ErrSlotUnavailable
}

// bookable returns today's free slots that have not started yet.
func (s *Service) bookable(ctx context.Context, date string, now time.Time) ([]string, error) {
	booked, err := s.log.Booked(ctx, date)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, slot := range scheduling.AvailableSlots(date, booked) {
		if s.at(now, slot).After(now) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *Service) notify(ctx context.Context, res *Result) {
	if s.notifier == nil || res.Appointment == nil {
		return
	}
	appt := *res.Appointment
	if err := s.notifier.AppointmentBooked(ctx, appt, res.doctor); err != nil {
		s.logger.Warn("bookings: doctor notification failed", "appointment_id", appt.ID, "error", err)
	}
}

// at places a valid HH:MM clock on now's calendar day.
func (s *Service) at(now time.Time, clock string) time.Time {
	m, err := scheduling.Minutes(clock)
	if err != nil {
		return now
	}
	return time.Date(now.Year(), now.Month(), now.Day(), m/60, m%60, 0, 0, now.Location())
}

func isNo(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "no", "n", "nope", "nah":
		return true
	}
	return false
}
