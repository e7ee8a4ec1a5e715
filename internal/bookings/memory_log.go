package bookings

import (
	"context"
	"sync"

	"github.com/wolfman30/campus-triage-bot/internal/scheduling"
)

// MemoryLog keeps appointments in process memory.
type MemoryLog struct {
	mu           sync.Mutex
	appointments []Appointment
}

// NewMemoryLog returns a log seeded with existing appointments.
func NewMemoryLog(seed ...Appointment) *MemoryLog {
	return &MemoryLog{appointments: append([]Appointment(nil), seed...)}
}

// Booked implements AppointmentLog.
func (l *MemoryLog) Booked(_ context.Context, date string) ([]scheduling.Booked, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return bookedOn(l.appointments, date), nil
}

// Reserve implements AppointmentLog.
func (l *MemoryLog) Reserve(ctx context.Context, appt Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if slotTaken(l.appointments, appt) {
		return ErrSlotTaken
	}
	l.appointments = append(l.appointments, appt)
	return nil
}

// Appointments returns a copy of everything booked so far.
func (l *MemoryLog) Appointments() []Appointment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Appointment(nil), l.appointments...)
}

func bookedOn(appts []Appointment, date string) []scheduling.Booked {
	var out []scheduling.Booked
	for _, a := range appts {
		if a.Date == date {
			out = append(out, scheduling.Booked{Date: a.Date, Time: a.Time})
		}
	}
	return out
}

func slotTaken(appts []Appointment, appt Appointment) bool {
	for _, a := range appts {
		if a.Date == appt.Date && a.Time == appt.Time {
			return true
		}
	}
	return false
}
