package bookings

import (
	"context"
	"fmt"

	"github.com/wolfman30/campus-triage-bot/internal/scheduling"
)

// Columns is the fixed column order of the appointment log.
var Columns = []string{"ID", "Name", "Time", "Date", "Illness", "Doctor", "Title", "Description"}

// Appointment is one booked consultation. Once written it is never changed.
type Appointment struct {
	ID          string `json:"id"`
	PatientName string `json:"name"`
	Time        string `json:"time"`
	Date        string `json:"date"`
	Illness     string `json:"illness"`
	DoctorName  string `json:"doctor"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewAppointment fills the derived title and description.
func NewAppointment(id, patient, illness, doctor, date, clock string) Appointment {
	return Appointment{
		ID:          id,
		PatientName: patient,
		Time:        clock,
		Date:        date,
		Illness:     illness,
		DoctorName:  doctor,
		Title:       fmt.Sprintf("Appointment for %s", illness),
		Description: fmt.Sprintf("Consultation for %s symptoms", illness),
	}
}

// Record returns the appointment in Columns order.
func (a Appointment) Record() []string {
	return []string{a.ID, a.PatientName, a.Time, a.Date, a.Illness, a.DoctorName, a.Title, a.Description}
}

func appointmentFromRecord(row []string) Appointment {
	return Appointment{
		ID:          row[0],
		PatientName: row[1],
		Time:        row[2],
		Date:        row[3],
		Illness:     row[4],
		DoctorName:  row[5],
		Title:       row[6],
		Description: row[7],
	}
}

// AppointmentLog is the durable, append-only record of bookings.
type AppointmentLog interface {
	// Booked lists the slots already taken on date.
	Booked(ctx context.Context, date string) ([]scheduling.Booked, error)
	// Reserve appends appt unless its date and time are already booked, in
	// which case it returns ErrSlotTaken. The check and the append are atomic.
	Reserve(ctx context.Context, appt Appointment) error
}
