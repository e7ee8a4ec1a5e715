package bookings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/campus-triage-bot/internal/scheduling"
)

const genericBookingApology = "I apologize, but an error occurred while booking your appointment. Please try again or contact our support team for assistance."

// Reply renders the outcome of Book or Confirm as chat text.
func (s *Service) Reply(name string, res *Result, err error) string {
	if res == nil {
		res = &Result{}
	}
	switch {
	case err == nil && res.Appointment != nil:
		return s.confirmation(name, *res.Appointment)
	case err == nil && res.Outcome == OutcomeDeclined:
		return fmt.Sprintf("No problem%s. I haven't booked anything. Send another preferred time whenever you're ready.", comma(name))
	case errors.Is(err, ErrMissingInformation):
		return "I'm sorry, but I'm missing some information. Could you please provide all the necessary details for booking an appointment?"
	case errors.Is(err, scheduling.ErrInvalidTime):
		return fmt.Sprintf("I'm sorry%s, but I couldn't read that time. Please send it as HH:MM between 08:00 and 20:00, for example 14:00.", space(name))
	case errors.Is(err, ErrTimeInPast):
		return fmt.Sprintf("I'm sorry%s, but the requested time has already passed. Please choose a future time for your appointment.", space(name))
	case errors.Is(err, ErrSlotUnavailable):
		return fmt.Sprintf("I'm sorry%s, but the slot at %s on %s is not available. The closest available slot is at %s. Would you like to book this slot? (Yes/No)",
			space(name), res.Requested, res.Date, res.Closest)
	case errors.Is(err, scheduling.ErrNoSlotsAvailable):
		return fmt.Sprintf("I'm sorry%s, but the clinic is fully booked for %s. Please try again tomorrow.", space(name), dayLabel(res.Date))
	case errors.Is(err, ErrNoPendingSlot):
		return fmt.Sprintf("There's no appointment offer waiting for an answer%s. Send your preferred time (HH:MM) to book one.", comma(name))
	default:
		return genericBookingApology
	}
}

func (s *Service) confirmation(name string, appt Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Great news, %s! Your appointment has been booked successfully!\n", name)
	fmt.Fprintf(&b, "Appointment ID: %s\n", appt.ID)
	fmt.Fprintf(&b, "Doctor: %s\n", appt.DoctorName)
	fmt.Fprintf(&b, "Date: %s\n", appt.Date)
	fmt.Fprintf(&b, "Time: %s\n", appt.Time)
	b.WriteString("Please arrive at the ")
	b.WriteString(s.clinicLabel())
	b.WriteString(" a few minutes before your appointment time.")
	return b.String()
}

func (s *Service) clinicLabel() string {
	name := s.clinic.Name
	if name == "" {
		name = "clinic"
	}
	if s.clinic.Location == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, s.clinic.Location)
}

func space(name string) string {
	if name == "" {
		return ""
	}
	return " " + name
}

func comma(name string) string {
	if name == "" {
		return ""
	}
	return ", " + name
}

func dayLabel(date string) string {
	if date == "" {
		return "today"
	}
	return date
}
