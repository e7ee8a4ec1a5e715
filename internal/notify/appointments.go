package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/campus-triage-bot/internal/bookings"
	"github.com/wolfman30/campus-triage-bot/internal/catalog"
	"github.com/wolfman30/campus-triage-bot/pkg/logging"
)

// AppointmentNotifier e-mails the assigned doctor about each new booking.
type AppointmentNotifier struct {
	email  EmailSender
	clinic string
	logger *logging.Logger
}

// NewAppointmentNotifier wraps an e-mail sender.
func NewAppointmentNotifier(email EmailSender, clinicName string, logger *logging.Logger) *AppointmentNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentNotifier{email: email, clinic: clinicName, logger: logger}
}

// AppointmentBooked implements bookings.Notifier. Doctors without an e-mail
// address are skipped.
func (n *AppointmentNotifier) AppointmentBooked(ctx context.Context, appt bookings.Appointment, doctor catalog.Doctor) error {
	if n == nil || n.email == nil {
		return nil
	}
	if strings.TrimSpace(doctor.Email) == "" {
		n.logger.Debug("notify: doctor has no email, skipping", "doctor", doctor.Name, "appointment_id", appt.ID)
		return nil
	}
	if err := n.email.Send(ctx, appointmentEmail(appt, doctor, n.clinic)); err != nil {
		return fmt.Errorf("notify: appointment %s: %w", appt.ID, err)
	}
	return nil
}

func appointmentEmail(appt bookings.Appointment, doctor catalog.Doctor, clinic string) EmailMessage {
	subject := fmt.Sprintf("New appointment: %s at %s on %s", appt.PatientName, appt.Time, appt.Date)
	if clinic != "" {
		subject = fmt.Sprintf("[%s] %s", clinic, subject)
	}

	lines := [][2]string{
		{"Appointment ID", appt.ID},
		{"Patient", appt.PatientName},
		{"Date", appt.Date},
		{"Time", appt.Time},
		{"Reported illness", appt.Illness},
		{"Title", appt.Title},
		{"Description", appt.Description},
	}

	var text, markup strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\nA new appointment has been booked with you.\n\n", doctor.Name)
	fmt.Fprintf(&markup, "<p>Hello %s,</p><p>A new appointment has been booked with you.</p><ul>", html.EscapeString(doctor.Name))
	for _, l := range lines {
		fmt.Fprintf(&text, "%s: %s\n", l[0], l[1])
		fmt.Fprintf(&markup, "<li><strong>%s:</strong> %s</li>", l[0], html.EscapeString(l[1]))
	}
	markup.WriteString("</ul>")

	return EmailMessage{
		To:      doctor.Email,
		ToName:  doctor.Name,
		Subject: subject,
		Body:    text.String(),
		HTML:    markup.String(),
	}
}
