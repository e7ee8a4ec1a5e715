package notify

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/campus-triage-bot/internal/bookings"
	"github.com/wolfman30/campus-triage-bot/internal/catalog"
	"github.com/wolfman30/campus-triage-bot/pkg/logging"
)

type fakeSendGrid struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

type captureSender struct {
	msgs []EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestNewSendGridSenderRequiresKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "bot@example.com"}, nil))

	sender := NewSendGridSender(SendGridConfig{APIKey: "key", FromEmail: "bot@example.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "Campus Triage Bot", sender.fromName)
}

func TestSendGridSenderSend(t *testing.T) {
	client := &fakeSendGrid{status: http.StatusAccepted}
	sender := &SendGridSender{client: client, fromEmail: "bot@example.com", fromName: "Bot", logger: logging.New("error")}

	err := sender.Send(context.Background(), EmailMessage{To: "dr@example.com", ToName: "Dr. Rao", Subject: "Hi", Body: "plain"})
	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	assert.Equal(t, "Hi", client.sent[0].Subject)
	assert.Equal(t, "bot@example.com", client.sent[0].From.Address)
}

func TestSendGridSenderErrors(t *testing.T) {
	rejected := &SendGridSender{client: &fakeSendGrid{status: http.StatusUnauthorized}, logger: logging.New("error")}
	assert.ErrorContains(t, rejected.Send(context.Background(), EmailMessage{To: "x@example.com"}), "status 401")

	broken := &SendGridSender{client: &fakeSendGrid{err: errors.New("dial tcp")}, logger: logging.New("error")}
	assert.ErrorContains(t, broken.Send(context.Background(), EmailMessage{To: "x@example.com"}), "dial tcp")

	var unset *SendGridSender
	assert.Error(t, unset.Send(context.Background(), EmailMessage{}))
}

func TestLogSenderNeverFails(t *testing.T) {
	assert.NoError(t, NewLogSender(nil).Send(context.Background(), EmailMessage{To: "x@example.com"}))
}

func TestAppointmentNotifierEmailsDoctor(t *testing.T) {
	sender := &captureSender{}
	n := NewAppointmentNotifier(sender, "Guni Health Clinic", logging.New("error"))
	appt := bookings.NewAppointment("APPT-1", "Asha <3", "Flu", "Dr. Rao", "2026-10-18", "10:00")

	require.NoError(t, n.AppointmentBooked(context.Background(), appt, catalog.Doctor{Name: "Dr. Rao", Email: "rao@example.com"}))
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, "rao@example.com", msg.To)
	assert.Equal(t, "[Guni Health Clinic] New appointment: Asha <3 at 10:00 on 2026-10-18", msg.Subject)
	assert.Contains(t, msg.Body, "Appointment ID: APPT-1\n")
	assert.Contains(t, msg.Body, "Description: Consultation for Flu symptoms\n")
	assert.Contains(t, msg.HTML, "Asha &lt;3")
}

func TestAppointmentNotifierSkipsDoctorWithoutEmail(t *testing.T) {
	sender := &captureSender{}
	n := NewAppointmentNotifier(sender, "", nil)

	require.NoError(t, n.AppointmentBooked(context.Background(), bookings.Appointment{ID: "APPT-1"}, catalog.Doctor{Name: "Dr. Rao"}))
	assert.Empty(t, sender.msgs)
}

func TestAppointmentNotifierWrapsSendError(t *testing.T) {
	sender := &captureSender{err: errors.New("quota exceeded")}
	n := NewAppointmentNotifier(sender, "", nil)

	err := n.AppointmentBooked(context.Background(), bookings.Appointment{ID: "APPT-7"}, catalog.Doctor{Email: "dr@example.com"})
	assert.ErrorContains(t, err, "appointment APPT-7")
	assert.ErrorContains(t, err, "quota exceeded")
}
