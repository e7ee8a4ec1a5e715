package bookings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/campus-triage-bot/internal/scheduling"
)

func sampleAppointment(id, date, clock string) Appointment {
	return NewAppointment(id, "Asha", "Flu", "Dr. Mehta", date, clock)
}

func TestMemoryLogReserve(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog(sampleAppointment("A", "2026-10-17", "09:00"))

	require.NoError(t, log.Reserve(ctx, sampleAppointment("B", "2026-10-18", "09:00")))
	assert.ErrorIs(t, log.Reserve(ctx, sampleAppointment("C", "2026-10-18", "09:00")), ErrSlotTaken)

	booked, err := log.Booked(ctx, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, []scheduling.Booked{{Date: "2026-10-18", Time: "09:00"}}, booked)
}

func TestCSVLogCreatesFileWithHeader(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "appointments.csv")
	log := NewCSVLog(path)

	booked, err := log.Booked(ctx, "2026-10-18")
	require.NoError(t, err)
	assert.Empty(t, booked)

	require.NoError(t, log.Reserve(ctx, sampleAppointment("APPT-1", "2026-10-18", "09:00")))
	require.NoError(t, log.Reserve(ctx, sampleAppointment("APPT-2", "2026-10-18", "10:00")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"ID,Name,Time,Date,Illness,Doctor,Title,Description\n"+
			"APPT-1,Asha,09:00,2026-10-18,Flu,Dr. Mehta,Appointment for Flu,Consultation for Flu symptoms\n"+
			"APPT-2,Asha,10:00,2026-10-18,Flu,Dr. Mehta,Appointment for Flu,Consultation for Flu symptoms\n",
		string(raw))

	appts, err := log.Appointments()
	require.NoError(t, err)
	assert.Len(t, appts, 2)
	assert.Equal(t, "Dr. Mehta", appts[1].DoctorName)
}

func TestCSVLogRejectsTakenSlot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "appointments.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"ID,Name,Time,Date,Illness,Doctor,Title,Description\n"+
			"APPT-9,Ravi,11:00,2026-10-18,Cold,Dr. Rao,Appointment for Cold,Consultation for Cold symptoms\n"), 0o644))
	log := NewCSVLog(path)

	err := log.Reserve(ctx, sampleAppointment("APPT-1", "2026-10-18", "11:00"))
	assert.ErrorIs(t, err, ErrSlotTaken)

	booked, err := log.Booked(ctx, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, []scheduling.Booked{{Date: "2026-10-18", Time: "11:00"}}, booked)
}

func TestCSVLogHandlesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	log := NewCSVLog(path)

	require.NoError(t, log.Reserve(context.Background(), sampleAppointment("APPT-1", "2026-10-18", "09:00")))
	appts, err := log.Appointments()
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestCSVLogConcurrentReserve(t *testing.T) {
	log := NewCSVLog(filepath.Join(t.TempDir(), "appointments.csv"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := log.Reserve(context.Background(), sampleAppointment("X", "2026-10-18", "12:00")); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestPostgresLogBooked(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT slot_date, slot_time FROM appointments").
		WithArgs("2026-10-18").
		WillReturnRows(pgxmock.NewRows([]string{"slot_date", "slot_time"}).
			AddRow("2026-10-18", "09:00").
			AddRow("2026-10-18", "13:00"))

	booked, err := NewPostgresLog(mock).Booked(context.Background(), "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, []scheduling.Booked{
		{Date: "2026-10-18", Time: "09:00"},
		{Date: "2026-10-18", Time: "13:00"},
	}, booked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLogReserve(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	appt := sampleAppointment("APPT-1", "2026-10-18", "09:00")
	args := []any{appt.ID, appt.PatientName, appt.Time, appt.Date, appt.Illness, appt.DoctorName, appt.Title, appt.Description}

	mock.ExpectExec("INSERT INTO appointments").WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO appointments").WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec("INSERT INTO appointments").WithArgs(args...).WillReturnError(errors.New("connection reset"))

	log := NewPostgresLog(mock)
	require.NoError(t, log.Reserve(context.Background(), appt))
	assert.ErrorIs(t, log.Reserve(context.Background(), appt), ErrSlotTaken)
	assert.ErrorContains(t, log.Reserve(context.Background(), appt), "insert appointment")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLogQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT slot_date").WithArgs("2026-10-18").WillReturnError(errors.New("boom"))

	_, err = NewPostgresLog(mock).Booked(context.Background(), "2026-10-18")
	assert.ErrorContains(t, err, "query booked slots")
}
