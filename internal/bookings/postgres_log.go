package bookings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/campus-triage-bot/internal/scheduling"
)

// pgxConn is the subset of pgxpool.Pool used by PostgresLog.
type pgxConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	selectBookedSQL = `SELECT slot_date, slot_time FROM appointments WHERE slot_date = $1 ORDER BY slot_time`

	// The unique (slot_date, slot_time) index makes the insert the
	// reservation: a second writer inserts nothing.
	reserveSQL = `INSERT INTO appointments (id, patient_name, slot_time, slot_date, illness, doctor_name, title, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (slot_date, slot_time) DO NOTHING`
)

// PostgresLog stores appointments in the appointments table.
type PostgresLog struct {
	db pgxConn
}

// NewPostgresLog wraps a pgx pool (or any compatible connection).
func NewPostgresLog(db pgxConn) *PostgresLog {
	if db == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresLog{db: db}
}

// Booked implements AppointmentLog.
func (l *PostgresLog) Booked(ctx context.Context, date string) ([]scheduling.Booked, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.log.booked")
	defer span.End()
	span.SetAttributes(attribute.String("triage.slot_date", date))

	rows, err := l.db.Query(ctx, selectBookedSQL, date)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: query booked slots: %w", err)
	}
	defer rows.Close()

	var booked []scheduling.Booked
	for rows.Next() {
		var b scheduling.Booked
		if err := rows.Scan(&b.Date, &b.Time); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("bookings: scan booked slot: %w", err)
		}
		booked = append(booked, b)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: iterate booked slots: %w", err)
	}
	return booked, nil
}

// Reserve implements AppointmentLog.
func (l *PostgresLog) Reserve(ctx context.Context, appt Appointment) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.log.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("triage.appointment_id", appt.ID),
		attribute.String("triage.slot_date", appt.Date),
		attribute.String("triage.slot_time", appt.Time),
	)

	tag, err := l.db.Exec(ctx, reserveSQL,
		appt.ID, appt.PatientName, appt.Time, appt.Date, appt.Illness, appt.DoctorName, appt.Title, appt.Description)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("bookings: insert appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotTaken
	}
	return nil
}
