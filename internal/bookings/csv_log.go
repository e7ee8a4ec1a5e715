package bookings

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wolfman30/campus-triage-bot/internal/catalog"
	"github.com/wolfman30/campus-triage-bot/internal/scheduling"
)

// csvColumns are the header names as catalog.ReadTable matches them.
var csvColumns = []string{"id", "name", "time", "date", "illness", "doctor", "title", "description"}

// CSVLog appends appointments to a CSV file with a header row. The file is
// re-read on every call so edits made by other tools are seen.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVLog returns a log backed by path. The file is created on first write.
func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

// Booked implements AppointmentLog.
func (l *CSVLog) Booked(_ context.Context, date string) ([]scheduling.Booked, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	appts, err := l.readAll()
	if err != nil {
		return nil, err
	}
	return bookedOn(appts, date), nil
}

// Reserve implements AppointmentLog.
func (l *CSVLog) Reserve(ctx context.Context, appt Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	appts, err := l.readAll()
	if err != nil {
		return err
	}
	if slotTaken(appts, appt) {
		return ErrSlotTaken
	}
	return l.append(appt)
}

// Appointments returns every appointment in the file.
func (l *CSVLog) Appointments() ([]Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll()
}

func (l *CSVLog) readAll() ([]Appointment, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: open %s: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("bookings: stat %s: %w", l.path, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	var appts []Appointment
	err = catalog.ReadTable(f, csvColumns, func(row []string) {
		appts = append(appts, appointmentFromRecord(row))
	})
	if err != nil {
		return nil, fmt.Errorf("bookings: read %s: %w", l.path, err)
	}
	return appts, nil
}

func (l *CSVLog) append(appt Appointment) error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("bookings: create %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("bookings: open %s: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("bookings: stat %s: %w", l.path, err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("bookings: write header: %w", err)
		}
	}
	if err := w.Write(appt.Record()); err != nil {
		return fmt.Errorf("bookings: write appointment: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("bookings: flush %s: %w", l.path, err)
	}
	return nil
}
