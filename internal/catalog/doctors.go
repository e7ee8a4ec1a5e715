package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoDoctors is returned when the roster is empty.
var ErrNoDoctors = errors.New("catalog: doctor roster is empty")

// Doctor is one clinician on the static roster.
type Doctor struct {
	Name      string
	Specialty string
	Email     string
}

// Roster is the ordered, read-only list of doctors.
type Roster []Doctor

// First returns the first doctor; bookings always go to them.
func (r Roster) First() (Doctor, error) {
	if len(r) == 0 {
		return Doctor{}, ErrNoDoctors
	}
	return r[0], nil
}

// LoadDoctorsFromDB reads the roster from the doctors table. The caller owns db.
func LoadDoctorsFromDB(ctx context.Context, db *sql.DB) (Roster, error) {
	if db == nil {
		return nil, errors.New("catalog: database handle required")
	}
	rows, err := db.QueryContext(ctx, `
		SELECT name, specialty, email
		FROM doctors
		ORDER BY position, name
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query doctors: %w", err)
	}
	defer rows.Close()

	var roster Roster
	for rows.Next() {
		var (
			d         Doctor
			specialty sql.NullString
			email     sql.NullString
		)
		if err := rows.Scan(&d.Name, &specialty, &email); err != nil {
			return nil, fmt.Errorf("catalog: scan doctor: %w", err)
		}
		d.Specialty = specialty.String
		d.Email = email.String
		roster = append(roster, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate doctors: %w", err)
	}
	return roster, nil
}
