// Package scheduling computes the clinic's bookable hourly slots.
package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// FirstHour is the first bookable hour of the day.
	FirstHour = 8
	// LastHour is the last bookable hour of the day (inclusive).
	LastHour = 20
)

var (
	// ErrNoSlotsAvailable is returned when every slot for the day is taken.
	ErrNoSlotsAvailable = errors.New("scheduling: no slots available")
	// ErrInvalidTime is returned for times not in HH:MM form.
	ErrInvalidTime = errors.New("scheduling: invalid time, expected HH:MM")
)

// Booked is the date and time-of-day an existing appointment occupies.
type Booked struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM
}

// DailySlots returns every whole hour from FirstHour to LastHour.
func DailySlots() []string {
	slots := make([]string, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

// AvailableSlots is DailySlots minus every time already booked on date.
// Times compare by exact string equality.
func AvailableSlots(date string, booked []Booked) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		if b.Date == date {
			taken[b.Time] = struct{}{}
		}
	}
	all := DailySlots()
	free := make([]string, 0, len(all))
	for _, slot := range all {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free
}

// ClosestSlot returns the available slot nearest preferred in minutes.
// On a tie the slot listed first wins, which for AvailableSlots output is the
// earlier time.
func ClosestSlot(preferred string, available []string) (string, error) {
	if len(available) == 0 {
		return "", ErrNoSlotsAvailable
	}
	want, err := Minutes(preferred)
	if err != nil {
		return "", err
	}

	best := ""
	bestDiff := -1
	for _, slot := range available {
		m, err := Minutes(slot)
		if err != nil {
			return "", fmt.Errorf("scheduling: slot %q: %w", slot, err)
		}
		diff := m - want
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = slot, diff
		}
	}
	return best, nil
}

// Contains reports whether slot is in slots.
func Contains(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Minutes converts HH:MM to minutes since midnight.
func Minutes(clock string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return 0, ErrInvalidTime
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidTime
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidTime
	}
	return h*60 + m, nil
}

// NormalizeClock rewrites a valid time as zero-padded HH:MM.
func NormalizeClock(clock string) (string, error) {
	m, err := Minutes(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}
