// Package calendar owns the "DD-MM-YYYY" date format the backend uses and
// the statuses derived from it.
package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/napryag/salon_bot/pkg/repository/model"
)

const (
	Layout = "02-01-2006"

	// BookingWindowDays is how far ahead customers may book.
	BookingWindowDays = 30
)

var (
	ErrBadDate = errors.New("bad date")

	datePattern = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)
)

type BookingStatus string

const (
	StatusCompleted BookingStatus = "Completed"
	StatusToday     BookingStatus = "Today"
	StatusUpcoming  BookingStatus = "Upcoming"
)

// ParseDate parses "DD-MM-YYYY" strictly: two-digit day and month, four-digit
// year, and a date that exists. The result is midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q is not DD-MM-YYYY", ErrBadDate, s)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if loc == nil {
		loc = time.Local
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q does not exist", ErrBadDate, s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(Layout)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// BookingState is the status recorded by an admin, or the date-derived one.
func BookingState(b model.Booking, today time.Time) (BookingStatus, error) {
	if strings.EqualFold(b.Status, string(StatusCompleted)) {
		return StatusCompleted, nil
	}
	return Status(b.Date, today)
}

// Status derives the booking status from its date compared with today.
func Status(date string, today time.Time) (BookingStatus, error) {
	d, err := ParseDate(date, today.Location())
	if err != nil {
		return "", err
	}
	t := Day(today)
	switch {
	case d.Before(t):
		return StatusCompleted, nil
	case d.Equal(t):
		return StatusToday, nil
	default:
		return StatusUpcoming, nil
	}
}

// OfferLive reports status Active and today within [start, end] inclusive.
// An offer with a malformed date is never live.
func OfferLive(o model.Offer, today time.Time) bool {
	if o.Status != model.OfferActive {
		return false
	}
	start, err := ParseDate(o.StartDate, today.Location())
	if err != nil {
		return false
	}
	end, err := ParseDate(o.EndDate, today.Location())
	if err != nil {
		return false
	}
	t := Day(today)
	return !t.Before(start) && !t.After(end)
}

// DaysRemaining counts whole days from today until end, never negative.
func DaysRemaining(end string, today time.Time) int {
	e, err := ParseDate(end, today.Location())
	if err != nil {
		return 0
	}
	t := Day(today)
	if e.Before(t) {
		return 0
	}
	// Calendar arithmetic in UTC keeps DST days at 24h.
	eu := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	tu := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(eu.Sub(tu).Hours() / 24)
}

// BookingDays lists the dates a customer may pick, today first.
func BookingDays(today time.Time) []time.Time {
	t := Day(today)
	out := make([]time.Time, 0, BookingWindowDays+1)
	for i := 0; i <= BookingWindowDays; i++ {
		out = append(out, t.AddDate(0, 0, i))
	}
	return out
}

// TimeSlots are the half-hour appointment starts from 9:00 AM to 5:30 PM.
func TimeSlots() []string {
	out := make([]string, 0, 18)
	for h := 9; h < 18; h++ {
		for _, m := range []int{0, 30} {
			hh := h
			suffix := "AM"
			if h >= 12 {
				suffix = "PM"
			}
			if h > 12 {
				hh = h - 12
			}
			out = append(out, fmt.Sprintf("%d:%02d %s", hh, m, suffix))
		}
	}
	return out
}

// ConfirmationCode is "BR" followed by the last six digits of the Unix
// millisecond clock.
func ConfirmationCode(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "BR" + ms
}
