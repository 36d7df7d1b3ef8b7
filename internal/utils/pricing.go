package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"motorent-backend/internal/domain"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	// DefaultDepositBasisPoints is the 20% security deposit added on top of
	// the rental subtotal.
	DefaultDepositBasisPoints int64 = 2000

	basisPointsScale int64 = 10000
	hoursPerDay            = 24
)

// RentalWindow is the booked interval, pickup to return.
type RentalWindow struct {
	Start time.Time
	End   time.Time
}

// RentalCostBreakdown provides detailed cost breakdown
type RentalCostBreakdown struct {
	Days           int32
	DailyRateCents int64
	SubtotalCents  int64
	DepositCents   int64
	TotalCents     int64
}

// ParseDate converts a yyyy-mm-dd formatted string into a date at midnight UTC
func ParseDate(dateStr string) (time.Time, error) {
	return parseDate("date", dateStr)
}

func parseDate(field, dateStr string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, fmt.Sprintf("invalid date %q, expected yyyy-mm-dd", dateStr))
	}
	return d, nil
}

// parseClock returns the offset from midnight for an HH:MM string. An empty
// string means midnight.
func parseClock(field, clock string) (time.Duration, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return 0, nil
	}
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, domain.NewValidationError(field, fmt.Sprintf("invalid time %q, expected HH:MM", clock))
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ParseWindow combines the booking dates with the optional pickup and return
// times into a RentalWindow.
func ParseWindow(startDate, endDate, pickupTime, returnTime string) (RentalWindow, error) {
	start, err := parseDate("start_date", startDate)
	if err != nil {
		return RentalWindow{}, err
	}
	end, err := parseDate("end_date", endDate)
	if err != nil {
		return RentalWindow{}, err
	}
	pickup, err := parseClock("pickup_time", pickupTime)
	if err != nil {
		return RentalWindow{}, err
	}
	ret, err := parseClock("return_time", returnTime)
	if err != nil {
		return RentalWindow{}, err
	}
	return RentalWindow{Start: start.Add(pickup), End: end.Add(ret)}, nil
}

// ValidateWindow checks that the window ends after it starts and does not
// start before today. today is truncated to its UTC calendar date, the
// same frame the window dates are parsed in.
func ValidateWindow(w RentalWindow, today time.Time) error {
	if !w.End.After(w.Start) {
		return domain.NewValidationError("end_date", "end must be after start")
	}
	y, m, d := today.UTC().Date()
	todayDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	startDate := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, time.UTC)
	if startDate.Before(todayDate) {
		return domain.NewValidationError("start_date", "start date is in the past")
	}
	return nil
}

// RentalDays counts started 24h periods between start and end, never less
// than one.
func RentalDays(start, end time.Time) int32 {
	hours := end.Sub(start).Hours()
	days := int32(math.Ceil(hours / hoursPerDay))
	if days < 1 {
		days = 1
	}
	return days
}

// ApplyBasisPoints returns amount*bp/10000 rounded half away from zero.
func ApplyBasisPoints(amount, bp int64) int64 {
	product := amount * bp
	if product >= 0 {
		return (product + basisPointsScale/2) / basisPointsScale
	}
	return -((-product + basisPointsScale/2) / basisPointsScale)
}

// CalculateRentalCost prices a rental: subtotal = days x daily rate, plus a
// security deposit of depositBasisPoints of the subtotal.
func CalculateRentalCost(dailyRateCents int64, days int32, depositBasisPoints int64) RentalCostBreakdown {
	if days < 1 {
		days = 1
	}
	subtotal := int64(days) * dailyRateCents
	deposit := ApplyBasisPoints(subtotal, depositBasisPoints)
	return RentalCostBreakdown{
		Days:           days,
		DailyRateCents: dailyRateCents,
		SubtotalCents:  subtotal,
		DepositCents:   deposit,
		TotalCents:     subtotal + deposit,
	}
}

// CalculateWindowCost prices a parsed window.
func CalculateWindowCost(w RentalWindow, dailyRateCents int64, depositBasisPoints int64) RentalCostBreakdown {
	return CalculateRentalCost(dailyRateCents, RentalDays(w.Start, w.End), depositBasisPoints)
}
