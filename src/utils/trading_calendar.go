package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar calculates A-share trading days using scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// GetCalendar maps a bare 6-digit exchange code to its venue calendar:
// 60x/68x codes trade in Shanghai (XSHG), everything else in Shenzhen (XSHE).
// See scmhub/calendar for supported MICs (ISO 10383).
func GetCalendar(code string) *TradingCalendar {
	mic := "xshe"
	if strings.HasPrefix(code, "6") {
		mic = "xshg"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		// Simple fallback: Mon-Fri in exchange local time
		loc, _ := time.LoadLocation("Asia/Shanghai")
		if loc == nil {
			loc = time.UTC // Worst case
		}
		return &TradingCalendar{Fallback: true, Timezone: loc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	// Normalize to timezone if available
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// WindowStart walks back from end until the window covers `days` trading
// days, returning the start date. Holiday gaps therefore never starve the
// requested span the way a naive calendar-day subtraction would.
func (tc *TradingCalendar) WindowStart(end time.Time, days int) time.Time {
	start := end
	counted := 0

	// Hard cap: a trading week never needs more than 3x calendar days.
	for i := 0; i < days*3 && counted < days; i++ {
		start = start.AddDate(0, 0, -1)
		if tc.IsTradingDay(start) {
			counted++
		}
	}
	return start
}
