package trading

import (
	"fmt"
	"time"
)

// Period is an upstream chart period or resolution. The broker encodes both
// the covered range and the candle resolution with the same code set.
type Period string

const (
	PeriodSecond     Period = "PT1S"
	PeriodMinute     Period = "PT1M"
	PeriodHour       Period = "PT1H"
	PeriodDay        Period = "P1D"
	PeriodWeek       Period = "P1W"
	PeriodMonth      Period = "P1M"
	PeriodQuarter    Period = "P3M"
	PeriodHalfYear   Period = "P6M"
	PeriodYear       Period = "P1Y"
	PeriodThreeYears Period = "P3Y"
	PeriodFiveYears  Period = "P5Y"
	PeriodFiftyYears Period = "P50Y"
)

// Fixed upstream units. The broker's charting backend shifts candle
// timestamps by whole multiples of these values, so a month is always
// 30 days and a year always 365, regardless of the calendar.
const (
	millisecond = int64(1)
	second      = 1000 * millisecond
	minute      = 60 * second
	hour        = 60 * minute
	day         = 24 * hour
	week        = 7 * day
	month       = 30 * day
	year        = 365 * day
)

func (p Period) milliseconds() int64 {
	switch p {
	case PeriodSecond:
		return second
	case PeriodMinute:
		return minute
	case PeriodHour:
		return hour
	case PeriodDay:
		return day
	case PeriodWeek:
		return week
	case PeriodMonth:
		return month
	case PeriodQuarter:
		return 3 * month
	case PeriodHalfYear:
		return 6 * month
	case PeriodYear:
		return year
	case PeriodThreeYears:
		return 3 * year
	case PeriodFiveYears:
		return 5 * year
	case PeriodFiftyYears:
		return 50 * year
	default:
		return 0
	}
}

// Duration returns the fixed wall-clock span of one period unit.
func (p Period) Duration() time.Duration {
	return time.Duration(p.milliseconds()) * time.Millisecond
}

// Div returns how many rhs units fit in p, e.g. a year divided by a month
// gives the observation frequency used by the allocation math.
func (p Period) Div(rhs Period) int {
	if rhs.milliseconds() == 0 {
		return 0
	}
	return int(p.milliseconds() / rhs.milliseconds())
}

func (p Period) String() string {
	return string(p)
}

// ParsePeriod validates a period code received from the CLI or the wire.
func ParsePeriod(code string) (Period, error) {
	switch p := Period(code); p {
	case PeriodSecond, PeriodMinute, PeriodHour, PeriodDay, PeriodWeek,
		PeriodMonth, PeriodQuarter, PeriodHalfYear, PeriodYear,
		PeriodThreeYears, PeriodFiveYears, PeriodFiftyYears:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period code [%v]", code)
	}
}
