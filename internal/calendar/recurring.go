package calendar

import (
	"fmt"
	"time"
)

// maxRecurringEvents bounds one expansion, about five years of weekly events.
const maxRecurringEvents = 260

// Recurrence kinds.
const (
	Weekly  = "WEEKLY"
	Monthly = "MONTHLY"
)

// Recurrence describes a repeating event between two dates inclusive.
// DayOfWeek runs from 1 (Monday) to 7 (Sunday); DayOfMonth from 1 to 31
// and is clamped to short months.
type Recurrence struct {
	Kind       string
	DayOfWeek  int
	DayOfMonth int
	Start      time.Time
	End        time.Time
}

// Validate checks the recurrence bounds.
func (r Recurrence) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: 시작일은 종료일보다 이전이어야 합니다", ErrInvalidInput)
	}
	switch r.Kind {
	case Weekly:
		if r.DayOfWeek < 1 || r.DayOfWeek > 7 {
			return fmt.Errorf("%w: 요일은 1(월요일)부터 7(일요일)까지 입력해주세요", ErrInvalidInput)
		}
	case Monthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("%w: 날짜는 1일부터 31일까지 입력해주세요", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown recurrence %q", ErrInvalidInput, r.Kind)
	}
	return nil
}

var errTooManyEvents = fmt.Errorf("%w: 반복 일정은 최대 %d개까지 생성할 수 있습니다", ErrInvalidInput, maxRecurringEvents)

// Dates expands the recurrence into event dates. Expansions longer than
// maxRecurringEvents are refused.
func (r Recurrence) Dates() ([]time.Time, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	start, end := dateOnly(r.Start), dateOnly(r.End)
	var out []time.Time
	if r.Kind == Weekly {
		target := time.Weekday(r.DayOfWeek % 7)
		d := start.AddDate(0, 0, (int(target)-int(start.Weekday())+7)%7)
		for ; !d.After(end); d = d.AddDate(0, 0, 7) {
			if len(out) == maxRecurringEvents {
				return nil, errTooManyEvents
			}
			out = append(out, d)
		}
		return out, nil
	}
	for i := 0; ; i++ {
		d := monthDay(start.Year(), start.Month()+time.Month(i), r.DayOfMonth)
		if d.After(end) {
			break
		}
		if !d.Before(start) {
			if len(out) == maxRecurringEvents {
				return nil, errTooManyEvents
			}
			out = append(out, d)
		}
	}
	return out, nil
}

// monthDay returns day of the given month, clamped to its last day.
func monthDay(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
