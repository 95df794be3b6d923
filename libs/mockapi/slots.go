package mockapi

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// AvailableSlots returns slot start times within [windowStart, windowEnd) where a booking of
// length duration would not overlap any of the busy intervals. Starts before now are skipped.
//
// All times are expected to be in the same location.
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) {
		return nil
	}
	if windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(t, t.Add(duration), busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// Workday describes the bookable hours of every business in the mock.
type Workday struct {
	Start string // "09:00"
	End   string // "17:00"
	Step  time.Duration
	Loc   *time.Location
}

func (w Workday) window(date string) (Interval, bool) {
	loc := w.Loc
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return Interval{}, false
	}
	startClock, err := time.Parse("15:04", w.Start)
	if err != nil {
		return Interval{}, false
	}
	endClock, err := time.Parse("15:04", w.End)
	if err != nil {
		return Interval{}, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), startClock.Hour(), startClock.Minute(), 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), endClock.Hour(), endClock.Minute(), 0, 0, loc)
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// SlotAt parses a date and "HH:MM" label into the slot interval it books.
func (w Workday) SlotAt(date, clock string, duration time.Duration) (Interval, bool) {
	loc := w.Loc
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(time.DateOnly+" 15:04", date+" "+clock, loc)
	if err != nil {
		return Interval{}, false
	}
	return Interval{Start: start, End: start.Add(duration)}, true
}

// Labels returns the "HH:MM" labels of the free slots on date.
func (w Workday) Labels(date string, duration time.Duration, busy []Interval, now time.Time) []string {
	win, ok := w.window(date)
	if !ok {
		return []string{}
	}
	step := w.Step
	if step <= 0 {
		step = 30 * time.Minute
	}
	starts := AvailableSlots(win.Start, win.End, duration, step, busy, now)
	out := make([]string, 0, len(starts))
	for _, s := range starts {
		out = append(out, s.Format("15:04"))
	}
	return out
}
