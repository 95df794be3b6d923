// Package calendar writes booked appointments as an iCalendar feed that any
// calendar app can import.
package calendar

import (
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/petsocial/petsocial/libs/apiclient"
)

const (
	productID       = "-//petsocial//appointments//EN"
	defaultDuration = time.Hour
)

type Options struct {
	// Location the appointment date and time are expressed in. Defaults to
	// time.Local.
	Location *time.Location
	// Duration of each event when the appointment does not say.
	Duration time.Duration
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// Export writes one VEVENT per appointment that is not cancelled and returns
// how many were written. Appointments whose date or time cannot be parsed
// are skipped.
func Export(w io.Writer, appts []apiclient.Appointment, opts Options) (int, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Duration <= 0 {
		opts.Duration = defaultDuration
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	stamp := opts.Now().UTC()
	n := 0
	for _, a := range appts {
		if a.Status == apiclient.StatusCancelled {
			continue
		}
		start, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, opts.Location)
		if err != nil {
			continue
		}
		ev := cal.AddEvent(uid(a))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(opts.Duration))
		ev.SetSummary(summary(a))
		if a.BusinessName != "" {
			ev.SetLocation(a.BusinessName)
		}
		ev.SetDescription("Status: " + a.Status)
		if a.Status == apiclient.StatusPending {
			ev.SetStatus(ical.ObjectStatusTentative)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
		n++
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return 0, fmt.Errorf("write calendar: %w", err)
	}
	return n, nil
}

func uid(a apiclient.Appointment) string {
	return "appointment-" + strconv.FormatInt(a.ID, 10) + "@petsocial"
}

func summary(a apiclient.Appointment) string {
	switch {
	case a.ServiceName != "" && a.BusinessName != "":
		return a.ServiceName + " at " + a.BusinessName
	case a.ServiceName != "":
		return a.ServiceName
	default:
		return "Appointment #" + strconv.FormatInt(a.ID, 10)
	}
}
