package calendar

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/petsocial/petsocial/libs/apiclient"
)

func TestExportSkipsCancelled(t *testing.T) {
	appts := []apiclient.Appointment{
		{ID: 1, BusinessName: "Pet Shop Amigo", ServiceName: "Banho", Date: "2030-03-04", Time: "10:00", Status: apiclient.StatusConfirmed},
		{ID: 2, ServiceName: "Consulta", Date: "2030-03-05", Time: "09:30", Status: apiclient.StatusCancelled},
		{ID: 3, ServiceName: "Vacinação", Date: "2030-03-06", Time: "14:00", Status: apiclient.StatusPending},
		{ID: 4, Date: "someday", Time: "noon", Status: apiclient.StatusConfirmed},
	}

	var buf bytes.Buffer
	n, err := Export(&buf, appts, Options{
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 events, got %d", n)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("output is not a calendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 VEVENTs, got %d", len(events))
	}

	first := events[0]
	if p := first.GetProperty(ical.ComponentPropertyUniqueId); p == nil || p.Value != "appointment-1@petsocial" {
		t.Fatalf("unexpected uid %+v", p)
	}
	if p := first.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Banho at Pet Shop Amigo" {
		t.Fatalf("unexpected summary %+v", p)
	}
	start, err := first.GetStartAt()
	if err != nil || !start.Equal(time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v (err=%v)", start, err)
	}
	end, err := first.GetEndAt()
	if err != nil || end.Sub(start) != 30*time.Minute {
		t.Fatalf("unexpected end %v (err=%v)", end, err)
	}
	if p := events[1].GetProperty(ical.ComponentPropertyStatus); p == nil || p.Value != string(ical.ObjectStatusTentative) {
		t.Fatalf("pending appointment should be tentative, got %+v", p)
	}
}
