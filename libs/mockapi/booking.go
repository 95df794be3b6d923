package mockapi

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/petsocial/petsocial/libs/apiclient"
)

func (s *Server) availableTimes(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(r.PathValue("businessId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid business id")
		return
	}
	serviceID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("service_id")), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "service_id required")
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	b, svc := s.state.service(businessID, serviceID)
	if b == nil {
		writeError(w, http.StatusNotFound, "business not found")
		return
	}
	if svc == nil {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	times := s.cfg.Workday.Labels(date, serviceDuration(svc), s.state.busy(businessID, date), s.cfg.Now())
	writeJSON(w, http.StatusOK, map[string]any{"available_times": times})
}

func serviceDuration(svc *apiclient.Service) time.Duration {
	if svc.Duration <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(svc.Duration) * time.Minute
}

// schedule books a slot. A repeated Idempotency-Key from the same user gets
// the first answer back verbatim, errors included.
func (s *Server) schedule(w http.ResponseWriter, r *http.Request, userID string) {
	var req apiclient.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	key := strings.TrimSpace(r.Header.Get(apiclient.IdempotencyHeader))
	if key != "" {
		key = userID + ":" + key
		if rec, ok := s.state.idempotency[key]; ok {
			writeRaw(w, rec.status, rec.body)
			return
		}
	}
	finish := func(status int, v any) {
		body, err := json.Marshal(v)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to build response")
			return
		}
		if key != "" {
			s.state.idempotency[key] = idempotencyRecord{status: status, body: body}
		}
		writeRaw(w, status, body)
	}

	if req.BusinessID <= 0 || req.ServiceID <= 0 || req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "business_id, service_id, date and time are required")
		return
	}
	b, svc := s.state.service(req.BusinessID, req.ServiceID)
	if b == nil || svc == nil {
		finish(http.StatusNotFound, errorBody("business or service not found"))
		return
	}
	duration := serviceDuration(svc)
	slot, ok := s.cfg.Workday.SlotAt(req.Date, req.Time, duration)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date or time")
		return
	}
	free := s.cfg.Workday.Labels(req.Date, duration, s.state.busy(req.BusinessID, req.Date), s.cfg.Now())
	if !slices.Contains(free, slot.Start.Format("15:04")) {
		finish(http.StatusConflict, errorBody("time slot not available"))
		return
	}

	appt := &appointment{
		Appointment: apiclient.Appointment{
			ID:           s.state.nextAppointmentID,
			BusinessID:   b.ID,
			BusinessName: b.Name,
			ServiceID:    svc.ID,
			ServiceName:  svc.Name,
			Date:         req.Date,
			Time:         slot.Start.Format("15:04"),
			Status:       apiclient.StatusConfirmed,
		},
		userID: userID,
		slot:   slot,
	}
	s.state.nextAppointmentID++
	s.state.appointments[appt.ID] = appt

	s.cfg.Logger.Info("appointment booked", "appointment_id", appt.ID, "business_id", b.ID, "date", appt.Date, "time", appt.Time)
	finish(http.StatusCreated, apiclient.ScheduleResponse{
		Envelope:    apiclient.Envelope{Success: true, Message: "appointment scheduled"},
		Appointment: &appt.Appointment,
	})
}

func (s *Server) myAppointments(w http.ResponseWriter, r *http.Request, userID string) {
	s.state.mu.Lock()
	list := s.state.userAppointments(userID)
	s.state.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"appointments": list})
}

// cancel is a soft delete: the appointment stays listed as cancelled and
// frees its slot. Cancelling twice succeeds.
func (s *Server) cancel(w http.ResponseWriter, r *http.Request, userID string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	appt, ok := s.state.appointments[id]
	if !ok || appt.userID != userID {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if appt.Status == apiclient.StatusCancelled {
		writeJSON(w, http.StatusOK, apiclient.Envelope{Success: true, Message: "appointment already cancelled"})
		return
	}
	now := s.cfg.Now()
	appt.Status = apiclient.StatusCancelled
	appt.cancelledAt = &now
	s.cfg.Logger.Info("appointment cancelled", "appointment_id", appt.ID)
	writeJSON(w, http.StatusOK, apiclient.Envelope{Success: true, Message: "appointment cancelled"})
}
