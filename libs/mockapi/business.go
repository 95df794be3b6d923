package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/validate"
)

func (s *Server) listBusinesses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.state.mu.Lock()
	list := s.state.listBusinesses(q.Get("type"), q.Get("search"))
	s.state.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"businesses": list})
}

func (s *Server) lookupBusiness(w http.ResponseWriter, r *http.Request) (apiclient.Business, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid business id")
		return apiclient.Business{}, false
	}
	s.state.mu.Lock()
	b, ok := s.state.businesses[id]
	var out apiclient.Business
	if ok {
		out = *b
	}
	s.state.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "business not found")
		return apiclient.Business{}, false
	}
	return out, true
}

func (s *Server) getBusiness(w http.ResponseWriter, r *http.Request) {
	if b, ok := s.lookupBusiness(w, r); ok {
		writeJSON(w, http.StatusOK, b)
	}
}

func (s *Server) businessServices(w http.ResponseWriter, r *http.Request) {
	if b, ok := s.lookupBusiness(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{"services": b.Services})
	}
}

func (s *Server) createBusiness(w http.ResponseWriter, r *http.Request, userID string) {
	var in apiclient.BusinessInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.state.mu.Lock()
	b := s.state.addBusiness(apiclient.Business{
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		Address:     in.Address,
		Phone:       in.Phone,
		Email:       in.Email,
	})
	out := *b
	s.state.mu.Unlock()
	s.cfg.Logger.Info("business registered", "business_id", out.ID, "owner", userID)
	writeJSON(w, http.StatusCreated, out)
}
