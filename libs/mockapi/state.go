package mockapi

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/petsocial/petsocial/libs/apiclient"
)

type refreshRecord struct {
	userID    string
	expiresAt time.Time
	revokedAt *time.Time
}

type appointment struct {
	apiclient.Appointment
	userID      string
	slot        Interval
	cancelledAt *time.Time
}

type idempotencyRecord struct {
	status int
	body   []byte
}

type upload struct {
	contentType string
	data        []byte
}

// state is the whole in-memory backend. One mutex guards all of it.
type state struct {
	mu sync.Mutex

	users        map[string]apiclient.User
	refresh      map[string]*refreshRecord
	businesses   map[int64]*apiclient.Business
	appointments map[int64]*appointment
	idempotency  map[string]idempotencyRecord
	uploads      map[string]upload
	ui           apiclient.UIConfig

	nextBusinessID    int64
	nextServiceID     int64
	nextAppointmentID int64
}

func newState() *state {
	s := &state{
		users:             make(map[string]apiclient.User),
		refresh:           make(map[string]*refreshRecord),
		businesses:        make(map[int64]*apiclient.Business),
		appointments:      make(map[int64]*appointment),
		idempotency:       make(map[string]idempotencyRecord),
		uploads:           make(map[string]upload),
		ui:                apiclient.UIConfig{Colors: apiclient.DefaultPalette()},
		nextAppointmentID: 1,
	}
	for _, b := range seedBusinesses() {
		s.addBusiness(b)
	}
	return s
}

func seedBusinesses() []apiclient.Business {
	return []apiclient.Business{
		{
			Name: "Pet Shop Amigo Fiel", Type: apiclient.TypePetshop,
			Description: "Banho, tosa e acessórios para cães e gatos.",
			Address:     "Rua das Acácias, 120", City: "São Paulo", State: "SP",
			Phone: "(11) 98765-4321", Email: "contato@amigofiel.com.br",
			Rating: 4.5, TotalReviews: 128,
			Services: []apiclient.Service{
				{Name: "Banho", Duration: 60, Price: 50},
				{Name: "Banho e tosa", Duration: 90, Price: 85},
			},
		},
		{
			Name: "Clínica Veterinária Patinhas", Type: apiclient.TypeClinic,
			Description: "Consultas, vacinas e exames laboratoriais.",
			Address:     "Avenida Brasil, 2000", City: "Rio de Janeiro", State: "RJ",
			Phone: "(21) 3456-7890", Email: "atendimento@patinhas.vet.br",
			Rating: 4.8, TotalReviews: 342,
			Services: []apiclient.Service{
				{Name: "Consulta", Duration: 30, Price: 150},
				{Name: "Vacinação", Duration: 30, Price: 90},
			},
		},
		{
			Name: "Centro Pet Completo", Type: apiclient.TypeBoth,
			Description: "Pet shop e clínica no mesmo lugar.",
			Address:     "Rua XV de Novembro, 45", City: "Curitiba", State: "PR",
			Phone: "(41) 99876-5432", Email: "ola@centropet.com.br",
			Rating: 4, TotalReviews: 57,
			Services: []apiclient.Service{
				{Name: "Consulta", Duration: 30, Price: 130},
				{Name: "Tosa higiênica", Duration: 45, Price: 40},
			},
		},
	}
}

// addBusiness assigns ids to b and its services. Callers hold mu or own s.
func (s *state) addBusiness(b apiclient.Business) *apiclient.Business {
	s.nextBusinessID++
	b.ID = s.nextBusinessID
	services := make([]apiclient.Service, len(b.Services))
	for i, svc := range b.Services {
		s.nextServiceID++
		svc.ID = s.nextServiceID
		services[i] = svc
	}
	b.Services = services
	s.businesses[b.ID] = &b
	return &b
}

func (s *state) service(businessID, serviceID int64) (*apiclient.Business, *apiclient.Service) {
	b, ok := s.businesses[businessID]
	if !ok {
		return nil, nil
	}
	for i := range b.Services {
		if b.Services[i].ID == serviceID {
			return b, &b.Services[i]
		}
	}
	return b, nil
}

func (s *state) busy(businessID int64, date string) []Interval {
	var out []Interval
	for _, a := range s.appointments {
		if a.BusinessID == businessID && a.Date == date && a.Status != apiclient.StatusCancelled {
			out = append(out, a.slot)
		}
	}
	return out
}

func (s *state) listBusinesses(kind, search string) []apiclient.Business {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]apiclient.Business, 0, len(s.businesses))
	for _, b := range s.businesses {
		if kind != "" && kind != "all" && b.Type != kind && b.Type != apiclient.TypeBoth {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(b.Name+" "+b.Description+" "+b.City), search) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) userAppointments(userID string) []apiclient.Appointment {
	out := make([]apiclient.Appointment, 0)
	for _, a := range s.appointments {
		if a.userID == userID {
			out = append(out, a.Appointment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
