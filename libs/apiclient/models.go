package apiclient

import (
	"encoding/json"
	"strings"
)

const (
	TypePetshop = "petshop"
	TypeClinic  = "clinic"
	TypeBoth    = "both"
)

const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

type Service struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Duration    int     `json:"duration"`
	Price       float64 `json:"price"`
}

// UnmarshalJSON also reads the length from "duration_minutes".
func (s *Service) UnmarshalJSON(data []byte) error {
	type plain Service
	var raw struct {
		plain
		Minutes int `json:"duration_minutes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Service(raw.plain)
	if s.Duration == 0 {
		s.Duration = raw.Minutes
	}
	return nil
}

type Business struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"business_type"`
	Description  string    `json:"description,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	Rating       float64   `json:"rating"`
	TotalReviews int       `json:"total_reviews,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Services     []Service `json:"services,omitempty"`
}

// UnmarshalJSON also accepts the type under "type", as the registration
// endpoint echoes it.
func (b *Business) UnmarshalJSON(data []byte) error {
	type plain Business
	var raw struct {
		plain
		AltType string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Business(raw.plain)
	if b.Type == "" {
		b.Type = raw.AltType
	}
	return nil
}

// BusinessInput is the registration form for a new business.
type BusinessInput struct {
	Name        string `json:"name" validate:"required,min=2"`
	Type        string `json:"type" validate:"required,oneof=petshop clinic"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,brphone"`
	Address     string `json:"address" validate:"required,min=10"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

type BusinessFilter struct {
	Type   string
	Search string
}

type AvailabilityQuery struct {
	BusinessID int64
	ServiceID  int64
	Date       string
}

type ScheduleRequest struct {
	BusinessID int64  `json:"business_id" validate:"gt=0"`
	ServiceID  int64  `json:"service_id" validate:"gt=0"`
	Date       string `json:"date" validate:"required,isodate,notpast"`
	Time       string `json:"time" validate:"required"`
}

type Appointment struct {
	ID           int64  `json:"id"`
	BusinessID   int64  `json:"business_id"`
	BusinessName string `json:"business_name"`
	ServiceID    int64  `json:"service_id"`
	ServiceName  string `json:"service_name"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Status       string `json:"status"`
}

// Envelope is the {success, message} wrapper several endpoints answer with.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ScheduleResponse struct {
	Envelope
	Appointment *Appointment `json:"appointment,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Provider string `json:"provider,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// UnmarshalJSON accepts numeric ids as well as strings.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	u.ID = strings.Trim(string(raw.ID), `"`)
	if u.ID == "null" {
		u.ID = ""
	}
	return nil
}

type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts a bare provider id such as "google".
func (p *Provider) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*p = Provider{ID: id, Name: id}
		return nil
	}
	type plain Provider
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.Name == "" {
		v.Name = v.ID
	}
	*p = Provider(v)
	return nil
}

type LoginRequest struct {
	Provider string `json:"provider" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type Palette map[string]string

// DefaultPalette is the color set used until the backend says otherwise.
func DefaultPalette() Palette {
	return Palette{
		"primary":       "#1877F2",
		"secondary":     "#42B72A",
		"background":    "#F0F2F5",
		"white":         "#FFFFFF",
		"textPrimary":   "#1C1E21",
		"textSecondary": "#65676B",
		"border":        "#E4E6EA",
		"success":       "#42B72A",
		"inactive":      "#8A8D91",
		"notification":  "#E41E3F",
	}
}

type UIConfig struct {
	Colors  Palette `json:"colors"`
	LogoURL string  `json:"logo_url,omitempty"`
}

type Health struct {
	Status string `json:"status"`
}
