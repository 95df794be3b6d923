package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/petsocial/petsocial/libs/validate"
)

// IdempotencyHeader carries the client generated key that lets the backend
// deduplicate a retried booking.
const IdempotencyHeader = "Idempotency-Key"

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

// AvailableTimes lists the free slots for a service on a date.
func (c *Client) AvailableTimes(ctx context.Context, q AvailabilityQuery) ([]string, error) {
	var out struct {
		AvailableTimes []string `json:"available_times"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   idPath("/appointments/available-times", q.BusinessID),
		query: url.Values{
			"date":       {q.Date},
			"service_id": {strconv.FormatInt(q.ServiceID, 10)},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.AvailableTimes == nil {
		out.AvailableTimes = []string{}
	}
	return out.AvailableTimes, nil
}

// Schedule books an appointment. idempotencyKey may be empty.
func (c *Client) Schedule(ctx context.Context, in ScheduleRequest, idempotencyKey string) (*ScheduleResponse, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	req := request{method: http.MethodPost, path: "/appointments/schedule", body: in}
	if idempotencyKey != "" {
		req.header = http.Header{IdempotencyHeader: {idempotencyKey}}
	}
	var out ScheduleResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyAppointments(ctx context.Context) ([]Appointment, error) {
	var out struct {
		Appointments []Appointment `json:"appointments"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/appointments/my"}, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

func (c *Client) CancelAppointment(ctx context.Context, id int64) (*Envelope, error) {
	var out Envelope
	if err := c.do(ctx, request{method: http.MethodDelete, path: idPath("/appointments", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UIConfig(ctx context.Context) (*UIConfig, error) {
	var out struct {
		Data UIConfig `json:"data"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/ui-config"}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) UpdateUIConfig(ctx context.Context, cfg UIConfig) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/ui-config", body: cfg}, nil)
}

func (c *Client) Providers(ctx context.Context) ([]Provider, error) {
	var out struct {
		Providers []Provider `json:"providers"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/providers"}, &out); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

// LoginURL is the page that starts the OAuth flow for provider. Each call
// carries a fresh state nonce.
func (c *Client) LoginURL(provider string) string {
	return c.url("/auth/login/"+url.PathEscape(provider)) + "?state=" + validate.GenerateNonce()
}

// Login exchanges a provider authorization code for a token pair. Storing
// the tokens is left to the caller.
func (c *Client) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var out LoginResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: in}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &HTTPError{Status: http.StatusOK, Message: "login response without access token"}
	}
	return &out, nil
}

// Logout revokes refreshToken on the backend. Clearing local credentials is
// left to the caller.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   map[string]string{"refresh_token": refreshToken},
	}, nil)
}

func (c *Client) Businesses(ctx context.Context, f BusinessFilter) ([]Business, error) {
	q := url.Values{}
	if f.Type != "" && f.Type != "all" {
		q.Set("type", f.Type)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", Sanitize(s))
	}
	var out struct {
		Businesses []Business `json:"businesses"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/business", query: q}, &out); err != nil {
		return nil, err
	}
	return out.Businesses, nil
}

func (c *Client) Business(ctx context.Context, id int64) (*Business, error) {
	var out Business
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/business", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BusinessServices(ctx context.Context, id int64) ([]Service, error) {
	var out struct {
		Services []Service `json:"services"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/business", id) + "/services"}, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

// CreateBusiness validates the form locally before sending it.
func (c *Client) CreateBusiness(ctx context.Context, in BusinessInput) (*Business, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var out Business
	if err := c.do(ctx, request{method: http.MethodPost, path: "/business", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload posts r as the multipart field "file" and returns the stored URL.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := Sanitize(filepath.Base(filename))
	if name == "" || name == "." || name == "/" {
		return "", &validate.ValidationError{Fields: map[string]string{"file": "is required"}}
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	var out struct {
		URL string `json:"url"`
	}
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/upload",
		raw:         buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", &HTTPError{Status: http.StatusOK, Message: "upload response without url"}
	}
	return out.URL, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, request{method: http.MethodGet, path: "/health"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
