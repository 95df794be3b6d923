// Package directory backs the business screens: the filtered list, the
// detail page with its services and the registration form.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"

	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/runtime"
	"golang.org/x/sync/errgroup"
)

// Filter is one of the list tabs.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterPetshop Filter = apiclient.TypePetshop
	FilterClinic  Filter = apiclient.TypeClinic
	FilterBoth    Filter = apiclient.TypeBoth
)

var Filters = []Filter{FilterAll, FilterPetshop, FilterClinic, FilterBoth}

func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q (want all, petshop, clinic or both)", s)
}

func (f Filter) Label() string {
	switch f {
	case FilterPetshop:
		return "Petshops"
	case FilterClinic:
		return "Clinics"
	case FilterBoth:
		return "Full service"
	default:
		return "All"
	}
}

func TypeLabel(businessType string) string {
	switch businessType {
	case apiclient.TypePetshop:
		return "Petshop"
	case apiclient.TypeClinic:
		return "Veterinary clinic"
	case apiclient.TypeBoth:
		return "Petshop & clinic"
	default:
		return businessType
	}
}

type API interface {
	Businesses(ctx context.Context, f apiclient.BusinessFilter) ([]apiclient.Business, error)
	Business(ctx context.Context, id int64) (*apiclient.Business, error)
	BusinessServices(ctx context.Context, id int64) ([]apiclient.Service, error)
	CreateBusiness(ctx context.Context, in apiclient.BusinessInput) (*apiclient.Business, error)
}

type Directory struct {
	api    API
	logger *slog.Logger
}

func New(api API, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = runtime.Discard()
	}
	return &Directory{api: api, logger: logger}
}

func (d *Directory) List(ctx context.Context, f Filter, search string) ([]apiclient.Business, error) {
	list, err := d.api.Businesses(ctx, apiclient.BusinessFilter{Type: string(f), Search: search})
	if err != nil {
		d.logger.Warn("load businesses failed", "filter", string(f), "err", err)
		return nil, err
	}
	return list, nil
}

type Detail struct {
	Business apiclient.Business
	Services []apiclient.Service
}

// Detail loads the business and its services side by side. If only the
// services call fails the services embedded in the business are used.
func (d *Directory) Detail(ctx context.Context, id int64) (*Detail, error) {
	var (
		biz         *apiclient.Business
		services    []apiclient.Service
		servicesErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		biz, err = d.api.Business(gctx, id)
		return err
	})
	g.Go(func() error {
		services, servicesErr = d.api.BusinessServices(gctx, id)
		return nil
	})
	if err := g.Wait(); err != nil {
		d.logger.Warn("load business failed", "business_id", id, "err", err)
		return nil, err
	}
	if servicesErr != nil {
		d.logger.Warn("load services failed, using embedded list", "business_id", id, "err", servicesErr)
		services = biz.Services
	}
	return &Detail{Business: *biz, Services: services}, nil
}

func (d *Directory) Register(ctx context.Context, in apiclient.BusinessInput) (*apiclient.Business, error) {
	b, err := d.api.CreateBusiness(ctx, in)
	if err != nil {
		return nil, err
	}
	d.logger.Info("business registered", "business_id", b.ID, "type", b.Type)
	return b, nil
}

// CallLink is the tel: URL for phone, or "" when there is none.
func CallLink(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ""
	}
	return "tel:" + strings.TrimSpace(phone)
}

// WhatsAppLink opens a chat with a Brazilian number. The country code is
// added unless the number already carries it.
func WhatsAppLink(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}
	if !(len(digits) > 11 && strings.HasPrefix(digits, "55")) {
		digits = "55" + digits
	}
	return "whatsapp://send?" + url.Values{"phone": {digits}}.Encode()
}

// Stars splits a 0..5 rating into full, half and empty stars. Any fraction
// counts as a half star.
type Stars struct {
	Full, Half, Empty int
}

func RatingStars(rating float64) Stars {
	if math.IsNaN(rating) || rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	full := int(math.Floor(rating))
	s := Stars{Full: full}
	if rating-float64(full) > 0 {
		s.Half = 1
	}
	s.Empty = 5 - s.Full - s.Half
	return s
}

func (s Stars) String() string {
	return strings.Repeat("★", s.Full) + strings.Repeat("½", s.Half) + strings.Repeat("☆", s.Empty)
}
