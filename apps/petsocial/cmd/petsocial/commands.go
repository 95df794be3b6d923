package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/petsocial/petsocial/apps/petsocial/internal/appointments"
	"github.com/petsocial/petsocial/apps/petsocial/internal/booking"
	"github.com/petsocial/petsocial/apps/petsocial/internal/calendar"
	"github.com/petsocial/petsocial/apps/petsocial/internal/directory"
	"github.com/petsocial/petsocial/apps/petsocial/internal/social"
	"github.com/petsocial/petsocial/apps/petsocial/internal/theme"
	"github.com/petsocial/petsocial/apps/petsocial/internal/ui"
	"github.com/petsocial/petsocial/libs/apiclient"
)

func newFlags(name string, e *env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	return fs
}

func parseID(fs *flag.FlagSet, what string) (int64, error) {
	if fs.NArg() != 1 {
		fmt.Fprintf(fs.Output(), "usage: petsocial %s <%s id>\n", fs.Name(), what)
		return 0, errUsage
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, fs.Arg(0))
	}
	return id, nil
}

func requireSession(e *env) error {
	if !e.app.Session.IsAuthenticated() {
		return errors.New("not signed in, run: petsocial login -provider <name> -code <code>")
	}
	return nil
}

func cmdProviders(ctx context.Context, e *env, args []string) error {
	if err := newFlags("providers", e).Parse(args); err != nil {
		return err
	}
	list := e.app.Session.Providers()
	return e.print.Print(list, ui.Providers(list, e.app.Session.LoginURL))
}

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlags("login", e)
	provider := fs.String("provider", "google", "sign-in provider")
	code := fs.String("code", "", "authorization code returned by the provider")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		fmt.Fprintf(e.out, "Open %s and run again with -code.\n", e.app.Session.LoginURL(*provider))
		return errUsage
	}
	u, err := e.app.Session.Login(ctx, *provider, *code)
	if err != nil {
		return errors.New(apiclient.Message(err, "could not sign in"))
	}
	return e.print.Print(u, ui.User(u))
}

func cmdLogout(ctx context.Context, e *env, args []string) error {
	if err := newFlags("logout", e).Parse(args); err != nil {
		return err
	}
	if !e.term.Confirm("Logout", "Are you sure you want to sign out?") {
		return nil
	}
	if err := e.app.Session.Logout(ctx); err != nil {
		return err
	}
	e.term.Alert("Logout", "Signed out.")
	return nil
}

func cmdWhoami(ctx context.Context, e *env, args []string) error {
	if err := newFlags("whoami", e).Parse(args); err != nil {
		return err
	}
	u := e.app.Session.User()
	return e.print.Print(u, ui.User(u))
}

func cmdBusinesses(ctx context.Context, e *env, args []string) error {
	fs := newFlags("businesses", e)
	kind := fs.String("type", "all", "all, petshop, clinic or both")
	search := fs.String("search", "", "free text search")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := directory.ParseFilter(*kind)
	if err != nil {
		return err
	}
	list, err := e.app.Directory.List(ctx, f, *search)
	if err != nil {
		return errors.New(apiclient.Message(err, "could not load businesses"))
	}
	return e.print.Print(list, ui.Businesses(list))
}

func cmdBusiness(ctx context.Context, e *env, args []string) error {
	fs := newFlags("business", e)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs, "business")
	if err != nil {
		return err
	}
	d, err := e.app.Directory.Detail(ctx, id)
	if err != nil {
		return errors.New(apiclient.Message(err, "could not load the business"))
	}
	return e.print.Print(d, ui.BusinessDetail(d))
}

func cmdRegister(ctx context.Context, e *env, args []string) error {
	fs := newFlags("register", e)
	var in apiclient.BusinessInput
	fs.StringVar(&in.Name, "name", "", "business name")
	fs.StringVar(&in.Type, "type", apiclient.TypePetshop, "petshop or clinic")
	fs.StringVar(&in.Email, "email", "", "contact email")
	fs.StringVar(&in.Phone, "phone", "", "contact phone, e.g. (11) 98765-4321")
	fs.StringVar(&in.Address, "address", "", "street address")
	fs.StringVar(&in.Description, "description", "", "short description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireSession(e); err != nil {
		return err
	}
	b, err := e.app.Directory.Register(ctx, in)
	if err != nil {
		return errors.New(apiclient.Message(err, "could not register the business"))
	}
	d := &directory.Detail{Business: *b, Services: b.Services}
	return e.print.Print(b, ui.BusinessDetail(d))
}

// serviceOf finds the service on the business so the booking screen can
// show its name and length.
func serviceOf(ctx context.Context, e *env, businessID, serviceID int64) (apiclient.Service, error) {
	d, err := e.app.Directory.Detail(ctx, businessID)
	if err != nil {
		return apiclient.Service{}, errors.New(apiclient.Message(err, "could not load the business"))
	}
	for _, s := range d.Services {
		if s.ID == serviceID {
			return s, nil
		}
	}
	return apiclient.Service{}, fmt.Errorf("business %d has no service %d", businessID, serviceID)
}

type slotFlags struct {
	business, service *int64
	date              *string
}

func addSlotFlags(fs *flag.FlagSet) slotFlags {
	return slotFlags{
		business: fs.Int64("business", 0, "business id"),
		service:  fs.Int64("service", 0, "service id"),
		date:     fs.String("date", time.Now().AddDate(0, 0, 1).Format(time.DateOnly), "date as YYYY-MM-DD"),
	}
}

func (s slotFlags) flow(ctx context.Context, e *env) (*booking.Flow, error) {
	if *s.business <= 0 || *s.service <= 0 {
		return nil, errors.New("-business and -service are required")
	}
	svc, err := serviceOf(ctx, e, *s.business, *s.service)
	if err != nil {
		return nil, err
	}
	f := e.app.Booking(e.term, e.term, *s.business, svc)
	if err := f.SelectDate(ctx, *s.date); err != nil {
		return nil, err
	}
	return f, nil
}

func cmdTimes(ctx context.Context, e *env, args []string) error {
	fs := newFlags("times", e)
	slot := addSlotFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := slot.flow(ctx, e)
	if err != nil {
		return err
	}
	snap := f.Snapshot()
	return e.print.Print(snap.Times, ui.Times(snap.Date, snap.Times))
}

func cmdBook(ctx context.Context, e *env, args []string) error {
	fs := newFlags("book", e)
	slot := addSlotFlags(fs)
	at := fs.String("time", "", "one of the times listed by the times command")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireSession(e); err != nil {
		return err
	}
	f, err := slot.flow(ctx, e)
	if err != nil {
		return err
	}
	if *at != "" {
		if err := f.SelectTime(*at); err != nil {
			snap := f.Snapshot()
			_ = ui.Times(snap.Date, snap.Times)(e.out)
			return fmt.Errorf("%s: %w", *at, err)
		}
	}
	appt, err := f.Submit(ctx)
	if err != nil {
		// The dialog already told the user what went wrong.
		return errors.New("booking not completed")
	}
	if appt == nil {
		return nil
	}
	list := []apiclient.Appointment{*appt}
	return e.print.Print(appt, ui.Appointments(list))
}

func cmdAppointments(ctx context.Context, e *env, args []string) error {
	fs := newFlags("appointments", e)
	icsPath := fs.String("ics", "", "also write the list to this iCalendar file (- for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireSession(e); err != nil {
		return err
	}
	s := e.app.Appointments(e.term)
	if err := s.Load(ctx); err != nil {
		return errors.New("appointments not loaded")
	}
	list := s.Appointments()
	if *icsPath != "" {
		return exportICS(e, *icsPath, list)
	}
	return e.print.Print(list, ui.Appointments(list))
}

func exportICS(e *env, path string, list []apiclient.Appointment) error {
	var w io.Writer = e.out
	if path != "-" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	n, err := calendar.Export(w, list, calendar.Options{})
	if err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(e.out, "Wrote %d appointments to %s\n", n, path)
	}
	return nil
}

func cmdCancel(ctx context.Context, e *env, args []string) error {
	fs := newFlags("cancel", e)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs, "appointment")
	if err != nil {
		return err
	}
	if err := requireSession(e); err != nil {
		return err
	}
	s := e.app.Appointments(e.term)
	if err := s.Cancel(ctx, id); err != nil {
		if errors.Is(err, appointments.ErrDeclined) {
			return nil
		}
		return errors.New("appointment not cancelled")
	}
	list := s.Appointments()
	return e.print.Print(list, ui.Appointments(list))
}

func cmdTheme(ctx context.Context, e *env, args []string) error {
	fs := newFlags("theme", e)
	primary := fs.String("primary", "", "new primary color as #RRGGBB")
	logo := fs.String("logo", "", "new logo URL")
	upload := fs.String("upload", "", "upload this image file as the logo")
	if err := fs.Parse(args); err != nil {
		return err
	}
	th := e.app.Theme
	changing := *primary != "" || *logo != "" || *upload != ""
	if changing {
		if err := requireSession(e); err != nil {
			return err
		}
	}
	if *primary != "" {
		if err := th.UpdatePrimaryColor(ctx, *primary); err != nil {
			return themeError(err, "could not update the color")
		}
		e.term.Alert("Success", "Primary color updated.")
	}
	if *logo != "" {
		if err := th.UpdateLogo(ctx, *logo); err != nil {
			return themeError(err, "could not update the logo")
		}
		e.term.Alert("Success", "Logo updated.")
	}
	if *upload != "" {
		f, err := os.Open(*upload)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := th.UploadLogo(ctx, f.Name(), f); err != nil {
			return themeError(err, "could not upload the logo")
		}
		e.term.Alert("Success", "Logo uploaded.")
	}
	if err := th.LastError(); err != nil && !changing {
		e.term.Alert("Warning", "Backend theme unavailable, showing defaults.")
	}
	cfg := apiclient.UIConfig{Colors: th.Colors(), LogoURL: th.LogoURL()}
	return e.print.Print(cfg, ui.Palette(cfg.Colors, cfg.LogoURL))
}

func themeError(err error, fallback string) error {
	if errors.Is(err, theme.ErrInvalidColor) || errors.Is(err, theme.ErrInvalidLogo) {
		return err
	}
	return errors.New(apiclient.Message(err, fallback))
}

func cmdFeed(ctx context.Context, e *env, args []string) error {
	fs := newFlags("feed", e)
	like := fs.Int64("like", 0, "toggle the like on this post")
	text := fs.String("post", "", "publish a text post")
	pet := fs.String("pet", "", "pet the new post is about")
	if err := fs.Parse(args); err != nil {
		return err
	}
	feed := social.NewFeed()
	if *like > 0 {
		if _, err := feed.ToggleLike(*like); err != nil {
			return err
		}
	}
	if *text != "" {
		d := social.NewDraft(social.PostText)
		d.Text, d.Pet = *text, *pet
		author := "You"
		if u := e.app.Session.User(); u != nil {
			author = u.Name
		}
		if _, err := d.Publish(feed, author); err != nil {
			return err
		}
	}
	posts := feed.Posts()
	return e.print.Print(posts, ui.Feed(posts))
}

func cmdGroups(ctx context.Context, e *env, args []string) error {
	fs := newFlags("groups", e)
	discover := fs.Bool("discover", false, "show suggested groups")
	search := fs.String("search", "", "filter by name or description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tab := social.TabMine
	if *discover {
		tab = social.TabDiscover
	}
	list := social.NewGroups().List(tab, *search)
	return e.print.Print(list, ui.Groups(list, *discover))
}

func cmdChats(ctx context.Context, e *env, args []string) error {
	fs := newFlags("chats", e)
	search := fs.String("search", "", "filter conversations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := social.NewChats()
	list := c.Conversations(*search)
	return e.print.Print(list, ui.Chats(list, c.ActiveUsers()))
}

func cmdProfile(ctx context.Context, e *env, args []string) error {
	if err := newFlags("profile", e).Parse(args); err != nil {
		return err
	}
	p := social.LoadProfile(e.app.Session.User())
	return e.print.Print(p, ui.Profile(p))
}

func cmdHealth(ctx context.Context, e *env, args []string) error {
	if err := newFlags("health", e).Parse(args); err != nil {
		return err
	}
	h, err := e.app.Client.Health(ctx)
	if err != nil {
		return errors.New(apiclient.Message(err, "backend unreachable"))
	}
	return e.print.Print(h, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "backend %s at %s\n", h.Status, e.app.Client.BaseURL())
		return err
	})
}
