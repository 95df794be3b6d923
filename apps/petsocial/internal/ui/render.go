package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/petsocial/petsocial/apps/petsocial/internal/directory"
	"github.com/petsocial/petsocial/apps/petsocial/internal/social"
	"github.com/petsocial/petsocial/libs/apiclient"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

type Printer struct {
	W      io.Writer
	Format Format
}

// Print writes v as JSON or YAML, or calls text for the human rendering.
func (p Printer) Print(v any, text func(io.Writer) error) error {
	switch p.Format {
	case FormatJSON:
		enc := json.NewEncoder(p.W)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		// Go through JSON so the field names match the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.W)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(p.W)
	}
}

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func Businesses(list []apiclient.Business) func(io.Writer) error {
	return func(w io.Writer) error {
		if len(list) == 0 {
			_, err := fmt.Fprintln(w, "No businesses found.")
			return err
		}
		return table(w, "ID\tNAME\tTYPE\tRATING\tCITY", func(tw *tabwriter.Writer) {
			for _, b := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s %.1f (%d)\t%s\n", b.ID, b.Name, directory.TypeLabel(b.Type),
					directory.RatingStars(b.Rating), b.Rating, b.TotalReviews, location(b))
			}
		})
	}
}

func BusinessDetail(d *directory.Detail) func(io.Writer) error {
	return func(w io.Writer) error {
		b := d.Business
		fmt.Fprintf(w, "%s  [%s]\n", b.Name, directory.TypeLabel(b.Type))
		if b.Description != "" {
			fmt.Fprintln(w, b.Description)
		}
		fmt.Fprintf(w, "%s %.1f (%d reviews)\n", directory.RatingStars(b.Rating), b.Rating, b.TotalReviews)
		if loc := location(b); b.Address != "" || loc != "" {
			fmt.Fprintf(w, "Address: %s %s\n", b.Address, loc)
		}
		if link := directory.CallLink(b.Phone); link != "" {
			fmt.Fprintf(w, "Call: %s\nWhatsApp: %s\n", link, directory.WhatsAppLink(b.Phone))
		}
		if b.Email != "" {
			fmt.Fprintf(w, "Email: %s\n", b.Email)
		}
		fmt.Fprintln(w)
		if len(d.Services) == 0 {
			_, err := fmt.Fprintln(w, "No services listed.")
			return err
		}
		return table(w, "SERVICE\tNAME\tDURATION\tPRICE", func(tw *tabwriter.Writer) {
			for _, s := range d.Services {
				fmt.Fprintf(tw, "%d\t%s\t%d min\tR$ %.2f\n", s.ID, s.Name, s.Duration, s.Price)
			}
		})
	}
}

func Times(date string, times []string) func(io.Writer) error {
	return func(w io.Writer) error {
		if len(times) == 0 {
			_, err := fmt.Fprintf(w, "No times available on %s.\n", date)
			return err
		}
		_, err := fmt.Fprintf(w, "Available on %s: %s\n", date, strings.Join(times, "  "))
		return err
	}
}

func Appointments(list []apiclient.Appointment) func(io.Writer) error {
	return func(w io.Writer) error {
		if len(list) == 0 {
			_, err := fmt.Fprintln(w, "You have no appointments.")
			return err
		}
		return table(w, "ID\tBUSINESS\tSERVICE\tDATE\tTIME\tSTATUS", func(tw *tabwriter.Writer) {
			for _, a := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.BusinessName, a.ServiceName, a.Date, a.Time, a.Status)
			}
		})
	}
}

func User(u *apiclient.User) func(io.Writer) error {
	return func(w io.Writer) error {
		if u == nil {
			_, err := fmt.Fprintln(w, "Not signed in.")
			return err
		}
		_, err := fmt.Fprintf(w, "%s <%s> via %s (id %s)\n", u.Name, u.Email, u.Provider, u.ID)
		return err
	}
}

func Providers(list []apiclient.Provider, loginURL func(string) string) func(io.Writer) error {
	return func(w io.Writer) error {
		return table(w, "PROVIDER\tNAME\tLOGIN URL", func(tw *tabwriter.Writer) {
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, loginURL(p.ID))
			}
		})
	}
}

func Palette(colors apiclient.Palette, logo string) func(io.Writer) error {
	return func(w io.Writer) error {
		names := make([]string, 0, len(colors))
		for k := range colors {
			names = append(names, k)
		}
		slices.Sort(names)
		err := table(w, "COLOR\tVALUE", func(tw *tabwriter.Writer) {
			for _, k := range names {
				fmt.Fprintf(tw, "%s\t%s\n", k, colors[k])
			}
		})
		if err != nil {
			return err
		}
		if logo != "" {
			_, err = fmt.Fprintf(w, "Logo: %s\n", logo)
		}
		return err
	}
}

func Feed(posts []social.Post) func(io.Writer) error {
	return func(w io.Writer) error {
		for _, p := range posts {
			heart := "♡"
			if p.Liked {
				heart = "♥"
			}
			fmt.Fprintf(w, "#%d %s", p.ID, p.Author)
			if p.Pet != "" {
				fmt.Fprintf(w, " with %s", p.Pet)
			}
			fmt.Fprintf(w, " · %s\n  %s\n", p.Age, p.Content)
			for i, o := range p.Poll {
				fmt.Fprintf(w, "  (%d) %s\n", i+1, o)
			}
			fmt.Fprintf(w, "  %s %d  💬 %d  ↗ %d\n\n", heart, p.Likes, p.Comments, p.Shares)
		}
		return nil
	}
}

func Groups(list []social.Group, discover bool) func(io.Writer) error {
	return func(w io.Writer) error {
		if len(list) == 0 {
			_, err := fmt.Fprintln(w, "No groups found.")
			return err
		}
		return table(w, "ID\tNAME\tMEMBERS\tPOSTS\tINFO", func(tw *tabwriter.Writer) {
			for _, g := range list {
				info := "last activity " + g.LastActivity
				if discover {
					info = fmt.Sprintf("%d mutual friends · %s", g.MutualFriends, g.JoinLabel())
				}
				if g.Private {
					info = "private · " + info
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", g.ID, g.Name, g.Members, g.Posts, info)
			}
		})
	}
}

func Chats(list []social.Conversation, active []string) func(io.Writer) error {
	return func(w io.Writer) error {
		fmt.Fprintf(w, "Active now: %s\n\n", strings.Join(active, ", "))
		return table(w, "NAME\tLAST MESSAGE\tAGE\tUNREAD", func(tw *tabwriter.Writer) {
			for _, c := range list {
				name := c.Name
				if c.Online {
					name = "● " + name
				}
				msg := c.LastMessage
				if c.Typing {
					msg = "typing..."
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", name, msg, c.Age, c.Unread)
			}
		})
	}
}

func Profile(p social.Profile) func(io.Writer) error {
	return func(w io.Writer) error {
		fmt.Fprintf(w, "%s\n%s\n%d posts · %d followers · %d following\n\nPets:\n", p.Name, p.Bio, p.Posts, p.Followers, p.Following)
		for _, pet := range p.Pets {
			fmt.Fprintf(w, "  %s, %s (%s), %s\n", pet.Name, pet.Species, pet.Breed, pet.Age)
		}
		fmt.Fprintln(w, "\nRecent posts:")
		for _, post := range p.RecentPosts {
			fmt.Fprintf(w, "  %s · %s · ♥ %d 💬 %d\n", post.Content, post.Age, post.Likes, post.Comments)
		}
		return nil
	}
}

func location(b apiclient.Business) string {
	switch {
	case b.City != "" && b.State != "":
		return b.City + ", " + b.State
	default:
		return b.City + b.State
	}
}
