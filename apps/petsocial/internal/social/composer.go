package social

import (
	"errors"
	"strings"

	"github.com/petsocial/petsocial/libs/apiclient"
)

var (
	ErrEmptyPost      = errors.New("write something to publish")
	ErrPollIncomplete = errors.New("fill in every poll option")
	ErrPollOptions    = errors.New("a poll has between 2 and 4 options")
)

const (
	minPollOptions = 2
	maxPollOptions = 4
)

type PostType string

const (
	PostText  PostType = "text"
	PostPhoto PostType = "photo"
	PostPoll  PostType = "poll"
)

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyOnlyMe  Privacy = "only_me"
)

// Draft is the post composer form.
type Draft struct {
	Type     PostType
	Text     string
	ImageURL string
	Pet      string
	Privacy  Privacy
	Options  []string
}

func NewDraft(t PostType) *Draft {
	d := &Draft{Type: t, Privacy: PrivacyPublic}
	if t == PostPoll {
		d.Options = make([]string, minPollOptions)
	}
	return d
}

func (d *Draft) AddOption() error {
	if len(d.Options) >= maxPollOptions {
		return ErrPollOptions
	}
	d.Options = append(d.Options, "")
	return nil
}

func (d *Draft) RemoveOption(i int) error {
	if len(d.Options) <= minPollOptions || i < 0 || i >= len(d.Options) {
		return ErrPollOptions
	}
	d.Options = append(d.Options[:i], d.Options[i+1:]...)
	return nil
}

func (d *Draft) Validate() error {
	switch d.Type {
	case PostPoll:
		if len(d.Options) < minPollOptions || len(d.Options) > maxPollOptions {
			return ErrPollOptions
		}
		for _, o := range d.Options {
			if strings.TrimSpace(o) == "" {
				return ErrPollIncomplete
			}
		}
	case PostPhoto:
	default:
		if strings.TrimSpace(d.Text) == "" {
			return ErrEmptyPost
		}
	}
	return nil
}

// Publish validates the draft and puts the sanitized post at the top of
// the feed.
func (d *Draft) Publish(feed *Feed, author string) (Post, error) {
	if err := d.Validate(); err != nil {
		return Post{}, err
	}
	p := Post{
		Author:   apiclient.Sanitize(author),
		Pet:      apiclient.Sanitize(d.Pet),
		Age:      "now",
		Content:  apiclient.Sanitize(d.Text),
		ImageURL: strings.TrimSpace(d.ImageURL),
		Privacy:  d.Privacy,
	}
	for _, o := range d.Options {
		p.Poll = append(p.Poll, apiclient.Sanitize(o))
	}
	return feed.prepend(p), nil
}
