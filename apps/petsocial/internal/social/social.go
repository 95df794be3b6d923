// Package social holds the feed, groups, chat list and profile screens. The
// data is local until those features get a backend.
package social

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/petsocial/petsocial/libs/apiclient"
)

var ErrPostNotFound = errors.New("post not found")

type Post struct {
	ID       int64    `json:"id"`
	Author   string   `json:"author,omitempty"`
	Pet      string   `json:"pet,omitempty"`
	Age      string   `json:"age"`
	Content  string   `json:"content"`
	ImageURL string   `json:"image_url,omitempty"`
	Poll     []string `json:"poll,omitempty"`
	Privacy  Privacy  `json:"privacy,omitempty"`
	Likes    int      `json:"likes"`
	Comments int      `json:"comments"`
	Shares   int      `json:"shares"`
	Liked    bool     `json:"liked"`
}

type Feed struct {
	mu     sync.Mutex
	posts  []Post
	nextID int64
}

func NewFeed() *Feed {
	posts := seedPosts()
	var last int64
	for _, p := range posts {
		last = max(last, p.ID)
	}
	return &Feed{posts: posts, nextID: last + 1}
}

func (f *Feed) Posts() []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.posts)
}

// ToggleLike flips the caller's like on a post and adjusts the counter.
func (f *Feed) ToggleLike(id int64) (Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		p := &f.posts[i]
		if p.ID != id {
			continue
		}
		if p.Liked {
			p.Likes--
		} else {
			p.Likes++
		}
		p.Liked = !p.Liked
		return *p, nil
	}
	return Post{}, ErrPostNotFound
}

func (f *Feed) prepend(p Post) Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID
	f.nextID++
	f.posts = append([]Post{p}, f.posts...)
	return p
}

type Group struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Members       int    `json:"members"`
	Posts         int    `json:"posts"`
	Private       bool   `json:"private"`
	LastActivity  string `json:"last_activity,omitempty"`
	MutualFriends int    `json:"mutual_friends,omitempty"`
}

// JoinLabel is the call to action shown on suggested groups.
func (g Group) JoinLabel() string {
	if g.Private {
		return "Request to join"
	}
	return "Join group"
}

type GroupTab string

const (
	TabMine     GroupTab = "mine"
	TabDiscover GroupTab = "discover"
)

type Groups struct {
	mine      []Group
	suggested []Group
}

func NewGroups() *Groups {
	return &Groups{mine: seedMyGroups(), suggested: seedSuggestedGroups()}
}

// List returns the groups on tab whose name or description contains search.
func (g *Groups) List(tab GroupTab, search string) []Group {
	src := g.mine
	if tab == TabDiscover {
		src = g.suggested
	}
	return filter(src, search, func(gr Group) string { return gr.Name + " " + gr.Description })
}

type Conversation struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	LastMessage string `json:"last_message"`
	Age         string `json:"age"`
	Online      bool   `json:"online"`
	Unread      int    `json:"unread"`
	Typing      bool   `json:"typing"`
	Group       bool   `json:"group"`
}

type Chats struct {
	conversations []Conversation
	active        []string
}

func NewChats() *Chats {
	return &Chats{conversations: seedConversations(), active: seedActiveUsers()}
}

func (c *Chats) Conversations(search string) []Conversation {
	return filter(c.conversations, search, func(cv Conversation) string { return cv.Name + " " + cv.LastMessage })
}

func (c *Chats) ActiveUsers() []string { return slices.Clone(c.active) }

func (c *Chats) Unread() int {
	n := 0
	for _, cv := range c.conversations {
		n += cv.Unread
	}
	return n
}

type Pet struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
	Age     string `json:"age"`
}

type Profile struct {
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	Posts       int    `json:"posts"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	Pets        []Pet  `json:"pets"`
	RecentPosts []Post `json:"recent_posts"`
}

// LoadProfile returns the profile, named after the signed in user when
// there is one.
func LoadProfile(u *apiclient.User) Profile {
	p := seedProfile()
	if u != nil && strings.TrimSpace(u.Name) != "" {
		p.Name = u.Name
	}
	return p
}

func filter[T any](items []T, search string, text func(T) string) []T {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if search == "" || strings.Contains(strings.ToLower(text(it)), search) {
			out = append(out, it)
		}
	}
	return out
}
