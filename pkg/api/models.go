package api

import (
	"strconv"
	"time"

	"github.com/matzehuels/mosaic/pkg/masonry"
)

// Item is implemented by every model a resource returns.
type Item interface {
	// ItemID returns the server-assigned id as a string.
	ItemID() string
	// Label is a one-line human-readable description.
	Label() string
}

// Community is a group that organises events.
type Community struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MemberCount int       `json:"member_count"`
	CoverURL    string    `json:"cover_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c Community) ItemID() string { return strconv.FormatInt(c.ID, 10) }
func (c Community) Label() string {
	return c.Name + " (" + strconv.Itoa(c.MemberCount) + " members)"
}

// Event is a scheduled meetup of a community.
type Event struct {
	ID          int64      `json:"id"`
	CommunityID int64      `json:"community_id"`
	Title       string     `json:"title"`
	Venue       string     `json:"venue,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
}

func (e Event) ItemID() string { return strconv.FormatInt(e.ID, 10) }
func (e Event) Label() string {
	return e.StartsAt.Format("2006-01-02") + " " + e.Title
}

// Media is a photo or video in a gallery. Width and Height are the intrinsic
// pixel dimensions reported by the API.
type Media struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func (m Media) ItemID() string { return m.ID }
func (m Media) Label() string {
	if m.Caption != "" {
		return m.Caption
	}
	return m.ID
}

// Thumbnail returns the preview image URL.
func (m Media) Thumbnail() string {
	if m.ThumbnailURL != "" {
		return m.ThumbnailURL
	}
	return m.URL
}

// Size reports the intrinsic dimensions used for masonry layout.
func (m Media) Size() (int, int) { return m.Width, m.Height }

var _ masonry.Sized = Media{}

// Game is an entry in the games catalogue.
type Game struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Platform   string     `json:"platform,omitempty"`
	CoverURL   string     `json:"cover_url,omitempty"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

func (g Game) ItemID() string { return strconv.FormatInt(g.ID, 10) }
func (g Game) Label() string {
	if g.Platform == "" {
		return g.Name
	}
	return g.Name + " [" + g.Platform + "]"
}

// Achievement is an unlocked game achievement of a user.
type Achievement struct {
	ID          int64     `json:"id"`
	GameID      int64     `json:"game_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IconURL     string    `json:"icon_url,omitempty"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

func (a Achievement) ItemID() string { return strconv.FormatInt(a.ID, 10) }
func (a Achievement) Label() string  { return a.Title }

// Ticket is a user's ticket for an event.
type Ticket struct {
	ID         string    `json:"id"`
	EventID    int64     `json:"event_id"`
	EventTitle string    `json:"event_title"`
	Seat       string    `json:"seat,omitempty"`
	Status     string    `json:"status"`
	IssuedAt   time.Time `json:"issued_at"`
}

func (t Ticket) ItemID() string { return t.ID }
func (t Ticket) Label() string {
	label := t.EventTitle
	if t.Seat != "" {
		label += " seat " + t.Seat
	}
	return label + " (" + t.Status + ")"
}

// MediaItems returns the [Media] values among items, in order.
func MediaItems(items []Item) []Media {
	out := make([]Media, 0, len(items))
	for _, it := range items {
		if m, ok := it.(Media); ok {
			out = append(out, m)
		}
	}
	return out
}
