// Package view holds the rendered state of the notification screen: the
// per-category spaces with their cards, and the header counters. It is the
// terminal equivalent of a DOM subtree and knows nothing about the network.
package view

import (
	"github.com/nhle/studyhub-notify/internal/model"
)

// EmptyText is shown in every space when the server reports no
// notifications at all.
const EmptyText = "No notifications yet."

// Card is one rendered notification.
type Card struct {
	ID        model.ID
	Title     string
	Body      string
	Timestamp string
	Category  model.Category
	Type      string
	Unread    bool

	// PostID is copied only for post cards with a reference.
	PostID model.ID
}

// HasPost reports whether activating the card's title navigates to a post.
func (c Card) HasPost() bool {
	return c.Category == model.CategoryPost && c.PostID != ""
}

// NewCard builds the card for a notification.
func NewCard(n model.Notification) Card {
	c := Card{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Timestamp: n.CreatedAt,
		Category:  n.RelatedType,
		Type:      n.Type,
		Unread:    !n.Read,
	}
	if id, ok := n.TargetPost(); ok {
		c.PostID = id
	}
	return c
}

// Space is the container for one category.
type Space struct {
	Key         string
	Category    model.Category
	Cards       []Card
	Placeholder string
}

// Feed maps categories to their spaces. The set of spaces is fixed when
// the feed is built; routing a notification is a map lookup, so adding a
// category only means adding a space.
type Feed struct {
	spaces map[model.Category]*Space
	order  []model.Category
	loaded bool
}

// NewFeed creates a feed with one space per category, in the given order.
// Duplicate categories are ignored.
func NewFeed(categories []model.Category) *Feed {
	f := &Feed{spaces: make(map[model.Category]*Space, len(categories))}
	for _, c := range categories {
		if _, dup := f.spaces[c]; dup || c == "" {
			continue
		}
		f.spaces[c] = &Space{Key: c.SpaceKey(), Category: c}
		f.order = append(f.order, c)
	}
	return f
}

// Space returns the container for a category.
func (f *Feed) Space(c model.Category) (*Space, bool) {
	s, ok := f.spaces[c]
	return s, ok
}

// Spaces returns the spaces in display order.
func (f *Feed) Spaces() []*Space {
	out := make([]*Space, 0, len(f.order))
	for _, c := range f.order {
		out = append(out, f.spaces[c])
	}
	return out
}

// Loaded reports whether any server snapshot has been applied yet.
func (f *Feed) Loaded() bool {
	return f.loaded
}

// Reset clears every space, including placeholders.
func (f *Feed) Reset() {
	for _, s := range f.spaces {
		s.Cards = nil
		s.Placeholder = ""
	}
}

// Render appends a card for each notification whose category has a space
// and returns how many were rendered. Notifications for other categories
// are skipped. Render does not deduplicate; call Reset first when
// re-applying a snapshot.
func (f *Feed) Render(items []model.Notification) int {
	f.loaded = true
	rendered := 0
	for _, n := range items {
		s, ok := f.spaces[n.RelatedType]
		if !ok {
			continue
		}
		s.Placeholder = ""
		s.Cards = append(s.Cards, NewCard(n))
		rendered++
	}
	return rendered
}

// ShowEmpty puts the empty-state text in every space and removes all cards.
func (f *Feed) ShowEmpty() {
	f.loaded = true
	for _, s := range f.spaces {
		s.Cards = nil
		s.Placeholder = EmptyText
	}
}

// Cards returns every rendered card in display order.
func (f *Feed) Cards() []Card {
	var out []Card
	for _, c := range f.order {
		out = append(out, f.spaces[c].Cards...)
	}
	return out
}

// Dispatch resolves a position in the feed region, counted across spaces in
// display order, to the card rendered there. Handlers act on the returned
// card's ID; cards carry no handlers of their own.
func (f *Feed) Dispatch(pos int) (Card, bool) {
	if pos < 0 {
		return Card{}, false
	}
	for _, c := range f.order {
		cards := f.spaces[c].Cards
		if pos < len(cards) {
			return cards[pos], true
		}
		pos -= len(cards)
	}
	return Card{}, false
}

// Len returns the number of rendered cards.
func (f *Feed) Len() int {
	n := 0
	for _, s := range f.spaces {
		n += len(s.Cards)
	}
	return n
}

// Find returns the card carrying id.
func (f *Feed) Find(id model.ID) (Card, bool) {
	for _, c := range f.order {
		for _, card := range f.spaces[c].Cards {
			if card.ID == id {
				return card, true
			}
		}
	}
	return Card{}, false
}

// Remove deletes the first card carrying id and reports whether one was
// found. Removing an id that is not rendered is a no-op.
func (f *Feed) Remove(id model.ID) bool {
	for _, c := range f.order {
		s := f.spaces[c]
		for i, card := range s.Cards {
			if card.ID != id {
				continue
			}
			s.Cards = append(s.Cards[:i:i], s.Cards[i+1:]...)
			return true
		}
	}
	return false
}

// MarkRead clears the unread marker of the card carrying id.
func (f *Feed) MarkRead(id model.ID) bool {
	for _, c := range f.order {
		s := f.spaces[c]
		for i := range s.Cards {
			if s.Cards[i].ID == id {
				s.Cards[i].Unread = false
				return true
			}
		}
	}
	return false
}

// MarkAllRead clears every unread marker.
func (f *Feed) MarkAllRead() {
	for _, s := range f.spaces {
		for i := range s.Cards {
			s.Cards[i].Unread = false
		}
	}
}

// Unread returns how many rendered cards are unread.
func (f *Feed) Unread() int {
	n := 0
	for _, s := range f.spaces {
		for _, card := range s.Cards {
			if card.Unread {
				n++
			}
		}
	}
	return n
}
