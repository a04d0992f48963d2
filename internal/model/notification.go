package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Category identifies the kind of activity a notification relates to.
// It decides both which panel the notification renders in and whether
// activating its title navigates anywhere.
type Category string

const (
	CategoryPost       Category = "post"
	CategoryBadge      Category = "badge"
	CategoryConnection Category = "connection"
	CategoryMention    Category = "mention"
)

// KnownCategories is the fixed set of categories the feed renders panels
// for, in display order.
var KnownCategories = []Category{
	CategoryPost,
	CategoryBadge,
	CategoryConnection,
	CategoryMention,
}

// SpaceKey returns the container key for the category, e.g. "post-space".
func (c Category) SpaceKey() string {
	return string(c) + "-space"
}

// ID is an opaque server-assigned identifier. The backend emits integer
// IDs, but the client never does arithmetic on them, so both JSON numbers
// and strings decode into the same string form.
type ID string

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// Notification is a server-generated alert for the current student. The
// client only ever reads it; removal goes through the API.
type Notification struct {
	// ID is stable for the lifetime of the alert.
	ID ID `json:"id"`

	// Title and Body are display strings.
	Title string `json:"title"`
	Body  string `json:"body"`

	// CreatedAt is already formatted by the server and shown as-is.
	CreatedAt string `json:"created_at"`

	// RelatedType routes the notification into a panel.
	RelatedType Category `json:"related_type"`

	// PostID is only meaningful when RelatedType is CategoryPost.
	PostID *ID `json:"post_id,omitempty"`

	// Type is the backend's finer-grained event name (like, badge_earned, ...).
	Type string `json:"type,omitempty"`

	// Read reports whether the student has already seen the alert.
	Read bool `json:"is_read"`
}

// notificationWire mirrors the feed payload, including the generic
// related_id field older backends send instead of post_id.
type notificationWire struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	CreatedAt   string   `json:"created_at"`
	RelatedType Category `json:"related_type"`
	PostID      *ID      `json:"post_id"`
	RelatedID   *ID      `json:"related_id"`
	Type        string   `json:"type"`
	Read        bool     `json:"is_read"`
}

// UnmarshalJSON decodes a notification, falling back to related_id for the
// post reference when post_id is absent.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var w notificationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*n = Notification{
		ID:          w.ID,
		Title:       w.Title,
		Body:        w.Body,
		CreatedAt:   w.CreatedAt,
		RelatedType: Category(strings.TrimSpace(string(w.RelatedType))),
		Type:        w.Type,
		Read:        w.Read,
	}

	if n.RelatedType != CategoryPost {
		return nil
	}

	switch {
	case w.PostID != nil && *w.PostID != "":
		n.PostID = w.PostID
	case w.RelatedID != nil && *w.RelatedID != "":
		n.PostID = w.RelatedID
	}
	return nil
}

// TargetPost returns the post a notification links to. ok is false for
// every category other than post, and for posts without a reference.
func (n Notification) TargetPost() (ID, bool) {
	if n.RelatedType != CategoryPost || n.PostID == nil || *n.PostID == "" {
		return "", false
	}
	return *n.PostID, true
}
