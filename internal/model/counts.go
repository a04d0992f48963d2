package model

// Counts holds the two unread totals shown in the header. The values are
// recomputed by the server on every fetch and are not expected to agree
// with the length of the notification feed.
type Counts struct {
	Notifications int `json:"notifications"`
	Messages      int `json:"messages"`

	// Total is sent by the backend as total_counts; it is not displayed.
	Total int `json:"total_counts,omitempty"`
}
