package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	cases := map[string]ID{
		`12`:      "12",
		`"abc-1"`: "abc-1",
		`null`:    "",
		` 7 `:     "7",
		`"0042"`:  "0042",
		`1.5e3`:   "1.5e3",
	}
	for in, want := range cases {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(in), &id), in)
		assert.Equal(t, want, id, in)
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestNotificationPostReference(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		postID ID
		ok     bool
	}{
		{
			name:   "post_id wins",
			raw:    `{"id":1,"related_type":"post","post_id":5,"related_id":6}`,
			postID: "5",
			ok:     true,
		},
		{
			name:   "related_id fallback",
			raw:    `{"id":1,"related_type":"post","related_id":6}`,
			postID: "6",
			ok:     true,
		},
		{
			name: "post without reference",
			raw:  `{"id":1,"related_type":"post"}`,
		},
		{
			name: "badge ignores post_id",
			raw:  `{"id":1,"related_type":"badge","post_id":5}`,
		},
		{
			name: "mention ignores related_id",
			raw:  `{"id":1,"related_type":"mention","related_id":5}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Notification
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &n))
			got, ok := n.TargetPost()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.postID, got)
			if !tt.ok {
				assert.Nil(t, n.PostID)
			}
		})
	}
}

func TestNotificationFields(t *testing.T) {
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 3, "title": "Ada mentioned you", "body": "in a post",
		"created_at": "Oct 14, 2026 09:12", "related_type": " mention ",
		"type": "mention", "is_read": true
	}`), &n))

	assert.Equal(t, ID("3"), n.ID)
	assert.Equal(t, "Ada mentioned you", n.Title)
	assert.Equal(t, "in a post", n.Body)
	assert.Equal(t, "Oct 14, 2026 09:12", n.CreatedAt)
	assert.Equal(t, CategoryMention, n.RelatedType)
	assert.True(t, n.Read)
}

func TestSpaceKey(t *testing.T) {
	assert.Equal(t, "post-space", CategoryPost.SpaceKey())
	assert.Equal(t, "thread-space", Category("thread").SpaceKey())
}
