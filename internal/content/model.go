// Package content defines the data the feed ranking pipeline reads: content
// items, behavior log rows, creator profiles and per-request user preferences.
package content

import (
	"time"
)

// ActionType identifies the kind of behavior recorded for a user and an item.
type ActionType string

// Known behavior action types.
const (
	ActionView    ActionType = "view"
	ActionLike    ActionType = "like"
	ActionComment ActionType = "comment"
	ActionShare   ActionType = "share"
)

// Item is a piece of user-generated content eligible for ranking.
// The ranking pipeline never mutates an Item it reads from the store.
type Item struct {
	ID        string    `json:"id"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`

	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`

	Tags []string `json:"tags,omitempty"`

	// Creator is populated after selection when a creator lookup is available.
	Creator *Creator `json:"creator,omitempty"`
}

// HasTag reports whether the item carries the given tag.
func (i Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Creator is the public profile of the user who created an item.
type Creator struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Verified  bool   `json:"verified"`
}

// Behavior is one row of a user's behavior log.
type Behavior struct {
	UserID    string     `json:"user_id"`
	ItemID    string     `json:"video_id"`
	Action    ActionType `json:"action_type"`
	WatchTime int        `json:"watch_time,omitempty"` // seconds
	CreatedAt time.Time  `json:"created_at"`
}

// EngagementPattern summarizes a user's recent behavior.
// It is carried on UserPreferences but not used in scoring.
type EngagementPattern struct {
	ActionCounts map[ActionType]int `json:"action_counts,omitempty"`
}

// UserPreferences is a per-request snapshot of what the pipeline knows about
// the requesting user. It is built fresh for every feed request.
type UserPreferences struct {
	UserID string

	// Interests is an ordered set of interest tags.
	Interests []string

	FollowedCreatorIDs []string

	// WatchHistory holds item ids the user viewed, most recent first.
	WatchHistory []string

	Engagement EngagementPattern
}

// Follows reports whether the user follows the given creator.
func (p *UserPreferences) Follows(creatorID string) bool {
	for _, id := range p.FollowedCreatorIDs {
		if id == creatorID {
			return true
		}
	}
	return false
}

// HasWatched reports whether the item appears anywhere in the watch history.
func (p *UserPreferences) HasWatched(itemID string) bool {
	return p.WatchedWithin(itemID, len(p.WatchHistory))
}

// WatchedWithin reports whether the item is among the n most recent watched ids.
func (p *UserPreferences) WatchedWithin(itemID string, n int) bool {
	n = min(n, len(p.WatchHistory))
	if n <= 0 {
		return false
	}
	for _, id := range p.WatchHistory[:n] {
		if id == itemID {
			return true
		}
	}
	return false
}
