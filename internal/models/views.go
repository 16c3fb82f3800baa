package models

import "time"

// AuthorSummary is the slice of a User embedded in thread views.
type AuthorSummary struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Image      string `json:"image"`
}

// CommunitySummary is the slice of a Community embedded in thread and profile views.
type CommunitySummary struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Image      string `json:"image"`
}

// ThreadNode is a thread with its references expanded. Author and Community
// are nil when the referenced record no longer exists.
type ThreadNode struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	ParentID   *string           `json:"parent_id,omitempty"`
	Author     *AuthorSummary    `json:"author"`
	Community  *CommunitySummary `json:"community"`
	Children   []*ThreadNode     `json:"children"`
	ReplyCount int               `json:"reply_count"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewAuthorSummary copies the public fields of u.
func NewAuthorSummary(u *User) *AuthorSummary {
	if u == nil {
		return nil
	}
	return &AuthorSummary{ID: u.ID, ExternalID: u.ExternalID, Username: u.Username, Name: u.Name, Image: u.Image}
}

// NewCommunitySummary copies the public fields of c.
func NewCommunitySummary(c *Community) *CommunitySummary {
	if c == nil {
		return nil
	}
	return &CommunitySummary{ID: c.ID, ExternalID: c.ExternalID, Username: c.Username, Name: c.Name, Image: c.Image}
}

// UserProfile is a user with its communities expanded.
type UserProfile struct {
	User        *User               `json:"user"`
	Communities []*CommunitySummary `json:"communities"`
}

// UserPosts is a user with its root threads expanded.
type UserPosts struct {
	User    *AuthorSummary `json:"user"`
	Threads []*ThreadNode  `json:"threads"`
}

// CommunityDetails is a community with creator and members expanded.
type CommunityDetails struct {
	Community *Community       `json:"community"`
	Creator   *AuthorSummary   `json:"creator"`
	Members   []*AuthorSummary `json:"members"`
}

// CommunityPosts is a community with its threads expanded.
type CommunityPosts struct {
	Community *CommunitySummary `json:"community"`
	Threads   []*ThreadNode     `json:"threads"`
}

// PostsPage is one page of the top-level feed.
type PostsPage struct {
	Posts  []*ThreadNode `json:"posts"`
	IsNext bool          `json:"is_next"`
}

// UsersPage is one page of the user directory.
type UsersPage struct {
	Users  []*User `json:"users"`
	IsNext bool    `json:"is_next"`
}

// CommunitiesPage is one page of the community directory.
type CommunitiesPage struct {
	Communities []*Community `json:"communities"`
	IsNext      bool         `json:"is_next"`
}
