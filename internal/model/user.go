package model

import "time"

// User represents an account row in the `users` table.  PasswordHash and
// RefreshToken never leave the repository layer in responses; handlers use
// PublicView() to build the client-facing shape.
//
// RefreshToken holds at most one live value: it is overwritten on every
// successful login or refresh and cleared on logout.  An empty value means
// the account has no active session.
type User struct {
	ID            uint64    // users.id
	Username      string    // users.username (unique, lowercase)
	Email         string    // users.email (unique, lowercase)
	FullName      string    // users.full_name
	AvatarURL     string    // users.avatar_url (required)
	CoverImageURL string    // users.cover_image_url (optional, empty allowed)
	PasswordHash  string    // users.password_hash (bcrypt)
	RefreshToken  string    // users.refresh_token ("" when logged out)
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// PublicUser is the scrubbed account view returned by the API: the same
// record without the password hash and refresh token.
type PublicUser struct {
	ID            uint64    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicView strips credential fields from a User.
func (u User) PublicView() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// Subscription models a row in the `subscriptions` table: subscriber_id
// follows channel_id.  The pair is unique.
type Subscription struct {
	ID           uint64    // subscriptions.id
	SubscriberID uint64    // subscriptions.subscriber_id
	ChannelID    uint64    // subscriptions.channel_id
	CreatedAt    time.Time // subscriptions.created_at
}

// ChannelProfile is the aggregation returned for GET /c/:username — the
// public account fields plus subscriber counts relative to the viewer.
type ChannelProfile struct {
	ID                uint64 `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	AvatarURL         string `json:"avatar"`
	CoverImageURL     string `json:"coverImage,omitempty"`
	SubscribersCount  int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}
