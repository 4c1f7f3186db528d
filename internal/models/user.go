package models

import "time"

type User struct {
	ID               string
	UserName         string
	Email            string
	FullName         string
	PasswordHash     []byte
	AvatarURL        string
	CoverImageURL    *string
	RefreshToken     *string
	RefreshExpiresAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PublicUser is the sanitized projection returned by the API. The password
// hash and the stored refresh token never leave the service layer.
type PublicUser struct {
	ID            string    `json:"id"`
	UserName      string    `json:"userName"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	pub := PublicUser{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.CoverImageURL != nil {
		pub.CoverImageURL = *u.CoverImageURL
	}
	return pub
}

type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// ChannelProfile is the aggregated public view of a user's channel.
type ChannelProfile struct {
	PublicUser
	SubscriberCount        int  `json:"subscriberCount"`
	SubscribedChannelCount int  `json:"subscribedChannelCount"`
	IsSubscribed           bool `json:"isSubscribed"`
}
