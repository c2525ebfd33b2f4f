package domain

import "time"

// TokenPair is the access/refresh credential pair issued by the backend.
// It is owned by the token store and replaced as a whole on every
// successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Claims is the unverified payload decoded from an access token. It is
// derived on demand and never persisted.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// UserProfile is the cached denormalized view of the authenticated
// identity. Optional fields stay empty when the backend omits them.
type UserProfile struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role,omitempty"`
}
