package models

import (
	"time"

	"golang.org/x/oauth2"
)

// RemoteToken stores the OAuth2 token obtained for a remote account.
type RemoteToken struct {
	// RemoteAccountID is the owning remote account.
	RemoteAccountID uint64 `gorm:"primaryKey"`
	// TokenType is the token type, usually "Bearer".
	TokenType string `gorm:"size:40"`
	// AccessToken is the OAuth2 access token.
	AccessToken string `gorm:"type:text;not null" json:"-"`
	// RefreshToken is the OAuth2 refresh token, if the provider issued one.
	RefreshToken string `gorm:"type:text" json:"-"`
	// Expiry is when the access token expires, zero if it doesn't.
	Expiry time.Time
	// RemoteAccount is the associated remote account.
	RemoteAccount RemoteAccount `gorm:"foreignKey:RemoteAccountID;constraint:OnDelete:CASCADE" json:"-"`
	// UpdatedAt is the timestamp of the last token update (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the RemoteToken model.
func (RemoteToken) TableName() string {
	return "oauthclient_remotetoken"
}

// OAuth2 converts the stored token into an oauth2.Token.
func (t *RemoteToken) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}
