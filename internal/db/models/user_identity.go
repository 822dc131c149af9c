package models

import "time"

// UserIdentity links an external identifier of an authentication method to a local user.
// ID and Method together form the primary key, so an external id belongs to one user only.
type UserIdentity struct {
	// ID is the external identifier (e.g. the CERN person id).
	ID string `gorm:"primaryKey;size:255"`
	// Method is the external authentication method (e.g. "cern").
	Method string `gorm:"primaryKey;size:50"`
	// UserID is the linked local user.
	UserID uint64 `gorm:"not null;index"`
	// User is the associated local user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	// CreatedAt is the timestamp when the link was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the UserIdentity model.
func (UserIdentity) TableName() string {
	return "oauthclient_useridentity"
}
