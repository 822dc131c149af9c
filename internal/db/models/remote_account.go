package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Well known ExtraData keys.
const (
	ExtraExternalID = "external_id"
	ExtraGroups     = "groups"
	ExtraUpdated    = "updated"
)

// ErrExtraDataType is returned when the extra_data column holds an unsupported type.
var ErrExtraDataType = errors.New("unsupported extra_data column type")

// ExtraData is the snapshot persisted with a linked account.
// It always holds external_id, groups and updated plus provider specific fields.
type ExtraData map[string]any

// Value implements driver.Valuer.
func (e ExtraData) Value() (driver.Value, error) {
	if e == nil {
		return "{}", nil
	}

	out, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra_data: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (e *ExtraData) Scan(src any) error {
	var raw []byte

	switch v := src.(type) {
	case nil:
		*e = ExtraData{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%w: %T", ErrExtraDataType, src)
	}

	out := ExtraData{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("failed to decode extra_data: %w", err)
		}
	}

	*e = out

	return nil
}

// ExternalID returns the immutable external identifier, if set.
func (e ExtraData) ExternalID() string {
	s, _ := e[ExtraExternalID].(string)
	return s
}

// Groups returns the cached, already filtered group list.
func (e ExtraData) Groups() []string {
	switch v := e[ExtraGroups].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// Updated returns the timestamp of the last refresh as stored.
func (e ExtraData) Updated() string {
	s, _ := e[ExtraUpdated].(string)
	return s
}

// Merge returns a copy of e with the given fields set.
func (e ExtraData) Merge(fields map[string]any) ExtraData {
	out := make(ExtraData, len(e)+len(fields))
	for k, v := range e {
		out[k] = v
	}

	for k, v := range fields {
		out[k] = v
	}

	return out
}

// RemoteAccount links a local user to an account of a remote OAuth application.
// One user has at most one remote account per client id.
type RemoteAccount struct {
	// ID is the unique identifier for the remote account.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the local user owning the link.
	UserID uint64 `gorm:"not null;uniqueIndex:idx_remote_account_user_client"`
	// ClientID is the OAuth client id (consumer key) of the remote application.
	ClientID string `gorm:"size:255;not null;uniqueIndex:idx_remote_account_user_client"`
	// ExtraData is the persisted provider snapshot (JSON encoded).
	ExtraData ExtraData `gorm:"type:text"`
	// User is the associated local user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	// CreatedAt is the timestamp when the link was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the link was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the RemoteAccount model.
func (RemoteAccount) TableName() string {
	return "oauthclient_remoteaccount"
}
