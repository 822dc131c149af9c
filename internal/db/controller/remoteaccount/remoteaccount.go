// Package remoteaccount persists links between local users and remote OAuth accounts.
package remoteaccount

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cernauth/cernauth/internal/db/models"
)

const whereUserAndClient = "user_id = ? AND client_id = ?"

var (
	// ErrNotFound is returned when no remote account exists for the lookup.
	ErrNotFound = errors.New("remote account not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrClientIDEmpty is returned when the client id is empty.
	ErrClientIDEmpty = errors.New("client id cannot be empty")
)

// Get returns the remote account of a user for the given client id.
func Get(db *gorm.DB, userID uint64, clientID string) (*models.RemoteAccount, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if clientID == "" {
		return nil, ErrClientIDEmpty
	}

	var account models.RemoteAccount

	err := db.Where(whereUserAndClient, userID, clientID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query remote account: %w", err)
	}

	return &account, nil
}

// ListByUser returns all remote accounts linked to a user.
func ListByUser(db *gorm.DB, userID uint64) ([]models.RemoteAccount, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var accounts []models.RemoteAccount
	if err := db.Where("user_id = ?", userID).Order("id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list remote accounts: %w", err)
	}

	return accounts, nil
}

// Create creates a remote account for the user and client id.
func Create(db *gorm.DB, userID uint64, clientID string, extra models.ExtraData) (*models.RemoteAccount, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if clientID == "" {
		return nil, ErrClientIDEmpty
	}

	if extra == nil {
		extra = models.ExtraData{}
	}

	account := models.RemoteAccount{
		UserID:    userID,
		ClientID:  clientID,
		ExtraData: extra,
	}

	if err := db.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create remote account: %w", err)
	}

	return &account, nil
}

// UpdateExtraData replaces the persisted snapshot of the account in a transaction.
// On success account.ExtraData holds the committed value.
func UpdateExtraData(db *gorm.DB, account *models.RemoteAccount, extra models.ExtraData) error {
	if db == nil {
		return ErrDBNil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.RemoteAccount{}).
			Where("id = ?", account.ID).
			Update("extra_data", extra).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update extra data: %w", err)
	}

	account.ExtraData = extra

	return nil
}

// Delete removes the account and its token inside a nested transaction.
// Called within an open transaction this becomes a savepoint.
func Delete(db *gorm.DB, account *models.RemoteAccount) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("remote_account_id = ?", account.ID).Delete(&models.RemoteToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete remote token: %w", err)
		}

		if err := tx.Delete(&models.RemoteAccount{}, account.ID).Error; err != nil {
			return fmt.Errorf("failed to delete remote account: %w", err)
		}

		return nil
	})
}

// SaveToken stores (or replaces) the OAuth2 token of the account.
func SaveToken(db *gorm.DB, accountID uint64, token *oauth2.Token) error {
	if db == nil {
		return ErrDBNil
	}

	row := models.RemoteToken{
		RemoteAccountID: accountID,
		TokenType:       token.TokenType,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		Expiry:          token.Expiry,
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "remote_account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_type", "access_token", "refresh_token", "expiry", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save remote token: %w", err)
	}

	return nil
}

// Token returns the stored token of the account.
func Token(db *gorm.DB, accountID uint64) (*models.RemoteToken, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var token models.RemoteToken

	err := db.Where("remote_account_id = ?", accountID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query remote token: %w", err)
	}

	return &token, nil
}
