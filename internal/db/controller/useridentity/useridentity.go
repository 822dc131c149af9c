// Package useridentity persists links between external identifiers and local users.
package useridentity

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/db/models"
)

const whereIDAndMethod = "id = ? AND method = ?"

var (
	// ErrNotFound is returned when no link exists for the external id.
	ErrNotFound = errors.New("user identity not found")
	// ErrAlreadyLinked is returned when the external id is linked to another user.
	ErrAlreadyLinked = errors.New("external id already linked to another user")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrExternalIDEmpty is returned when the external id or method is empty.
	ErrExternalIDEmpty = errors.New("external id and method cannot be empty")
)

// Link creates the external id <-> user link. Linking the same user twice is a no-op.
func Link(db *gorm.DB, userID uint64, externalID, method string) error {
	if db == nil {
		return ErrDBNil
	}

	if externalID == "" || method == "" {
		return ErrExternalIDEmpty
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.UserIdentity

		err := tx.Where(whereIDAndMethod, externalID, method).First(&existing).Error
		switch {
		case err == nil:
			if existing.UserID != userID {
				return ErrAlreadyLinked
			}

			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to query user identity: %w", err)
		}

		if err = tx.Create(&models.UserIdentity{ID: externalID, Method: method, UserID: userID}).Error; err != nil {
			return fmt.Errorf("failed to create user identity: %w", err)
		}

		return nil
	})
}

// Unlink removes the link for the external id. Missing links are ignored.
func Unlink(db *gorm.DB, externalID, method string) error {
	if db == nil {
		return ErrDBNil
	}

	if err := db.Where(whereIDAndMethod, externalID, method).Delete(&models.UserIdentity{}).Error; err != nil {
		return fmt.Errorf("failed to delete user identity: %w", err)
	}

	return nil
}

// FindUser returns the local user linked to the external id.
func FindUser(db *gorm.DB, externalID, method string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var link models.UserIdentity

	err := db.Preload("User").Where(whereIDAndMethod, externalID, method).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user identity: %w", err)
	}

	return &link.User, nil
}
