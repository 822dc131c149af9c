package auth

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite in-memory db")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}))

	return db
}

func TestLocalAuthenticate(t *testing.T) {
	db := newTestDB(t)
	lp := NewLocalProvider(db)

	user, err := lp.CreateUser("alice", "alice@example.com", "secret", "Alice", "Doe")
	require.NoError(t, err)
	assert.True(t, user.Active)

	_, err = lp.CreateUser("alice", "other@example.com", "secret", "", "")
	require.ErrorIs(t, err, ErrUserNameOrEmailExists)

	got, err := lp.Authenticate("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = lp.Authenticate("alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidPassword)

	_, err = lp.Authenticate("bob", "secret")
	require.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("active", false).Error)

	_, err = lp.Authenticate("alice", "secret")
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestProvisionUser(t *testing.T) {
	db := newTestDB(t)
	lp := NewLocalProvider(db)

	created, err := lp.ProvisionUser(" Jane.Doe@CERN.ch ", models.AuthSourceCERN)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@cern.ch", created.Email)
	assert.Equal(t, models.AuthSourceCERN, created.AuthSource)

	again, err := lp.ProvisionUser("jane.doe@cern.ch", models.AuthSourceCERN)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	_, err = lp.ProvisionUser("", models.AuthSourceCERN)
	require.ErrorIs(t, err, ErrUserNotFound)

	// password-less accounts never authenticate locally
	_, err = lp.Authenticate("jane.doe@cern.ch", "")
	require.ErrorIs(t, err, ErrInvalidPassword)

	byID, err := lp.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	_, err = lp.GetUserByID(999)
	require.ErrorIs(t, err, ErrUserNotFound)
}
