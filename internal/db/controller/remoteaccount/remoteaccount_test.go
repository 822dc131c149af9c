package remoteaccount

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.RemoteAccount{}, &models.RemoteToken{})
	require.NoError(t, err, "failed to migrate test database")

	require.NoError(t, db.Create(&models.User{ID: 1, Username: "jane", Email: "jane@cern.ch", Active: true}).Error)

	return db
}

func TestGetAndCreate(t *testing.T) {
	db := setupTestDB(t)

	_, err := Get(nil, 1, "client")
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Get(db, 1, "")
	require.ErrorIs(t, err, ErrClientIDEmpty)

	_, err = Get(db, 1, "client")
	require.ErrorIs(t, err, ErrNotFound)

	created, err := Create(db, 1, "client", models.ExtraData{models.ExtraExternalID: "123"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := Get(db, 1, "client")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "123", got.ExtraData.ExternalID())

	_, err = Create(db, 1, "client", nil)
	require.Error(t, err, "user/client pair must be unique")

	accounts, err := ListByUser(db, 1)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestUpdateExtraData(t *testing.T) {
	db := setupTestDB(t)

	account, err := Create(db, 1, "client", nil)
	require.NoError(t, err)

	extra := models.ExtraData{
		models.ExtraExternalID: "123",
		models.ExtraGroups:     []string{"it-dep"},
		models.ExtraUpdated:    "2024-01-01T00:00:00Z",
	}
	require.NoError(t, UpdateExtraData(db, account, extra))
	assert.Equal(t, []string{"it-dep"}, account.ExtraData.Groups())

	got, err := Get(db, 1, "client")
	require.NoError(t, err)
	assert.Equal(t, []string{"it-dep"}, got.ExtraData.Groups())
	assert.Equal(t, "2024-01-01T00:00:00Z", got.ExtraData.Updated())
}

func TestTokenAndDelete(t *testing.T) {
	db := setupTestDB(t)

	account, err := Create(db, 1, "client", nil)
	require.NoError(t, err)

	_, err = Token(db, account.ID)
	require.ErrorIs(t, err, ErrNotFound)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, SaveToken(db, account.ID, &oauth2.Token{AccessToken: "a1", TokenType: "Bearer", Expiry: expiry}))
	require.NoError(t, SaveToken(db, account.ID, &oauth2.Token{AccessToken: "a2", RefreshToken: "r2", TokenType: "Bearer"}))

	token, err := Token(db, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "a2", token.OAuth2().AccessToken)
	assert.Equal(t, "r2", token.OAuth2().RefreshToken)

	// nested inside an outer transaction the delete runs on a savepoint
	err = db.Transaction(func(tx *gorm.DB) error {
		return Delete(tx, account)
	})
	require.NoError(t, err)

	_, err = Get(db, 1, "client")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Token(db, account.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
