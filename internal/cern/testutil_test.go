package cern

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
)

// memoryCache is a RoleCache backed by a map.
type memoryCache map[string][]identity.Need

func (c memoryCache) Provides(key string) []identity.Need {
	return c[key]
}

func (c memoryCache) SetProvides(key string, needs []identity.Need) {
	c[key] = needs
}

func (c memoryCache) DeleteProvides(key string) []identity.Need {
	needs := c[key]
	delete(c, key)

	return needs
}

// stubDirectory records lookups and returns a fixed resource.
type stubDirectory struct {
	resource Resource
	lookups  []string
}

func (d *stubDirectory) LookupByEmail(_ context.Context, email string) Resource {
	d.lookups = append(d.lookups, email)

	return d.resource
}

// setupTestDB creates an in-memory SQLite database with one active user.
func setupTestDB(t *testing.T) (*gorm.DB, *models.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.RemoteAccount{}, &models.RemoteToken{}, &models.UserIdentity{})
	require.NoError(t, err, "failed to migrate test database")

	user := &models.User{Username: "jdoe", Email: "jane.doe@cern.ch", Active: true, AuthSource: models.AuthSourceCERN}
	require.NoError(t, db.Create(user).Error)

	return db, user
}
