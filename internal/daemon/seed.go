package daemon

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/auth"
	"github.com/cernauth/cernauth/internal/config"
	"github.com/cernauth/cernauth/internal/db/models"
)

// seed creates the configured local administrator if the user table is empty.
func seed(cfg *config.Config, db *gorm.DB) error {
	admin := cfg.Auth.Admin
	if admin.Username == "" || admin.Password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to count users")
	}

	if count > 0 {
		return nil
	}

	user, err := auth.NewLocalProvider(db).CreateUser(admin.Username, admin.Email, admin.Password, "", "")
	if err != nil {
		return errors.Wrap(err, "failed to seed admin user")
	}

	log.Info().Uint64("user_id", user.ID).Str("username", user.Username).Msg("seeded local admin")

	return nil
}
