// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/cernauth/cernauth/internal/config"
)

// MySQL builds a go-sql-driver/mysql DSN.
func MySQL(db *config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Extras,
	)
}

// Postgres builds a postgres:// connection URI.
func Postgres(db *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     db.Host,
		Path:     "/" + db.Name,
		RawQuery: db.Extras,
	}

	if db.Port > 0 {
		u.Host += ":" + strconv.Itoa(db.Port)
	}

	return u.String()
}
