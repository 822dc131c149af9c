package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cernauth/cernauth/internal/config"
)

func TestMySQL(t *testing.T) {
	got := MySQL(&config.DB{
		User:     "cernauth",
		Password: "secret",
		Host:     "db",
		Port:     3306,
		Name:     "cernauth",
		Extras:   "parseTime=True",
	})

	assert.Equal(t, "cernauth:secret@tcp(db:3306)/cernauth?parseTime=True", got)
}

func TestPostgres(t *testing.T) {
	got := Postgres(&config.DB{
		User:     "cernauth",
		Password: "p@ss",
		Host:     "db",
		Port:     5432,
		Name:     "cernauth",
		Extras:   "sslmode=disable",
	})

	assert.Equal(t, "postgres://cernauth:p%40ss@db:5432/cernauth?sslmode=disable", got)
}
