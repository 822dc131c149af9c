package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrInvalidURL error if config webserver.URL is not an absolute URL.
	ErrInvalidURL = errors.New("toml config webserver.url must be an absolute url")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrCERNClientIDEmpty error if config CERN.ClientID is empty.
	ErrCERNClientIDEmpty = errors.New("toml config CERN.ClientID can not be empty")

	// ErrUnknownGormEngine error if config DB.GormEngine is not supported.
	ErrUnknownGormEngine = errors.New("toml config DB.GormEngine must be one of mysql, postgres, sqlite")
)
