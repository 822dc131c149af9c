// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	// EnvConfigJSON overrides file settings with a JSON document.
	EnvConfigJSON = "CERNAUTH_CONFIG_JSON"

	defaultShutDownTime   = 5
	defaultSessionExpiry  = 24 * time.Hour
	defaultSessionCookie  = "session"
	invalidConfigErrorMsg = "invalid config"
)

// fieldErrors maps validation failures to the package's sentinel errors.
var fieldErrors = map[string]error{ //nolint:gochecknoglobals
	"Config.Webserver.Port/required": ErrWebServerPortCanNotBeZero,
	"Config.Webserver.URL/required":  ErrEmptyURL,
	"Config.Webserver.URL/url":       ErrInvalidURL,
	"Config.CERN.ClientID/required":  ErrCERNClientIDEmpty,
	"Config.DB.GormEngine/oneof":     ErrUnknownGormEngine,
}

// ReadConfig reads main.toml from the directory path (default ./etc/) and
// applies the JSON override from EnvConfigJSON.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = "./etc/"
	}

	if _, err := toml.DecodeFile(filepath.Join(path, "main.toml"), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if configJSON := os.Getenv(EnvConfigJSON); configJSON != "" {
		var err error
		if c, err = decodeAndMergeConfig(c, configJSON); err != nil {
			return c, err
		}
	}

	if err := validate(&c); err != nil {
		return c, err
	}

	return c, nil
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) { //nolint:gocritic
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks c and fills defaults.
func validate(c *Config) error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if sentinel, ok := fieldErrors[fe.StructNamespace()+"/"+fe.Tag()]; ok {
					return errors.Wrap(sentinel, invalidConfigErrorMsg)
				}
			}
		}

		return errors.Wrap(err, invalidConfigErrorMsg)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime <= 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Webserver.Session.CookieName == "" {
		c.Webserver.Session.CookieName = defaultSessionCookie
	}

	if c.DB.GormEngine == "" {
		c.DB.GormEngine = EngineMySQL
	}

	return nil
}
