package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvString reads a string environment variable, reporting whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s=%q: %w", key, value, err)
	}
	return parsed, true, nil
}

// ApplyEnv overlays environment variables that carry credentials and
// endpoints, so secrets stay out of flags and config files.
func (c *Config) ApplyEnv() {
	if v, ok := EnvString("SMTP_SERVER"); ok {
		c.SMTP.Host = v
	}
	if v, ok, err := EnvInt("SMTP_PORT"); err == nil && ok {
		c.SMTP.Port = v
	}
	if v, ok := EnvString("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := EnvString("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := EnvString("EMAIL_RECIPIENT"); ok {
		c.SMTP.Recipient = v
	}
	if v, ok := EnvString("STORE_DSN"); ok {
		c.Store.DSN = v
	}
	if v, ok := EnvString("USER_AGENT"); ok {
		c.UserAgent = v
	}
}
