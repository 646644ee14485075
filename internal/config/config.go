// Package config builds the runtime settings of the web front-end from
// defaults, then the environment, then command-line flags.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"esp.org/internal/besoin/remote"
)

// DefaultLoginURL is the login application that hands sessions over.
const DefaultLoginURL = "http://localhost:5173/"

// Config holds runtime settings.
//
// SessionSecret signs the session cookie. When neither the environment nor
// a flag provides one, a random secret is generated and SecretGenerated is
// set: sessions then do not survive a restart.
type Config struct {
	ListenAddr      string
	APIURL          string
	LoginURL        string
	SessionSecret   string
	SecretGenerated bool
	CookieSecure    bool
	Demo            bool
	RateBurst       int
	RatePerSec      float64
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.APIURL = remote.DefaultBaseURL
	c.LoginURL = DefaultLoginURL
	c.CookieSecure = false
	c.Demo = false
	c.RateBurst = 40
	c.RatePerSec = 20
}

// Load applies defaults, the process environment and args (without the
// program name), in that order.
func Load(args []string) (*Config, error) {
	return load(args, os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SecretGenerated = true
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if !c.Demo && c.APIURL == "" {
		errs = append(errs, errors.New("api url is empty"))
	}
	if c.LoginURL == "" {
		errs = append(errs, errors.New("login url is empty"))
	}
	if c.RateBurst < 0 || c.RatePerSec < 0 {
		errs = append(errs, errors.New("rate limit values must not be negative"))
	}
	return errors.Join(errs...)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
