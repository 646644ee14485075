package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables read by Load.
const (
	EnvListenAddr    = "ESP_LISTEN_ADDR"
	EnvAPIURL        = "ESP_API_URL"
	EnvLoginURL      = "ESP_LOGIN_URL"
	EnvSessionSecret = "ESP_SESSION_SECRET"
	EnvCookieSecure  = "ESP_COOKIE_SECURE"
	EnvDemo          = "ESP_DEMO"
	EnvRateBurst     = "ESP_RATE_BURST"
	EnvRatePerSec    = "ESP_RATE_PER_SEC"
)

func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvListenAddr, &cfg.ListenAddr)
	str(EnvAPIURL, &cfg.APIURL)
	str(EnvLoginURL, &cfg.LoginURL)
	str(EnvSessionSecret, &cfg.SessionSecret)

	if v, ok := lookup(EnvCookieSecure); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCookieSecure, err)
		}
		cfg.CookieSecure = b
	}
	if v, ok := lookup(EnvDemo); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDemo, err)
		}
		cfg.Demo = b
	}
	if v, ok := lookup(EnvRateBurst); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateBurst, err)
		}
		cfg.RateBurst = n
	}
	if v, ok := lookup(EnvRatePerSec); ok && v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRatePerSec, err)
		}
		cfg.RatePerSec = f
	}
	return nil
}
