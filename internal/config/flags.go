package config

import (
	"flag"
	"io"
)

// parseFlags overlays command-line flags:
//
//	-addr string   listen address (e.g. ":8080")
//	-api string    remote API base URL
//	-login string  login application URL
//	-demo          serve from an in-memory store instead of the remote API
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("esp-web", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "remote API base URL")
	fs.StringVar(&cfg.LoginURL, "login", cfg.LoginURL, "login application URL")
	fs.BoolVar(&cfg.Demo, "demo", cfg.Demo, "use the in-memory store")

	return fs.Parse(args)
}
