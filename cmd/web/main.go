package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esp.org/internal/audit"
	"esp.org/internal/besoin"
	"esp.org/internal/besoin/remote"
	"esp.org/internal/config"
	"esp.org/internal/obs"
	"esp.org/internal/session"
	"esp.org/internal/web"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()

	if cfg.SecretGenerated {
		obs.Log(obs.LevelWarn, "session_secret_generated", map[string]any{
			"hint": "set " + config.EnvSessionSecret + " so that sessions survive restarts",
		})
	}

	var (
		svc     besoin.Service
		ready   web.ReadyProbe
		backend = "remote"
	)
	if cfg.Demo {
		svc = besoin.NewInMemory(besoin.DefaultRubriques...)
		backend = "demo"
	} else {
		client, err := remote.New(cfg.APIURL)
		if err != nil {
			log.Fatalf("api client: %v", err)
		}
		svc = remote.NewService(client)
		ready = web.ReadyProbe{URL: client.BaseURL() + "/rubriques"}
	}
	obs.InitBuildInfo(version, commit, backend)

	codec, err := session.NewCodec([]byte(cfg.SessionSecret))
	if err != nil {
		log.Fatalf("session codec: %v", err)
	}
	store := session.NewStore(codec, session.Options{
		LoginURL:       cfg.LoginURL,
		Secure:         cfg.CookieSecure,
		PublicPaths:    web.PublicPaths,
		PublicPrefixes: web.PublicPrefixes,
		OnHandoff: func(ctx context.Context, s session.Session) {
			audit.Record(ctx, audit.EventHandoff, map[string]any{"role": string(s.Role())})
		},
	})

	api, err := web.New(web.Options{
		Service:    svc,
		Sessions:   store,
		Ready:      ready,
		Version:    version,
		RateBurst:  cfg.RateBurst,
		RatePerSec: cfg.RatePerSec,
	})
	if err != nil {
		log.Fatalf("web: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	obs.Log(obs.LevelInfo, "starting", map[string]any{
		"version": version,
		"addr":    srv.Addr,
		"backend": backend,
		"api":     cfg.APIURL,
		"login":   cfg.LoginURL,
	})
	if cfg.Demo {
		obs.Log(obs.LevelInfo, "demo_handoff", map[string]any{
			"url": "/besoins/nouveau?token=demo&user=" + url.QueryEscape(`{"nom":"Demo","prenom":"Chef","role":"chef"}`),
		})
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Log(obs.LevelInfo, "shutting_down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	obs.Log(obs.LevelInfo, "stopped", nil)
}
