package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"esp.org/internal/besoin"
	"esp.org/internal/besoin/remote"
	"esp.org/internal/session"
)

// Drives create, list, update and delete against a live API with the bearer
// token in ESP_SMOKE_TOKEN.
func main() {
	token := os.Getenv("ESP_SMOKE_TOKEN")
	if token == "" {
		log.Fatal("ESP_SMOKE_TOKEN is required")
	}
	client, err := remote.New(os.Getenv("ESP_API_URL"))
	if err != nil {
		log.Fatalf("api client: %v", err)
	}
	svc := remote.NewService(client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = session.ContextWithSession(ctx, session.New(token, session.User{}))

	rubriques, err := svc.Rubriques(ctx)
	if err != nil {
		log.Fatalf("rubriques: %v", err)
	}
	if len(rubriques) == 0 {
		log.Fatal("no rubrique available")
	}

	draft := besoin.Draft{
		Rubrique:    string(rubriques[0].ID),
		Quantite:    "3",
		Montant:     "10.5",
		Description: fmt.Sprintf("smoke test %d", time.Now().Unix()),
	}
	if fe := draft.Validate(); !fe.OK() {
		log.Fatalf("smoke draft invalid: %v", fe)
	}
	if _, err := svc.Create(ctx, draft.Payload()); err != nil {
		log.Fatalf("create: %v", err)
	}

	mine, err := svc.ListMine(ctx)
	if err != nil {
		log.Fatalf("list mine: %v", err)
	}
	var created *besoin.Besoin
	for i := range mine {
		if mine[i].Description == draft.Description {
			created = &mine[i]
		}
	}
	if created == nil {
		log.Fatal("created request not listed")
	}
	if created.Status != besoin.StatusPending {
		log.Fatalf("new request has status %q, want %q", created.Status, besoin.StatusPending)
	}
	if got := besoin.FormatTotal(created.Total.Float()); got != "31.50" {
		log.Fatalf("unexpected total %s", got)
	}

	draft.Quantite = "4"
	if _, err := svc.Update(ctx, created.ID, draft.Payload()); err != nil {
		log.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		log.Fatalf("delete: %v", err)
	}

	mine, err = svc.ListMine(ctx)
	if err != nil && !errors.Is(err, besoin.ErrNotFound) {
		log.Fatalf("list mine after delete: %v", err)
	}
	for _, b := range mine {
		if b.ID == created.ID {
			log.Fatalf("request %d still listed after delete", b.ID)
		}
	}

	fmt.Printf("✅ besoins smoke test passed: id=%d\n", created.ID)
}
