package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	repo "github.com/gst-automator/invoice-tracker/internal/repository"
)

func main() {
	dsn := os.Getenv("STORE_DSN")
	if dsn == "" {
		log.Println("STORE_DSN not set, checking an in-memory store")
		dsn = ":memory:"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repo.Open(ctx, repo.Config{DSN: dsn}, nil)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer repo.Close(db, nil)

	if err := repo.HealthCheck(ctx, db); err != nil {
		log.Fatalf("DB health: FAIL (%v)", err)
	}
	log.Println("DB health: OK")

	var entries, invoices int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM entries`).Scan(&entries); err != nil {
		log.Fatalf("counting entries: %v", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM invoices`).Scan(&invoices); err != nil {
		log.Fatalf("counting invoices: %v", err)
	}
	log.Printf("entries: %d, invoices: %d", entries, invoices)
}
