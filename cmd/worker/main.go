package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rollcall/internal/checkin"
	"rollcall/internal/config"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Worker consumes check-in messages and keeps per-event attendance
// tallies warm in Redis for dashboards. Tallies are derived data; the
// checkin_records table stays the source of truth.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:checkins")
	}

	repo := checkin.NewRepository(db.Client)

	msgs, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume failed: %v", err)
	}

	log.Println("worker started")
	for msg := range msgs {
		if msg.Type != "checkin" {
			continue
		}
		eventID := string(msg.Body)
		if eventID == "" {
			continue
		}

		opCtx, opCancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		count, err := repo.CountByEvent(opCtx, eventID)
		if err != nil {
			opCancel()
			log.Printf("count failed for event %s: %v", eventID, err)
			continue
		}
		key := "rollcall:event:" + eventID + ":count"
		if err := redisClient.Client.Set(opCtx, key, count, 24*time.Hour).Err(); err != nil {
			log.Printf("tally update failed for event %s: %v", eventID, err)
		}
		opCancel()
	}

	log.Println("worker exited")
}
