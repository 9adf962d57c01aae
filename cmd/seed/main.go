package main

import (
	"context"
	"flag"
	"log"
	"time"

	"rollcall/internal/auth"
	"rollcall/internal/checkin"
	"rollcall/internal/config"
	"rollcall/internal/directory"
	"rollcall/internal/store"
	"rollcall/internal/timeform"
)

// Seed provisions demo users and an event so a fresh install can be
// exercised end to end.
func main() {
	start := flag.String("start", "09:00", "event start time")
	end := flag.String("end", "17:00:00", "event end time")
	flag.Parse()

	cfg := config.Load()
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := directory.NewRepository(db.Client)
	seedUsers := []struct {
		id       auth.Identity
		username string
		password string
	}{
		{auth.Identity{UserID: "stu-1", Role: auth.RoleStudent}, "student", "student-pass"},
		{auth.Identity{UserID: "tea-1", Role: auth.RoleTeacher}, "teacher", "teacher-pass"},
		{auth.Identity{UserID: "adm-1", Role: auth.RoleAdmin}, "admin", "admin-pass"},
	}
	for _, u := range seedUsers {
		hash, err := directory.HashPassword(u.password)
		if err != nil {
			log.Fatalf("hash failed for %s: %v", u.username, err)
		}
		if err := users.UpsertUser(ctx, u.id, u.username, hash); err != nil {
			log.Fatalf("upsert user %s failed: %v", u.username, err)
		}
		log.Printf("seeded user %s (%s)", u.username, u.id.Role)
	}

	startTime, err := timeform.Normalize(*start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	endTime, err := timeform.Normalize(*end)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	repo := checkin.NewRepository(db.Client)
	evt := checkin.Event{
		EventID:   "demo-event",
		Date:      time.Now().Format("2006-01-02"),
		StartTime: startTime,
		EndTime:   endTime,
	}
	if err := repo.UpsertEvent(ctx, evt); err != nil {
		log.Fatalf("upsert event failed: %v", err)
	}
	log.Printf("seeded event %s on %s %s-%s", evt.EventID, evt.Date, evt.StartTime, evt.EndTime)
}
