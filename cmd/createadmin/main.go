// Command createadmin seeds an admin credential so the dashboard is
// reachable on a fresh deployment.
package main

import (
	"context"
	"flag"
	"log"

	"membertrack/internal/auth"
	"membertrack/internal/config"
	"membertrack/internal/member"
	"membertrack/internal/store"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "admin123", "admin password")
	fullName := flag.String("name", "Administrator", "admin display name")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	repo := member.NewPGRepository(db.Client)

	existing, err := repo.AdminByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}
	if existing != nil {
		log.Printf("admin %q already exists", *username)
		return
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash failed: %v", err)
	}

	admin, err := repo.CreateAdmin(ctx, member.Admin{
		Username:     *username,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
	})
	if err != nil {
		log.Fatalf("create failed: %v", err)
	}
	log.Printf("admin %q created (id %s)", admin.Username, admin.ID)
}
