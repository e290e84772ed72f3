// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the admin user (admin@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"storehub/backend/internal/config"
	"storehub/backend/internal/db"
	"storehub/backend/internal/security"
	storedomain "storehub/backend/internal/store/domain"
	storerepo "storehub/backend/internal/store/repository"
	userdomain "storehub/backend/internal/user/domain"
	userrepo "storehub/backend/internal/user/repository"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	users := userrepo.NewPostgresRepository(pool)

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(adminPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	admin := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        adminEmail,
		FirstName:    "Admin",
		LastName:     "User",
		PasswordHash: passwordHash,
		Role:         userdomain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("create admin user: %v", err)
	}

	stores := storerepo.NewPostgresRepository(pool)
	if err := stores.Create(ctx, &storedomain.Store{
		ID:        uuid.New().String(),
		Name:      "Downtown",
		Address:   "1 Main Street",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create sample store: %v", err)
	}

	log.Println("Seed complete: admin@example.com / password123")
}
