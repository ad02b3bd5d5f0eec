// Command seed_admin creates the initial ADMIN account so a fresh
// deployment has a user that can log in and manage the rest.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/soe-platform/workload-api/pkg/config"
	"github.com/soe-platform/workload-api/pkg/database"
)

func main() {
	var (
		email    string
		fullName string
		password string
		timeout  time.Duration
	)

	flag.StringVar(&email, "email", "", "admin email address")
	flag.StringVar(&fullName, "name", "Administrator", "admin full name")
	flag.StringVar(&password, "password", "", "admin password")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "database timeout")
	flag.Parse()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "both -email and -password are required")
		flag.Usage()
		os.Exit(2)
	}
	if len(password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	const insert = `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'ADMIN', TRUE, $5, $5)
		ON CONFLICT (email) DO NOTHING`

	res, err := db.ExecContext(ctx, insert, uuid.NewString(), email, string(hash), fullName, time.Now().UTC())
	if err != nil {
		log.Fatalf("insert admin user: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		fmt.Printf("user %s already exists, nothing to do\n", email)
		return
	}
	fmt.Printf("admin user %s created\n", email)
}
