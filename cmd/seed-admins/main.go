// seed-admins inserts or updates an admin directory entry. Meant for local
// setup and for bootstrapping the first portal admin in a fresh deployment.
//
//	go run ./cmd/seed-admins -email coordinator@vishnu.edu.in -name "Event Coordinator" -role superadmin
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	var (
		email = flag.String("email", "", "admin email (required, @vishnu.edu.in)")
		name  = flag.String("name", "", "admin display name (required)")
		role  = flag.String("role", "admin", "admin role")
	)
	flag.Parse()

	if *email == "" || *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DATABASE_HOST", "localhost"),
		envOr("DATABASE_PORT", "5432"),
		envOr("DATABASE_USER", "postgres"),
		os.Getenv("DATABASE_PASSWORD"),
		envOr("DATABASE_DBNAME", "eventreg_db"),
		envOr("DATABASE_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal(err)
	}

	_, err = db.Exec(`
		INSERT INTO admins (email, name, role, active)
		VALUES (LOWER($1), $2, $3, TRUE)
		ON CONFLICT (email)
		DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, active = TRUE
	`, *email, *name, *role)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("Admin %s (%s) seeded", *email, *role)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
