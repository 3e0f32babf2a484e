package main

import (
	"flag"
	"log"

	"forumwatch/config"
	"forumwatch/internal/db"
)

func main() {
	var (
		down    = flag.Bool("down", false, "roll back the last migration")
		version = flag.Bool("version", false, "print the current migration version")
		path    = flag.String("path", "migrations", "path to the migrations directory")
	)
	flag.Parse()

	cfg := config.Load()
	databaseURL := cfg.DatabaseURL()

	switch {
	case *version:
		v, dirty, err := db.MigrationVersion(databaseURL, *path)
		if err != nil {
			log.Fatalf("migration version: %v", err)
		}
		log.Printf("version=%d dirty=%v", v, dirty)
	case *down:
		if err := db.RollbackMigrations(databaseURL, *path); err != nil {
			log.Fatalf("rollback: %v", err)
		}
		log.Println("rolled back one migration")
	default:
		if err := db.RunMigrations(databaseURL, *path); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("migrations applied")
	}
}
