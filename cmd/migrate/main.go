package main

import (
	"github.com/sirupsen/logrus" // Logging library

	"wallet_ledger/internal/config" // Custom import path (Config)
	"wallet_ledger/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		logrus.Fatal(err)
	}
}
