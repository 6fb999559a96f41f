package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/efootballarena/backend/internal/admin"
	"github.com/efootballarena/backend/internal/config"
	"github.com/efootballarena/backend/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Seed admin account
	phone := os.Getenv("ADMIN_PHONE")
	if phone == "" {
		phone = "256700000000" // Default phone
		log.Printf("Using default admin phone: %s", phone)
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "change-me-in-production" // Default token
		log.Printf("WARNING: Using default admin token. Set ADMIN_TOKEN env var in production!")
	}

	displayName := os.Getenv("ADMIN_NAME")
	if displayName == "" {
		displayName = "Admin"
	}

	if err := admin.CreateAdminAccount(db, phone, displayName, adminToken); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("✓ Admin account created/updated successfully")
	log.Printf("  Phone: %s", phone)
	log.Printf("  Display Name: %s", displayName)
	log.Println("\nYou can now login at /api/v1/admin/login with:")
	log.Printf("  Phone: %s", phone)
	log.Printf("  Token: %s", adminToken)
}
