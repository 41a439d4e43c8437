package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Local copies of the model shapes so this script stays runnable standalone

type OAuthClient struct {
	ID         string `gorm:"primaryKey"`
	Secret     string `gorm:"not null"`
	Name       string `gorm:"not null"`
	Domain     string
	UserID     uint
	Scopes     string `gorm:"not null"`
	GrantTypes string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string
	FirstName string
	LastName  string
	Role      string `gorm:"default:'customer'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func main() {
	dbPath := flag.String("db", "pizzamaster.sqlite", "SQLite database path")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	clientID := "back-office-dev"
	clientSecret := "dev-secret-123"

	var existing OAuthClient
	if err := db.Where("id = ?", clientID).First(&existing).Error; err == nil {
		fmt.Printf("Client %s already exists\n", clientID)
		return
	}

	// The client needs an owning admin account; create one if missing
	var admin User
	if err := db.Where("role = ?", "admin").First(&admin).Error; err != nil {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("admin-dev-123"), bcrypt.DefaultCost)
		admin = User{
			Email:     "admin@pizzamaster.dev",
			Password:  string(hashed),
			FirstName: "Dev",
			LastName:  "Admin",
			Role:      "admin",
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatal("Failed to create dev admin:", err)
		}
		fmt.Printf("Created dev admin %s (password admin-dev-123)\n", admin.Email)
	}

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash client secret:", err)
	}

	client := OAuthClient{
		ID:         clientID,
		Secret:     string(hashedSecret),
		Name:       "Back Office Dev Client",
		Domain:     "http://localhost:8080",
		UserID:     admin.ID,
		Scopes:     "catalog:read orders:read orders:write",
		GrantTypes: "client_credentials",
	}
	if err := db.Create(&client).Error; err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Printf("Created OAuth client:\n  client_id: %s\n  client_secret: %s\n  scopes: %s\n",
		clientID, clientSecret, client.Scopes)
}
