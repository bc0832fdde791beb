package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"educenter/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("usage: go run ./cmd/create_user <username> <email> <password> [role]")
		os.Exit(2)
	}
	username := os.Args[1]
	email := os.Args[2]
	password := os.Args[3]
	roleName := "secretary"
	if len(os.Args) > 4 {
		roleName = os.Args[4]
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		log.Fatalf("role %q not found (run the server or `migrate` first)", roleName)
	}

	// check existing
	var existing models.User
	if err := db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", existing.Username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{
		Username:       username,
		Email:          email,
		HashedPassword: hpw,
		RoleID:         role.ID,
		IsActive:       true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", username, user.ID, roleName)
}
