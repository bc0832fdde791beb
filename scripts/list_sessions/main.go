package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type User struct {
	ID       uint
	Username string
}
type RefreshToken struct {
	ID        uint
	UserID    uint
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// Lists the live and expired sessions of one account, for support work.
func main() {
	username := flag.String("username", "", "username")
	flag.Parse()
	if *username == "" {
		log.Fatal("--username required")
	}
	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	var u User
	if err := db.Where("username = ?", *username).First(&u).Error; err != nil {
		log.Fatalf("user: %v", err)
	}
	var tokens []RefreshToken
	if err := db.Where("user_id = ?", u.ID).Order("id desc").Find(&tokens).Error; err != nil {
		log.Fatalf("tokens: %v", err)
	}
	now := time.Now()
	for _, rt := range tokens {
		state := "live"
		if !rt.ExpiresAt.After(now) {
			state = "expired"
		}
		// Print a prefix only; the full token is a credential.
		fmt.Printf("session id=%d token=%s... created=%s expires=%s (%s)\n",
			rt.ID, rt.Token[:8], rt.CreatedAt.Format(time.RFC3339), rt.ExpiresAt.Format(time.RFC3339), state)
	}
	fmt.Printf("%d session(s) for %s (id=%d)\n", len(tokens), u.Username, u.ID)
}
