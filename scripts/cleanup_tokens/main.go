package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Reaps refresh tokens. The API only checks expiry at lookup time, so
// expired-but-unused rows accumulate until this is run.
func main() {
	user := flag.String("user", "", "Username to clean (optional). If empty, cleans all users.")
	dry := flag.Bool("dry-run", true, "Preview actions without modifying the DB")
	yes := flag.Bool("yes", false, "Confirm destructive action when dry-run=false")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN must be set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}

	if *user == "" {
		var expired int64
		if err := db.Raw("SELECT count(*) FROM refresh_tokens WHERE expires_at <= now()").Row().Scan(&expired); err != nil {
			log.Fatalf("count failed: %v", err)
		}
		fmt.Printf("Planned actions:\n - DELETE %d expired rows FROM refresh_tokens\n", expired)
		if *dry {
			fmt.Println("dry-run: no changes made. Use --dry-run=false --yes to execute.")
			return
		}
		if !*yes {
			fmt.Println("Destructive! Pass --yes to proceed.")
			return
		}
		if err := db.Exec("DELETE FROM refresh_tokens WHERE expires_at <= now()").Error; err != nil {
			log.Fatalf("delete expired tokens failed: %v", err)
		}
		fmt.Println("cleanup done (global)")
		return
	}

	// Per-user cleanup: drop every session of the user, expired or not.
	var userID int64
	if err := db.Raw("SELECT id FROM users WHERE username = ?", *user).Row().Scan(&userID); err != nil {
		log.Fatalf("user lookup failed for %s: %v", *user, err)
	}

	fmt.Printf("Planned actions for user %s (id=%d):\n", *user, userID)
	fmt.Println(" - DELETE FROM refresh_tokens WHERE user_id = $userID (all sessions)")
	if *dry {
		fmt.Println("dry-run: no changes made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive! Pass --yes to proceed.")
		return
	}
	if err := db.Exec(`DELETE FROM refresh_tokens WHERE user_id=?`, userID).Error; err != nil {
		log.Fatalf("delete tokens for user failed: %v", err)
	}
	fmt.Printf("cleanup done for %s\n", *user)
}
