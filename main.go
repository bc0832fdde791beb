package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

	// Access tokens are minutes-scale on purpose; an old settings file carried
	// a 15-day lifetime next to this one and that value was a bug.
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

func loadConfig() {
	// Auto-load ./.env if present before reading vars. Existing env wins.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)
	accessTokenTTL = durationEnv("ACCESS_TOKEN_TTL", accessTokenTTL)
	refreshTokenTTL = durationEnv("REFRESH_TOKEN_TTL", refreshTokenTTL)
}

// durationEnv reads a Go duration string (e.g. "15m", "168h") from the
// environment, falling back to def when unset or unparseable.
func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("warning: ignoring invalid %s=%q", key, v)
		return def
	}
	return d
}

func main() {
	loadConfig()

	// Support a lightweight migrate command: `./educenter_app migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	r := gin.Default()
	r.Use(corsMiddleware())

	setupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}

// corsMiddleware allows the SPA origin(s) listed in ALLOWED_ORIGINS
// (comma-separated) to call the API with credentials.
func corsMiddleware() gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = true
		}
	}
	if len(allowed) == 0 {
		allowed["http://localhost:5173"] = true // vite dev server
	}
	return cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return allowed[origin] },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
