package main

import (
	"log"
	"os"
	"strings"

	"educenter/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// Ensure the roles master table exists first and seed it so users FK can be applied safely.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	// Now migrate the rest (users will get FK to roles)
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.Process{}); err != nil {
			log.Printf("migration warning (processes): %v", err)
		}
		if err := db.AutoMigrate(&models.Sede{}); err != nil {
			log.Printf("migration warning (sedes): %v", err)
		}
		if err := db.AutoMigrate(&models.Turn{}); err != nil {
			log.Printf("migration warning (turns): %v", err)
		}
	}
	seedDB()
}

// seedRoles ensures the master role rows exist (idempotent).
func seedRoles() {
	roles := []models.Role{
		{Name: "admin", Permissions: "full access"},
		{Name: "secretary", Permissions: "manage enrollment resources"},
		{Name: "teacher", Permissions: ""},
		{Name: "student", Permissions: ""},
	}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		// find admin role id
		var role models.Role
		if err := db.Where("name = ?", "admin").First(&role).Error; err != nil {
			log.Printf("failed to find admin role: %v", err)
			return
		}
		password := os.Getenv("SEED_ADMIN_PASSWORD")
		if password == "" {
			password = "admin123"
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		admin := models.User{
			Username:       "admin",
			Email:          "admin@educenter.local",
			HashedPassword: hashedPassword,
			RoleID:         role.ID,
			IsActive:       true,
		}
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, email=admin@educenter.local")
	}
}
