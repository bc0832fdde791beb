package main

import (
	"net/http"
	"regexp"
	"time"

	"educenter/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

var usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type userResponse struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.Name,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// passwordStrong requires at least 6 chars with an upper, a lower and a digit.
func passwordStrong(s string) bool {
	if len(s) < 6 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

// countActiveAdmins guards the last-admin invariant on deactivation.
func countActiveAdmins() int64 {
	var cnt int64
	db.Model(&models.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ? AND users.is_active = ?", "admin", true).
		Count(&cnt)
	return cnt
}

func countAdmins() int64 {
	var cnt int64
	db.Model(&models.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", "admin").
		Count(&cnt)
	return cnt
}

func listUsersHandler(c *gin.Context) {
	f := parseListFilter(c)
	q := db.Model(&models.User{})
	if f.Search != "" {
		q = q.Where("username ILIKE ?", "%"+f.Search+"%")
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var users []models.User
	if err := q.Preload("Role").Order("created_at desc").Offset(f.Offset()).Limit(f.Limit).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{
		"users":      out,
		"total":      total,
		"page":       f.Page,
		"totalPages": totalPages(total, f.Limit),
	})
}

func listRolesHandler(c *gin.Context) {
	var roles []models.Role
	if err := db.Order("id asc").Find(&roles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	type roleResponse struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Permissions string `json:"permissions,omitempty"`
	}
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResponse{ID: r.ID, Name: r.Name, Permissions: r.Permissions})
	}
	c.JSON(http.StatusOK, out)
}

func getUserHandler(c *gin.Context) {
	var user models.User
	if err := db.Preload("Role").First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func createUserHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email,max=100"`
		Password string `json:"password" binding:"required,min=6"`
		RoleID   uint   `json:"roleId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !usernameRE.MatchString(req.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username may only contain letters, numbers, underscores and hyphens"})
		return
	}
	var existing models.User
	if err := db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already in use"})
		return
	}
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		return
	}
	var role models.Role
	if err := db.First(&role, req.RoleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	user := models.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
		RoleID:         role.ID,
		IsActive:       true,
	}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race after the pre-checks
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	user.Role = role
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func updateUserHandler(c *gin.Context) {
	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email" binding:"omitempty,email"`
		RoleID   *uint   `json:"roleId"`
		IsActive *bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var user models.User
	if err := db.Preload("Role").First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if req.Username != nil && *req.Username != user.Username {
		if !usernameRE.MatchString(*req.Username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username may only contain letters, numbers, underscores and hyphens"})
			return
		}
		var existing models.User
		if err := db.Where("username = ? AND id <> ?", *req.Username, user.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "username already in use"})
			return
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		var existing models.User
		if err := db.Where("email = ? AND id <> ?", *req.Email, user.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		user.Email = *req.Email
	}
	if req.RoleID != nil && *req.RoleID != user.RoleID {
		var role models.Role
		if err := db.First(&role, *req.RoleID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
			return
		}
		user.RoleID = role.ID
		user.Role = role
	}
	deactivated := false
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		if !*req.IsActive && user.Role.Name == "admin" && countActiveAdmins() <= 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate the only administrator"})
			return
		}
		user.IsActive = *req.IsActive
		deactivated = !user.IsActive
	}
	if err := db.Save(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if deactivated {
		// A deactivated account must not be able to keep refreshing.
		if err := LogoutAllSessions(user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func updatePasswordHandler(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var user models.User
	if err := db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	// Only the account owner or an admin may change a password.
	if currentUserID(c) != user.ID && c.GetString("role") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to change this password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
		return
	}
	if !passwordStrong(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters with an uppercase letter, a lowercase letter and a digit"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if err := db.Model(&user).Update("hashed_password", hashed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated successfully"})
}

func toggleUserStatusHandler(c *gin.Context) {
	var user models.User
	if err := db.Preload("Role").First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.IsActive && user.Role.Name == "admin" && countActiveAdmins() <= 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate the only administrator"})
		return
	}
	user.IsActive = !user.IsActive
	if err := db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if !user.IsActive {
		if err := LogoutAllSessions(user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func deleteUserHandler(c *gin.Context) {
	var user models.User
	if err := db.Preload("Role").First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.Role.Name == "admin" && countAdmins() <= 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete the only administrator"})
		return
	}
	if err := LogoutAllSessions(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if err := db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}
