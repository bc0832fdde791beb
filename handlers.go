package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	auth.POST("/login", loginHandler)
	auth.POST("/refresh", refreshHandler)
	auth.POST("/logout", logoutHandler)
	auth.GET("/profile", jwtAuthMiddleware(), profileHandler)

	api := r.Group("")
	api.Use(jwtAuthMiddleware())

	staff := requireRoles("admin", "secretary")
	adminOnly := requireRoles("admin")

	users := api.Group("/users")
	users.GET("", staff, listUsersHandler)
	users.GET("/roles", staff, listRolesHandler)
	users.GET("/:id", staff, getUserHandler)
	users.POST("", adminOnly, createUserHandler)
	users.PUT("/:id", adminOnly, updateUserHandler)
	users.PUT("/:id/password", updatePasswordHandler) // self or admin, checked inside
	users.PATCH("/:id/toggle-status", adminOnly, toggleUserStatusHandler)
	users.DELETE("/:id", adminOnly, deleteUserHandler)

	processes := api.Group("/processes", staff)
	processes.GET("", listProcessesHandler)
	processes.GET("/:id", getProcessHandler)
	processes.POST("", createProcessHandler)
	processes.PUT("/:id", updateProcessHandler)
	processes.PATCH("/:id/toggle-status", toggleProcessStatusHandler)
	processes.DELETE("/:id", deleteProcessHandler)

	sedes := api.Group("/sedes", staff)
	sedes.GET("", listSedesHandler)
	sedes.GET("/:id", getSedeHandler)
	sedes.POST("", createSedeHandler)
	sedes.PUT("/:id", updateSedeHandler)
	sedes.PATCH("/:id/toggle-status", toggleSedeStatusHandler)
	sedes.DELETE("/:id", deleteSedeHandler)

	turns := api.Group("/turns", staff)
	turns.GET("", listTurnsHandler)
	turns.GET("/:id", getTurnHandler)
	turns.POST("", createTurnHandler)
	turns.PUT("/:id", updateTurnHandler)
	turns.PATCH("/:id/toggle-status", toggleTurnStatusHandler)
	turns.DELETE("/:id", deleteTurnHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		c.Set("userID", uint(sub))
		c.Set("email", email)
		c.Set("role", role)
		c.Next()
	}
}

// requireRoles allows the request through only when the access token's role
// claim matches one of names.
func requireRoles(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, name := range names {
			if role == name {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		c.Abort()
	}
}

// currentUserID returns the account id set by jwtAuthMiddleware.
func currentUserID(c *gin.Context) uint {
	v, _ := c.Get("userID")
	id, _ := v.(uint)
	return id
}

type userSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func authResponse(t sessionTokens) gin.H {
	return gin.H{
		"access_token":  t.AccessToken,
		"refresh_token": t.RefreshToken,
		"user": userSummary{
			ID:       t.User.ID,
			Username: t.User.Username,
			Email:    t.User.Email,
			Role:     t.User.Role.Name,
		},
	}
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tokens, err := LoginUser(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, authResponse(tokens))
}

func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tokens, err := RefreshSession(req.RefreshToken)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, authResponse(tokens))
}

func logoutHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Best effort: unknown tokens succeed too.
	if err := LogoutSession(req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func profileHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"userId": currentUserID(c),
		"email":  c.GetString("email"),
		"role":   c.GetString("role"),
	})
}

// isUniqueConstraintError reports whether err came from a violated unique
// index, for races that slip past the pre-checks.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
