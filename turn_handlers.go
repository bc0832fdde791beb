package main

import (
	"net/http"
	"regexp"
	"time"

	"educenter/models"

	"github.com/gin-gonic/gin"
)

var turnNameRE = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// validTimeOfDay accepts the "HH:MM:SS" strings the frontend sends for
// shift boundaries.
func validTimeOfDay(s string) bool {
	_, err := time.Parse("15:04:05", s)
	return err == nil
}

type turnResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toTurnResponse(t models.Turn) turnResponse {
	return turnResponse{
		ID:        t.ID,
		Name:      t.Name,
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func listTurnsHandler(c *gin.Context) {
	f := parseListFilter(c)
	q := db.Model(&models.Turn{})
	if f.Search != "" {
		q = q.Where("name ILIKE ?", "%"+f.Search+"%")
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var turns []models.Turn
	if err := q.Order("id asc").Offset(f.Offset()).Limit(f.Limit).Find(&turns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, toTurnResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{
		"turns":      out,
		"total":      total,
		"page":       f.Page,
		"totalPages": totalPages(total, f.Limit),
	})
}

func getTurnHandler(c *gin.Context) {
	var turn models.Turn
	if err := db.First(&turn, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "turn not found"})
		return
	}
	c.JSON(http.StatusOK, toTurnResponse(turn))
}

func createTurnHandler(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required,max=100"`
		StartTime string `json:"startTime" binding:"required"`
		EndTime   string `json:"endTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !turnNameRE.MatchString(req.Name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "turn name may only contain letters, numbers and underscores"})
		return
	}
	if !validTimeOfDay(req.StartTime) || !validTimeOfDay(req.EndTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end time must be HH:MM:SS"})
		return
	}
	var existing models.Turn
	if err := db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "turn name already exists"})
		return
	}
	turn := models.Turn{Name: req.Name, StartTime: req.StartTime, EndTime: req.EndTime, IsActive: true}
	if err := db.Create(&turn).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "turn already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, toTurnResponse(turn))
}

func updateTurnHandler(c *gin.Context) {
	var req struct {
		Name      *string `json:"name"`
		StartTime *string `json:"startTime"`
		EndTime   *string `json:"endTime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var turn models.Turn
	if err := db.First(&turn, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "turn not found"})
		return
	}
	if req.Name != nil && *req.Name != turn.Name {
		if !turnNameRE.MatchString(*req.Name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "turn name may only contain letters, numbers and underscores"})
			return
		}
		var existing models.Turn
		if err := db.Where("name = ? AND id <> ?", *req.Name, turn.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "turn name already exists"})
			return
		}
		turn.Name = *req.Name
	}
	if req.StartTime != nil {
		if !validTimeOfDay(*req.StartTime) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start time must be HH:MM:SS"})
			return
		}
		turn.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if !validTimeOfDay(*req.EndTime) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end time must be HH:MM:SS"})
			return
		}
		turn.EndTime = *req.EndTime
	}
	if err := db.Save(&turn).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "turn already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, toTurnResponse(turn))
}

func toggleTurnStatusHandler(c *gin.Context) {
	var turn models.Turn
	if err := db.First(&turn, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "turn not found"})
		return
	}
	turn.IsActive = !turn.IsActive
	if err := db.Save(&turn).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, toTurnResponse(turn))
}

func deleteTurnHandler(c *gin.Context) {
	var turn models.Turn
	if err := db.First(&turn, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "turn not found"})
		return
	}
	if err := db.Delete(&turn).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "turn deleted successfully"})
}
