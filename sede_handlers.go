package main

import (
	"net/http"
	"time"

	"educenter/models"

	"github.com/gin-gonic/gin"
)

type sedeResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSedeResponse(s models.Sede) sedeResponse {
	return sedeResponse{
		ID:        s.ID,
		Name:      s.Name,
		Code:      s.Code,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func listSedesHandler(c *gin.Context) {
	f := parseListFilter(c)
	q := db.Model(&models.Sede{})
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
	var sedes []models.Sede
	if err := q.Order("created_at asc").Offset(f.Offset()).Limit(f.Limit).Find(&sedes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]sedeResponse, 0, len(sedes))
	for _, s := range sedes {
		out = append(out, toSedeResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{
		"sedes":      out,
		"total":      total,
		"page":       f.Page,
		"totalPages": totalPages(total, f.Limit),
	})
}

func getSedeHandler(c *gin.Context) {
	var sede models.Sede
	if err := db.First(&sede, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sede not found"})
		return
	}
	c.JSON(http.StatusOK, toSedeResponse(sede))
}

func createSedeHandler(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=100"`
		Code string `json:"code" binding:"required,max=20"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !resourceNameRE.MatchString(req.Name) || !resourceNameRE.MatchString(req.Code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sede name and code may only contain letters, numbers, underscores and hyphens"})
		return
	}
	var existing models.Sede
	if err := db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "sede name already exists"})
		return
	}
	if err := db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "sede code already exists"})
		return
	}
	sede := models.Sede{Name: req.Name, Code: req.Code, IsActive: true}
	if err := db.Create(&sede).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "sede already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, toSedeResponse(sede))
}

func updateSedeHandler(c *gin.Context) {
	var req struct {
		Name *string `json:"name"`
		Code *string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var sede models.Sede
	if err := db.First(&sede, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sede not found"})
		return
	}
	if req.Name != nil && *req.Name != sede.Name {
		if !resourceNameRE.MatchString(*req.Name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sede name may only contain letters, numbers, underscores and hyphens"})
			return
		}
		var existing models.Sede
		if err := db.Where("name = ? AND id <> ?", *req.Name, sede.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "sede name already exists"})
			return
		}
		sede.Name = *req.Name
	}
	if req.Code != nil && *req.Code != sede.Code {
		if !resourceNameRE.MatchString(*req.Code) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sede code may only contain letters, numbers, underscores and hyphens"})
			return
		}
		var existing models.Sede
		if err := db.Where("code = ? AND id <> ?", *req.Code, sede.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "sede code already exists"})
			return
		}
		sede.Code = *req.Code
	}
	if err := db.Save(&sede).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "sede already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, toSedeResponse(sede))
}

func toggleSedeStatusHandler(c *gin.Context) {
	var sede models.Sede
	if err := db.First(&sede, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sede not found"})
		return
	}
	sede.IsActive = !sede.IsActive
	if err := db.Save(&sede).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, toSedeResponse(sede))
}

func deleteSedeHandler(c *gin.Context) {
	var sede models.Sede
	if err := db.First(&sede, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sede not found"})
		return
	}
	if err := db.Delete(&sede).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sede deleted successfully"})
}
