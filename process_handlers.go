package main

import (
	"net/http"
	"regexp"
	"time"

	"educenter/models"

	"github.com/gin-gonic/gin"
)

// Registration process names look like "2026-I"; codes are numeric ("20261").
var (
	resourceNameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	processCodeRE  = regexp.MustCompile(`^[0-9]+$`)
)

type processResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProcessResponse(p models.Process) processResponse {
	return processResponse{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func listProcessesHandler(c *gin.Context) {
	f := parseListFilter(c)
	q := db.Model(&models.Process{})
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
	var processes []models.Process
	if err := q.Order("created_at asc").Offset(f.Offset()).Limit(f.Limit).Find(&processes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]processResponse, 0, len(processes))
	for _, p := range processes {
		out = append(out, toProcessResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{
		"processes":  out,
		"total":      total,
		"page":       f.Page,
		"totalPages": totalPages(total, f.Limit),
	})
}

func getProcessHandler(c *gin.Context) {
	var process models.Process
	if err := db.First(&process, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "process not found"})
		return
	}
	c.JSON(http.StatusOK, toProcessResponse(process))
}

func createProcessHandler(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=100"`
		Code string `json:"code" binding:"required,max=20"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !resourceNameRE.MatchString(req.Name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "process name may only contain letters, numbers, underscores and hyphens"})
		return
	}
	if !processCodeRE.MatchString(req.Code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "process code may only contain numbers"})
		return
	}
	var existing models.Process
	if err := db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "process name already exists"})
		return
	}
	if err := db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "process code already exists"})
		return
	}
	process := models.Process{Name: req.Name, Code: req.Code, IsActive: true}
	if err := db.Create(&process).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "process already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, toProcessResponse(process))
}

func updateProcessHandler(c *gin.Context) {
	var req struct {
		Name *string `json:"name"`
		Code *string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var process models.Process
	if err := db.First(&process, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "process not found"})
		return
	}
	if req.Name != nil && *req.Name != process.Name {
		if !resourceNameRE.MatchString(*req.Name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "process name may only contain letters, numbers, underscores and hyphens"})
			return
		}
		var existing models.Process
		if err := db.Where("name = ? AND id <> ?", *req.Name, process.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "process name already exists"})
			return
		}
		process.Name = *req.Name
	}
	if req.Code != nil && *req.Code != process.Code {
		if !processCodeRE.MatchString(*req.Code) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "process code may only contain numbers"})
			return
		}
		var existing models.Process
		if err := db.Where("code = ? AND id <> ?", *req.Code, process.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "process code already exists"})
			return
		}
		process.Code = *req.Code
	}
	if err := db.Save(&process).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "process already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, toProcessResponse(process))
}

func toggleProcessStatusHandler(c *gin.Context) {
	var process models.Process
	if err := db.First(&process, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "process not found"})
		return
	}
	process.IsActive = !process.IsActive
	if err := db.Save(&process).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, toProcessResponse(process))
}

func deleteProcessHandler(c *gin.Context) {
	var process models.Process
	if err := db.First(&process, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "process not found"})
		return
	}
	if err := db.Delete(&process).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "process deleted successfully"})
}
