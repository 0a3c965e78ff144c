package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"thesis-supervision-api/config"
	"thesis-supervision-api/models"
)

// CreateThesis registers a student's thesis record. Admin only. A student
// has exactly one active thesis; a duplicate is rejected.
func CreateThesis(c *gin.Context) {
	var req struct {
		StudentID int    `json:"student_id" binding:"required"`
		Title     string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var student models.User
	if err := config.DB.Where("user_id = ? AND role_id = ? AND delete_at IS NULL",
		req.StudentID, models.RoleStudent).First(&student).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student not found"})
		return
	}

	var existing models.Thesis
	err := config.DB.Where("student_id = ? AND delete_at IS NULL", req.StudentID).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Student already has an active thesis"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing thesis"})
		return
	}

	now := time.Now()
	thesis := models.Thesis{
		StudentID:      req.StudentID,
		Title:          strings.TrimSpace(req.Title),
		CurrentChapter: models.FirstChapter,
		CreateAt:       &now,
		UpdateAt:       &now,
	}
	if err := config.DB.Create(&thesis).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create thesis"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"thesis":  thesis,
	})
}

// AssignSupervisor attaches a lecturer to a thesis. A thesis carries at
// most two supervisors (main and co).
func AssignSupervisor(c *gin.Context) {
	thesisID, err := strconv.Atoi(c.Param("id"))
	if err != nil || thesisID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thesis ID"})
		return
	}

	var req struct {
		SupervisorID   int    `json:"supervisor_id" binding:"required"`
		SupervisorRole string `json:"supervisor_role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.SupervisorRole))
	if role == "" {
		role = models.SupervisorRoleMain
	}
	if role != models.SupervisorRoleMain && role != models.SupervisorRoleCo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Supervisor role must be 'main' or 'co'"})
		return
	}

	var thesis models.Thesis
	if err := config.DB.Preload("Supervisors").
		Where("thesis_id = ? AND delete_at IS NULL", thesisID).
		First(&thesis).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thesis not found"})
		return
	}

	var lecturer models.User
	if err := config.DB.Where("user_id = ? AND role_id = ? AND delete_at IS NULL",
		req.SupervisorID, models.RoleLecturer).First(&lecturer).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lecturer not found"})
		return
	}

	if thesis.IsSupervisedBy(req.SupervisorID) {
		c.JSON(http.StatusConflict, gin.H{"error": "Lecturer is already assigned to this thesis"})
		return
	}
	if len(thesis.Supervisors) >= models.MaxSupervisorsPerThesis {
		c.JSON(http.StatusConflict, gin.H{"error": "Thesis already has the maximum number of supervisors"})
		return
	}

	now := time.Now()
	assignment := models.ThesisSupervisor{
		ThesisID:       thesisID,
		SupervisorID:   req.SupervisorID,
		SupervisorRole: role,
		CreateAt:       &now,
	}
	if err := config.DB.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign supervisor"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"assignment": assignment,
	})
}

// GetTheses lists theses with students and supervisors. Admin only.
func GetTheses(c *gin.Context) {
	var theses []models.Thesis
	if err := config.DB.Preload("Student", func(db *gorm.DB) *gorm.DB {
		return db.Select("user_id", "name", "email", "student_no")
	}).Preload("Supervisors.Supervisor", func(db *gorm.DB) *gorm.DB {
		return db.Select("user_id", "name", "email")
	}).Where("delete_at IS NULL").
		Order("thesis_id DESC").
		Find(&theses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch theses"})
		return
	}

	type thesisView struct {
		models.Thesis
		Progress string `json:"progress"`
	}
	views := make([]thesisView, 0, len(theses))
	for _, t := range theses {
		views = append(views, thesisView{Thesis: t, Progress: t.ProgressLabel()})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"theses":  views,
		"total":   len(views),
	})
}

// GetMyThesis returns the calling student's thesis with progress label.
func GetMyThesis(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	var thesis models.Thesis
	if err := config.DB.Preload("Supervisors.Supervisor", func(db *gorm.DB) *gorm.DB {
		return db.Select("user_id", "name", "email")
	}).Where("student_id = ? AND delete_at IS NULL", userID).
		First(&thesis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active thesis"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load thesis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"thesis":   thesis,
		"progress": thesis.ProgressLabel(),
	})
}
