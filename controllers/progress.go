package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"thesis-supervision-api/config"
	"thesis-supervision-api/models"
	"thesis-supervision-api/services"
)

// GetProgress answers the dashboard badge query: current chapter label
// plus whether the latest draft is still awaiting review.
func GetProgress(c *gin.Context) {
	thesisID, err := strconv.Atoi(c.Param("thesis_id"))
	if err != nil || thesisID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thesis ID"})
		return
	}

	var thesis models.Thesis
	if err := config.DB.Where("thesis_id = ? AND delete_at IS NULL", thesisID).
		First(&thesis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Thesis not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load thesis"})
		return
	}

	label, err := services.Progress().CurrentProgress(thesisID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	pending, err := services.Progress().PendingStatus(thesis.StudentID, thesisID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to derive pending status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"thesis_id":      thesisID,
		"progress":       label,
		"pending_status": pending,
	})
}

// RebuildProgress recomputes a thesis's chapter from the submissions
// ledger, repairing any drift in the cached column. Admin only.
func RebuildProgress(c *gin.Context) {
	thesisID, err := strconv.Atoi(c.Param("thesis_id"))
	if err != nil || thesisID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thesis ID"})
		return
	}

	chapter, err := services.Progress().RebuildProgress(thesisID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"thesis_id":       thesisID,
		"current_chapter": chapter,
		"progress":        models.ChapterLabel(chapter),
	})
}
