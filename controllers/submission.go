package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"thesis-supervision-api/models"
	"thesis-supervision-api/services"
)

// CreateSubmission handles a student uploading a new draft version.
func CreateSubmission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	var in services.SubmitDraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := services.Supervision().Submit(c.Request.Context(), userID, in)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Draft submitted successfully",
		"submission": submission,
	})
}

// GetMySubmissions lists the calling student's submissions, newest first.
func GetMySubmissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	submissions, err := services.Query().ListForStudent(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// GetSubmission returns one submission. Visible to the owning student, the
// thesis's supervisors, and admins.
func GetSubmission(c *gin.Context) {
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	userID, _ := currentUserID(c)
	roleID, _ := currentRoleID(c)

	submission, err := services.Query().GetSubmission(submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	allowed := roleID == models.RoleAdmin || submission.StudentID == userID
	if !allowed && submission.Thesis != nil {
		allowed = submission.Thesis.IsSupervisedBy(userID)
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view this submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}
