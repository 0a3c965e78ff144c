package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"thesis-supervision-api/services"
)

// ReviewSubmission handles a supervisor's decision on a pending draft.
func ReviewSubmission(c *gin.Context) {
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	var in services.ReviewDraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := services.Supervision().Review(c.Request.Context(), submissionID, userID, in)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Review recorded",
		"submission": submission,
	})
}

// GetSupervisorSubmissions lists submissions across every thesis the
// calling lecturer supervises. ?only_pending=true narrows to drafts still
// waiting for a decision.
func GetSupervisorSubmissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	onlyPending := strings.EqualFold(c.Query("only_pending"), "true")

	items, err := services.Query().ListForSupervisor(userID, services.SupervisorListOptions{
		OnlyPending: onlyPending,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": items,
		"total":       len(items),
	})
}
