package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"thesis-supervision-api/services"
)

// currentUserID pulls the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

func currentRoleID(c *gin.Context) (int, bool) {
	v, ok := c.Get("roleID")
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// respondWorkflowError maps the service error taxonomy to HTTP. Conflict
// and state errors both come back as 409 with distinct codes so the
// frontend can show "refresh and retry" instead of a hard failure.
func respondWorkflowError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	payload := gin.H{"error": err.Error(), "code": kind.String()}

	switch kind {
	case services.KindValidation:
		c.JSON(http.StatusBadRequest, payload)
	case services.KindAuthorization:
		c.JSON(http.StatusForbidden, payload)
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, payload)
	case services.KindConflict, services.KindState:
		c.JSON(http.StatusConflict, payload)
	case services.KindStorage:
		c.JSON(http.StatusBadGateway, payload)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
