package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"thesis-supervision-api/config"
	"thesis-supervision-api/models"
	"thesis-supervision-api/services"
	"thesis-supervision-api/utils"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

// UploadFile streams a draft or feedback document into the object store
// and records its metadata. The returned file_id is the opaque reference
// submissions carry.
func UploadFile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if !utils.IsAllowedDocumentMime(mimeType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer src.Close()

	fileRef, err := services.Store().Put(c.Request.Context(), src, file.Size, mimeType)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	fileUpload := models.FileUpload{
		FileID:       fileRef,
		OriginalName: file.Filename,
		FileSize:     file.Size,
		MimeType:     mimeType,
		UploadedBy:   userID,
		UploadedAt:   time.Now(),
	}

	if err := config.DB.Create(&fileUpload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file info"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "File uploaded successfully",
		"file":    fileUpload,
		"size_mb": fileUpload.GetFileSizeInMB(),
	})
}

// DownloadFile streams a stored document back to the caller.
func DownloadFile(c *gin.Context) {
	fileID := c.Param("file_id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file ID"})
		return
	}

	var fileUpload models.FileUpload
	if err := config.DB.Where("file_id = ? AND delete_at IS NULL", fileID).
		First(&fileUpload).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	reader, size, contentType, err := services.Store().Get(c.Request.Context(), fileID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	defer reader.Close()

	if contentType == "" {
		contentType = fileUpload.MimeType
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileUpload.OriginalName))
	c.DataFromReader(http.StatusOK, size, contentType, reader, nil)
}
