package routes

import (
	"thesis-supervision-api/controllers"
	"thesis-supervision-api/middleware"
	"thesis-supervision-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Thesis Supervision API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Submissions (the supervision workflow)
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", middleware.RequireRole(models.RoleStudent), controllers.GetMySubmissions)
				submissions.POST("", middleware.RequireRole(models.RoleStudent), controllers.CreateSubmission)
				submissions.GET("/:id", controllers.GetSubmission)
				submissions.POST("/:id/review", middleware.RequireRole(models.RoleLecturer), controllers.ReviewSubmission)
			}

			// Supervisor worklist
			review := protected.Group("/review")
			review.Use(middleware.RequireRole(models.RoleLecturer))
			{
				review.GET("/submissions", controllers.GetSupervisorSubmissions)
			}

			// Progress projection
			progress := protected.Group("/progress")
			{
				progress.GET("/:thesis_id", controllers.GetProgress)
				progress.POST("/:thesis_id/rebuild", middleware.RequireRole(models.RoleAdmin), controllers.RebuildProgress)
			}

			// Documents (object store)
			files := protected.Group("/files")
			{
				files.POST("", controllers.UploadFile)
				files.GET("/:file_id", controllers.DownloadFile)
			}

			// Theses
			protected.GET("/my-thesis", middleware.RequireRole(models.RoleStudent), controllers.GetMyThesis)
			theses := protected.Group("/theses")
			{
				theses.GET("", middleware.RequireRole(models.RoleAdmin), controllers.GetTheses)
				theses.POST("", middleware.RequireRole(models.RoleAdmin), controllers.CreateThesis)
				theses.POST("/:id/supervisors", middleware.RequireRole(models.RoleAdmin), controllers.AssignSupervisor)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.POST("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}
		}
	}
}
