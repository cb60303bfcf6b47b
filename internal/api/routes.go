package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/rcmempresa/fieldforce-link-sub000/docs" // swagger docs
	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/config"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/websocket"
)

// Controllers bundles the route handlers.
type Controllers struct {
	WorkOrders    *WorkOrderController
	Sessions      *SessionController
	Attachments   *AttachmentController
	Notifications *NotificationController
	Auth          *AuthController // nil unless dev tokens are enabled
}

// SetupRoutes wires the router.
func SetupRoutes(cfg *config.Config, db *gorm.DB, hub *websocket.Hub, validator *auth.TokenValidator, ctl Controllers) *gin.Engine {
	router := gin.Default()

	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(ErrorHandlerMiddleware())

	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus endpoint
	router.GET("/metrics", MetricsHandler)

	// WebSocket push channel
	if hub != nil && validator != nil {
		router.GET("/ws/notifications", websocket.WebSocketHandler(hub, validator))
	}

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")

	// dev-only token mint, mounted before auth
	if ctl.Auth != nil {
		v1.POST("/auth/token", ctl.Auth.Token)
	}

	authed := v1.Group("")
	authed.Use(auth.AuthMiddleware(validator))
	{
		workorders := authed.Group("/workorders")
		{
			workorders.POST("", ctl.WorkOrders.Create)
			workorders.GET("", ctl.WorkOrders.List)
			workorders.GET("/:id", ctl.WorkOrders.Get)
			workorders.PUT("/:id", auth.RequireManager(), ctl.WorkOrders.Update)
			workorders.DELETE("/:id", auth.RequireManager(), ctl.WorkOrders.Delete)

			workorders.POST("/:id/approve", auth.RequireManager(), ctl.WorkOrders.Approve)
			workorders.POST("/:id/reject", auth.RequireManager(), ctl.WorkOrders.Reject)
			workorders.POST("/:id/cancel", auth.RequireManager(), ctl.WorkOrders.Cancel)
			workorders.POST("/:id/assign", auth.RequireManager(), ctl.WorkOrders.Assign)
			workorders.DELETE("/:id/assign/:user_id", auth.RequireManager(), ctl.WorkOrders.Unassign)
			workorders.GET("/:id/history", ctl.WorkOrders.History)
			workorders.GET("/:id/audit", auth.RequireManager(), ctl.WorkOrders.AuditTrail)

			workorders.POST("/:id/complete",
				auth.RequireRole(model.RoleManager, model.RoleEmployee), ctl.WorkOrders.Complete)

			workorders.POST("/:id/sessions/start",
				auth.RequireRole(model.RoleManager, model.RoleEmployee), ctl.Sessions.Start)
			workorders.POST("/:id/sessions/close",
				auth.RequireRole(model.RoleManager, model.RoleEmployee), ctl.Sessions.Close)
			workorders.POST("/:id/sessions/pause",
				auth.RequireRole(model.RoleManager, model.RoleEmployee), ctl.Sessions.Pause)
			workorders.GET("/:id/entries", ctl.Sessions.ListEntries)

			workorders.POST("/:id/attachments", ctl.Attachments.Upload)
			workorders.GET("/:id/attachments", ctl.Attachments.List)
		}

		entries := authed.Group("/entries")
		{
			// ownership is checked in the service; managers may touch any entry
			entries.PUT("/:entry_id",
				auth.RequireRole(model.RoleManager, model.RoleEmployee), ctl.Sessions.EditEntry)
			entries.DELETE("/:entry_id",
				auth.RequireRole(model.RoleManager, model.RoleEmployee), ctl.Sessions.DeleteEntry)
		}

		authed.GET("/attachments/:attachment_id", ctl.Attachments.Download)

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", ctl.Notifications.List)
			notifications.POST("/:id/read", ctl.Notifications.MarkRead)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "not found", "")
	})

	return router
}
