package routes

import (
	"github.com/gin-gonic/gin"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/edgevision-ai/provision-backend/pkg/api/handlers"
	"github.com/edgevision-ai/provision-backend/pkg/api/servers"

	swaggerFiles "github.com/swaggo/files"
)

func SetupRoutes(server *servers.Server) {
	apiV1 := server.Router.Group("/api/v1")
	setupV1Routes(apiV1, server)

	server.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func setupV1Routes(router *gin.RouterGroup, server *servers.Server) {
	// Health routes
	setupHealthRoutes(router.Group("/health"))

	// Deployment routes
	setupDeploymentRoutes(router.Group("/deployments"), server)
}

func setupHealthRoutes(router *gin.RouterGroup) {
	handler := handlers.NewHealthHandler()
	router.GET("", handler.GetHealth)
}

func setupDeploymentRoutes(router *gin.RouterGroup, server *servers.Server) {
	handler := handlers.NewDeploymentHandler(server)
	router.POST("", handler.Start)
	router.POST("/:id/resume", handler.Resume)
	router.POST("/pause", handler.Pause)
	router.POST("/cancel", handler.Cancel)
	router.GET("/current", handler.GetCurrent)
	router.GET("/existing", handler.CheckExisting)
	router.GET("/events", handler.Events)
}
