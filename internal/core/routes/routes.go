package routes

import (
	"equipment/internal/core/container"
	"equipment/pkg/security"

	"github.com/gin-gonic/gin"
)

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container, jwtSecret []byte) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware(jwtSecret))

	container.CustodyHandler.RegisterRoutes(protectedRoutes, container.RateLimit)
}

func RegisterUtilityRoutes(router *gin.Engine, container *container.Container) {
	router.GET("/health", container.HealthChecker.Handler())
}
