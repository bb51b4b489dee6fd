package routes

import (
	"github.com/gin-gonic/gin"

	"fixmyarea-be/controllers"
	"fixmyarea-be/middlewares"
)

// AuthRoutes sets up the registration and login routes
func AuthRoutes(api *gin.RouterGroup, auth *controllers.AuthController, throttle *middlewares.LoginThrottle) {
	group := api.Group("/auth")
	{
		group.POST("/register", auth.Register)
		group.POST("/login", throttle.Handler(), auth.Login)
	}
}
