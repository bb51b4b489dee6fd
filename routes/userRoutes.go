package routes

import (
	"github.com/gin-gonic/gin"

	"fixmyarea-be/controllers"
	"fixmyarea-be/middlewares"
)

func UserRoutes(api *gin.RouterGroup, gate *middlewares.Gate, auth *controllers.AuthController, users *controllers.UserController) {
	group := api.Group("/users")
	{
		group.GET("/me", with(gate.Require(middlewares.OpUsersMe), auth.Me)...)
		group.PUT("/profile", with(gate.Require(middlewares.OpUsersProfile), auth.UpdateProfile)...)
		group.GET("/workers", with(gate.Require(middlewares.OpUsersWorkers), users.Workers)...)
		group.GET("/workers-by-village", with(gate.Require(middlewares.OpUsersWorkersByVillage), users.WorkersByVillage)...)
		group.DELETE("/remove-worker/:id", with(gate.Require(middlewares.OpUsersRemoveWorker), users.RemoveWorker)...)
	}
}
