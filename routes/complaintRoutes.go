package routes

import (
	"github.com/gin-gonic/gin"

	"fixmyarea-be/controllers"
	"fixmyarea-be/middlewares"
)

// ComplaintRoutes sets up the complaint routes. Literal paths are registered
// before /:id.
func ComplaintRoutes(api *gin.RouterGroup, gate *middlewares.Gate, complaints *controllers.ComplaintController, limiter gin.HandlerFunc) {
	group := api.Group("/complaints")
	{
		group.POST("", with(gate.Require(middlewares.OpComplaintsCreate), limiter, complaints.Create)...)
		group.GET("/public", complaints.Public)
		group.GET("/counts", complaints.Counts)
		group.GET("/me", with(gate.Require(middlewares.OpComplaintsMine), complaints.Mine)...)
		group.GET("/assigned", with(gate.Require(middlewares.OpComplaintsAssigned), complaints.Assigned)...)
		group.GET("/analytics/categories", with(gate.Require(middlewares.OpComplaintsAnalytics), complaints.Categories)...)
		group.GET("/by-village", with(gate.Require(middlewares.OpComplaintsByVillage), complaints.ByVillage)...)
		group.GET("/worker-updates/:complaintId", complaints.WorkerUpdates)
		group.GET("/:id", complaints.Get)
		group.PUT("/:id/assign", with(gate.Require(middlewares.OpComplaintsAssign), complaints.Assign)...)
		group.PUT("/:id/status", with(gate.Require(middlewares.OpComplaintsStatus), complaints.UpdateStatus)...)
		group.PUT("/:id/upvote", with(gate.Require(middlewares.OpComplaintsUpvote), complaints.Upvote)...)
	}
}

func with(chain gin.HandlersChain, handlers ...gin.HandlerFunc) gin.HandlersChain {
	out := make(gin.HandlersChain, 0, len(chain)+len(handlers))
	out = append(out, chain...)
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
