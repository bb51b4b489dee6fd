package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/services"
)

const removalKeyHeader = "x-removal-key"

type UserController struct {
	users *services.UserService
	log   *zap.Logger
}

func NewUserController(users *services.UserService, log *zap.Logger) *UserController {
	return &UserController{users: users, log: log}
}

// Workers handles GET /api/users/workers
func (h *UserController) Workers(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	workers, err := h.users.ListWorkers(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, workers)
}

// WorkersByVillage handles GET /api/users/workers-by-village
func (h *UserController) WorkersByVillage(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	groups, err := h.users.WorkersByVillage(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// RemoveWorker handles DELETE /api/users/remove-worker/:id. The removal key
// comes from the JSON body or the x-removal-key header.
func (h *UserController) RemoveWorker(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	key := c.GetHeader(removalKeyHeader)
	if key == "" && c.Request.ContentLength != 0 {
		var input struct {
			RemovalKey string `json:"removalKey"`
		}
		if err := bindJSON(c, &input); err != nil {
			respondError(c, h.log, err)
			return
		}
		key = input.RemovalKey
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.users.RemoveWorker(ctx, caller, c.Param("id"), key)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"msg":                "Worker removed successfully",
		"workerId":           result.WorkerID,
		"releasedComplaints": result.ReleasedComplaints,
	})
}
