package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/middlewares"
	"fixmyarea-be/models"
)

const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondError writes the error body. Server-side failures are logged with
// their cause; clients only see the message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	appErr := apperrors.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error(appErr.Message,
			zap.String("path", c.Request.URL.Path),
			zap.String("requestId", c.GetString("requestId")),
			zap.Error(err))
	}
	_ = c.Error(err)

	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.HTTPStatus, body)
}

// identity returns the caller set by the authentication gate. Handlers behind
// the gate always have one.
func identity(c *gin.Context) (models.Identity, bool) {
	id := middlewares.IdentityFrom(c)
	if id == nil {
		return models.Identity{}, false
	}
	return *id, true
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validation("Invalid request body", map[string]string{"body": err.Error()})
	}
	return nil
}
