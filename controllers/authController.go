package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/services"
)

type AuthController struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthController(auth *services.AuthService, log *zap.Logger) *AuthController {
	return &AuthController{auth: auth, log: log}
}

// Register handles POST /api/auth/register
func (h *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.auth.Register(ctx, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"msg":  "User registered successfully",
		"user": user,
	})
}

// Login handles POST /api/auth/login
func (h *AuthController) Login(c *gin.Context) {
	var input services.LoginInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.auth.Login(ctx, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Me handles GET /api/users/me
func (h *AuthController) Me(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.auth.Profile(ctx, caller)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile
func (h *AuthController) UpdateProfile(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		respondError(c, h.log, apperrors.Unauthenticated("User not authenticated"))
		return
	}

	var input services.ProfileInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.auth.UpdateProfile(ctx, caller, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
