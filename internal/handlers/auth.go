package handlers

import (
	"log/slog"
	"net/http"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/middleware"
	"github.com/14kear/council-voting/internal/services"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	log         *slog.Logger
	authService *services.Auth
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

func NewAuthHandler(log *slog.Logger, authService *services.Auth) *AuthHandler {
	return &AuthHandler{log: log, authService: authService}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Principal(c))
}
