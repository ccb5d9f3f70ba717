package handlers

import (
	"log/slog"
	"net/http"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/middleware"
	"github.com/14kear/council-voting/internal/services"
	"github.com/gin-gonic/gin"
)

type UsersHandler struct {
	log          *slog.Logger
	usersService *services.Users
}

type UserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r UserRequest) input() services.UserInput {
	return services.UserInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     entity.Role(r.Role),
	}
}

func NewUsersHandler(log *slog.Logger, usersService *services.Users) *UsersHandler {
	return &UsersHandler{log: log, usersService: usersService}
}

func (h *UsersHandler) GetUsers(c *gin.Context) {
	users, err := h.usersService.ListUsers(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UsersHandler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}

	user, err := h.usersService.CreateUser(c.Request.Context(), middleware.Principal(c), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UsersHandler) UpdateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}

	user, err := h.usersService.UpdateUser(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UsersHandler) DeleteUser(c *gin.Context) {
	if err := h.usersService.DeleteUser(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
