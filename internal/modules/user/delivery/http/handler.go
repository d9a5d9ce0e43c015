package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userDto "github.com/haleyhq/pulseboard/internal/modules/user/dto"
	userService "github.com/haleyhq/pulseboard/internal/modules/user/service"
	"github.com/haleyhq/pulseboard/pkg/response"
	"github.com/haleyhq/pulseboard/pkg/validator"
)

type AuthHandler struct {
	service userService.AuthService
}

func NewAuthHandler(service userService.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req userDto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
