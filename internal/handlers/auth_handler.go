package handlers

import (
	"net/http"

	"talky/internal/middleware"
	"talky/internal/services"
	"talky/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	auth *services.AuthService
}

func NewAuthHandler(base *BaseHandler, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, auth: auth}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login/", h.Login)
	r.POST("/logout/", h.Logout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Login issues the session token both as a JSON field (API clients)
// and as a cookie (browser clients on the public pages).
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	token, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.SetCookie(middleware.SessionCookie, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
