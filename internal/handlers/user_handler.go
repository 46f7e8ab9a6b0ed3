package handlers

import (
	"net/http"

	"talky/internal/services"
	"talky/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// UserHandler is the superuser-only account administration API. It is
// dedicated rather than generic because passwords must be hashed and
// roles resolved on the way in.
type UserHandler struct {
	*BaseHandler
	users *services.UserService
}

func NewUserHandler(base *BaseHandler, users *services.UserService) *UserHandler {
	return &UserHandler{BaseHandler: base, users: users}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(0, 0)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users})
}

func (h *UserHandler) Create(c *gin.Context) {
	var input services.CreateUserInput
	if !h.BindAndValidate(c, &input) {
		return
	}
	user, err := h.users.Create(input)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Get(c *gin.Context) {
	id := h.ParamUint(c, "id")
	if id == 0 {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return
	}
	user, err := h.users.GetByID(id)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id := h.ParamUint(c, "id")
	if id == 0 {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return
	}
	var input services.UpdateUserInput
	if !h.BindAndValidate(c, &input) {
		return
	}
	user, err := h.users.Update(id, input)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id := h.ParamUint(c, "id")
	if id == 0 {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return
	}
	if err := h.users.Delete(id); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
