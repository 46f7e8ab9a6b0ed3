package handlers

import (
	"strconv"

	"talky/internal/validator"
	"talky/pkg/apperrors"
	"talky/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BaseHandler carries the pieces every handler needs.
type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{validator: validator.New()}
}

// GetDB pulls the request-scoped gorm handle injected by middleware.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	if db, ok := c.Request.Context().Value(contextkeys.DBContextKey).(*gorm.DB); ok {
		return db
	}
	return nil
}

// BindAndValidate binds the JSON body and runs struct validation,
// writing the error response itself on failure.
func (h *BaseHandler) BindAndValidate(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body"))
		return false
	}
	if err := h.validator.Validate(dst); err != nil {
		var vErr *validator.ValidationError
		if apperrors.As(err, &vErr) {
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// ParamUint parses a numeric path parameter. The zero return doubles
// as the failure marker since no entity uses id 0.
func (h *BaseHandler) ParamUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
